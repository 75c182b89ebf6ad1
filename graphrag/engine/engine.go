// Package engine implements the GraphEngine orchestration (C6): the
// pipeline that turns raw text into graph data, repairs orphan nodes,
// detects communities, and answers queries over a query-relevant subgraph.
//
// It composes three contracts — semantic.Client, vectormemory.Memory, and
// storage.Repository — plus the standalone chunker and community packages,
// without depending on any concrete adapter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/chunker"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
)

// ErrInputValidation is returned when a caller-supplied index, text, or
// query is empty (spec.md §7 InputValidation).
var ErrInputValidation = errors.New("engine: invalid input")

// Params controls query-time retrieval and subgraph expansion (spec.md
// §4.6.3-4.6.5, §6's GraphSearch configuration block).
type Params struct {
	SearchLimit        int
	SearchMinRelevance float64
	NodeDepth          int
	MaxNodes           int
	MaxTokens          int
}

// DefaultParams returns the engine defaults applied to zero-value Params
// fields.
func DefaultParams() Params {
	return Params{
		SearchLimit:        5,
		SearchMinRelevance: 0.5,
		NodeDepth:          3,
		MaxNodes:           20,
		MaxTokens:          4000,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.SearchLimit <= 0 {
		p.SearchLimit = d.SearchLimit
	}
	if p.SearchMinRelevance <= 0 {
		p.SearchMinRelevance = d.SearchMinRelevance
	}
	if p.NodeDepth <= 0 {
		p.NodeDepth = d.NodeDepth
	}
	if p.MaxNodes <= 0 {
		p.MaxNodes = d.MaxNodes
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = d.MaxTokens
	}
	return p
}

// GraphEngine is the C6 orchestrator. It is safe for concurrent use: ingest
// is serialized per index (see lockIndex), and every other operation only
// reads or atomically upserts through its collaborators.
type GraphEngine struct {
	repo    storage.Repository
	vec     vectormemory.Memory
	sem     semantic.Client
	chunker *chunker.Chunker
	params  Params

	extractConcurrency int

	indexLocksMu sync.Mutex
	indexLocks   map[string]*sync.Mutex
}

// Option configures optional GraphEngine behavior.
type Option func(*GraphEngine)

// WithExtractConcurrency bounds how many chunks InsertChunked extracts
// concurrently. Default: 4.
func WithExtractConcurrency(n int) Option {
	return func(e *GraphEngine) {
		if n > 0 {
			e.extractConcurrency = n
		}
	}
}

// New builds a GraphEngine from its three collaborator contracts, a
// Chunker, and query-time Params.
func New(repo storage.Repository, vec vectormemory.Memory, sem semantic.Client, c *chunker.Chunker, params Params, opts ...Option) *GraphEngine {
	e := &GraphEngine{
		repo:               repo,
		vec:                vec,
		sem:                sem,
		chunker:            c,
		params:             params.withDefaults(),
		extractConcurrency: 4,
		indexLocks:         make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// lockIndex serializes ingest per index (spec.md §5's acknowledged
// concurrency hazard, resolved per §9's per-index-serialization guidance).
// It returns an unlock function the caller must defer.
func (e *GraphEngine) lockIndex(index string) func() {
	e.indexLocksMu.Lock()
	m, ok := e.indexLocks[index]
	if !ok {
		m = &sync.Mutex{}
		e.indexLocks[index] = m
	}
	e.indexLocksMu.Unlock()

	m.Lock()
	return m.Unlock
}

// Subgraph is a query-relevant slice of the knowledge graph: a node set and
// the edges among them.
type Subgraph struct {
	Nodes []model.Node
	Edges []model.Edge
}

func validateNonEmpty(fields ...string) error {
	for _, f := range fields {
		if f == "" {
			return fmt.Errorf("%w: required field is empty", ErrInputValidation)
		}
	}
	return nil
}
