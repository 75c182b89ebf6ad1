// Package memory provides an in-process VectorMemory implementation backed
// by brute-force cosine similarity. It has no external dependencies and is
// intended for local development, tests, and small corpora where a pgvector
// backend is not configured (spec.md §6, vector.connection unset).
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings"
)

type entry struct {
	text      string
	embedding []float32
}

// Memory is an in-memory [vectormemory.Memory]. Zero value is not usable;
// construct with [New].
type Memory struct {
	embedder embeddings.Provider

	mu    sync.RWMutex
	store map[string]map[string]entry // namespace -> id -> entry
}

var _ vectormemory.Memory = (*Memory)(nil)

// New returns a [Memory] that embeds text using embedder.
func New(embedder embeddings.Provider) *Memory {
	return &Memory{
		embedder: embedder,
		store:    make(map[string]map[string]entry),
	}
}

// Save implements [vectormemory.Memory].
func (m *Memory) Save(ctx context.Context, namespace, id, text string) error {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return wrapErr("save", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.store[namespace]
	if !ok {
		ns = make(map[string]entry)
		m.store[namespace] = ns
	}
	ns[id] = entry{text: text, embedding: vec}
	return nil
}

// Search implements [vectormemory.Memory].
func (m *Memory) Search(ctx context.Context, namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
	queryVec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, wrapErr("search", err)
	}

	m.mu.RLock()
	ns := m.store[namespace]
	matches := make([]vectormemory.Match, 0, len(ns))
	for id, e := range ns {
		rel := cosineSimilarity(queryVec, e.embedding)
		if rel < minRelevance {
			continue
		}
		matches = append(matches, vectormemory.Match{ID: id, Text: e.text, Relevance: rel})
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}
		return matches[i].ID < matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Remove implements [vectormemory.Memory].
func (m *Memory) Remove(ctx context.Context, namespace, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ns, ok := m.store[namespace]; ok {
		delete(ns, id)
	}
	return nil
}

// DeleteNamespace implements [vectormemory.Memory].
func (m *Memory) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, namespace)
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("vectormemory/memory: %s: %w: %v", op, vectormemory.ErrBackendFailure, err)
}
