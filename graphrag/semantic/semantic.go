// Package semantic defines the SemanticClient contract (C3): the language
// model capabilities the GraphRAG engine needs — structured graph
// extraction, description/relationship merging, relation inference between
// two node descriptions, hierarchical summarization, and question answering
// over an assembled subgraph (spec.md §4.2).
package semantic

import (
	"context"
	"errors"
)

// ErrSemanticFailure wraps any SemanticClient call failure, matching
// spec.md §7's SemanticFailure error kind.
var ErrSemanticFailure = errors.New("semantic: call failed")

// ExtractedNode is one entity extracted from a chunk of text. LocalID is
// only meaningful within the ExtractGraph call that produced it.
type ExtractedNode struct {
	LocalID string
	Name    string
	Type    string
	Desc    string
}

// ExtractedEdge is one relation extracted from a chunk of text, referencing
// two ExtractedNode.LocalID values from the same ExtractGraph call.
type ExtractedEdge struct {
	SourceLocalID string
	TargetLocalID string
	Relationship  string
}

// ExtractedGraph is the structured result of a single ExtractGraph call.
type ExtractedGraph struct {
	Nodes []ExtractedNode
	Edges []ExtractedEdge
}

// RelationSourceLabel selects which of the two descriptions passed to
// InferRelation is the edge's source.
type RelationSourceLabel string

const (
	// RelationSourceNode1 means the first description argument is the edge
	// source.
	RelationSourceNode1 RelationSourceLabel = "node1"

	// RelationSourceNode2 means the second description argument is the edge
	// source.
	RelationSourceNode2 RelationSourceLabel = "node2"
)

// RelationInference is the result of asking whether two node descriptions
// are related and, if so, how they should be connected.
type RelationInference struct {
	Related      bool
	SourceLabel  RelationSourceLabel
	Relationship string
}

// AnswerFragment is one piece of a streaming answer.
type AnswerFragment struct {
	Text string
	Err  error
}

// Client is the SemanticClient contract (C3). Every method may suspend on
// the underlying language model call; implementations must propagate ctx
// cancellation promptly (spec.md §5).
//
// Any failure is wrapped in [ErrSemanticFailure] and reported to the caller.
// graphrag/engine treats per-chunk ExtractGraph failures as recoverable
// (log and skip the chunk) and per-record failures inside a chunk as fatal
// to that chunk only (spec.md §4.2).
type Client interface {
	// ExtractGraph performs structured extraction of entities and relations
	// from text. LocalIDs in the result are only meaningful for endpoint
	// resolution within the same call.
	ExtractGraph(ctx context.Context, text string) (ExtractedGraph, error)

	// MergeDesc synthesizes a merged description from a and b. An empty
	// result (with a nil error) tells the caller to fall back to
	// `a + "; " + b` (spec.md §4.2).
	MergeDesc(ctx context.Context, a, b string) (string, error)

	// InferRelation decides whether descA and descB describe related
	// entities and, if so, proposes a relationship label and orientation.
	InferRelation(ctx context.Context, descA, descB string) (RelationInference, error)

	// SummarizeCommunity synthesizes a summary from the concatenated
	// descriptions of a community's member nodes.
	SummarizeCommunity(ctx context.Context, memberDescriptions string) (string, error)

	// SummarizeGlobal synthesizes a single summary from the concatenated
	// community summaries of an index.
	SummarizeGlobal(ctx context.Context, communitySummaries string) (string, error)

	// Answer produces a natural-language answer to question given
	// subgraphJSON, the JSON-rendered query-relevant subgraph.
	Answer(ctx context.Context, subgraphJSON, question string) (string, error)

	// AnswerStream is the streaming variant of Answer. The returned channel
	// is closed when generation finishes or ctx is cancelled; a non-nil
	// AnswerFragment.Err is always the final value sent before closing.
	AnswerStream(ctx context.Context, subgraphJSON, question string) (<-chan AnswerFragment, error)
}
