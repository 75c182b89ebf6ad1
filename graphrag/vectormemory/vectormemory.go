// Package vectormemory defines the VectorMemory contract (C2): a namespaced
// embedding store used for node-identity dedup, orphan-repair candidate
// search, and any future semantic lookup the engine needs (spec.md §4.3).
package vectormemory

import (
	"context"
	"errors"
)

// ErrBackendFailure wraps any VectorMemory call failure.
var ErrBackendFailure = errors.New("vectormemory: backend call failed")

// Match is one ranked result from [Memory.Search].
type Match struct {
	// ID identifies the stored item. For node-identity search this is a
	// model.Node.ID.
	ID string

	// Text is the stored payload text, as given to Save.
	Text string

	// Relevance is a similarity score in [0, 1], higher is more similar.
	// Implementations derived from a distance metric (e.g. cosine distance)
	// must convert it to a similarity score before returning.
	Relevance float64
}

// Memory is the VectorMemory contract. Every namespace is a closed universe:
// Search never returns matches saved under a different namespace.
//
// Implementations must be safe for concurrent use.
type Memory interface {
	// Save embeds text and upserts it under id within namespace. Calling Save
	// again with the same (namespace, id) replaces the prior entry.
	Save(ctx context.Context, namespace, id, text string) error

	// Search returns up to limit matches in namespace whose embeddings are
	// most similar to text's embedding, ordered by descending Relevance.
	// Matches with Relevance below minRelevance are omitted.
	Search(ctx context.Context, namespace, text string, limit int, minRelevance float64) ([]Match, error)

	// Remove deletes the entry stored under id within namespace, if any. It
	// is not an error to remove a nonexistent id.
	Remove(ctx context.Context, namespace, id string) error

	// DeleteNamespace deletes every entry stored under namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
}
