package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
)

func TestRetrieveTextMemModelList_SortedByDescendingRelevance(t *testing.T) {
	h := newHarness(engine.Params{SearchLimit: 5, SearchMinRelevance: 0.5})
	ctx := context.Background()

	h.vec.SearchFunc = func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
		return []vectormemory.Match{
			{ID: "a", Relevance: 0.6},
			{ID: "b", Relevance: 0.9},
			{ID: "c", Relevance: 0.75},
		}, nil
	}

	hits, err := h.eng.RetrieveTextMemModelList(ctx, "A", "query")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	require.Equal(t, []string{"b", "c", "a"}, []string{hits[0].ID, hits[1].ID, hits[2].ID})
}

// Fewer than 2 hits and threshold > 0.3 triggers one relaxed retry, merged
// by id with first-seen winning (spec.md §4.6.3 step 2).
func TestRetrieveTextMemModelList_RelaxesOnFewHits(t *testing.T) {
	h := newHarness(engine.Params{SearchLimit: 5, SearchMinRelevance: 0.8})
	ctx := context.Background()

	calls := 0
	h.vec.SearchFunc = func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
		calls++
		if minRelevance >= 0.8 {
			return []vectormemory.Match{{ID: "a", Relevance: 0.85}}, nil
		}
		require.InDelta(t, 0.6, minRelevance, 0.001)
		require.Equal(t, 7, limit)
		return []vectormemory.Match{
			{ID: "a", Relevance: 0.85},
			{ID: "b", Relevance: 0.65},
		}, nil
	}

	hits, err := h.eng.RetrieveTextMemModelList(ctx, "A", "query")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, hits, 2)
}

// The relaxed floor never drops below 0.3.
func TestRetrieveTextMemModelList_RelaxedFloorIsPoint3(t *testing.T) {
	h := newHarness(engine.Params{SearchLimit: 5, SearchMinRelevance: 0.35})
	ctx := context.Background()

	h.vec.SearchFunc = func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
		if minRelevance >= 0.35 {
			return nil, nil
		}
		require.InDelta(t, 0.3, minRelevance, 0.001)
		return []vectormemory.Match{{ID: "a", Relevance: 0.31}}, nil
	}

	hits, err := h.eng.RetrieveTextMemModelList(ctx, "A", "query")
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
