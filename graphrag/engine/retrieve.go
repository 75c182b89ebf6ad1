package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
)

// RetrieveTextMemModelList implements spec.md §4.6.3: a vector search over
// query, relaxed once if it returns fewer than 2 hits and the configured
// threshold allows relaxation, sorted by descending relevance.
func (e *GraphEngine) RetrieveTextMemModelList(ctx context.Context, index, query string) ([]vectormemory.Match, error) {
	if err := validateNonEmpty(index, query); err != nil {
		return nil, err
	}

	hits, err := e.vec.Search(ctx, index, query, e.params.SearchLimit, e.params.SearchMinRelevance)
	if err != nil {
		return nil, fmt.Errorf("engine: retrieve: search: %w", err)
	}

	if len(hits) < 2 && e.params.SearchMinRelevance > 0.3 {
		relaxed := e.params.SearchMinRelevance - 0.2
		if relaxed < 0.3 {
			relaxed = 0.3
		}
		more, err := e.vec.Search(ctx, index, query, e.params.SearchLimit+2, relaxed)
		if err != nil {
			return nil, fmt.Errorf("engine: retrieve: relaxed search: %w", err)
		}
		hits = mergeMatchesFirstSeenWins(hits, more)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Relevance > hits[j].Relevance })
	return hits, nil
}

func mergeMatchesFirstSeenWins(primary, secondary []vectormemory.Match) []vectormemory.Match {
	seen := make(map[string]bool, len(primary)+len(secondary))
	merged := make([]vectormemory.Match, 0, len(primary)+len(secondary))
	for _, m := range primary {
		seen[m.ID] = true
		merged = append(merged, m)
	}
	for _, m := range secondary {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		merged = append(merged, m)
	}
	return merged
}
