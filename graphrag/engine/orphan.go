package engine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/observe"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
)

// attemptConnectOrphan implements spec.md §4.6.2: searches vector memory
// for nodes related to orphan by description and, if too few are found, by
// name, then inserts up to 2 inferred edges.
func (e *GraphEngine) attemptConnectOrphan(ctx context.Context, index string, orphan model.Node) error {
	descText := orphan.VectorText()
	matches, err := e.vec.Search(ctx, index, descText, 10, 0.5)
	if err != nil {
		return fmt.Errorf("vector search by desc: %w", err)
	}
	candidates := excludeID(matches, orphan.ID)

	if len(candidates) < 3 {
		nameMatches, err := e.vec.Search(ctx, index, orphan.Name, 5, 0.6)
		if err != nil {
			return fmt.Errorf("vector search by name: %w", err)
		}
		candidates = append(candidates, excludeID(nameMatches, orphan.ID)...)
	}

	ids := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		ids = append(ids, c.ID)
		if len(ids) == 10 {
			break
		}
	}

	nodes, err := e.repo.GetNodesByIds(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve candidates: %w", err)
	}
	if len(nodes) > 5 {
		nodes = nodes[:5]
	}

	inserted := 0
	for _, candidate := range nodes {
		if inserted >= 2 {
			break
		}
		inference, err := e.sem.InferRelation(ctx, candidate.VectorText(), descText)
		if err != nil {
			slog.Warn("infer relation failed during orphan repair", "index", index, "orphan", orphan.ID, "error", err)
			continue
		}
		if !inference.Related {
			continue
		}
		source, target := candidate.ID, orphan.ID
		if inference.SourceLabel == semantic.RelationSourceNode2 {
			source, target = orphan.ID, candidate.ID
		}
		existingEdge, err := e.repo.FindEdgeBetween(ctx, index, source, target)
		if err != nil {
			return fmt.Errorf("find edge between: %w", err)
		}
		if existingEdge != nil {
			continue
		}
		if err := e.createEdgeTolerant(ctx, index, source, target, inference.Relationship); err != nil {
			return fmt.Errorf("create edge: %w", err)
		}
		inserted++
	}
	if inserted > 0 {
		observe.DefaultMetrics().OrphansRepaired.Add(ctx, 1, metric.WithAttributes(observe.Attr("index", index)))
	}
	return nil
}

func excludeID(matches []vectormemory.Match, id string) []vectormemory.Match {
	out := make([]vectormemory.Match, 0, len(matches))
	for _, m := range matches {
		if m.ID == id {
			continue
		}
		out = append(out, m)
	}
	return out
}
