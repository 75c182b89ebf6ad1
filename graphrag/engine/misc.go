package engine

import (
	"context"
	"fmt"
)

// ListIndices implements spec.md §6's listIndices: every distinct index
// currently holding at least one node.
func (e *GraphEngine) ListIndices(ctx context.Context) ([]string, error) {
	indices, err := e.repo.ListIndices(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: list indices: %w", err)
	}
	return indices, nil
}

// GetGraph implements spec.md §6's getGraph: the full node/edge set for
// index, for visualization.
func (e *GraphEngine) GetGraph(ctx context.Context, index string) (Subgraph, error) {
	if err := validateNonEmpty(index); err != nil {
		return Subgraph{}, err
	}

	nodes, err := e.repo.GetNodesByIndex(ctx, index)
	if err != nil {
		return Subgraph{}, fmt.Errorf("engine: get graph: load nodes: %w", err)
	}
	edges, err := e.repo.GetEdgesByIndex(ctx, index)
	if err != nil {
		return Subgraph{}, fmt.Errorf("engine: get graph: load edges: %w", err)
	}
	return Subgraph{Nodes: nodes, Edges: edges}, nil
}

// DeleteIndex implements spec.md §4.6.9: removes every vector entry for
// index's nodes, then bulk-deletes the index's relational/graph state.
func (e *GraphEngine) DeleteIndex(ctx context.Context, index string) error {
	if err := validateNonEmpty(index); err != nil {
		return err
	}

	unlock := e.lockIndex(index)
	defer unlock()

	nodes, err := e.repo.GetNodesByIndex(ctx, index)
	if err != nil {
		return fmt.Errorf("engine: delete index: load nodes: %w", err)
	}
	for _, n := range nodes {
		if err := e.vec.Remove(ctx, index, n.ID); err != nil {
			return fmt.Errorf("engine: delete index: remove vector entry %q: %w", n.ID, err)
		}
	}
	if err := e.vec.DeleteNamespace(ctx, index); err != nil {
		return fmt.Errorf("engine: delete index: delete vector namespace: %w", err)
	}
	if err := e.repo.DeleteIndex(ctx, index); err != nil {
		return fmt.Errorf("engine: delete index: %w", err)
	}
	return nil
}
