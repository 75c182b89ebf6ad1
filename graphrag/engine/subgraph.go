package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// BuildRecursiveSubgraph implements spec.md §4.6.4: a bounded BFS from seed
// that, at each step, expands only the top-5 weighted frontier nodes, until
// depth or node-count limits are reached or no new nodes are found.
// Unweighted newly-discovered nodes are assigned 0.8x the current maximum
// weight. If the result exceeds MaxNodes, it is trimmed to the top-weighted
// MaxNodes nodes and dangling edges are dropped.
func (e *GraphEngine) BuildRecursiveSubgraph(ctx context.Context, index string, seed []model.Node, weights map[string]float64) (Subgraph, error) {
	weights = cloneWeights(weights)

	nodeByID := make(map[string]model.Node, len(seed))
	nodes := make([]model.Node, 0, len(seed))
	for _, n := range seed {
		if _, ok := nodeByID[n.ID]; ok {
			continue
		}
		nodeByID[n.ID] = n
		nodes = append(nodes, n)
	}
	frontier := append([]model.Node(nil), nodes...)

	edgeByKey := make(map[[2]string]model.Edge)
	depth := 0

	for depth < e.params.NodeDepth && len(nodeByID) < e.params.MaxNodes {
		top := topByWeight(frontier, weights, 5)
		if len(top) == 0 {
			break
		}

		candidateIDs := make([]string, 0, len(nodeByID)+len(top))
		seenCandidate := make(map[string]bool, len(nodeByID)+len(top))
		for id := range nodeByID {
			seenCandidate[id] = true
			candidateIDs = append(candidateIDs, id)
		}
		for _, n := range top {
			if seenCandidate[n.ID] {
				continue
			}
			seenCandidate[n.ID] = true
			candidateIDs = append(candidateIDs, n.ID)
		}

		newEdges, err := e.repo.GetEdgesByNodeIds(ctx, index, candidateIDs)
		if err != nil {
			return Subgraph{}, fmt.Errorf("engine: build subgraph: load edges: %w", err)
		}
		for _, ed := range newEdges {
			key := ed.UnorderedKey()
			if _, ok := edgeByKey[key]; ok {
				continue
			}
			edgeByKey[key] = ed
		}

		newNodeIDs := make([]string, 0)
		seenNew := make(map[string]bool)
		for _, ed := range newEdges {
			for _, id := range [2]string{ed.Source, ed.Target} {
				if _, ok := nodeByID[id]; ok {
					continue
				}
				if seenNew[id] {
					continue
				}
				seenNew[id] = true
				newNodeIDs = append(newNodeIDs, id)
			}
		}
		if len(newNodeIDs) == 0 {
			break
		}

		newNodes, err := e.repo.GetNodesByIds(ctx, newNodeIDs)
		if err != nil {
			return Subgraph{}, fmt.Errorf("engine: build subgraph: load new nodes: %w", err)
		}

		maxWeight := 0.0
		for _, w := range weights {
			if w > maxWeight {
				maxWeight = w
			}
		}

		frontier = frontier[:0]
		for _, n := range newNodes {
			if _, ok := weights[n.ID]; !ok {
				weights[n.ID] = 0.8 * maxWeight
			}
			nodeByID[n.ID] = n
			nodes = append(nodes, n)
			frontier = append(frontier, n)
		}
		depth++
	}

	if len(nodes) > e.params.MaxNodes {
		nodes = topByWeight(nodes, weights, e.params.MaxNodes)
		kept := make(map[string]bool, len(nodes))
		for _, n := range nodes {
			kept[n.ID] = true
		}
		edges := make([]model.Edge, 0, len(edgeByKey))
		for _, ed := range edgeByKey {
			if kept[ed.Source] && kept[ed.Target] {
				edges = append(edges, ed)
			}
		}
		return sortedSubgraph(nodes, edges), nil
	}

	edges := make([]model.Edge, 0, len(edgeByKey))
	for _, ed := range edgeByKey {
		edges = append(edges, ed)
	}
	return sortedSubgraph(nodes, edges), nil
}

func topByWeight(nodes []model.Node, weights map[string]float64, n int) []model.Node {
	sorted := append([]model.Node(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := weights[sorted[i].ID], weights[sorted[j].ID]
		if wi != wj {
			return wi > wj
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func cloneWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// sortedSubgraph returns nodes and edges sorted by id so that repeated
// calls over the same underlying data produce byte-identical output.
func sortedSubgraph(nodes []model.Node, edges []model.Edge) Subgraph {
	nodes = append([]model.Node(nil), nodes...)
	edges = append([]model.Edge(nil), edges...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return Subgraph{Nodes: nodes, Edges: edges}
}
