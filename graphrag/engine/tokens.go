package engine

import (
	"sort"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// EstimateTokens implements spec.md §4.6.5's heuristic token estimator: a
// CJK-aware proxy for the cost of rendering graph as subgraphJson, not a
// real tokenizer.
func EstimateTokens(sg Subgraph) int {
	total := 200
	for _, n := range sg.Nodes {
		total += nodeTokenCost(n)
	}
	total += 10 * len(sg.Edges)
	return total
}

func nodeTokenCost(n model.Node) int {
	chinese, nonChinese := countRunesByScript(n.Desc)
	return chinese + (nonChinese*3)/4 + len(n.ID)/3 + len(n.Name)/3 + 15
}

func countRunesByScript(s string) (chinese, nonChinese int) {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			chinese++
		} else {
			nonChinese++
		}
	}
	return chinese, nonChinese
}

// truncateToBudget implements spec.md §4.6.5: greedily keeps nodes by
// descending weight while the running budget stays under 0.9*maxTokens
// (starting at 200), then drops edges with a dropped endpoint.
func truncateToBudget(sg Subgraph, weights map[string]float64, maxTokens int) Subgraph {
	if EstimateTokens(sg) <= maxTokens {
		return sg
	}

	ceiling := int(0.9 * float64(maxTokens))
	ordered := topByWeight(sg.Nodes, weights, len(sg.Nodes))

	kept := make([]model.Node, 0, len(ordered))
	budget := 200
	for _, n := range ordered {
		cost := nodeTokenCost(n)
		if len(kept) > 0 && budget+cost > ceiling {
			break
		}
		kept = append(kept, n)
		budget += cost
	}

	keptIDs := make(map[string]bool, len(kept))
	for _, n := range kept {
		keptIDs[n.ID] = true
	}
	edges := make([]model.Edge, 0, len(sg.Edges))
	for _, ed := range sg.Edges {
		if keptIDs[ed.Source] && keptIDs[ed.Target] {
			edges = append(edges, ed)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return Subgraph{Nodes: kept, Edges: edges}
}
