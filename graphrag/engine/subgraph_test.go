package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// seedLineGraph seeds a chain of n nodes (ids "n0".."n{n-1}") connected by
// edges n0-n1-n2-...-n{n-1}, all within index.
func seedLineGraph(repo interface {
	SeedNode(model.Node)
	SeedEdge(model.Edge)
}, index string, n int) {
	for i := 0; i < n; i++ {
		repo.SeedNode(model.Node{Index: index, ID: fmt.Sprintf("n%d", i), Name: fmt.Sprintf("Node%d", i), Type: "thing", Desc: "d"})
	}
	for i := 0; i < n-1; i++ {
		repo.SeedEdge(model.Edge{ID: fmt.Sprintf("e%d", i), Index: index, Source: fmt.Sprintf("n%d", i), Target: fmt.Sprintf("n%d", i+1), Relationship: "next"})
	}
}

// Scenario 5: subgraph bound. With MaxNodes=10, NodeDepth=3, a 50-node chain
// expanded from a 3-node seed yields |nodes| <= 10 with every edge endpoint
// present in the returned node set.
func TestBuildRecursiveSubgraph_RespectsBounds(t *testing.T) {
	h := newHarness(engine.Params{MaxNodes: 10, NodeDepth: 3})
	ctx := context.Background()

	seedLineGraph(h.repo, "A", 50)

	allNodes, err := h.repo.GetNodesByIndex(ctx, "A")
	require.NoError(t, err)
	byID := make(map[string]model.Node, len(allNodes))
	for _, n := range allNodes {
		byID[n.ID] = n
	}
	seed := []model.Node{byID["n0"], byID["n1"], byID["n2"]}
	weights := map[string]float64{"n0": 1.0, "n1": 0.9, "n2": 0.8}

	sg, err := h.eng.BuildRecursiveSubgraph(ctx, "A", seed, weights)
	require.NoError(t, err)

	require.LessOrEqual(t, len(sg.Nodes), 10)

	present := make(map[string]bool, len(sg.Nodes))
	for _, n := range sg.Nodes {
		present[n.ID] = true
	}
	for _, e := range sg.Edges {
		require.True(t, present[e.Source], "edge source %q must be in the returned node set", e.Source)
		require.True(t, present[e.Target], "edge target %q must be in the returned node set", e.Target)
	}
}

// BuildRecursiveSubgraph terminates immediately when no new nodes are found
// (a fully isolated seed set).
func TestBuildRecursiveSubgraph_NoEdgesTerminatesAtSeed(t *testing.T) {
	h := newHarness(engine.Params{MaxNodes: 10, NodeDepth: 3})
	ctx := context.Background()

	h.repo.SeedNode(model.Node{Index: "A", ID: "solo", Name: "Solo", Type: "t", Desc: "d"})
	solo, err := h.repo.GetNodesByIds(ctx, []string{"solo"})
	require.NoError(t, err)

	sg, err := h.eng.BuildRecursiveSubgraph(ctx, "A", solo, map[string]float64{"solo": 1.0})
	require.NoError(t, err)
	require.Len(t, sg.Nodes, 1)
	require.Empty(t, sg.Edges)
}
