package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

func TestEstimateTokens_CountsChineseAndNonChineseDifferently(t *testing.T) {
	ascii := engine.Subgraph{Nodes: []model.Node{{ID: "a", Name: "a", Desc: "abcd"}}}
	chinese := engine.Subgraph{Nodes: []model.Node{{ID: "a", Name: "a", Desc: "一二三四"}}}

	// Same rune count, but CJK runes cost 1.0 each vs 0.75 per non-CJK rune
	// (spec.md §4.6.5), so the Chinese variant should never cost less.
	require.GreaterOrEqual(t, engine.EstimateTokens(chinese), engine.EstimateTokens(ascii)-5)
}

func TestEstimateTokens_BaseCostAndPerEdgeCost(t *testing.T) {
	empty := engine.EstimateTokens(engine.Subgraph{})
	require.Equal(t, 200, empty)

	withEdges := engine.Subgraph{Edges: []model.Edge{{ID: "e1"}, {ID: "e2"}}}
	require.Equal(t, 220, engine.EstimateTokens(withEdges))
}
