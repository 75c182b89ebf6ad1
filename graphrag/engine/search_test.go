package engine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
)

type subgraphPayload struct {
	Nodes              []model.Node `json:"nodes"`
	Edges              []model.Edge `json:"edges"`
	CommunitySummaries []string     `json:"communitySummaries,omitempty"`
	GlobalSummary      string       `json:"globalSummary,omitempty"`
}

// Scenario 6: truncation. A returned subgraph whose raw estimate is ~2x
// MaxTokens is truncated so EstimateTokens <= 0.9*MaxTokens, keeping the
// top-weighted nodes.
func TestSearchGraph_TruncatesToBudget(t *testing.T) {
	const maxTokens = 300
	h := newHarness(engine.Params{MaxNodes: 50, NodeDepth: 1, MaxTokens: maxTokens, SearchLimit: 20, SearchMinRelevance: 0.1})
	ctx := context.Background()

	// Seed enough nodes with long descriptions that the raw estimate is
	// roughly double the budget, and make the vector search return all of
	// them as seeds with descending relevance (= descending weight).
	const n = 13
	longDesc := strings.Repeat("word ", 4)
	var matches []vectormemory.Match
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		h.repo.SeedNode(model.Node{Index: "A", ID: id, Name: fmt.Sprintf("Node%d", i), Type: "t", Desc: longDesc})
		matches = append(matches, vectormemory.Match{ID: id, Text: id, Relevance: 1.0 - float64(i)*0.01})
	}
	h.vec.SearchFunc = func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
		out := append([]vectormemory.Match(nil), matches...)
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	var captured subgraphPayload
	h.sem.AnswerFunc = func(subgraphJSON, question string) (string, error) {
		require.NoError(t, json.Unmarshal([]byte(subgraphJSON), &captured))
		return "answer", nil
	}

	answer, err := h.eng.SearchGraph(ctx, "A", "query")
	require.NoError(t, err)
	require.Equal(t, "answer", answer)

	got := engine.EstimateTokens(engine.Subgraph{Nodes: captured.Nodes, Edges: captured.Edges})
	require.LessOrEqual(t, got, maxTokens, "L5: EstimateTokens must never exceed MaxTokens once truncated")
	require.Less(t, len(captured.Nodes), n, "truncation must have dropped at least one node")
	require.Contains(t, toNames(captured.Nodes), "Node0", "highest-weighted node should survive truncation")
}

func toNames(nodes []model.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestSearchGraphCommunity_IncludesSummaries(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	h.repo.SeedNode(model.Node{Index: "A", ID: "n1", Name: "N1", Type: "t", Desc: "d"})
	h.vec.Seed("A", "n1", "n1")
	h.vec.SearchFunc = func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
		return []vectormemory.Match{{ID: "n1", Text: "n1", Relevance: 1.0}}, nil
	}

	require.NoError(t, h.repo.UpsertCommunity(ctx, model.Community{Index: "A", CommunityID: "c1", Summaries: "summary one"}))
	require.NoError(t, h.repo.UpsertGlobal(ctx, model.Global{Index: "A", Summaries: "global summary"}))

	var captured subgraphPayload
	h.sem.AnswerFunc = func(subgraphJSON, question string) (string, error) {
		require.NoError(t, json.Unmarshal([]byte(subgraphJSON), &captured))
		return "answer", nil
	}

	answer, err := h.eng.SearchGraphCommunity(ctx, "A", "query")
	require.NoError(t, err)
	require.Equal(t, "answer", answer)
	require.Contains(t, captured.CommunitySummaries, "summary one")
	require.Equal(t, "global summary", captured.GlobalSummary)
}

func TestSearchGraphStream_EmptySubgraphYieldsClosedChannel(t *testing.T) {
	h := newHarness(engine.Params{})
	frags, err := h.eng.SearchGraphStream(context.Background(), "empty", "hi")
	require.NoError(t, err)

	_, ok := <-frags
	require.False(t, ok, "channel should be closed with no fragments")
	require.Empty(t, h.sem.Calls)
}

func TestSearchGraphStream_ForwardsFragments(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	h.repo.SeedNode(model.Node{Index: "A", ID: "n1", Name: "N1", Type: "t", Desc: "d"})
	h.vec.SearchFunc = func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
		return []vectormemory.Match{{ID: "n1", Text: "n1", Relevance: 1.0}}, nil
	}
	h.sem.AnswerStreamFunc = func(subgraphJSON, question string) (<-chan semantic.AnswerFragment, error) {
		ch := make(chan semantic.AnswerFragment, 2)
		ch <- semantic.AnswerFragment{Text: "hello "}
		ch <- semantic.AnswerFragment{Text: "world"}
		close(ch)
		return ch, nil
	}

	frags, err := h.eng.SearchGraphStream(ctx, "A", "query")
	require.NoError(t, err)

	var out strings.Builder
	for f := range frags {
		require.NoError(t, f.Err)
		out.WriteString(f.Text)
	}
	require.Equal(t, "hello world", out.String())
}
