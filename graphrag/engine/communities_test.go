package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// I4: after RebuildCommunities, every non-isolated node has exactly one
// membership row, and every referenced community has a summary.
func TestRebuildCommunities_MembershipAndSummaryInvariant(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	for _, n := range []model.Node{
		{Index: "A", ID: "a", Name: "A", Type: "t", Desc: "d"},
		{Index: "A", ID: "b", Name: "B", Type: "t", Desc: "d"},
		{Index: "A", ID: "c", Name: "C", Type: "t", Desc: "d"},
		{Index: "A", ID: "isolated", Name: "Isolated", Type: "t", Desc: "d"},
	} {
		h.repo.SeedNode(n)
	}
	h.repo.SeedEdge(model.Edge{ID: "e1", Index: "A", Source: "a", Target: "b", Relationship: "r"})
	h.repo.SeedEdge(model.Edge{ID: "e2", Index: "A", Source: "b", Target: "c", Relationship: "r"})

	h.sem.SummarizeCommunityFunc = func(memberDescriptions string) (string, error) {
		return "summary for: " + memberDescriptions, nil
	}

	require.NoError(t, h.eng.RebuildCommunities(ctx, "A"))

	memberships, err := h.repo.GetCommunityMemberships(ctx, "A")
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, m := range memberships {
		seen[m.NodeID]++
	}
	require.Equal(t, 1, seen["a"])
	require.Equal(t, 1, seen["b"])
	require.Equal(t, 1, seen["c"])
	require.Zero(t, seen["isolated"], "isolated nodes must not get a membership")

	communities, err := h.repo.GetCommunities(ctx, "A")
	require.NoError(t, err)
	require.NotEmpty(t, communities)

	referenced := make(map[string]bool)
	for _, m := range memberships {
		referenced[m.CommunityID] = true
	}
	summarized := make(map[string]bool)
	for _, c := range communities {
		summarized[c.CommunityID] = true
		require.NotEmpty(t, c.Summaries)
	}
	for id := range referenced {
		require.True(t, summarized[id], "every referenced community must have a summary")
	}
}

func TestRebuildCommunities_WipesPriorRun(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	h.repo.SeedNode(model.Node{Index: "A", ID: "a", Name: "A", Type: "t", Desc: "d"})
	h.repo.SeedNode(model.Node{Index: "A", ID: "b", Name: "B", Type: "t", Desc: "d"})
	h.repo.SeedEdge(model.Edge{ID: "e1", Index: "A", Source: "a", Target: "b", Relationship: "r"})

	require.NoError(t, h.eng.RebuildCommunities(ctx, "A"))
	first, err := h.repo.GetCommunityMemberships(ctx, "A")
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.NoError(t, h.eng.RebuildCommunities(ctx, "A"))
	second, err := h.repo.GetCommunityMemberships(ctx, "A")
	require.NoError(t, err)
	require.Len(t, second, 2, "a second run must wipe and recreate, not append")
}

// Global is synthesized from the current community summaries for the index.
func TestRebuildGlobal(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	require.NoError(t, h.repo.UpsertCommunity(ctx, model.Community{Index: "A", CommunityID: "c1", Summaries: "first"}))
	require.NoError(t, h.repo.UpsertCommunity(ctx, model.Community{Index: "A", CommunityID: "c2", Summaries: "second"}))

	h.sem.SummarizeGlobalFunc = func(communitySummaries string) (string, error) {
		return "merged: " + communitySummaries, nil
	}

	require.NoError(t, h.eng.RebuildGlobal(ctx, "A"))

	global, err := h.repo.GetGlobal(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, global)
	require.Contains(t, global.Summaries, "first")
	require.Contains(t, global.Summaries, "second")
}
