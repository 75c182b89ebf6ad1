package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/community"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/observe"
)

// RebuildCommunities implements spec.md §4.6.7: wipes and regenerates
// index's community memberships by running fast label propagation (C5)
// over the current edge set, then summarizes each distinct community.
// Isolated nodes are excluded from community creation (spec.md §4.5 step 5).
func (e *GraphEngine) RebuildCommunities(ctx context.Context, index string) error {
	if err := validateNonEmpty(index); err != nil {
		return err
	}

	ctx, span := observe.StartSpan(ctx, "engine.RebuildCommunities")
	defer span.End()
	start := time.Now()
	defer func() {
		observe.DefaultMetrics().CommunityRebuildDuration.Record(ctx, time.Since(start).Seconds())
	}()

	unlock := e.lockIndex(index)
	defer unlock()

	edges, err := e.repo.GetEdgesByIndex(ctx, index)
	if err != nil {
		return fmt.Errorf("engine: rebuild communities: load edges: %w", err)
	}
	labels := community.Detect(edges)

	nodes, err := e.repo.GetNodesByIndex(ctx, index)
	if err != nil {
		return fmt.Errorf("engine: rebuild communities: load nodes: %w", err)
	}
	nodeByID := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	degree := make(map[string]int, len(nodes))
	for _, ed := range edges {
		if ed.Source == ed.Target {
			continue
		}
		degree[ed.Source]++
		degree[ed.Target]++
	}

	membersByLabel := make(map[string][]string)
	memberships := make([]model.CommunityMembership, 0, len(nodes))
	for id, label := range labels {
		if degree[id] == 0 {
			continue
		}
		memberships = append(memberships, model.CommunityMembership{Index: index, NodeID: id, CommunityID: label})
		membersByLabel[label] = append(membersByLabel[label], id)
	}

	if err := e.repo.ReplaceCommunityMemberships(ctx, index, memberships); err != nil {
		return fmt.Errorf("engine: rebuild communities: replace memberships: %w", err)
	}

	labelsSorted := make([]string, 0, len(membersByLabel))
	for label := range membersByLabel {
		labelsSorted = append(labelsSorted, label)
	}
	sort.Strings(labelsSorted)

	for _, label := range labelsSorted {
		memberIDs := membersByLabel[label]
		sort.Strings(memberIDs)

		lines := make([]string, 0, len(memberIDs))
		for _, id := range memberIDs {
			n := nodeByID[id]
			lines = append(lines, fmt.Sprintf("Name:%s; Type:%s; Desc:%s", n.Name, n.Type, n.Desc))
		}
		summary, err := e.sem.SummarizeCommunity(ctx, strings.Join(lines, "\n"))
		if err != nil {
			return fmt.Errorf("engine: rebuild communities: summarize %q: %w", label, err)
		}
		if err := e.repo.UpsertCommunity(ctx, model.Community{Index: index, CommunityID: label, Summaries: summary}); err != nil {
			return fmt.Errorf("engine: rebuild communities: upsert %q: %w", label, err)
		}
	}
	return nil
}

// RebuildGlobal implements spec.md §4.6.8: synthesizes and upserts a single
// Global summary from index's current community summaries.
func (e *GraphEngine) RebuildGlobal(ctx context.Context, index string) error {
	if err := validateNonEmpty(index); err != nil {
		return err
	}

	communities, err := e.repo.GetCommunities(ctx, index)
	if err != nil {
		return fmt.Errorf("engine: rebuild global: load communities: %w", err)
	}
	summaries := make([]string, len(communities))
	for i, c := range communities {
		summaries[i] = c.Summaries
	}

	summary, err := e.sem.SummarizeGlobal(ctx, strings.Join(summaries, "\n"))
	if err != nil {
		return fmt.Errorf("engine: rebuild global: summarize: %w", err)
	}
	if err := e.repo.UpsertGlobal(ctx, model.Global{Index: index, Summaries: summary}); err != nil {
		return fmt.Errorf("engine: rebuild global: upsert: %w", err)
	}
	return nil
}
