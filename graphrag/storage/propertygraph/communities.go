package propertygraph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// ReplaceCommunityMemberships implements [storage.Repository]. It deletes
// every (:Community) vertex and IN_COMMUNITY relationship scoped to index,
// then recreates them from memberships in the same transaction, matching
// RebuildCommunities' wipe-and-recreate semantics.
func (r *Repository) ReplaceCommunityMemberships(ctx context.Context, index string, memberships []model.CommunityMembership) error {
	err := r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		if _, err := tx.Run(ctx, `MATCH (:Node {index: $index})-[rel:IN_COMMUNITY]->(:Community {index: $index}) DELETE rel`,
			map[string]any{"index": index}); err != nil {
			return err
		}
		if _, err := tx.Run(ctx, `MATCH (c:Community {index: $index}) DETACH DELETE c`, map[string]any{"index": index}); err != nil {
			return err
		}

		rows := make([]map[string]any, len(memberships))
		for i, m := range memberships {
			rows[i] = map[string]any{"nodeId": m.NodeID, "communityId": m.CommunityID}
		}

		const q = `
			UNWIND $rows AS row
			MATCH (n:Node {index: $index, id: row.nodeId})
			MERGE (c:Community {index: $index, communityId: row.communityId})
			MERGE (n)-[:IN_COMMUNITY]->(c)`
		_, err := tx.Run(ctx, q, map[string]any{"index": index, "rows": rows})
		return err
	})
	if err != nil {
		return fmt.Errorf("propertygraph: replace memberships: %w", err)
	}
	return nil
}

// GetCommunityMemberships implements [storage.Repository].
func (r *Repository) GetCommunityMemberships(ctx context.Context, index string) ([]model.CommunityMembership, error) {
	const cypher = `
		MATCH (n:Node {index: $index})-[:IN_COMMUNITY]->(c:Community {index: $index})
		RETURN n.id, c.communityId`

	memberships := make([]model.CommunityMembership, 0)
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{"index": index})
		if err != nil {
			return err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			nodeID, _ := stringField(rec, 0)
			communityID, _ := stringField(rec, 1)
			memberships = append(memberships, model.CommunityMembership{Index: index, NodeID: nodeID, CommunityID: communityID})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: get memberships: %w", err)
	}
	return memberships, nil
}

// UpsertCommunity implements [storage.Repository].
func (r *Repository) UpsertCommunity(ctx context.Context, c model.Community) error {
	const cypher = `
		MERGE (community:Community {index: $index, communityId: $communityId})
		SET   community.summaries = $summaries`
	err := r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		_, err := tx.Run(ctx, cypher, map[string]any{"index": c.Index, "communityId": c.CommunityID, "summaries": c.Summaries})
		return err
	})
	if err != nil {
		return fmt.Errorf("propertygraph: upsert community: %w", err)
	}
	return nil
}

// GetCommunities implements [storage.Repository].
func (r *Repository) GetCommunities(ctx context.Context, index string) ([]model.Community, error) {
	const cypher = `MATCH (c:Community {index: $index}) RETURN c.communityId, c.summaries`

	communities := make([]model.Community, 0)
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{"index": index})
		if err != nil {
			return err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			communityID, _ := stringField(rec, 0)
			summaries, _ := stringField(rec, 1)
			communities = append(communities, model.Community{Index: index, CommunityID: communityID, Summaries: summaries})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: get communities: %w", err)
	}
	return communities, nil
}

// UpsertGlobal implements [storage.Repository].
func (r *Repository) UpsertGlobal(ctx context.Context, g model.Global) error {
	const cypher = `
		MERGE (global:Global {index: $index})
		SET   global.summaries = $summaries, global.updatedAt = datetime()`
	err := r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		_, err := tx.Run(ctx, cypher, map[string]any{"index": g.Index, "summaries": g.Summaries})
		return err
	})
	if err != nil {
		return fmt.Errorf("propertygraph: upsert global: %w", err)
	}
	return nil
}

// GetGlobal implements [storage.Repository]. Returns (nil, nil) when no
// global summary has been generated for index.
func (r *Repository) GetGlobal(ctx context.Context, index string) (*model.Global, error) {
	const cypher = `MATCH (g:Global {index: $index}) RETURN g.summaries, g.updatedAt`

	var global *model.Global
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{"index": index})
		if err != nil {
			return err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		summaries, _ := stringField(records[0], 0)
		updatedAt, _ := records[0].Values[1].(time.Time)
		global = &model.Global{Index: index, Summaries: summaries, UpdatedAt: updatedAt}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: get global: %w", err)
	}
	return global, nil
}

// ListIndices implements [storage.Repository].
func (r *Repository) ListIndices(ctx context.Context) ([]string, error) {
	const cypher = `MATCH (n:Node) RETURN DISTINCT n.index ORDER BY n.index`

	indices := make([]string, 0)
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return err
		}
		for _, rec := range records {
			idx, _ := stringField(rec, 0)
			indices = append(indices, idx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: list indices: %w", err)
	}
	return indices, nil
}

// DeleteIndex implements [storage.Repository]. Deletes every Node, Community,
// and Global vertex scoped to index, along with their relationships.
func (r *Repository) DeleteIndex(ctx context.Context, index string) error {
	err := r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		stmts := []string{
			`MATCH (g:Global {index: $index}) DETACH DELETE g`,
			`MATCH (c:Community {index: $index}) DETACH DELETE c`,
			`MATCH (n:Node {index: $index}) DETACH DELETE n`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Run(ctx, stmt, map[string]any{"index": index}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("propertygraph: delete index: %w", err)
	}
	return nil
}
