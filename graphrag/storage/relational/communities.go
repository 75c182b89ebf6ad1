package relational

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// ReplaceCommunityMemberships implements [storage.Repository]. It wipes all
// existing membership rows for index and inserts memberships in a single
// transaction, matching RebuildCommunities' wipe-and-recreate semantics.
func (r *Repository) ReplaceCommunityMemberships(ctx context.Context, index string, memberships []model.CommunityMembership) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("relational: replace memberships: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM community_nodes WHERE index_id = $1`, index); err != nil {
		return fmt.Errorf("relational: replace memberships: delete: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM communities WHERE index_id = $1`, index); err != nil {
		return fmt.Errorf("relational: replace memberships: delete communities: %w", err)
	}

	const q = `INSERT INTO community_nodes (index_id, community_id, node_id) VALUES ($1, $2, $3)`
	for _, m := range memberships {
		if _, err := tx.Exec(ctx, q, index, m.CommunityID, m.NodeID); err != nil {
			return fmt.Errorf("relational: replace memberships: insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("relational: replace memberships: commit: %w", err)
	}
	return nil
}

// GetCommunityMemberships implements [storage.Repository].
func (r *Repository) GetCommunityMemberships(ctx context.Context, index string) ([]model.CommunityMembership, error) {
	const q = `SELECT index_id, community_id, node_id FROM community_nodes WHERE index_id = $1`
	rows, err := r.pool.Query(ctx, q, index)
	if err != nil {
		return nil, fmt.Errorf("relational: get memberships: %w", err)
	}
	memberships, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CommunityMembership, error) {
		var m model.CommunityMembership
		err := row.Scan(&m.Index, &m.CommunityID, &m.NodeID)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("relational: get memberships: scan: %w", err)
	}
	if memberships == nil {
		memberships = []model.CommunityMembership{}
	}
	return memberships, nil
}

// UpsertCommunity implements [storage.Repository].
func (r *Repository) UpsertCommunity(ctx context.Context, c model.Community) error {
	const q = `
		INSERT INTO communities (index_id, community_id, summaries)
		VALUES ($1, $2, $3)
		ON CONFLICT (index_id, community_id) DO UPDATE SET summaries = EXCLUDED.summaries`
	if _, err := r.pool.Exec(ctx, q, c.Index, c.CommunityID, c.Summaries); err != nil {
		return fmt.Errorf("relational: upsert community: %w", err)
	}
	return nil
}

// GetCommunities implements [storage.Repository].
func (r *Repository) GetCommunities(ctx context.Context, index string) ([]model.Community, error) {
	const q = `SELECT index_id, community_id, summaries FROM communities WHERE index_id = $1`
	rows, err := r.pool.Query(ctx, q, index)
	if err != nil {
		return nil, fmt.Errorf("relational: get communities: %w", err)
	}
	communities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Community, error) {
		var c model.Community
		err := row.Scan(&c.Index, &c.CommunityID, &c.Summaries)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("relational: get communities: scan: %w", err)
	}
	if communities == nil {
		communities = []model.Community{}
	}
	return communities, nil
}

// UpsertGlobal implements [storage.Repository].
func (r *Repository) UpsertGlobal(ctx context.Context, g model.Global) error {
	const q = `
		INSERT INTO globals (index_id, summaries, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (index_id) DO UPDATE SET summaries = EXCLUDED.summaries, updated_at = now()`
	if _, err := r.pool.Exec(ctx, q, g.Index, g.Summaries); err != nil {
		return fmt.Errorf("relational: upsert global: %w", err)
	}
	return nil
}

// GetGlobal implements [storage.Repository]. Returns (nil, nil) when no
// global summary has been generated for index.
func (r *Repository) GetGlobal(ctx context.Context, index string) (*model.Global, error) {
	const q = `SELECT index_id, summaries, updated_at FROM globals WHERE index_id = $1`
	row := r.pool.QueryRow(ctx, q, index)
	var g model.Global
	if err := row.Scan(&g.Index, &g.Summaries, &g.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("relational: get global: %w", err)
	}
	return &g, nil
}

// ListIndices implements [storage.Repository].
func (r *Repository) ListIndices(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT index_id FROM nodes ORDER BY index_id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("relational: list indices: %w", err)
	}
	indices, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("relational: list indices: scan: %w", err)
	}
	if indices == nil {
		indices = []string{}
	}
	return indices, nil
}

// DeleteIndex implements [storage.Repository]. Deletes in an order that
// preserves referential integrity: globals, communities, memberships, edges,
// then nodes.
func (r *Repository) DeleteIndex(ctx context.Context, index string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("relational: delete index: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	stmts := []string{
		`DELETE FROM globals WHERE index_id = $1`,
		`DELETE FROM communities WHERE index_id = $1`,
		`DELETE FROM community_nodes WHERE index_id = $1`,
		`DELETE FROM edges WHERE index_id = $1`,
		`DELETE FROM nodes WHERE index_id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt, index); err != nil {
			return fmt.Errorf("relational: delete index: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("relational: delete index: commit: %w", err)
	}
	return nil
}
