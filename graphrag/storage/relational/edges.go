package relational

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage"
)

// CreateEdge implements [storage.Repository]. It rejects edges whose
// endpoints are not both present in index (an [storage.ErrIntegrityViolation])
// and edges with source == target.
func (r *Repository) CreateEdge(ctx context.Context, e model.Edge) error {
	if e.Source == e.Target {
		return fmt.Errorf("relational: create edge: self-loop on %q: %w", e.Source, storage.ErrIntegrityViolation)
	}

	const checkQ = `SELECT count(*) FROM nodes WHERE index_id = $1 AND id = ANY($2::text[])`
	var count int
	if err := r.pool.QueryRow(ctx, checkQ, e.Index, []string{e.Source, e.Target}).Scan(&count); err != nil {
		return fmt.Errorf("relational: create edge: endpoint check: %w", err)
	}
	if count != 2 {
		return fmt.Errorf("relational: create edge: dangling endpoint: %w", storage.ErrIntegrityViolation)
	}

	const q = `
		INSERT INTO edges (id, index_id, source_id, target_id, relationship)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (index_id, id) DO UPDATE SET
		    source_id    = EXCLUDED.source_id,
		    target_id    = EXCLUDED.target_id,
		    relationship = EXCLUDED.relationship`

	if _, err := r.pool.Exec(ctx, q, e.ID, e.Index, e.Source, e.Target, e.Relationship); err != nil {
		return fmt.Errorf("relational: create edge: %w", err)
	}
	return nil
}

// UpdateEdgeRelationship implements [storage.Repository].
func (r *Repository) UpdateEdgeRelationship(ctx context.Context, index, id, relationship string) error {
	const q = `UPDATE edges SET relationship = $3 WHERE index_id = $1 AND id = $2`
	if _, err := r.pool.Exec(ctx, q, index, id, relationship); err != nil {
		return fmt.Errorf("relational: update edge relationship: %w", err)
	}
	return nil
}

// DeleteEdge implements [storage.Repository]. Deleting a non-existent edge
// is not an error.
func (r *Repository) DeleteEdge(ctx context.Context, index, id string) error {
	const q = `DELETE FROM edges WHERE index_id = $1 AND id = $2`
	if _, err := r.pool.Exec(ctx, q, index, id); err != nil {
		return fmt.Errorf("relational: delete edge: %w", err)
	}
	return nil
}

// GetEdgesByIndex implements [storage.Repository].
func (r *Repository) GetEdgesByIndex(ctx context.Context, index string) ([]model.Edge, error) {
	const q = `SELECT id, index_id, source_id, target_id, relationship FROM edges WHERE index_id = $1`
	rows, err := r.pool.Query(ctx, q, index)
	if err != nil {
		return nil, fmt.Errorf("relational: get edges by index: %w", err)
	}
	return collectEdges(rows)
}

// GetEdgesByNodeIds implements [storage.Repository]. Returns edges of index
// with both endpoints in ids.
func (r *Repository) GetEdgesByNodeIds(ctx context.Context, index string, ids []string) ([]model.Edge, error) {
	if len(ids) == 0 {
		return []model.Edge{}, nil
	}
	const q = `
		SELECT id, index_id, source_id, target_id, relationship
		FROM   edges
		WHERE  index_id = $1
		  AND  source_id = ANY($2::text[])
		  AND  target_id = ANY($2::text[])`
	rows, err := r.pool.Query(ctx, q, index, ids)
	if err != nil {
		return nil, fmt.Errorf("relational: get edges by node ids: %w", err)
	}
	return collectEdges(rows)
}

// FindEdgeBetween implements [storage.Repository].
func (r *Repository) FindEdgeBetween(ctx context.Context, index, a, b string) (*model.Edge, error) {
	const q = `
		SELECT id, index_id, source_id, target_id, relationship
		FROM   edges
		WHERE  index_id = $1
		  AND  ((source_id = $2 AND target_id = $3) OR (source_id = $3 AND target_id = $2))
		LIMIT 1`
	rows, err := r.pool.Query(ctx, q, index, a, b)
	if err != nil {
		return nil, fmt.Errorf("relational: find edge between: %w", err)
	}
	edges, err := collectEdges(rows)
	if err != nil {
		return nil, fmt.Errorf("relational: find edge between: %w", err)
	}
	if len(edges) == 0 {
		return nil, nil
	}
	return &edges[0], nil
}

func collectEdges(rows pgx.Rows) ([]model.Edge, error) {
	edges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Edge, error) {
		var e model.Edge
		if err := row.Scan(&e.ID, &e.Index, &e.Source, &e.Target, &e.Relationship); err != nil {
			return model.Edge{}, err
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if edges == nil {
		edges = []model.Edge{}
	}
	return edges, nil
}
