package relational

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// CreateNode implements [storage.Repository]. It inserts a node, replacing
// any existing row with the same (index, id).
func (r *Repository) CreateNode(ctx context.Context, n model.Node) error {
	const q = `
		INSERT INTO nodes (id, index_id, name, type, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (index_id, id) DO UPDATE SET
		    name        = EXCLUDED.name,
		    type        = EXCLUDED.type,
		    description = EXCLUDED.description`

	if _, err := r.pool.Exec(ctx, q, n.ID, n.Index, n.Name, n.Type, n.Desc); err != nil {
		return fmt.Errorf("relational: create node: %w", err)
	}
	return nil
}

// UpdateNodeDesc implements [storage.Repository]. It replaces a node's
// description. Updating a non-existent node is not an error.
func (r *Repository) UpdateNodeDesc(ctx context.Context, index, id, desc string) error {
	const q = `UPDATE nodes SET description = $3 WHERE index_id = $1 AND id = $2`
	if _, err := r.pool.Exec(ctx, q, index, id, desc); err != nil {
		return fmt.Errorf("relational: update node desc: %w", err)
	}
	return nil
}

// GetNodesByIndex implements [storage.Repository].
func (r *Repository) GetNodesByIndex(ctx context.Context, index string) ([]model.Node, error) {
	const q = `SELECT id, index_id, name, type, description FROM nodes WHERE index_id = $1`
	rows, err := r.pool.Query(ctx, q, index)
	if err != nil {
		return nil, fmt.Errorf("relational: get nodes by index: %w", err)
	}
	return collectNodes(rows)
}

// GetNodesByIds implements [storage.Repository]. Nodes are matched across
// every index; callers are expected to pass ids already scoped to one index.
func (r *Repository) GetNodesByIds(ctx context.Context, ids []string) ([]model.Node, error) {
	if len(ids) == 0 {
		return []model.Node{}, nil
	}
	const q = `SELECT id, index_id, name, type, description FROM nodes WHERE id = ANY($1::text[])`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("relational: get nodes by ids: %w", err)
	}
	return collectNodes(rows)
}

func collectNodes(rows pgx.Rows) ([]model.Node, error) {
	nodes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Node, error) {
		var n model.Node
		if err := row.Scan(&n.ID, &n.Index, &n.Name, &n.Type, &n.Desc); err != nil {
			return model.Node{}, err
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []model.Node{}
	}
	return nodes, nil
}
