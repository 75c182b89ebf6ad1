package propertygraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// CreateNode implements [storage.Repository]. It upserts a (:Node) vertex
// keyed by (index, id).
func (r *Repository) CreateNode(ctx context.Context, n model.Node) error {
	const cypher = `
		MERGE (node:Node {index: $index, id: $id})
		SET   node.name = $name, node.type = $type, node.desc = $desc`

	return r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		_, err := tx.Run(ctx, cypher, map[string]any{
			"index": n.Index, "id": n.ID, "name": n.Name, "type": n.Type, "desc": n.Desc,
		})
		if err != nil {
			return fmt.Errorf("propertygraph: create node: %w", err)
		}
		return nil
	})
}

// UpdateNodeDesc implements [storage.Repository].
func (r *Repository) UpdateNodeDesc(ctx context.Context, index, id, desc string) error {
	const cypher = `MATCH (node:Node {index: $index, id: $id}) SET node.desc = $desc`

	return r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		_, err := tx.Run(ctx, cypher, map[string]any{"index": index, "id": id, "desc": desc})
		if err != nil {
			return fmt.Errorf("propertygraph: update node desc: %w", err)
		}
		return nil
	})
}

// GetNodesByIndex implements [storage.Repository].
func (r *Repository) GetNodesByIndex(ctx context.Context, index string) ([]model.Node, error) {
	const cypher = `MATCH (node:Node {index: $index}) RETURN node.id, node.index, node.name, node.type, node.desc`

	var nodes []model.Node
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{"index": index})
		if err != nil {
			return err
		}
		nodes, err = collectNodes(ctx, result)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: get nodes by index: %w", err)
	}
	return nodes, nil
}

// GetNodesByIds implements [storage.Repository].
func (r *Repository) GetNodesByIds(ctx context.Context, ids []string) ([]model.Node, error) {
	if len(ids) == 0 {
		return []model.Node{}, nil
	}
	const cypher = `MATCH (node:Node) WHERE node.id IN $ids RETURN node.id, node.index, node.name, node.type, node.desc`

	var nodes []model.Node
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{"ids": ids})
		if err != nil {
			return err
		}
		nodes, err = collectNodes(ctx, result)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: get nodes by ids: %w", err)
	}
	return nodes, nil
}

func collectNodes(ctx context.Context, result neo4j.ResultWithContext) ([]model.Node, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(records))
	for _, rec := range records {
		n, err := scanNode(rec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func scanNode(rec *neo4j.Record) (model.Node, error) {
	var n model.Node
	var ok bool
	if n.ID, ok = stringField(rec, 0); !ok {
		return model.Node{}, fmt.Errorf("propertygraph: scan node: missing id")
	}
	n.Index, _ = stringField(rec, 1)
	n.Name, _ = stringField(rec, 2)
	n.Type, _ = stringField(rec, 3)
	n.Desc, _ = stringField(rec, 4)
	return n, nil
}

func stringField(rec *neo4j.Record, index int) (string, bool) {
	v := rec.Values[index]
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
