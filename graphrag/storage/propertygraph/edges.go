package propertygraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage"
)

// CreateEdge implements [storage.Repository]. Edges are persisted with a
// lexicographically normalized direction (see computeEdgeKey); creating an
// edge that already exists between the same unordered endpoint pair merges
// the relationship labels instead of creating a parallel relationship.
func (r *Repository) CreateEdge(ctx context.Context, e model.Edge) error {
	if e.Source == e.Target {
		return fmt.Errorf("propertygraph: create edge: self-loop on %q: %w", e.Source, storage.ErrIntegrityViolation)
	}
	key := computeEdgeKey(e.Index, e.Source, e.Target)

	err := r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		count, err := endpointCount(ctx, tx, e.Index, e.Source, e.Target)
		if err != nil {
			return err
		}
		if count != 2 {
			return fmt.Errorf("propertygraph: create edge: dangling endpoint: %w", storage.ErrIntegrityViolation)
		}

		existingRelationship, found, err := existingEdgeRelationship(ctx, tx, e.Index, key)
		if err != nil {
			return err
		}
		if found {
			merged := mergeRelationshipLabels(existingRelationship, e.Relationship)
			const updateQ = `MATCH ()-[rel:RELATES_TO {index: $index, id: $id}]->() SET rel.relationship = $relationship`
			_, err := tx.Run(ctx, updateQ, map[string]any{"index": e.Index, "id": key.ID, "relationship": merged})
			return err
		}

		const createQ = `
			MATCH (src:Node {index: $index, id: $normSource})
			MATCH (dst:Node {index: $index, id: $normTarget})
			CREATE (src)-[:RELATES_TO {id: $id, index: $index, relationship: $relationship, reversed: $reversed}]->(dst)`
		_, err = tx.Run(ctx, createQ, map[string]any{
			"index": e.Index, "normSource": key.NormSource, "normTarget": key.NormTarget,
			"id": key.ID, "relationship": e.Relationship, "reversed": key.Reversed,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("propertygraph: create edge: %w", err)
	}
	return nil
}

// mergeRelationshipLabels combines two "; "-joined relationship label sets,
// deduplicating while preserving first-seen order.
func mergeRelationshipLabels(existing, incoming string) string {
	seen := make(map[string]struct{})
	var merged []string
	for _, part := range append(strings.Split(existing, "; "), strings.Split(incoming, "; ")...) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		merged = append(merged, part)
	}
	return strings.Join(merged, "; ")
}

func endpointCount(ctx context.Context, tx neo4j.ManagedTransaction, index, a, b string) (int64, error) {
	const q = `MATCH (n:Node {index: $index}) WHERE n.id IN [$a, $b] RETURN count(n) AS c`
	result, err := tx.Run(ctx, q, map[string]any{"index": index, "a": a, "b": b})
	if err != nil {
		return 0, err
	}
	rec, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	count, _ := rec.Get("c")
	n, _ := count.(int64)
	return n, nil
}

func existingEdgeRelationship(ctx context.Context, tx neo4j.ManagedTransaction, index string, key edgeKey) (string, bool, error) {
	const q = `MATCH ()-[rel:RELATES_TO {index: $index, id: $id}]->() RETURN rel.relationship`
	result, err := tx.Run(ctx, q, map[string]any{"index": index, "id": key.ID})
	if err != nil {
		return "", false, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return "", false, err
	}
	if len(records) == 0 {
		return "", false, nil
	}
	rel, _ := stringField(records[0], 0)
	return rel, true, nil
}

// UpdateEdgeRelationship implements [storage.Repository].
func (r *Repository) UpdateEdgeRelationship(ctx context.Context, index, id, relationship string) error {
	const cypher = `MATCH ()-[rel:RELATES_TO {index: $index, id: $id}]->() SET rel.relationship = $relationship`
	err := r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		_, err := tx.Run(ctx, cypher, map[string]any{"index": index, "id": id, "relationship": relationship})
		return err
	})
	if err != nil {
		return fmt.Errorf("propertygraph: update edge relationship: %w", err)
	}
	return nil
}

// DeleteEdge implements [storage.Repository]. Deleting a non-existent edge is
// not an error.
func (r *Repository) DeleteEdge(ctx context.Context, index, id string) error {
	const cypher = `MATCH ()-[rel:RELATES_TO {index: $index, id: $id}]->() DELETE rel`
	err := r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
		_, err := tx.Run(ctx, cypher, map[string]any{"index": index, "id": id})
		return err
	})
	if err != nil {
		return fmt.Errorf("propertygraph: delete edge: %w", err)
	}
	return nil
}

// GetEdgesByIndex implements [storage.Repository].
func (r *Repository) GetEdgesByIndex(ctx context.Context, index string) ([]model.Edge, error) {
	const cypher = `
		MATCH (src:Node {index: $index})-[rel:RELATES_TO {index: $index}]->(dst:Node {index: $index})
		RETURN rel.id, rel.index, src.id, dst.id, rel.relationship, rel.reversed`

	var edges []model.Edge
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{"index": index})
		if err != nil {
			return err
		}
		edges, err = collectEdges(ctx, result)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: get edges by index: %w", err)
	}
	return edges, nil
}

// GetEdgesByNodeIds implements [storage.Repository].
func (r *Repository) GetEdgesByNodeIds(ctx context.Context, index string, ids []string) ([]model.Edge, error) {
	if len(ids) == 0 {
		return []model.Edge{}, nil
	}
	const cypher = `
		MATCH (src:Node {index: $index})-[rel:RELATES_TO {index: $index}]->(dst:Node {index: $index})
		WHERE src.id IN $ids AND dst.id IN $ids
		RETURN rel.id, rel.index, src.id, dst.id, rel.relationship, rel.reversed`

	var edges []model.Edge
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{"index": index, "ids": ids})
		if err != nil {
			return err
		}
		edges, err = collectEdges(ctx, result)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: get edges by node ids: %w", err)
	}
	return edges, nil
}

// FindEdgeBetween implements [storage.Repository].
func (r *Repository) FindEdgeBetween(ctx context.Context, index, a, b string) (*model.Edge, error) {
	key := computeEdgeKey(index, a, b)
	const cypher = `
		MATCH (src:Node {index: $index, id: $normSource})-[rel:RELATES_TO {index: $index, id: $id}]->(dst:Node {index: $index, id: $normTarget})
		RETURN rel.id, rel.index, src.id, dst.id, rel.relationship, rel.reversed`

	var edges []model.Edge
	err := r.readTx(ctx, func(tx neo4j.ManagedTransaction) error {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"index": index, "normSource": key.NormSource, "normTarget": key.NormTarget, "id": key.ID,
		})
		if err != nil {
			return err
		}
		edges, err = collectEdges(ctx, result)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("propertygraph: find edge between: %w", err)
	}
	if len(edges) == 0 {
		return nil, nil
	}
	return &edges[0], nil
}

func collectEdges(ctx context.Context, result neo4j.ResultWithContext) ([]model.Edge, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	edges := make([]model.Edge, 0, len(records))
	for _, rec := range records {
		e, err := scanEdge(rec)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func scanEdge(rec *neo4j.Record) (model.Edge, error) {
	var e model.Edge
	var ok bool
	if e.ID, ok = stringField(rec, 0); !ok {
		return model.Edge{}, fmt.Errorf("propertygraph: scan edge: missing id")
	}
	e.Index, _ = stringField(rec, 1)
	normSource, _ := stringField(rec, 2)
	normTarget, _ := stringField(rec, 3)
	e.Relationship, _ = stringField(rec, 4)

	reversed, _ := rec.Values[5].(bool)
	if reversed {
		e.Source, e.Target = normTarget, normSource
	} else {
		e.Source, e.Target = normSource, normTarget
	}
	return e, nil
}
