// Package pgvector provides a PostgreSQL/pgvector-backed VectorMemory
// implementation, grounded on the same pgx.CollectRows pattern used by the
// relational Repository adapter.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings"
)

// schemaSQL creates the vector_entries table on first use. size is the
// embedding dimensionality, fixed for the lifetime of the schema.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS vector_entries (
    namespace TEXT NOT NULL,
    id        TEXT NOT NULL,
    text      TEXT NOT NULL,
    embedding vector(%d) NOT NULL,
    PRIMARY KEY (namespace, id)
);
CREATE INDEX IF NOT EXISTS vector_entries_embedding_idx
    ON vector_entries USING hnsw (embedding vector_cosine_ops);`

// dbPool is the subset of *pgxpool.Pool this package depends on, narrowed to
// an interface so tests can substitute a pgxmock pool.
type dbPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Memory is a [vectormemory.Memory] backed by a pgvector-enabled PostgreSQL
// table. Construct with [New]; callers own the pool's lifecycle.
type Memory struct {
	pool     dbPool
	embedder embeddings.Provider
}

var _ vectormemory.Memory = (*Memory)(nil)

// New returns a [Memory] using pool for storage and embedder to compute
// embeddings. Call [Memory.EnsureSchema] once before first use.
func New(pool *pgxpool.Pool, embedder embeddings.Provider) *Memory {
	return &Memory{pool: pool, embedder: embedder}
}

// NewWithPool builds a Memory directly from pool without assuming a
// *pgxpool.Pool concrete type. Useful for tests that supply a pgxmock pool.
func NewWithPool(pool dbPool, embedder embeddings.Provider) *Memory {
	return &Memory{pool: pool, embedder: embedder}
}

// EnsureSchema creates the backing table and HNSW index if they do not
// already exist, sized for embedder.Dimensions().
func (m *Memory) EnsureSchema(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, fmt.Sprintf(schemaSQL, m.embedder.Dimensions()))
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", vectormemory.ErrBackendFailure, err)
	}
	return nil
}

// Save implements [vectormemory.Memory].
func (m *Memory) Save(ctx context.Context, namespace, id, text string) error {
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: embed: %v", vectormemory.ErrBackendFailure, err)
	}

	const q = `
		INSERT INTO vector_entries (namespace, id, text, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, id) DO UPDATE SET
		    text      = EXCLUDED.text,
		    embedding = EXCLUDED.embedding`

	_, err = m.pool.Exec(ctx, q, namespace, id, text, pgv.NewVector(vec))
	if err != nil {
		return fmt.Errorf("%w: save: %v", vectormemory.ErrBackendFailure, err)
	}
	return nil
}

// Search implements [vectormemory.Memory]. Cosine distance is converted to a
// similarity score via 1 - distance, matching pgvector's `<=>` operator
// (which returns 0 for identical vectors, up to 2 for opposite ones).
func (m *Memory) Search(ctx context.Context, namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
	queryVec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %v", vectormemory.ErrBackendFailure, err)
	}

	const q = `
		SELECT id, text, 1 - (embedding <=> $1) AS relevance
		FROM   vector_entries
		WHERE  namespace = $2 AND 1 - (embedding <=> $1) >= $3
		ORDER  BY relevance DESC
		LIMIT  $4`

	rows, err := m.pool.Query(ctx, q, pgv.NewVector(queryVec), namespace, minRelevance, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", vectormemory.ErrBackendFailure, err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (vectormemory.Match, error) {
		var mt vectormemory.Match
		if err := row.Scan(&mt.ID, &mt.Text, &mt.Relevance); err != nil {
			return vectormemory.Match{}, err
		}
		return mt, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan rows: %v", vectormemory.ErrBackendFailure, err)
	}
	if matches == nil {
		matches = []vectormemory.Match{}
	}
	return matches, nil
}

// Remove implements [vectormemory.Memory].
func (m *Memory) Remove(ctx context.Context, namespace, id string) error {
	_, err := m.pool.Exec(ctx, `DELETE FROM vector_entries WHERE namespace = $1 AND id = $2`, namespace, id)
	if err != nil {
		return fmt.Errorf("%w: remove: %v", vectormemory.ErrBackendFailure, err)
	}
	return nil
}

// DeleteNamespace implements [vectormemory.Memory].
func (m *Memory) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := m.pool.Exec(ctx, `DELETE FROM vector_entries WHERE namespace = $1`, namespace)
	if err != nil {
		return fmt.Errorf("%w: delete namespace: %v", vectormemory.ErrBackendFailure, err)
	}
	return nil
}
