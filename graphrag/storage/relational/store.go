package relational

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbPool is the subset of *pgxpool.Pool this package depends on. Narrowing
// to an interface lets tests substitute a pgxmock pool without a real
// server (see nodes_mock_test.go).
type dbPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository is the pgx/pgxpool-backed implementation of
// [github.com/MrWong99/glyphoxa-graphrag/graphrag/storage.Repository].
//
// All methods are safe for concurrent use; the underlying pool manages its
// own connection lifecycle.
type Repository struct {
	pool dbPool
}

// NewRepository connects to dsn, runs [Migrate], and returns a ready
// Repository.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("relational: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("relational: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repository{pool: pool}, nil
}

// NewRepositoryWithPool builds a Repository directly from pool without
// connecting or migrating. Useful for tests that supply a pgxmock pool.
func NewRepositoryWithPool(pool dbPool) *Repository {
	return &Repository{pool: pool}
}

// Close releases the underlying connection pool. A no-op if the pool was
// supplied via [NewRepositoryWithPool] with a type that has no Close method
// wired through dbPool (pgxmock pools are closed directly by the caller).
func (r *Repository) Close() {
	if closer, ok := r.pool.(interface{ Close() }); ok {
		closer.Close()
	}
}
