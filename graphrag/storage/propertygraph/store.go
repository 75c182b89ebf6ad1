// Package propertygraph implements the Repository contract (C1) over Neo4j,
// storing nodes as (:Node) vertices and edges as a single generic
// :RELATES_TO relationship type carrying the semantic label as a property.
// Cypher has no
// notion of an "unordered" relationship, so edges are persisted with a
// lexicographically normalized direction and a `reversed` flag recording
// whether the caller's original (source, target) matched that normalization
// (see computeEdgeKey).
package propertygraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/resilience"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage"
)

var _ storage.Repository = (*Repository)(nil)

// Repository is the Neo4j-backed implementation of
// [github.com/MrWong99/glyphoxa-graphrag/graphrag/storage.Repository].
//
// All methods are safe for concurrent use. Transient backend errors (those
// satisfying neo4j.IsRetryable) are retried with backoff per retryConfig.
type Repository struct {
	driver   neo4j.DriverWithContext
	database string

	retryConfig resilience.RetryConfig

	schemaOnce sync.Once
	schemaErr  error
}

// defaultRetryConfig is the default retry policy for transient Neo4j errors:
// 3 attempts, 150ms base delay, doubling each attempt.
var defaultRetryConfig = resilience.RetryConfig{MaxAttempts: 3, BaseDelay: 150 * time.Millisecond}

// NewRepository connects to uri using user/password, verifies connectivity,
// and returns a ready Repository scoped to database (empty string selects
// Neo4j's default database).
func NewRepository(ctx context.Context, uri, user, password, database string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("propertygraph: new driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("propertygraph: verify connectivity: %w", err)
	}
	return &Repository{driver: driver, database: database, retryConfig: defaultRetryConfig}, nil
}

// Close releases the underlying driver's connection pool.
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// EnsureSchema creates the uniqueness constraints and indexes the adapter
// relies on, exactly once per Repository instance, guarded by a mutex so
// concurrent first-callers don't race to create the same constraint.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	r.schemaOnce.Do(func() {
		r.schemaErr = r.writeTx(ctx, func(tx neo4j.ManagedTransaction) error {
			statements := []string{
				`CREATE CONSTRAINT node_index_id IF NOT EXISTS FOR (n:Node) REQUIRE (n.index, n.id) IS UNIQUE`,
				`CREATE CONSTRAINT community_index_id IF NOT EXISTS FOR (c:Community) REQUIRE (c.index, c.communityId) IS UNIQUE`,
				`CREATE CONSTRAINT global_index IF NOT EXISTS FOR (g:Global) REQUIRE g.index IS UNIQUE`,
				`CREATE INDEX node_index IF NOT EXISTS FOR (n:Node) ON (n.index)`,
			}
			for _, stmt := range statements {
				if _, err := tx.Run(ctx, stmt, nil); err != nil {
					return fmt.Errorf("propertygraph: ensure schema: %w", err)
				}
			}
			return nil
		})
	})
	return r.schemaErr
}

func (r *Repository) session(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
}

// writeTx runs work in a single auto-commit-free write transaction, retrying
// transient failures per r.retryConfig.
func (r *Repository) writeTx(ctx context.Context, work func(tx neo4j.ManagedTransaction) error) error {
	session := r.session(ctx)
	defer session.Close(ctx)

	return resilience.Retry(ctx, r.retryConfig, isTransientNeo4jError, func() error {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return nil, work(tx)
		})
		return err
	})
}

// readTx runs work in a single read transaction, retrying transient
// failures per r.retryConfig.
func (r *Repository) readTx(ctx context.Context, work func(tx neo4j.ManagedTransaction) error) error {
	session := r.session(ctx)
	defer session.Close(ctx)

	return resilience.Retry(ctx, r.retryConfig, isTransientNeo4jError, func() error {
		_, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return nil, work(tx)
		})
		return err
	})
}

// isTransientNeo4jError reports whether err is worth retrying: connectivity
// and transient-classified server errors, per the driver's own classification.
func isTransientNeo4jError(err error) bool {
	if err == nil {
		return false
	}
	if neo4j.IsRetryable(err) {
		return true
	}
	return neo4j.IsConnectivityError(err)
}
