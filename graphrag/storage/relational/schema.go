// Package relational provides a PostgreSQL-backed implementation of the
// graphrag Repository contract.
//
// All five logical tables (nodes, edges, communities, community_nodes,
// globals) live in one [pgxpool.Pool] and are scoped by an index column.
//
// Usage:
//
//	repo, err := relational.NewRepository(ctx, dsn)
//	if err != nil { … }
//	_ = repo.CreateNode(ctx, node)
package relational

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlSchema = `
CREATE TABLE IF NOT EXISTS nodes (
    id          TEXT         NOT NULL,
    index_id    TEXT         NOT NULL,
    name        TEXT         NOT NULL,
    type        TEXT         NOT NULL DEFAULT '',
    description TEXT         NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (index_id, id)
);

CREATE INDEX IF NOT EXISTS idx_nodes_index_name ON nodes (index_id, name);

CREATE TABLE IF NOT EXISTS edges (
    id           TEXT         NOT NULL,
    index_id     TEXT         NOT NULL,
    source_id    TEXT         NOT NULL,
    target_id    TEXT         NOT NULL,
    relationship TEXT         NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (index_id, id),
    FOREIGN KEY (index_id, source_id) REFERENCES nodes (index_id, id) ON DELETE CASCADE,
    FOREIGN KEY (index_id, target_id) REFERENCES nodes (index_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_edges_index_source ON edges (index_id, source_id);
CREATE INDEX IF NOT EXISTS idx_edges_index_target ON edges (index_id, target_id);

CREATE TABLE IF NOT EXISTS community_nodes (
    index_id     TEXT NOT NULL,
    community_id TEXT NOT NULL,
    node_id      TEXT NOT NULL,
    PRIMARY KEY (index_id, node_id)
);

CREATE INDEX IF NOT EXISTS idx_community_nodes_community
    ON community_nodes (index_id, community_id);

CREATE TABLE IF NOT EXISTS communities (
    index_id     TEXT NOT NULL,
    community_id TEXT NOT NULL,
    summaries    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (index_id, community_id)
);

CREATE TABLE IF NOT EXISTS globals (
    index_id   TEXT        PRIMARY KEY,
    summaries  TEXT        NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates or ensures all required tables exist. It is idempotent
// (CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS) and safe to call
// on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlSchema); err != nil {
		return fmt.Errorf("relational migrate: %w", err)
	}
	return nil
}
