// Package storage defines the Repository contract (C1): index-scoped
// persistence for nodes, edges, community memberships, community summaries,
// and global summaries. Two adapters satisfy this contract — a relational
// one (graphrag/storage/relational) and a property-graph one
// (graphrag/storage/propertygraph) — chosen at configuration load.
package storage

import (
	"context"
	"errors"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// ErrIntegrityViolation is returned when a write would violate a data-model
// invariant (e.g. an edge referencing a node outside the index). The caller
// (graphrag/engine) treats this as a dropped write, not a fatal error.
var ErrIntegrityViolation = errors.New("storage: integrity violation")

// ErrNotFound is returned by single-record reads when no matching row exists.
var ErrNotFound = errors.New("storage: not found")

// Repository is the index-scoped persistence contract shared by every
// storage adapter.
type Repository interface {
	// NodeOps
	CreateNode(ctx context.Context, n model.Node) error
	UpdateNodeDesc(ctx context.Context, index, id, desc string) error
	GetNodesByIndex(ctx context.Context, index string) ([]model.Node, error)
	GetNodesByIds(ctx context.Context, ids []string) ([]model.Node, error)

	// EdgeOps
	CreateEdge(ctx context.Context, e model.Edge) error
	UpdateEdgeRelationship(ctx context.Context, index, id, relationship string) error
	DeleteEdge(ctx context.Context, index, id string) error
	GetEdgesByIndex(ctx context.Context, index string) ([]model.Edge, error)
	// GetEdgesByNodeIds returns edges of index with both endpoints in ids.
	GetEdgesByNodeIds(ctx context.Context, index string, ids []string) ([]model.Edge, error)
	// FindEdgeBetween returns the edge connecting the unordered pair
	// {a,b} within index, or (nil, nil) if none exists.
	FindEdgeBetween(ctx context.Context, index, a, b string) (*model.Edge, error)

	// CommunityOps
	ReplaceCommunityMemberships(ctx context.Context, index string, memberships []model.CommunityMembership) error
	GetCommunityMemberships(ctx context.Context, index string) ([]model.CommunityMembership, error)
	UpsertCommunity(ctx context.Context, c model.Community) error
	GetCommunities(ctx context.Context, index string) ([]model.Community, error)

	// GlobalOps
	UpsertGlobal(ctx context.Context, g model.Global) error
	GetGlobal(ctx context.Context, index string) (*model.Global, error)

	// DeleteIndex removes every row (nodes, edges, communities, memberships,
	// globals) scoped to index. Vector-memory cleanup is the caller's
	// responsibility (graphrag/engine.DeleteIndex).
	DeleteIndex(ctx context.Context, index string) error

	// ListIndices returns every distinct index currently holding at least one
	// node.
	ListIndices(ctx context.Context) ([]string, error)
}
