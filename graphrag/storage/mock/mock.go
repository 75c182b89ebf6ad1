// Package mock provides a configurable in-memory test double for
// [storage.Repository], grounded in the teacher's pkg/memory/mock hand-written
// interface doubles, but backed by a real map so engine tests can exercise
// realistic dedup/orphan-repair/subgraph sequences without a live database.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage"
)

// Repository is an in-memory [storage.Repository] test double. Every
// exported *Err field, when non-nil, is returned in place of the normal
// result for its method, letting tests inject transient failures.
type Repository struct {
	mu sync.Mutex

	nodes        map[string]map[string]model.Node           // index -> id -> node
	edges        map[string]map[string]model.Edge           // index -> id -> edge
	memberships  map[string][]model.CommunityMembership     // index -> memberships
	communities  map[string]map[string]model.Community      // index -> communityId -> community
	globals      map[string]model.Global                    // index -> global

	CreateNodeErr                  error
	UpdateNodeDescErr              error
	GetNodesByIndexErr             error
	GetNodesByIdsErr               error
	CreateEdgeErr                  error
	UpdateEdgeRelationshipErr      error
	DeleteEdgeErr                  error
	GetEdgesByIndexErr             error
	GetEdgesByNodeIdsErr           error
	FindEdgeBetweenErr             error
	ReplaceCommunityMembershipsErr error
	GetCommunityMembershipsErr     error
	UpsertCommunityErr             error
	GetCommunitiesErr              error
	UpsertGlobalErr                error
	GetGlobalErr                   error
	DeleteIndexErr                 error
	ListIndicesErr                 error
}

// New returns an empty Repository test double.
func New() *Repository {
	return &Repository{
		nodes:       make(map[string]map[string]model.Node),
		edges:       make(map[string]map[string]model.Edge),
		memberships: make(map[string][]model.CommunityMembership),
		communities: make(map[string]map[string]model.Community),
		globals:     make(map[string]model.Global),
	}
}

// SeedNode inserts a node directly, bypassing CreateNode, for test setup.
func (m *Repository) SeedNode(n model.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nodes[n.Index] == nil {
		m.nodes[n.Index] = make(map[string]model.Node)
	}
	m.nodes[n.Index][n.ID] = n
}

// SeedEdge inserts an edge directly, bypassing CreateEdge, for test setup.
func (m *Repository) SeedEdge(e model.Edge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edges[e.Index] == nil {
		m.edges[e.Index] = make(map[string]model.Edge)
	}
	m.edges[e.Index][e.ID] = e
}

func (m *Repository) CreateNode(_ context.Context, n model.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateNodeErr != nil {
		return m.CreateNodeErr
	}
	if m.nodes[n.Index] == nil {
		m.nodes[n.Index] = make(map[string]model.Node)
	}
	m.nodes[n.Index][n.ID] = n
	return nil
}

func (m *Repository) UpdateNodeDesc(_ context.Context, index, id, desc string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateNodeDescErr != nil {
		return m.UpdateNodeDescErr
	}
	if n, ok := m.nodes[index][id]; ok {
		n.Desc = desc
		m.nodes[index][id] = n
	}
	return nil
}

func (m *Repository) GetNodesByIndex(_ context.Context, index string) ([]model.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetNodesByIndexErr != nil {
		return nil, m.GetNodesByIndexErr
	}
	out := make([]model.Node, 0, len(m.nodes[index]))
	for _, n := range m.nodes[index] {
		out = append(out, n)
	}
	return out, nil
}

func (m *Repository) GetNodesByIds(_ context.Context, ids []string) ([]model.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetNodesByIdsErr != nil {
		return nil, m.GetNodesByIdsErr
	}
	out := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		for _, byID := range m.nodes {
			if n, ok := byID[id]; ok {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

func (m *Repository) CreateEdge(_ context.Context, e model.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateEdgeErr != nil {
		return m.CreateEdgeErr
	}
	if e.Source == e.Target {
		return storage.ErrIntegrityViolation
	}
	if _, ok := m.nodes[e.Index][e.Source]; !ok {
		return storage.ErrIntegrityViolation
	}
	if _, ok := m.nodes[e.Index][e.Target]; !ok {
		return storage.ErrIntegrityViolation
	}
	if m.edges[e.Index] == nil {
		m.edges[e.Index] = make(map[string]model.Edge)
	}
	m.edges[e.Index][e.ID] = e
	return nil
}

func (m *Repository) UpdateEdgeRelationship(_ context.Context, index, id, relationship string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateEdgeRelationshipErr != nil {
		return m.UpdateEdgeRelationshipErr
	}
	if e, ok := m.edges[index][id]; ok {
		e.Relationship = relationship
		m.edges[index][id] = e
	}
	return nil
}

func (m *Repository) DeleteEdge(_ context.Context, index, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteEdgeErr != nil {
		return m.DeleteEdgeErr
	}
	delete(m.edges[index], id)
	return nil
}

func (m *Repository) GetEdgesByIndex(_ context.Context, index string) ([]model.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetEdgesByIndexErr != nil {
		return nil, m.GetEdgesByIndexErr
	}
	out := make([]model.Edge, 0, len(m.edges[index]))
	for _, e := range m.edges[index] {
		out = append(out, e)
	}
	return out, nil
}

func (m *Repository) GetEdgesByNodeIds(_ context.Context, index string, ids []string) ([]model.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetEdgesByNodeIdsErr != nil {
		return nil, m.GetEdgesByNodeIdsErr
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	out := make([]model.Edge, 0)
	for _, e := range m.edges[index] {
		if set[e.Source] && set[e.Target] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Repository) FindEdgeBetween(_ context.Context, index, a, b string) (*model.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindEdgeBetweenErr != nil {
		return nil, m.FindEdgeBetweenErr
	}
	for _, e := range m.edges[index] {
		if (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a) {
			ce := e
			return &ce, nil
		}
	}
	return nil, nil
}

func (m *Repository) ReplaceCommunityMemberships(_ context.Context, index string, memberships []model.CommunityMembership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReplaceCommunityMembershipsErr != nil {
		return m.ReplaceCommunityMembershipsErr
	}
	m.memberships[index] = append([]model.CommunityMembership(nil), memberships...)
	m.communities[index] = make(map[string]model.Community)
	return nil
}

func (m *Repository) GetCommunityMemberships(_ context.Context, index string) ([]model.CommunityMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetCommunityMembershipsErr != nil {
		return nil, m.GetCommunityMembershipsErr
	}
	return append([]model.CommunityMembership(nil), m.memberships[index]...), nil
}

func (m *Repository) UpsertCommunity(_ context.Context, c model.Community) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertCommunityErr != nil {
		return m.UpsertCommunityErr
	}
	if m.communities[c.Index] == nil {
		m.communities[c.Index] = make(map[string]model.Community)
	}
	m.communities[c.Index][c.CommunityID] = c
	return nil
}

func (m *Repository) GetCommunities(_ context.Context, index string) ([]model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetCommunitiesErr != nil {
		return nil, m.GetCommunitiesErr
	}
	out := make([]model.Community, 0, len(m.communities[index]))
	for _, c := range m.communities[index] {
		out = append(out, c)
	}
	return out, nil
}

func (m *Repository) UpsertGlobal(_ context.Context, g model.Global) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertGlobalErr != nil {
		return m.UpsertGlobalErr
	}
	m.globals[g.Index] = g
	return nil
}

func (m *Repository) GetGlobal(_ context.Context, index string) (*model.Global, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetGlobalErr != nil {
		return nil, m.GetGlobalErr
	}
	g, ok := m.globals[index]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *Repository) DeleteIndex(_ context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteIndexErr != nil {
		return m.DeleteIndexErr
	}
	delete(m.nodes, index)
	delete(m.edges, index)
	delete(m.memberships, index)
	delete(m.communities, index)
	delete(m.globals, index)
	return nil
}

func (m *Repository) ListIndices(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListIndicesErr != nil {
		return nil, m.ListIndicesErr
	}
	out := make([]string, 0, len(m.nodes))
	for idx := range m.nodes {
		out = append(out, idx)
	}
	return out, nil
}

var _ storage.Repository = (*Repository)(nil)
