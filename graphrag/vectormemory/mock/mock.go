// Package mock provides a configurable test double for [vectormemory.Memory].
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
)

type entry struct {
	text      string
	relevance float64
}

// Memory is an in-memory [vectormemory.Memory] test double. Search results
// are driven by SearchFunc when set, letting tests script relevance scores
// precisely (e.g. a relevance of exactly 1.0 for identity-merge scenarios);
// otherwise Search returns entries with a fixed relevance of 1.0 for an
// exact text match and 0 for everything else.
type Memory struct {
	mu sync.Mutex

	store map[string]map[string]entry // namespace -> id -> entry

	// SearchFunc, when set, overrides the default Search behavior entirely.
	SearchFunc func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error)

	SaveErr            error
	RemoveErr          error
	DeleteNamespaceErr error
}

// New returns an empty Memory test double.
func New() *Memory {
	return &Memory{store: make(map[string]map[string]entry)}
}

// Seed inserts an entry directly, bypassing Save, for test setup.
func (m *Memory) Seed(namespace, id, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store[namespace] == nil {
		m.store[namespace] = make(map[string]entry)
	}
	m.store[namespace][id] = entry{text: text}
}

func (m *Memory) Save(_ context.Context, namespace, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.store[namespace] == nil {
		m.store[namespace] = make(map[string]entry)
	}
	m.store[namespace][id] = entry{text: text}
	return nil
}

func (m *Memory) Search(ctx context.Context, namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(namespace, text, limit, minRelevance)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	matches := make([]vectormemory.Match, 0)
	for id, e := range m.store[namespace] {
		relevance := 0.0
		if e.text == text {
			relevance = 1.0
		}
		if relevance < minRelevance {
			continue
		}
		matches = append(matches, vectormemory.Match{ID: id, Text: e.text, Relevance: relevance})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Memory) Remove(_ context.Context, namespace, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.store[namespace], id)
	return nil
}

func (m *Memory) DeleteNamespace(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteNamespaceErr != nil {
		return m.DeleteNamespaceErr
	}
	delete(m.store, namespace)
	return nil
}

var _ vectormemory.Memory = (*Memory)(nil)
