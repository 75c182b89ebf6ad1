package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/resilience"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// defaultFallbackResetTimeout is how long a provider's circuit breaker stays
// open before CreateLLM's fallback group probes it again.
const defaultFallbackResetTimeout = 30 * time.Second

// Registry maps provider names to their constructor functions for the two
// provider kinds the SemanticClient adapter depends on. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	llm        map[string]func(ProviderEntry) (llm.Provider, error)
	embeddings map[string]func(ProviderEntry) (embeddings.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:        make(map[string]func(ProviderEntry) (llm.Provider, error)),
		embeddings: make(map[string]func(ProviderEntry) (embeddings.Provider, error)),
	}
}

// RegisterLLM registers an LLM provider factory under name. Subsequent calls
// with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterEmbeddings registers an embeddings provider factory under name.
func (r *Registry) RegisterEmbeddings(name string, factory func(ProviderEntry) (embeddings.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeddings[name] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under
// entry.Name, wrapping it in a [graphrag/resilience.LLMFallback] when
// entry.Fallbacks is non-empty so a failing primary is bypassed automatically.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	primary, err := factory(entry)
	if err != nil {
		return nil, err
	}
	if len(entry.Fallbacks) == 0 {
		return primary, nil
	}

	fb := resilience.NewLLMFallback(entry.Name, primary, resilience.BreakerConfig{
		MaxFailures:  3,
		ResetTimeout: defaultFallbackResetTimeout,
		HalfOpenMax:  1,
	})
	for _, fbEntry := range entry.Fallbacks {
		fbProvider, err := r.CreateLLM(fbEntry)
		if err != nil {
			return nil, fmt.Errorf("fallback llm/%q: %w", fbEntry.Name, err)
		}
		fb.AddFallback(fbEntry.Name, fbProvider)
	}
	return fb, nil
}

// CreateEmbeddings instantiates an embeddings provider using the factory
// registered under entry.Name.
func (r *Registry) CreateEmbeddings(entry ProviderEntry) (embeddings.Provider, error) {
	r.mu.RLock()
	factory, ok := r.embeddings[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: embeddings/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
