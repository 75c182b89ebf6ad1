// Package resilience provides the retry and failover primitives SemanticClient's
// provider wiring depends on: [Retry] for the property-graph adapter's
// transient-error backoff (see retry.go), and [LLMFallback] for routing around a
// degraded primary llm.Provider without graphrag/config.Registry or
// graphrag/semantic.Adapter needing to know a fallback chain is in play.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm"
)

// errCircuitOpen is returned internally by breaker.execute when the breaker is
// open and the reset timeout has not yet elapsed. It never escapes the
// package: LLMFallback turns it into a "skip this entry" signal.
var errCircuitOpen = errors.New("resilience: circuit open")

// breakerState is the operating mode of a breaker.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// BreakerConfig tunes the per-provider circuit breaker an [LLMFallback] keeps
// for its primary and each fallback.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before an entry's
	// breaker opens and LLMFallback starts skipping it. Default: 3.
	MaxFailures int

	// ResetTimeout is how long a breaker stays open before a single probe call
	// is let through again. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of successful probe calls required to close a
	// breaker again. Default: 1.
	HalfOpenMax int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 3
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMax <= 0 {
		c.HalfOpenMax = 1
	}
	return c
}

// breaker is the three-state (closed/open/half-open) circuit breaker backing
// a single entry in an LLMFallback's provider chain.
type breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int

	mu              sync.Mutex
	state           breakerState
	consecutiveFail int
	lastFailure     time.Time
	halfOpenCalls   int
	halfOpenFails   int
}

func newBreaker(name string, cfg BreakerConfig) *breaker {
	cfg = cfg.withDefaults()
	return &breaker{
		name:         name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
		state:        breakerClosed,
	}
}

// execute runs fn if the breaker's state allows it, returning errCircuitOpen
// without calling fn when the breaker is open.
func (b *breaker) execute(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case breakerOpen:
		if time.Since(b.lastFailure) >= b.resetTimeout {
			b.state = breakerHalfOpen
			b.halfOpenCalls = 0
			b.halfOpenFails = 0
			slog.Info("llm provider breaker half-open", "provider", b.name)
		} else {
			b.mu.Unlock()
			return errCircuitOpen
		}
	case breakerHalfOpen:
		if b.halfOpenCalls >= b.halfOpenMax {
			b.mu.Unlock()
			return errCircuitOpen
		}
	}

	inHalfOpen := b.state == breakerHalfOpen
	if inHalfOpen {
		b.halfOpenCalls++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.recordFailure(inHalfOpen)
	} else {
		b.recordSuccess(inHalfOpen)
	}
	return err
}

// recordFailure must be called with b.mu held.
func (b *breaker) recordFailure(inHalfOpen bool) {
	b.lastFailure = time.Now()

	if inHalfOpen {
		b.halfOpenFails++
		b.state = breakerOpen
		b.consecutiveFail = b.maxFailures
		slog.Warn("llm provider breaker re-opened", "provider", b.name)
		return
	}

	b.consecutiveFail++
	if b.consecutiveFail >= b.maxFailures {
		b.state = breakerOpen
		slog.Warn("llm provider breaker opened", "provider", b.name, "consecutive_failures", b.consecutiveFail)
	}
}

// recordSuccess must be called with b.mu held.
func (b *breaker) recordSuccess(inHalfOpen bool) {
	if inHalfOpen {
		if b.halfOpenCalls-b.halfOpenFails >= b.halfOpenMax {
			b.state = breakerClosed
			b.consecutiveFail = 0
			b.halfOpenCalls = 0
			b.halfOpenFails = 0
			slog.Info("llm provider breaker closed", "provider", b.name)
		}
		return
	}
	b.consecutiveFail = 0
}

func (b *breaker) currentState() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerOpen && time.Since(b.lastFailure) >= b.resetTimeout {
		return breakerHalfOpen
	}
	return b.state
}

// ErrAllProvidersFailed is returned by LLMFallback's methods when the primary
// and every registered fallback either failed or had an open breaker.
var ErrAllProvidersFailed = errors.New("resilience: all llm providers failed")

// llmEntry pairs a named llm.Provider with the breaker tracking its health.
type llmEntry struct {
	name     string
	provider llm.Provider
	cb       *breaker
}

// LLMFallback implements llm.Provider by trying a primary provider first and
// falling through to fallbacks registered with AddFallback, in order,
// skipping any whose breaker is currently open. It is what
// graphrag/config.Registry.CreateLLM returns when a ProviderEntry declares
// Fallbacks, so graphrag/semantic.Adapter never has to know failover is
// happening underneath it.
type LLMFallback struct {
	entries []llmEntry
	cfg     BreakerConfig
}

// NewLLMFallback creates an LLMFallback with primary as its first, preferred
// entry. Use AddFallback to register additional providers to try afterward.
func NewLLMFallback(name string, primary llm.Provider, cfg BreakerConfig) *LLMFallback {
	return &LLMFallback{
		entries: []llmEntry{{name: name, provider: primary, cb: newBreaker(name, cfg)}},
		cfg:     cfg,
	}
}

// AddFallback appends a provider tried only after every entry registered
// before it has failed or is breaker-open.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.entries = append(f.entries, llmEntry{name: name, provider: provider, cb: newBreaker(name, f.cfg)})
}

// StreamCompletion implements llm.Provider.
func (f *LLMFallback) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	return tryEntries(f.entries, func(p llm.Provider) (<-chan llm.Chunk, error) {
		return p.StreamCompletion(ctx, req)
	})
}

// Complete implements llm.Provider.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return tryEntries(f.entries, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// tryEntries runs fn against each entry's provider in order, skipping entries
// whose breaker is open, and returns the first success. R is instantiated
// with llm.Provider's two return shapes (<-chan llm.Chunk and
// *llm.CompletionResponse) by StreamCompletion and Complete above.
func tryEntries[R any](entries []llmEntry, fn func(llm.Provider) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for _, entry := range entries {
		var result R
		err := entry.cb.execute(func() error {
			var innerErr error
			result, innerErr = fn(entry.provider)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, errCircuitOpen) {
			slog.Debug("skipping llm provider (breaker open)", "provider", entry.name)
		} else {
			slog.Warn("llm provider failed, trying next", "provider", entry.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr)
}

var _ llm.Provider = (*LLMFallback)(nil)
