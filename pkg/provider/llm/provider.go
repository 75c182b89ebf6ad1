// Package llm defines the Provider interface for the large language model
// backend behind graphrag/semantic.Client.
//
// GraphRAG's SemanticClient adapter only ever issues single-turn, system-
// prompted completions (extraction, description/relationship merging,
// relation inference, summarization, question answering) and consumes either
// the full text or a stream of text fragments. Provider is scoped to exactly
// that: it does not carry tool-calling, token-counting, or capability-
// inspection surface, because nothing in GraphRAG drives an agent loop or
// needs to introspect a model's context window before calling it — subgraphs
// are sized against [graphrag/engine.EstimateTokens]'s own heuristic, not
// against a live provider's token accounting.
//
// Implementors must be safe for concurrent use. Channels returned by
// StreamCompletion must be closed by the implementation when the stream ends
// or when the supplied context is cancelled.
package llm

import (
	"context"

	"github.com/MrWong99/glyphoxa-graphrag/pkg/types"
)

// Usage holds token accounting information returned by the LLM backend, kept
// purely for logging/metrics — GraphRAG does not budget against it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages
// must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. SemanticClient always
	// sends exactly one "user" message per call.
	Messages []types.Message

	// Temperature controls output randomness in the range [0.0, 2.0]. Lower
	// values produce more deterministic outputs; a value of 0.0 typically
	// requests greedy (argmax) decoding. Extraction and merge calls use a low
	// temperature; see graphrag/semantic.WithTemperature.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// SystemPrompt is the instruction injected before the conversation
	// history (the extraction/merge/inferRelation/summarize/answer prompt
	// text defined in graphrag/semantic.Adapter).
	SystemPrompt string
}

// Chunk is a single fragment emitted by a streaming completion.
type Chunk struct {
	// Text is the incremental text content of this chunk. May be empty on a
	// final chunk that only carries FinishReason.
	Text string

	// FinishReason is set on the final chunk ("stop", "length", or "error").
	FinishReason string
}

// CompletionResponse is returned by the non-streaming Complete method.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend GraphRAG's SemanticClient
// adapter can call.
//
// Implementations must be safe for concurrent use from multiple goroutines.
// Each method should propagate context cancellation promptly: when ctx is
// cancelled the method must return (or close its channel) as quickly as
// possible.
type Provider interface {
	// StreamCompletion sends req to the model and returns a read-only channel
	// that emits Chunk values as they arrive. The channel is closed by the
	// implementation when generation finishes or when ctx is cancelled.
	//
	// Callers must drain the channel to avoid goroutine leaks. Errors that
	// occur after the channel is opened are surfaced as a Chunk with
	// FinishReason "error"; the initial error return is non-nil only for
	// failures that prevent the stream from starting.
	//
	// The returned channel must never be nil when error is nil.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// Complete sends req to the model and waits for the full response. It is
	// a convenience wrapper around StreamCompletion for callers that do not
	// need incremental output.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
