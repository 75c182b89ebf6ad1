// Package mock provides a configurable test double for [semantic.Client],
// letting engine tests script extraction, merge, and inference outcomes
// without a live language model.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
)

// Client is an in-memory [semantic.Client] test double. Every exported
// *Func field, when set, overrides that method's default (zero-value)
// behavior; every exported *Err field, when set and no Func override is
// provided, is returned in place of the normal result.
type Client struct {
	mu sync.Mutex

	ExtractGraphFunc func(text string) (semantic.ExtractedGraph, error)
	ExtractGraphErr  error

	MergeDescFunc func(a, b string) (string, error)
	MergeDescErr  error

	InferRelationFunc func(descA, descB string) (semantic.RelationInference, error)
	InferRelationErr  error

	SummarizeCommunityFunc func(memberDescriptions string) (string, error)
	SummarizeCommunityErr  error

	SummarizeGlobalFunc func(communitySummaries string) (string, error)
	SummarizeGlobalErr  error

	AnswerFunc func(subgraphJSON, question string) (string, error)
	AnswerErr  error

	AnswerStreamFunc func(subgraphJSON, question string) (<-chan semantic.AnswerFragment, error)
	AnswerStreamErr  error

	// Calls records every method invoked, in order, as "method:arg1:arg2".
	Calls []string
}

// New returns an empty Client test double.
func New() *Client {
	return &Client{}
}

func (c *Client) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, call)
}

func (c *Client) ExtractGraph(_ context.Context, text string) (semantic.ExtractedGraph, error) {
	c.record("ExtractGraph:" + text)
	if c.ExtractGraphFunc != nil {
		return c.ExtractGraphFunc(text)
	}
	if c.ExtractGraphErr != nil {
		return semantic.ExtractedGraph{}, c.ExtractGraphErr
	}
	return semantic.ExtractedGraph{}, nil
}

func (c *Client) MergeDesc(_ context.Context, a, b string) (string, error) {
	c.record("MergeDesc:" + a + ":" + b)
	if c.MergeDescFunc != nil {
		return c.MergeDescFunc(a, b)
	}
	if c.MergeDescErr != nil {
		return "", c.MergeDescErr
	}
	return "", nil
}

func (c *Client) InferRelation(_ context.Context, descA, descB string) (semantic.RelationInference, error) {
	c.record("InferRelation:" + descA + ":" + descB)
	if c.InferRelationFunc != nil {
		return c.InferRelationFunc(descA, descB)
	}
	if c.InferRelationErr != nil {
		return semantic.RelationInference{}, c.InferRelationErr
	}
	return semantic.RelationInference{Related: false}, nil
}

func (c *Client) SummarizeCommunity(_ context.Context, memberDescriptions string) (string, error) {
	c.record("SummarizeCommunity:" + memberDescriptions)
	if c.SummarizeCommunityFunc != nil {
		return c.SummarizeCommunityFunc(memberDescriptions)
	}
	if c.SummarizeCommunityErr != nil {
		return "", c.SummarizeCommunityErr
	}
	return "", nil
}

func (c *Client) SummarizeGlobal(_ context.Context, communitySummaries string) (string, error) {
	c.record("SummarizeGlobal:" + communitySummaries)
	if c.SummarizeGlobalFunc != nil {
		return c.SummarizeGlobalFunc(communitySummaries)
	}
	if c.SummarizeGlobalErr != nil {
		return "", c.SummarizeGlobalErr
	}
	return "", nil
}

func (c *Client) Answer(_ context.Context, subgraphJSON, question string) (string, error) {
	c.record("Answer:" + question)
	if c.AnswerFunc != nil {
		return c.AnswerFunc(subgraphJSON, question)
	}
	if c.AnswerErr != nil {
		return "", c.AnswerErr
	}
	return "", nil
}

func (c *Client) AnswerStream(_ context.Context, subgraphJSON, question string) (<-chan semantic.AnswerFragment, error) {
	c.record("AnswerStream:" + question)
	if c.AnswerStreamFunc != nil {
		return c.AnswerStreamFunc(subgraphJSON, question)
	}
	if c.AnswerStreamErr != nil {
		return nil, c.AnswerStreamErr
	}
	out := make(chan semantic.AnswerFragment)
	close(out)
	return out, nil
}

var _ semantic.Client = (*Client)(nil)
