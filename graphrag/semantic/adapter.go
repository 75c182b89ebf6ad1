package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/types"
)

// Adapter turns an [llm.Provider] into a [Client] by prompting the model for
// JSON-structured output and parsing the result. This is the concrete
// collaborator spec.md §1 treats as an external, out-of-scope abstraction;
// the contract (Client) is what graphrag/engine depends on.
type Adapter struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithTemperature overrides the completion temperature used for every call.
// Default: 0.1 (structured extraction favours low-variance output).
func WithTemperature(t float64) Option {
	return func(a *Adapter) { a.temperature = t }
}

// WithMaxTokens overrides the completion token cap used for every call.
// Default: 2048.
func WithMaxTokens(n int) Option {
	return func(a *Adapter) { a.maxTokens = n }
}

// NewAdapter wraps provider as a [Client].
func NewAdapter(provider llm.Provider, opts ...Option) *Adapter {
	a := &Adapter{provider: provider, temperature: 0.1, maxTokens: 2048}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ Client = (*Adapter)(nil)

func (a *Adapter) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []types.Message{{Role: "user", Content: user}},
		Temperature:  a.temperature,
		MaxTokens:    a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSemanticFailure, err)
	}
	return resp.Content, nil
}

// stripJSONFence removes a leading/trailing ```json ... ``` or ``` ... ```
// fence some models wrap structured output in.
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

const extractGraphSystemPrompt = `You are an information extraction system. Given a passage of text, extract a
knowledge graph of named entities and the relationships between them.

Respond with ONLY a JSON object of this exact shape, no prose and no markdown fences:
{
  "nodes": [{"localId": "n1", "name": "...", "type": "...", "desc": "..."}],
  "edges": [{"sourceLocalId": "n1", "targetLocalId": "n2", "relationship": "..."}]
}

localId values only need to be unique within this response. type should be a short noun
category (person, organization, location, event, concept, ...). desc should be a concise
natural-language description synthesized from the passage.`

// ExtractGraph implements [Client].
func (a *Adapter) ExtractGraph(ctx context.Context, text string) (ExtractedGraph, error) {
	raw, err := a.complete(ctx, extractGraphSystemPrompt, text)
	if err != nil {
		return ExtractedGraph{}, err
	}

	var parsed struct {
		Nodes []struct {
			LocalID string `json:"localId"`
			Name    string `json:"name"`
			Type    string `json:"type"`
			Desc    string `json:"desc"`
		} `json:"nodes"`
		Edges []struct {
			SourceLocalID string `json:"sourceLocalId"`
			TargetLocalID string `json:"targetLocalId"`
			Relationship  string `json:"relationship"`
		} `json:"edges"`
	}
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &parsed); err != nil {
		return ExtractedGraph{}, fmt.Errorf("%w: malformed extraction response: %v", ErrSemanticFailure, err)
	}

	graph := ExtractedGraph{
		Nodes: make([]ExtractedNode, len(parsed.Nodes)),
		Edges: make([]ExtractedEdge, len(parsed.Edges)),
	}
	for i, n := range parsed.Nodes {
		graph.Nodes[i] = ExtractedNode{LocalID: n.LocalID, Name: n.Name, Type: n.Type, Desc: n.Desc}
	}
	for i, e := range parsed.Edges {
		graph.Edges[i] = ExtractedEdge{SourceLocalID: e.SourceLocalID, TargetLocalID: e.TargetLocalID, Relationship: e.Relationship}
	}
	return graph, nil
}

const mergeDescSystemPrompt = `You merge two descriptions of the same entity into one concise, non-redundant
description that preserves every distinct fact from both. Respond with ONLY the merged
description text, no prose, no JSON, no markdown.`

// MergeDesc implements [Client].
func (a *Adapter) MergeDesc(ctx context.Context, descA, descB string) (string, error) {
	user := fmt.Sprintf("Description A:\n%s\n\nDescription B:\n%s", descA, descB)
	merged, err := a.complete(ctx, mergeDescSystemPrompt, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(merged), nil
}

const inferRelationSystemPrompt = `You decide whether two entity descriptions (node1 and node2) describe entities
that are meaningfully related, and if so how.

Respond with ONLY a JSON object of this exact shape, no prose and no markdown fences:
{"related": true, "sourceLabel": "node1", "relationship": "..."}

sourceLabel must be exactly "node1" or "node2" and selects which entity is the
relationship's source. If the entities are not related, respond with {"related": false}.`

// InferRelation implements [Client].
func (a *Adapter) InferRelation(ctx context.Context, descA, descB string) (RelationInference, error) {
	user := fmt.Sprintf("node1:\n%s\n\nnode2:\n%s", descA, descB)
	raw, err := a.complete(ctx, inferRelationSystemPrompt, user)
	if err != nil {
		return RelationInference{}, err
	}

	var parsed struct {
		Related      bool   `json:"related"`
		SourceLabel  string `json:"sourceLabel"`
		Relationship string `json:"relationship"`
	}
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &parsed); err != nil {
		return RelationInference{}, fmt.Errorf("%w: malformed inferRelation response: %v", ErrSemanticFailure, err)
	}
	if !parsed.Related {
		return RelationInference{Related: false}, nil
	}

	label := RelationSourceLabel(parsed.SourceLabel)
	if label != RelationSourceNode1 && label != RelationSourceNode2 {
		return RelationInference{}, fmt.Errorf("%w: inferRelation returned invalid sourceLabel %q", ErrSemanticFailure, parsed.SourceLabel)
	}
	return RelationInference{Related: true, SourceLabel: label, Relationship: parsed.Relationship}, nil
}

const summarizeCommunitySystemPrompt = `You write a concise summary of a community of related entities, given a list of
"Name: ...; Type: ...; Desc: ..." lines, one per member. Respond with ONLY the summary
text, no prose, no JSON, no markdown.`

// SummarizeCommunity implements [Client].
func (a *Adapter) SummarizeCommunity(ctx context.Context, memberDescriptions string) (string, error) {
	summary, err := a.complete(ctx, summarizeCommunitySystemPrompt, memberDescriptions)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

const summarizeGlobalSystemPrompt = `You write a single high-level summary synthesizing a set of community summaries for
the same corpus, given one summary per line. Respond with ONLY the summary text, no
prose, no JSON, no markdown.`

// SummarizeGlobal implements [Client].
func (a *Adapter) SummarizeGlobal(ctx context.Context, communitySummaries string) (string, error) {
	summary, err := a.complete(ctx, summarizeGlobalSystemPrompt, communitySummaries)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

const answerSystemPrompt = `You answer a user's question using ONLY the provided knowledge graph subgraph
(JSON with nodes and edges). If the subgraph does not contain enough information to
answer, say so plainly. Respond with ONLY the answer text, no prose about your
reasoning process, no markdown.`

// Answer implements [Client].
func (a *Adapter) Answer(ctx context.Context, subgraphJSON, question string) (string, error) {
	user := fmt.Sprintf("Subgraph:\n%s\n\nQuestion: %s", subgraphJSON, question)
	answer, err := a.complete(ctx, answerSystemPrompt, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// AnswerStream implements [Client]. It propagates ctx cancellation into the
// underlying streaming loop, resolving spec.md §9's open streaming-cancellation
// question: the fragment channel is closed and no further reads occur once
// ctx is done.
func (a *Adapter) AnswerStream(ctx context.Context, subgraphJSON, question string) (<-chan AnswerFragment, error) {
	user := fmt.Sprintf("Subgraph:\n%s\n\nQuestion: %s", subgraphJSON, question)
	chunks, err := a.provider.StreamCompletion(ctx, llm.CompletionRequest{
		SystemPrompt: answerSystemPrompt,
		Messages:     []types.Message{{Role: "user", Content: user}},
		Temperature:  a.temperature,
		MaxTokens:    a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSemanticFailure, err)
	}

	out := make(chan AnswerFragment)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-chunks:
				if !ok {
					return
				}
				if chunk.Text != "" {
					select {
					case out <- AnswerFragment{Text: chunk.Text}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}
