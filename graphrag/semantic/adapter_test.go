package semantic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm"
	llmmock "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm/mock"
)

func TestAdapter_ExtractGraph(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "```json\n" + `{
			"nodes": [{"localId":"n1","name":"Ada Lovelace","type":"person","desc":"mathematician"}],
			"edges": [{"sourceLocalId":"n1","targetLocalId":"n1","relationship":"self"}]
		}` + "\n```"},
	}
	adapter := semantic.NewAdapter(provider)

	graph, err := adapter.ExtractGraph(context.Background(), "Ada Lovelace was a mathematician.")
	if err != nil {
		t.Fatalf("ExtractGraph: %v", err)
	}
	if len(graph.Nodes) != 1 || graph.Nodes[0].Name != "Ada Lovelace" {
		t.Fatalf("unexpected nodes: %+v", graph.Nodes)
	}
	if len(graph.Edges) != 1 || graph.Edges[0].Relationship != "self" {
		t.Fatalf("unexpected edges: %+v", graph.Edges)
	}
}

func TestAdapter_ExtractGraph_MalformedJSON(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "not json"}}
	adapter := semantic.NewAdapter(provider)

	_, err := adapter.ExtractGraph(context.Background(), "text")
	if !errors.Is(err, semantic.ErrSemanticFailure) {
		t.Fatalf("err = %v, want ErrSemanticFailure", err)
	}
}

func TestAdapter_ExtractGraph_ProviderError(t *testing.T) {
	t.Parallel()
	boom := errors.New("rate limited")
	provider := &llmmock.Provider{CompleteErr: boom}
	adapter := semantic.NewAdapter(provider)

	_, err := adapter.ExtractGraph(context.Background(), "text")
	if !errors.Is(err, semantic.ErrSemanticFailure) {
		t.Fatalf("err = %v, want ErrSemanticFailure", err)
	}
}

func TestAdapter_MergeDesc(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "  merged description  "}}
	adapter := semantic.NewAdapter(provider)

	merged, err := adapter.MergeDesc(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("MergeDesc: %v", err)
	}
	if merged != "merged description" {
		t.Errorf("merged = %q", merged)
	}
}

func TestAdapter_InferRelation_Related(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{
			Content: `{"related": true, "sourceLabel": "node2", "relationship": "works_with"}`,
		},
	}
	adapter := semantic.NewAdapter(provider)

	rel, err := adapter.InferRelation(context.Background(), "desc a", "desc b")
	if err != nil {
		t.Fatalf("InferRelation: %v", err)
	}
	if !rel.Related || rel.SourceLabel != semantic.RelationSourceNode2 || rel.Relationship != "works_with" {
		t.Fatalf("unexpected relation: %+v", rel)
	}
}

func TestAdapter_InferRelation_NotRelated(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"related": false}`}}
	adapter := semantic.NewAdapter(provider)

	rel, err := adapter.InferRelation(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("InferRelation: %v", err)
	}
	if rel.Related {
		t.Fatalf("expected Related=false, got %+v", rel)
	}
}

func TestAdapter_InferRelation_InvalidSourceLabel(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: `{"related": true, "sourceLabel": "node3"}`},
	}
	adapter := semantic.NewAdapter(provider)

	_, err := adapter.InferRelation(context.Background(), "a", "b")
	if !errors.Is(err, semantic.ErrSemanticFailure) {
		t.Fatalf("err = %v, want ErrSemanticFailure", err)
	}
}

func TestAdapter_AnswerStream_PropagatesChunks(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{
		StreamChunks: []llm.Chunk{{Text: "hello "}, {Text: "world"}, {FinishReason: "stop"}},
	}
	adapter := semantic.NewAdapter(provider)

	ch, err := adapter.AnswerStream(context.Background(), `{"nodes":[],"edges":[]}`, "question")
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}

	var got string
	for frag := range ch {
		if frag.Err != nil {
			t.Fatalf("unexpected fragment error: %v", frag.Err)
		}
		got += frag.Text
	}
	if got != "hello world" {
		t.Errorf("got = %q, want %q", got, "hello world")
	}
}

func TestAdapter_AnswerStream_ContextCancelled(t *testing.T) {
	t.Parallel()
	provider := &llmmock.Provider{
		StreamChunks: []llm.Chunk{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	}
	adapter := semantic.NewAdapter(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := adapter.AnswerStream(ctx, "{}", "question")
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}
	for range ch {
	}
}
