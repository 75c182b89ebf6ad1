package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/observe"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
)

// subgraphPayload is the JSON shape handed to SemanticClient.Answer /
// AnswerStream. CommunitySummaries and GlobalSummary are populated only by
// SearchGraphCommunity.
type subgraphPayload struct {
	Nodes              []model.Node `json:"nodes"`
	Edges              []model.Edge `json:"edges"`
	CommunitySummaries []string     `json:"communitySummaries,omitempty"`
	GlobalSummary      string       `json:"globalSummary,omitempty"`
}

// SearchGraph implements spec.md §4.6.6: retrieve, seed, build subgraph,
// truncate, then ask the SemanticClient for an answer. Returns an empty
// string without calling the SemanticClient if the subgraph has no nodes.
func (e *GraphEngine) SearchGraph(ctx context.Context, index, query string) (string, error) {
	if err := validateNonEmpty(index, query); err != nil {
		return "", err
	}

	ctx, span := observe.StartSpan(ctx, "engine.SearchGraph")
	defer span.End()
	start := time.Now()
	defer func() {
		observe.DefaultMetrics().SearchDuration.Record(ctx, time.Since(start).Seconds())
	}()

	sg, err := e.buildQuerySubgraph(ctx, index, query)
	if err != nil {
		return "", err
	}
	if len(sg.Nodes) == 0 {
		return "", nil
	}

	payload, err := json.Marshal(subgraphPayload{Nodes: sg.Nodes, Edges: sg.Edges})
	if err != nil {
		return "", fmt.Errorf("engine: search: marshal subgraph: %w", err)
	}
	answer, err := e.sem.Answer(ctx, string(payload), query)
	if err != nil {
		return "", fmt.Errorf("engine: search: answer: %w", err)
	}
	return answer, nil
}

// SearchGraphStream is the streaming variant of SearchGraph. It returns a
// closed, empty channel if the subgraph has no nodes (spec.md §4.6.6).
func (e *GraphEngine) SearchGraphStream(ctx context.Context, index, query string) (<-chan semantic.AnswerFragment, error) {
	if err := validateNonEmpty(index, query); err != nil {
		return nil, err
	}

	sg, err := e.buildQuerySubgraph(ctx, index, query)
	if err != nil {
		return nil, err
	}
	if len(sg.Nodes) == 0 {
		empty := make(chan semantic.AnswerFragment)
		close(empty)
		return empty, nil
	}

	payload, err := json.Marshal(subgraphPayload{Nodes: sg.Nodes, Edges: sg.Edges})
	if err != nil {
		return nil, fmt.Errorf("engine: search stream: marshal subgraph: %w", err)
	}
	return e.sem.AnswerStream(ctx, string(payload), query)
}

// SearchGraphCommunity implements the community-aware search endpoint named
// in spec.md §6: it composes the same subgraph as SearchGraph but adds every
// community summary and the global summary as additional context.
func (e *GraphEngine) SearchGraphCommunity(ctx context.Context, index, query string) (string, error) {
	if err := validateNonEmpty(index, query); err != nil {
		return "", err
	}

	ctx, span := observe.StartSpan(ctx, "engine.SearchGraphCommunity")
	defer span.End()
	start := time.Now()
	defer func() {
		observe.DefaultMetrics().SearchDuration.Record(ctx, time.Since(start).Seconds())
	}()

	sg, err := e.buildQuerySubgraph(ctx, index, query)
	if err != nil {
		return "", err
	}
	if len(sg.Nodes) == 0 {
		return "", nil
	}

	communities, err := e.repo.GetCommunities(ctx, index)
	if err != nil {
		return "", fmt.Errorf("engine: search community: load communities: %w", err)
	}
	global, err := e.repo.GetGlobal(ctx, index)
	if err != nil {
		return "", fmt.Errorf("engine: search community: load global: %w", err)
	}

	payloadStruct := subgraphPayload{Nodes: sg.Nodes, Edges: sg.Edges, CommunitySummaries: make([]string, 0, len(communities))}
	for _, c := range communities {
		payloadStruct.CommunitySummaries = append(payloadStruct.CommunitySummaries, c.Summaries)
	}
	if global != nil {
		payloadStruct.GlobalSummary = global.Summaries
	}

	payload, err := json.Marshal(payloadStruct)
	if err != nil {
		return "", fmt.Errorf("engine: search community: marshal subgraph: %w", err)
	}
	answer, err := e.sem.Answer(ctx, string(payload), query)
	if err != nil {
		return "", fmt.Errorf("engine: search community: answer: %w", err)
	}
	return answer, nil
}

// buildQuerySubgraph implements the retrieve -> seed -> build -> truncate
// pipeline shared by SearchGraph and SearchGraphCommunity.
func (e *GraphEngine) buildQuerySubgraph(ctx context.Context, index, query string) (Subgraph, error) {
	hits, err := e.RetrieveTextMemModelList(ctx, index, query)
	if err != nil {
		return Subgraph{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(hits) == 0 {
		return Subgraph{}, nil
	}

	ids := make([]string, len(hits))
	weights := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		weights[h.ID] = h.Relevance
	}

	seedNodes, err := e.repo.GetNodesByIds(ctx, ids)
	if err != nil {
		return Subgraph{}, fmt.Errorf("resolve seed nodes: %w", err)
	}

	sg, err := e.BuildRecursiveSubgraph(ctx, index, seedNodes, weights)
	if err != nil {
		return Subgraph{}, fmt.Errorf("build subgraph: %w", err)
	}

	if EstimateTokens(sg) > e.params.MaxTokens {
		sg = truncateToBudget(sg, weights, e.params.MaxTokens)
	}
	return sg, nil
}
