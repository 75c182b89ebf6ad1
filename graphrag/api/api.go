// Package api is the thin RPC-surface wiring layer spec.md §6 describes as a
// method-agnostic conceptual surface: listIndices, getGraph, insertText,
// insertChunked, searchGraph(Stream), searchGraphCommunity,
// rebuildCommunities, rebuildGlobal, deleteIndex.
//
// Transport (HTTP, gRPC, whatever) is explicitly out of scope per spec.md
// §1; this package exists so an HTTP/RPC layer has a single, already-wired
// Go type to sit on top of — it has no request/response framing of its own.
package api

import (
	"context"
	"fmt"
	"sort"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
)

// Server exposes the spec.md §6 RPC surface over a single [engine.GraphEngine].
type Server struct {
	engine *engine.GraphEngine
}

// New wraps eng as a Server.
func New(eng *engine.GraphEngine) *Server {
	return &Server{engine: eng}
}

// ListIndices implements listIndices().
func (s *Server) ListIndices(ctx context.Context) ([]string, error) {
	return s.engine.ListIndices(ctx)
}

// VizNode is one node of a [Graph], carrying the stable per-type color
// assigned by [Graph]'s node coloring (spec.md §6 getGraph visualization
// shape).
type VizNode struct {
	model.Node
	Color string `json:"color"`
}

// Graph is the visualization shape spec.md §6 describes for getGraph: every
// node carries a color assigned stably per type within the response.
type Graph struct {
	Nodes []VizNode   `json:"nodes"`
	Edges []model.Edge `json:"edges"`
}

// colorWheel is a fixed palette cycled by sorted-type index, giving a
// deterministic color per type within a single response without needing a
// persisted type->color mapping across calls.
var colorWheel = []string{
	"#4C78A8", "#F58518", "#E45756", "#72B7B2", "#54A24B",
	"#EECA3B", "#B279A2", "#FF9DA6", "#9D755D", "#BAB0AC",
}

// GetGraph implements getGraph(index), assigning every node a color stable
// within the returned response: types are sorted, then cycled through
// colorWheel by index.
func (s *Server) GetGraph(ctx context.Context, index string) (Graph, error) {
	sg, err := s.engine.GetGraph(ctx, index)
	if err != nil {
		return Graph{}, err
	}

	types := make(map[string]struct{})
	for _, n := range sg.Nodes {
		types[n.Type] = struct{}{}
	}
	sortedTypes := make([]string, 0, len(types))
	for t := range types {
		sortedTypes = append(sortedTypes, t)
	}
	sort.Strings(sortedTypes)

	colorByType := make(map[string]string, len(sortedTypes))
	for i, t := range sortedTypes {
		colorByType[t] = colorWheel[i%len(colorWheel)]
	}

	nodes := make([]VizNode, len(sg.Nodes))
	for i, n := range sg.Nodes {
		nodes[i] = VizNode{Node: n, Color: colorByType[n.Type]}
	}
	return Graph{Nodes: nodes, Edges: sg.Edges}, nil
}

// InsertText implements insertText(index, text): a single unchunked
// extraction pass.
func (s *Server) InsertText(ctx context.Context, index, text string) error {
	return s.engine.InsertGraphData(ctx, index, text)
}

// InsertChunked implements insertChunked(index, text): splits text into
// overlapping windows before extraction.
func (s *Server) InsertChunked(ctx context.Context, index, text string) error {
	return s.engine.InsertChunked(ctx, index, text)
}

// SearchGraph implements searchGraph(index, query).
func (s *Server) SearchGraph(ctx context.Context, index, query string) (string, error) {
	return s.engine.SearchGraph(ctx, index, query)
}

// SearchGraphStream implements searchGraphStream(index, query). The
// returned channel carries cancellation the way [semantic.Client.AnswerStream]
// documents: it closes promptly once ctx is done.
func (s *Server) SearchGraphStream(ctx context.Context, index, query string) (<-chan semantic.AnswerFragment, error) {
	return s.engine.SearchGraphStream(ctx, index, query)
}

// SearchGraphCommunity implements searchGraphCommunity(index, query): the
// same subgraph as SearchGraph, with community and global summaries added
// as additional context.
func (s *Server) SearchGraphCommunity(ctx context.Context, index, query string) (string, error) {
	return s.engine.SearchGraphCommunity(ctx, index, query)
}

// RebuildCommunities implements rebuildCommunities(index).
func (s *Server) RebuildCommunities(ctx context.Context, index string) error {
	return s.engine.RebuildCommunities(ctx, index)
}

// RebuildGlobal implements rebuildGlobal(index).
func (s *Server) RebuildGlobal(ctx context.Context, index string) error {
	return s.engine.RebuildGlobal(ctx, index)
}

// DeleteIndex implements deleteIndex(index).
func (s *Server) DeleteIndex(ctx context.Context, index string) error {
	return s.engine.DeleteIndex(ctx, index)
}

// AnswerText drains an AnswerFragment stream into a single string, returning
// the first error encountered, if any. Exposed for transports that need a
// non-streaming view of SearchGraphStream's output (e.g. a test harness or a
// CLI that wants buffered output either way).
func AnswerText(fragments <-chan semantic.AnswerFragment) (string, error) {
	var out string
	for f := range fragments {
		if f.Err != nil {
			return out, fmt.Errorf("api: stream fragment: %w", f.Err)
		}
		out += f.Text
	}
	return out, nil
}
