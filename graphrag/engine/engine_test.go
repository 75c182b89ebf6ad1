package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/chunker"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
	semmock "github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic/mock"
	storagemock "github.com/MrWong99/glyphoxa-graphrag/graphrag/storage/mock"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
	vecmock "github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory/mock"
)

// harness bundles a GraphEngine with its three in-memory collaborator test
// doubles so tests can seed state and assert on it directly.
type harness struct {
	repo *storagemock.Repository
	vec  *vecmock.Memory
	sem  *semmock.Client
	eng  *engine.GraphEngine
}

func newHarness(params engine.Params) *harness {
	repo := storagemock.New()
	vec := vecmock.New()
	sem := semmock.New()
	c := chunker.New(chunker.DefaultConfig())
	return &harness{
		repo: repo,
		vec:  vec,
		sem:  sem,
		eng:  engine.New(repo, vec, sem, c, params),
	}
}

func TestInputValidation(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	require.ErrorIs(t, h.eng.InsertGraphData(ctx, "", "text"), engine.ErrInputValidation)
	require.ErrorIs(t, h.eng.InsertGraphData(ctx, "idx", ""), engine.ErrInputValidation)

	_, err := h.eng.SearchGraph(ctx, "", "query")
	require.ErrorIs(t, err, engine.ErrInputValidation)
	_, err = h.eng.SearchGraph(ctx, "idx", "")
	require.ErrorIs(t, err, engine.ErrInputValidation)
}

// Scenario 1: empty index search returns empty string without calling Answer.
func TestSearchGraph_EmptyIndex(t *testing.T) {
	h := newHarness(engine.Params{})
	answer, err := h.eng.SearchGraph(context.Background(), "empty", "hi")
	require.NoError(t, err)
	require.Empty(t, answer)
	require.Empty(t, h.sem.Calls)
}

func extractOneNode(localID, name, typ, desc string) semantic.ExtractedGraph {
	return semantic.ExtractedGraph{
		Nodes: []semantic.ExtractedNode{{LocalID: localID, Name: name, Type: typ, Desc: desc}},
	}
}

// Scenario 2: exact-name merge. Inserting "Alice is a doctor." then "Alice
// works in Berlin." yields exactly one Alice node whose description contains
// both facts, and exactly one vector entry for Alice.
func TestInsertGraphData_ExactNameMerge(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	h.sem.ExtractGraphFunc = func(text string) (semantic.ExtractedGraph, error) {
		if text == "Alice is a doctor." {
			return extractOneNode("n1", "Alice", "person", "Alice is a doctor."), nil
		}
		return extractOneNode("n1", "Alice", "person", "Alice works in Berlin."), nil
	}
	h.sem.MergeDescFunc = func(a, b string) (string, error) {
		return a + " " + b, nil
	}

	require.NoError(t, h.eng.InsertGraphData(ctx, "A", "Alice is a doctor."))
	require.NoError(t, h.eng.InsertGraphData(ctx, "A", "Alice works in Berlin."))

	nodes, err := h.repo.GetNodesByIndex(ctx, "A")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "Alice", nodes[0].Name)
	require.Contains(t, nodes[0].Desc, "doctor")
	require.Contains(t, nodes[0].Desc, "Berlin")

	matches, err := h.vec.Search(ctx, "A", nodes[0].VectorText(), 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

// Scenario 3: vector-identity merge. A relevance-1.0 hit for the node's
// vector text means no new node is created; the extracted localId maps to
// the existing id.
func TestInsertGraphData_VectorIdentityMerge(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	existing := model.Node{Index: "A", ID: "existing-nyc", Name: "New York City", Type: "location", Desc: "The largest city in the US."}
	h.repo.SeedNode(existing)

	extractedNode := model.Node{Name: "NYC", Type: "location", Desc: "A large US city."}
	// Seed the vector store so a search for the extracted node's own text
	// resolves, at relevance 1.0, to the existing node's id — simulating the
	// embedding backend recognising "NYC" and "New York City" as the same
	// entity (spec.md §8 scenario 3).
	h.vec.Seed("A", existing.ID, extractedNode.VectorText())

	h.sem.ExtractGraphFunc = func(text string) (semantic.ExtractedGraph, error) {
		return extractOneNode("n1", "NYC", "location", "A large US city."), nil
	}

	require.NoError(t, h.eng.InsertGraphData(ctx, "A", "some text about NYC"))

	nodes, err := h.repo.GetNodesByIndex(ctx, "A")
	require.NoError(t, err)
	require.Len(t, nodes, 1, "no new node should have been created")
	require.Equal(t, "existing-nyc", nodes[0].ID)
}

// Scenario 4: orphan repair. A lone extracted node that shares vocabulary
// (vector relevance) with two existing nodes above 0.5 yields at most 2 new
// edges and stops.
func TestInsertGraphData_OrphanRepairStopsAtTwo(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	for _, n := range []model.Node{
		{Index: "A", ID: "n-a", Name: "Node A", Type: "thing", Desc: "desc a"},
		{Index: "A", ID: "n-b", Name: "Node B", Type: "thing", Desc: "desc b"},
		{Index: "A", ID: "n-c", Name: "Node C", Type: "thing", Desc: "desc c"},
	} {
		h.repo.SeedNode(n)
	}

	// The dedup-time vector-identity search (minRelevance 0.7) returns
	// nothing, so no opportunistic relation is inferred and the new node is
	// left with zero edges — triggering orphan repair, whose own search
	// (minRelevance 0.5) returns all three existing nodes as candidates.
	h.vec.SearchFunc = func(namespace, text string, limit int, minRelevance float64) ([]vectormemory.Match, error) {
		if minRelevance >= 0.7 {
			return nil, nil
		}
		all := []vectormemory.Match{
			{ID: "n-a", Text: "a", Relevance: 0.9},
			{ID: "n-b", Text: "b", Relevance: 0.8},
			{ID: "n-c", Text: "c", Relevance: 0.7},
		}
		out := make([]vectormemory.Match, 0, len(all))
		for _, m := range all {
			if m.Relevance >= minRelevance {
				out = append(out, m)
			}
		}
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	h.sem.ExtractGraphFunc = func(text string) (semantic.ExtractedGraph, error) {
		return extractOneNode("n1", "Node D", "thing", "desc d"), nil
	}
	h.sem.InferRelationFunc = func(descA, descB string) (semantic.RelationInference, error) {
		return semantic.RelationInference{Related: true, SourceLabel: semantic.RelationSourceNode1, Relationship: "relates to"}, nil
	}

	require.NoError(t, h.eng.InsertGraphData(ctx, "A", "some text about Node D"))

	edges, err := h.repo.GetEdgesByIndex(ctx, "A")
	require.NoError(t, err)
	require.LessOrEqual(t, len(edges), 2)
	require.NotEmpty(t, edges)
}

// Invariant I2 / L3: inserting a second relationship between an
// already-connected pair never reduces information — the stored relationship
// contains the new string as a substring after ";" tokenization.
func TestInsertGraphData_EdgeDedupMergesRelationships(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	h.repo.SeedNode(model.Node{Index: "A", ID: "a", Name: "A", Type: "t", Desc: "a"})
	h.repo.SeedNode(model.Node{Index: "A", ID: "b", Name: "B", Type: "t", Desc: "b"})

	h.sem.ExtractGraphFunc = func(text string) (semantic.ExtractedGraph, error) {
		return semantic.ExtractedGraph{
			Nodes: []semantic.ExtractedNode{
				{LocalID: "n1", Name: "A", Type: "t", Desc: ""},
				{LocalID: "n2", Name: "B", Type: "t", Desc: ""},
			},
			Edges: []semantic.ExtractedEdge{{SourceLocalID: "n1", TargetLocalID: "n2", Relationship: "knows"}},
		}, nil
	}

	require.NoError(t, h.eng.InsertGraphData(ctx, "A", "A knows B"))

	h.sem.ExtractGraphFunc = func(text string) (semantic.ExtractedGraph, error) {
		return semantic.ExtractedGraph{
			Nodes: []semantic.ExtractedNode{
				{LocalID: "n1", Name: "A", Type: "t", Desc: ""},
				{LocalID: "n2", Name: "B", Type: "t", Desc: ""},
			},
			Edges: []semantic.ExtractedEdge{{SourceLocalID: "n1", TargetLocalID: "n2", Relationship: "collaborates with"}},
		}, nil
	}

	require.NoError(t, h.eng.InsertGraphData(ctx, "A", "A collaborates with B"))

	edges, err := h.repo.GetEdgesByIndex(ctx, "A")
	require.NoError(t, err)
	require.Len(t, edges, 1, "at most one edge per unordered pair")
	require.Contains(t, edges[0].Relationship, "knows")
	require.Contains(t, edges[0].Relationship, "collaborates with")
}

// Invariant I3: no self-loops are ever created, even if the model proposes
// an edge between a node and itself.
func TestInsertGraphData_NoSelfLoop(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	h.sem.ExtractGraphFunc = func(text string) (semantic.ExtractedGraph, error) {
		return semantic.ExtractedGraph{
			Nodes: []semantic.ExtractedNode{{LocalID: "n1", Name: "Solo", Type: "t", Desc: "d"}},
			Edges: []semantic.ExtractedEdge{{SourceLocalID: "n1", TargetLocalID: "n1", Relationship: "self"}},
		}, nil
	}

	require.NoError(t, h.eng.InsertGraphData(ctx, "A", "solo text"))

	edges, err := h.repo.GetEdgesByIndex(ctx, "A")
	require.NoError(t, err)
	require.Empty(t, edges)
}

// SemanticFailure during InsertGraphData is caught and logged; the method
// still returns nil so ingest of later input is unaffected.
func TestInsertGraphData_ExtractionFailureIsSwallowed(t *testing.T) {
	h := newHarness(engine.Params{})
	h.sem.ExtractGraphErr = semantic.ErrSemanticFailure

	err := h.eng.InsertGraphData(context.Background(), "A", "some text")
	require.NoError(t, err)
}

// DeleteIndex (I5): removes every node/vector entry for the index.
func TestDeleteIndex(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	n := model.Node{Index: "A", ID: "n1", Name: "N", Type: "t", Desc: "d"}
	h.repo.SeedNode(n)
	h.vec.Seed("A", n.ID, n.VectorText())

	require.NoError(t, h.eng.DeleteIndex(ctx, "A"))

	nodes, err := h.repo.GetNodesByIndex(ctx, "A")
	require.NoError(t, err)
	require.Empty(t, nodes)

	matches, err := h.vec.Search(ctx, "A", n.VectorText(), 10, 0)
	require.NoError(t, err)
	require.Empty(t, matches)
}

// GetGraph (spec.md §6): returns the full node/edge set for an index.
func TestGetGraph(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()

	h.repo.SeedNode(model.Node{Index: "A", ID: "a", Name: "A", Type: "t", Desc: "d"})
	h.repo.SeedNode(model.Node{Index: "A", ID: "b", Name: "B", Type: "t", Desc: "d"})
	h.repo.SeedEdge(model.Edge{ID: "e1", Index: "A", Source: "a", Target: "b", Relationship: "r"})

	sg, err := h.eng.GetGraph(ctx, "A")
	require.NoError(t, err)
	require.Len(t, sg.Nodes, 2)
	require.Len(t, sg.Edges, 1)
}

func TestListIndices(t *testing.T) {
	h := newHarness(engine.Params{})
	ctx := context.Background()
	h.repo.SeedNode(model.Node{Index: "A", ID: "a", Name: "A", Type: "t", Desc: "d"})
	h.repo.SeedNode(model.Node{Index: "B", ID: "b", Name: "B", Type: "t", Desc: "d"})

	indices, err := h.eng.ListIndices(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"A", "B"}, indices)
}
