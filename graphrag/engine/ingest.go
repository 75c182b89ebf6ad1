package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/observe"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
)

// ingestState threads per-call dedup bookkeeping through InsertGraphData's
// node resolution pass (spec.md §4.6.1 steps 3-4).
type ingestState struct {
	index string

	existingByName map[string]model.Node
	existingByID   map[string]model.Node
	createdByID    map[string]model.Node

	createdInThisCall  []model.Node
	localToPersistedID map[string]string
}

func (s *ingestState) resolve(id string) (model.Node, bool) {
	if n, ok := s.existingByID[id]; ok {
		return n, true
	}
	if n, ok := s.createdByID[id]; ok {
		return n, true
	}
	return model.Node{}, false
}

// InsertGraphData implements spec.md §4.6.1: extracts a graph from text,
// resolves it against the existing index, and persists it. Extraction and
// dedup/persistence failures are caught and logged; the method always
// returns nil unless index or text is empty.
func (e *GraphEngine) InsertGraphData(ctx context.Context, index, text string) error {
	if err := validateNonEmpty(index, text); err != nil {
		return err
	}

	ctx, span := observe.StartSpan(ctx, "engine.InsertGraphData")
	defer span.End()
	start := time.Now()
	defer func() {
		observe.DefaultMetrics().IngestDuration.Record(ctx, time.Since(start).Seconds())
	}()

	unlock := e.lockIndex(index)
	defer unlock()

	graph, err := e.sem.ExtractGraph(ctx, text)
	if err != nil {
		observe.DefaultMetrics().RecordSemanticFailure(ctx, "extractGraph")
		slog.Error("graph extraction failed, input abandoned", "index", index, "error", err)
		return nil
	}
	if err := e.insertExtractedGraph(ctx, index, graph); err != nil {
		slog.Error("ingest failed, input abandoned", "index", index, "error", err)
	}
	return nil
}

// InsertChunked implements spec.md §6's insertChunked: splits text into
// overlapping windows (graphrag/chunker) and extracts each chunk
// concurrently, bounded by extractConcurrency, before folding the results
// through the serialized per-index dedup path (SPEC_FULL.md supplement #3).
func (e *GraphEngine) InsertChunked(ctx context.Context, index, text string) error {
	if err := validateNonEmpty(index, text); err != nil {
		return err
	}

	chunks := e.chunker.Split(text)
	extracted := make([]semantic.ExtractedGraph, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.extractConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			graph, err := e.sem.ExtractGraph(gctx, chunk)
			if err != nil {
				slog.Warn("chunk extraction failed, chunk skipped", "index", index, "chunk", i, "error", err)
				return nil
			}
			extracted[i] = graph
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("engine: insert chunked: extract chunks: %w", err)
	}

	unlock := e.lockIndex(index)
	defer unlock()

	for i, graph := range extracted {
		if err := e.insertExtractedGraph(ctx, index, graph); err != nil {
			slog.Error("chunk ingest failed, chunk abandoned", "index", index, "chunk", i, "error", err)
		}
	}
	return nil
}

// insertExtractedGraph runs steps 2-7 of spec.md §4.6.1 against an already
// extracted graph. The caller must hold index's lock.
func (e *GraphEngine) insertExtractedGraph(ctx context.Context, index string, graph semantic.ExtractedGraph) error {
	existing, err := e.repo.GetNodesByIndex(ctx, index)
	if err != nil {
		return fmt.Errorf("snapshot existing nodes: %w", err)
	}

	st := &ingestState{
		index:              index,
		existingByName:     make(map[string]model.Node, len(existing)),
		existingByID:       make(map[string]model.Node, len(existing)),
		createdByID:        make(map[string]model.Node),
		localToPersistedID: make(map[string]string, len(graph.Nodes)),
	}
	for _, n := range existing {
		st.existingByName[n.Name] = n
		st.existingByID[n.ID] = n
	}

	for _, n := range graph.Nodes {
		if err := e.dedupNode(ctx, st, n); err != nil {
			return fmt.Errorf("dedup node %q: %w", n.Name, err)
		}
	}

	for _, ee := range graph.Edges {
		src, ok1 := st.localToPersistedID[ee.SourceLocalID]
		dst, ok2 := st.localToPersistedID[ee.TargetLocalID]
		if !ok1 || !ok2 || src == dst {
			continue
		}
		if err := e.createEdgeTolerant(ctx, index, src, dst, ee.Relationship); err != nil {
			return fmt.Errorf("create edge: %w", err)
		}
	}

	if err := e.repairOrphans(ctx, index, st.createdInThisCall); err != nil {
		return fmt.Errorf("orphan repair: %w", err)
	}

	if err := e.dedupEdges(ctx, index); err != nil {
		return fmt.Errorf("edge dedup: %w", err)
	}
	return nil
}

// dedupNode runs spec.md §4.6.1 step 4 (exact-name merge, vector-identity
// merge, create-new-node, opportunistic relation inference) for a single
// extracted node.
func (e *GraphEngine) dedupNode(ctx context.Context, st *ingestState, n semantic.ExtractedNode) error {
	if existing, ok := st.existingByName[n.Name]; ok && n.Desc != "" {
		observe.DefaultMetrics().RecordNodeMerge(ctx, st.index, "exact-name")
		return e.mergeIntoExisting(ctx, st, existing, n)
	}

	descText := (model.Node{Name: n.Name, Type: n.Type, Desc: n.Desc}).VectorText()
	matches, err := e.vec.Search(ctx, st.index, descText, 5, 0.7)
	if err != nil {
		return fmt.Errorf("vector identity search: %w", err)
	}
	if len(matches) > 0 && matches[0].Relevance == 1.0 {
		observe.DefaultMetrics().RecordNodeMerge(ctx, st.index, "vector-identity")
		st.localToPersistedID[n.LocalID] = matches[0].ID
		return nil
	}

	newNode := model.Node{ID: uuid.NewString(), Index: st.index, Name: n.Name, Type: n.Type, Desc: n.Desc}
	if err := e.repo.CreateNode(ctx, newNode); err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	if err := e.vec.Save(ctx, st.index, newNode.ID, newNode.VectorText()); err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	observe.DefaultMetrics().NodesCreated.Add(ctx, 1, metric.WithAttributes(observe.Attr("index", st.index)))
	st.createdInThisCall = append(st.createdInThisCall, newNode)
	st.createdByID[newNode.ID] = newNode
	st.localToPersistedID[n.LocalID] = newNode.ID

	return e.inferOpportunisticRelations(ctx, st, matches, newNode)
}

func (e *GraphEngine) mergeIntoExisting(ctx context.Context, st *ingestState, existing model.Node, n semantic.ExtractedNode) error {
	merged, err := e.sem.MergeDesc(ctx, existing.Desc, n.Desc)
	if err != nil {
		return fmt.Errorf("merge desc: %w", err)
	}
	if merged == "" {
		merged = existing.Desc + "; " + n.Desc
	}
	if err := e.repo.UpdateNodeDesc(ctx, st.index, existing.ID, merged); err != nil {
		return fmt.Errorf("update node desc: %w", err)
	}
	existing.Desc = merged
	st.existingByName[n.Name] = existing
	st.existingByID[existing.ID] = existing

	if err := e.vec.Save(ctx, st.index, existing.ID, existing.VectorText()); err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	st.localToPersistedID[n.LocalID] = existing.ID
	return nil
}

// inferOpportunisticRelations implements spec.md §4.6.1 step 4d: for every
// vector-identity candidate that fell short of exact identity, ask whether
// it relates to the newly created node and insert an edge if so.
func (e *GraphEngine) inferOpportunisticRelations(ctx context.Context, st *ingestState, candidates []vectormemory.Match, newNode model.Node) error {
	for _, c := range candidates {
		candidate, ok := st.resolve(c.ID)
		if !ok {
			continue
		}
		inference, err := e.sem.InferRelation(ctx, candidate.VectorText(), newNode.VectorText())
		if err != nil {
			slog.Warn("infer relation failed", "index", st.index, "error", err)
			continue
		}
		if !inference.Related {
			continue
		}
		source, target := candidate.ID, newNode.ID
		if inference.SourceLabel == semantic.RelationSourceNode2 {
			source, target = newNode.ID, candidate.ID
		}
		existingEdge, err := e.repo.FindEdgeBetween(ctx, st.index, source, target)
		if err != nil {
			return fmt.Errorf("find edge between: %w", err)
		}
		if existingEdge != nil {
			continue
		}
		if err := e.createEdgeTolerant(ctx, st.index, source, target, inference.Relationship); err != nil {
			return fmt.Errorf("create inferred edge: %w", err)
		}
	}
	return nil
}

// createEdgeTolerant inserts an edge, swallowing ErrIntegrityViolation
// (spec.md §7 kind 4: dropped, not fatal, to the caller).
func (e *GraphEngine) createEdgeTolerant(ctx context.Context, index, source, target, relationship string) error {
	err := e.repo.CreateEdge(ctx, model.Edge{ID: uuid.NewString(), Index: index, Source: source, Target: target, Relationship: relationship})
	if err == nil {
		observe.DefaultMetrics().EdgesCreated.Add(ctx, 1, metric.WithAttributes(observe.Attr("index", index)))
		return nil
	}
	if errors.Is(err, storage.ErrIntegrityViolation) {
		slog.Warn("dropped edge: integrity violation", "index", index, "source", source, "target", target)
		return nil
	}
	return err
}

// repairOrphans implements spec.md §4.6.1 step 6: any node created this call
// without an incident edge triggers AttemptConnectOrphan.
func (e *GraphEngine) repairOrphans(ctx context.Context, index string, createdInThisCall []model.Node) error {
	if len(createdInThisCall) == 0 {
		return nil
	}
	edges, err := e.repo.GetEdgesByIndex(ctx, index)
	if err != nil {
		return fmt.Errorf("load edges: %w", err)
	}
	incident := make(map[string]bool, len(edges)*2)
	for _, ed := range edges {
		incident[ed.Source] = true
		incident[ed.Target] = true
	}
	for _, n := range createdInThisCall {
		if incident[n.ID] {
			continue
		}
		if err := e.attemptConnectOrphan(ctx, index, n); err != nil {
			slog.Warn("orphan repair failed", "index", index, "node", n.ID, "error", err)
		}
	}
	return nil
}

// dedupEdges implements spec.md §4.6.1 step 7: groups all edges of index by
// unordered endpoint pair and merges any group of more than one down to a
// single edge.
func (e *GraphEngine) dedupEdges(ctx context.Context, index string) error {
	edges, err := e.repo.GetEdgesByIndex(ctx, index)
	if err != nil {
		return fmt.Errorf("load edges: %w", err)
	}

	groups := make(map[[2]string][]model.Edge)
	order := make([][2]string, 0)
	for _, ed := range edges {
		key := ed.UnorderedKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ed)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) <= 1 {
			continue
		}
		primary := group[0]
		for _, extra := range group[1:] {
			if extra.Relationship == primary.Relationship {
				if err := e.repo.DeleteEdge(ctx, index, extra.ID); err != nil {
					return fmt.Errorf("delete duplicate edge: %w", err)
				}
				continue
			}
			merged, err := e.sem.MergeDesc(ctx, primary.Relationship, extra.Relationship)
			if err != nil {
				observe.DefaultMetrics().RecordSemanticFailure(ctx, "mergeDesc")
				slog.Warn("merge edge relationship failed, falling back to concatenation", "index", index, "error", err)
				merged = ""
			}
			if merged == "" {
				merged = primary.Relationship + "; " + extra.Relationship
			}
			if err := e.repo.UpdateEdgeRelationship(ctx, index, primary.ID, merged); err != nil {
				return fmt.Errorf("update primary relationship: %w", err)
			}
			observe.DefaultMetrics().EdgesMerged.Add(ctx, 1, metric.WithAttributes(observe.Attr("index", index)))
			primary.Relationship = merged
			if err := e.repo.DeleteEdge(ctx, index, extra.ID); err != nil {
				return fmt.Errorf("delete duplicate edge: %w", err)
			}
		}
	}
	return nil
}
