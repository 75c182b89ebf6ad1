// Package community implements the CommunityDetector (C5): deterministic
// fast label propagation over an undirected view of the knowledge graph
// (spec.md §4.5).
package community

import (
	"sort"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/model"
)

// maxIterations caps the active-set processing loop so a pathological input
// (e.g. an oscillating label cycle) cannot hang detection forever.
const maxIterations = 1_000_000

// Detect runs fast label propagation over edges and returns a map from node
// id to community label. Every node that appears as an edge endpoint gets an
// entry; a node with no edge to another node (only self-loops) keeps its own
// id as its label. Detect does not drop such nodes; RebuildCommunities
// excludes them by degree.
//
// Detect is deterministic: for a fixed edge set it always returns the same
// label map, via insertion-ordered queue processing and smallest-label-string
// tie-breaking (spec.md L4).
func Detect(edges []model.Edge) map[string]string {
	adjacency, order := buildAdjacency(edges)

	labels := make(map[string]string, len(order))
	for _, id := range order {
		labels[id] = id
	}

	queue := newOrderedQueue(order)
	iterations := 0
	for !queue.empty() && iterations < maxIterations {
		iterations++
		v := queue.pop()

		neighbours := adjacency[v]
		if len(neighbours) == 0 {
			continue
		}

		newLabel := dominantLabel(neighbours, labels)
		if newLabel == labels[v] {
			continue
		}
		labels[v] = newLabel

		for _, n := range neighbours {
			if labels[n] != newLabel {
				queue.push(n)
			}
		}
	}

	return labels
}

// buildAdjacency returns an undirected adjacency list (self-loops removed,
// neighbour lists deduplicated and sorted for determinism) plus the stable
// first-seen order of every node that appears in edges.
func buildAdjacency(edges []model.Edge) (map[string][]string, []string) {
	adjacency := make(map[string]map[string]struct{})
	var order []string
	seen := make(map[string]struct{})

	ensure := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			order = append(order, id)
			adjacency[id] = make(map[string]struct{})
		}
	}

	for _, e := range edges {
		ensure(e.Source)
		ensure(e.Target)
		if e.Source == e.Target {
			continue
		}
		adjacency[e.Source][e.Target] = struct{}{}
		adjacency[e.Target][e.Source] = struct{}{}
	}

	result := make(map[string][]string, len(adjacency))
	for id, set := range adjacency {
		neighbours := make([]string, 0, len(set))
		for n := range set {
			neighbours = append(neighbours, n)
		}
		sort.Strings(neighbours)
		result[id] = neighbours
	}
	return result, order
}

// dominantLabel returns the most frequent label among neighbours, breaking
// ties by the smallest label string.
func dominantLabel(neighbours []string, labels map[string]string) string {
	counts := make(map[string]int, len(neighbours))
	for _, n := range neighbours {
		counts[labels[n]]++
	}

	var best string
	bestCount := -1
	for label, count := range counts {
		if count > bestCount || (count == bestCount && label < best) {
			best = label
			bestCount = count
		}
	}
	return best
}

// orderedQueue is a FIFO queue with at-most-once pending membership, used to
// implement the active-set processing loop's insertion-order tie-break.
type orderedQueue struct {
	items   []string
	pending map[string]struct{}
}

func newOrderedQueue(seed []string) *orderedQueue {
	q := &orderedQueue{
		items:   make([]string, 0, len(seed)),
		pending: make(map[string]struct{}, len(seed)),
	}
	for _, id := range seed {
		q.push(id)
	}
	return q
}

func (q *orderedQueue) push(id string) {
	if _, ok := q.pending[id]; ok {
		return
	}
	q.pending[id] = struct{}{}
	q.items = append(q.items, id)
}

func (q *orderedQueue) pop() string {
	id := q.items[0]
	q.items = q.items[1:]
	delete(q.pending, id)
	return id
}

func (q *orderedQueue) empty() bool {
	return len(q.items) == 0
}
