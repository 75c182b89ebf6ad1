// Package model defines the persisted data types of the GraphRAG knowledge
// graph: nodes, edges, community memberships, community summaries, and the
// per-index global summary.
//
// Every type is scoped by Index, the logical corpus identifier. (index, name)
// is a soft uniqueness key for nodes enforced by the ingest merge path, not by
// a database constraint — see [github.com/MrWong99/glyphoxa-graphrag/graphrag/engine].
package model

import "time"

// Node is a named, typed, described vertex in the knowledge graph.
//
// ID is assigned at creation and stable for the lifetime of the node.
// (Index, Name) is treated as a soft uniqueness key: ingest enforces it by
// merging descriptions rather than creating a duplicate node.
type Node struct {
	// ID is the opaque, stable identifier assigned at creation.
	ID string

	// Index scopes this node to a logical corpus.
	Index string

	// Name is the node's display name.
	Name string

	// Type classifies the node (e.g., "person", "organization", "location").
	Type string

	// Desc is the accumulated natural-language description, grown by merges.
	Desc string
}

// VectorText renders the node's payload text as stored in vector memory and
// used as the query text for dedup / orphan-repair searches.
func (n Node) VectorText() string {
	return "Name:" + n.Name + ";Type:" + n.Type + ";Desc:" + n.Desc
}

// Edge is a labelled, directed connection between two nodes.
//
// Edges are semantically undirected for dedup and community detection but
// carry the direction returned by the extracting language model. At most one
// edge exists per unordered {Source,Target} pair within an index; if the
// model proposes more, their Relationship strings are semantically merged.
type Edge struct {
	// ID is the opaque, stable identifier assigned at creation.
	ID string

	// Index scopes this edge to a logical corpus.
	Index string

	// Source is the ID of the originating node.
	Source string

	// Target is the ID of the destination node.
	Target string

	// Relationship is the semantic label of the edge. After a merge it may
	// contain multiple "; "-joined parts.
	Relationship string
}

// UnorderedKey returns a key that identifies the undirected {Source,Target}
// pair this edge connects, independent of authored direction.
func (e Edge) UnorderedKey() [2]string {
	if e.Source <= e.Target {
		return [2]string{e.Source, e.Target}
	}
	return [2]string{e.Target, e.Source}
}

// CommunityMembership records that a node belongs to a community produced by
// the most recent label-propagation run over an index.
//
// CommunityID is a label derived from label propagation; it is not stable
// across RebuildCommunities runs and must never be persisted by consumers
// across runs.
type CommunityMembership struct {
	Index       string
	CommunityID string
	NodeID      string
}

// Community is one record per distinct community id produced by the latest
// detection run over an index, carrying its hierarchical summaries.
type Community struct {
	CommunityID string
	Index       string
	Summaries   string
}

// Global is the single per-index summary synthesized from all current
// community summaries. At most one exists per index.
type Global struct {
	Index     string
	Summaries string
	UpdatedAt time.Time
}
