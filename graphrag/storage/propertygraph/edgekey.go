package propertygraph

import (
	"crypto/sha256"
	"encoding/hex"
)

// edgeKey is the normalized, direction-independent identity of an edge
// within one index.
type edgeKey struct {
	// ID is a deterministic hash of (index, normSource, normTarget),
	// stable across calls regardless of which endpoint the caller names
	// source vs target.
	ID string

	// NormSource and NormTarget are Source and Target reordered so
	// NormSource <= NormTarget lexicographically.
	NormSource string
	NormTarget string

	// Reversed is true when the caller's original (source, target) order
	// does not match (NormSource, NormTarget) — i.e. the persisted
	// relationship points from NormSource to NormTarget but the caller's
	// semantic direction was NormTarget -> NormSource.
	Reversed bool
}

// computeEdgeKey derives the normalized identity for an edge connecting
// source and target within index.
func computeEdgeKey(index, source, target string) edgeKey {
	normSource, normTarget, reversed := source, target, false
	if target < source {
		normSource, normTarget, reversed = target, source, true
	}

	sum := sha256.Sum256([]byte(index + "\x00" + normSource + "\x00" + normTarget))
	return edgeKey{
		ID:         hex.EncodeToString(sum[:]),
		NormSource: normSource,
		NormTarget: normTarget,
		Reversed:   reversed,
	}
}
