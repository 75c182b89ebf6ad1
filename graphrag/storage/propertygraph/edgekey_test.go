package propertygraph

import "testing"

func TestComputeEdgeKey_OrderIndependent(t *testing.T) {
	ab := computeEdgeKey("idx1", "a", "b")
	ba := computeEdgeKey("idx1", "b", "a")

	if ab.ID != ba.ID {
		t.Fatalf("expected same id regardless of argument order, got %q vs %q", ab.ID, ba.ID)
	}
	if ab.NormSource != "a" || ab.NormTarget != "b" {
		t.Fatalf("unexpected normalization: %+v", ab)
	}
	if ab.Reversed {
		t.Errorf("ab should not be reversed")
	}
	if !ba.Reversed {
		t.Errorf("ba should be reversed")
	}
}

func TestComputeEdgeKey_DifferentIndexDifferentID(t *testing.T) {
	k1 := computeEdgeKey("idx1", "a", "b")
	k2 := computeEdgeKey("idx2", "a", "b")
	if k1.ID == k2.ID {
		t.Fatalf("expected different ids across indices, got same: %q", k1.ID)
	}
}

func TestMergeRelationshipLabels_DeduplicatesPreservingOrder(t *testing.T) {
	got := mergeRelationshipLabels("works_with; knows", "knows; mentors")
	want := "works_with; knows; mentors"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMergeRelationshipLabels_EmptyExisting(t *testing.T) {
	got := mergeRelationshipLabels("", "mentors")
	if got != "mentors" {
		t.Errorf("got %q, want %q", got, "mentors")
	}
}

func TestIsTransientNeo4jError_NilIsFalse(t *testing.T) {
	if isTransientNeo4jError(nil) {
		t.Error("nil error should not be transient")
	}
}
