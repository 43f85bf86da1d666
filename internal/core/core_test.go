package core

import (
	"errors"
	"fmt"
	"testing"
)

func Test_CanTransition_LegalTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusReady, true},
		{StatusPending, StatusFailed, true},
		{StatusReady, StatusDeleting, true},
		{StatusFailed, StatusDeleting, true},
		{StatusFailed, StatusPending, true},
		{StatusDeleting, StatusDeleted, true},

		{StatusPending, StatusDeleting, false},
		{StatusPending, StatusDeleted, false},
		{StatusReady, StatusPending, false},
		{StatusReady, StatusFailed, false},
		{StatusDeleted, StatusDeleting, false},
		{StatusDeleted, StatusPending, false},
		{StatusDeleting, StatusReady, false},
		{StatusFailed, StatusReady, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func Test_Terminal(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusReady, StatusFailed, StatusDeleted} {
		if !Terminal(s) {
			t.Errorf("Terminal(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusDeleting} {
		if Terminal(s) {
			t.Errorf("Terminal(%s) = true, want false", s)
		}
	}
}

func Test_ChunkID_DeterministicAndDistinct(t *testing.T) {
	t.Parallel()

	docID := NewDocumentID()

	a := ChunkID(docID, 0)
	b := ChunkID(docID, 0)
	if a != b {
		t.Errorf("same document and index produced different IDs: %s vs %s", a, b)
	}

	seen := map[string]bool{}
	for i := range 10 {
		id := ChunkID(docID, i)
		if seen[id] {
			t.Errorf("duplicate chunk ID for index %d: %s", i, id)
		}
		seen[id] = true
	}

	other := ChunkID(NewDocumentID(), 0)
	if other == a {
		t.Errorf("different documents produced the same chunk ID")
	}
}

func Test_EmbeddingError_MatchesSentinel(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := fmt.Errorf("gateway: %w", &EmbeddingError{Start: 32, End: 64, Err: cause})

	if !errors.Is(err, ErrEmbedding) {
		t.Error("wrapped EmbeddingError does not match ErrEmbedding")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped EmbeddingError does not expose its cause")
	}

	var ee *EmbeddingError
	if !errors.As(err, &ee) {
		t.Fatal("errors.As failed to extract *EmbeddingError")
	}
	if ee.Start != 32 || ee.End != 64 {
		t.Errorf("failed batch range = [%d, %d), want [32, 64)", ee.Start, ee.End)
	}
}
