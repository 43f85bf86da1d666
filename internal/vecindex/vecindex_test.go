package vecindex

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/documind-ai/documind-go/internal/core"
)

func Test_MemoryBackend_SearchOrdering(t *testing.T) {
	t.Parallel()

	b := NewMemoryBackend(MetricCosine)
	records := []Record{
		{ChunkID: "a", DocumentID: "doc-1", Vector: []float32{1, 0}},
		{ChunkID: "b", DocumentID: "doc-1", Vector: []float32{0.9, 0.1}},
		{ChunkID: "c", DocumentID: "doc-2", Vector: []float32{0, 1}},
	}
	if err := b.Upsert(context.Background(), records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := b.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ChunkID != "a" || hits[1].ChunkID != "b" {
		t.Errorf("hit order = %s, %s; want a, b", hits[0].ChunkID, hits[1].ChunkID)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("scores not descending: %f then %f", hits[0].Score, hits[1].Score)
	}
	if hits[0].DocumentID != "doc-1" {
		t.Errorf("payload document ID = %s, want doc-1", hits[0].DocumentID)
	}
}

func Test_MemoryBackend_DotMetric(t *testing.T) {
	t.Parallel()

	b := NewMemoryBackend(MetricDot)
	records := []Record{
		{ChunkID: "long", DocumentID: "d", Vector: []float32{2, 0}},
		{ChunkID: "short", DocumentID: "d", Vector: []float32{1, 0}},
	}
	if err := b.Upsert(context.Background(), records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := b.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Under dot product magnitude matters, so the longer vector wins.
	if hits[0].ChunkID != "long" {
		t.Errorf("top hit = %s, want long", hits[0].ChunkID)
	}
}

func Test_MemoryBackend_RemoveIdempotent(t *testing.T) {
	t.Parallel()

	b := NewMemoryBackend(MetricCosine)
	if err := b.Upsert(context.Background(), []Record{{ChunkID: "a", Vector: []float32{1}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := b.Remove(context.Background(), []string{"a", "never-existed"}); err != nil {
		t.Errorf("Remove with absent ID: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("backend still holds %d points", b.Len())
	}
}

func Test_ParseMetric(t *testing.T) {
	t.Parallel()

	if m, err := ParseMetric(""); err != nil || m != MetricCosine {
		t.Errorf("empty metric: got %s, %v", m, err)
	}
	if m, err := ParseMetric("dot"); err != nil || m != MetricDot {
		t.Errorf("dot metric: got %s, %v", m, err)
	}
	if _, err := ParseMetric("euclid"); !errors.Is(err, core.ErrConfig) {
		t.Errorf("unknown metric: got %v, want ErrConfig", err)
	}
}

// flakyBackend wraps a MemoryBackend and fails Upsert calls after the
// first n succeed; Remove can be made to fail independently.
type flakyBackend struct {
	*MemoryBackend
	upsertsBeforeFailure int
	upserts              int
	failRemove           bool
}

func (f *flakyBackend) Upsert(ctx context.Context, records []Record) error {
	f.upserts++
	if f.upserts > f.upsertsBeforeFailure {
		return fmt.Errorf("backend write refused")
	}
	return f.MemoryBackend.Upsert(ctx, records)
}

func (f *flakyBackend) Remove(ctx context.Context, ids []string) error {
	if f.failRemove {
		return fmt.Errorf("backend delete refused")
	}
	return f.MemoryBackend.Remove(ctx, ids)
}

func recordsN(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			ChunkID:    fmt.Sprintf("chunk-%03d", i),
			DocumentID: "doc-1",
			Vector:     []float32{float32(i), 1},
		}
	}
	return records
}

func Test_Adapter_InsertBatchesAll(t *testing.T) {
	t.Parallel()

	mem := NewMemoryBackend(MetricCosine)
	a, err := NewAdapter(mem, 10)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if err := a.Insert(context.Background(), recordsN(25)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if mem.Len() != 25 {
		t.Errorf("index holds %d points, want 25", mem.Len())
	}
}

func Test_Adapter_InsertRollsBackOnMidBatchFailure(t *testing.T) {
	t.Parallel()

	// Three batches of 10; the third fails. The first twenty records must
	// be rolled back so no partial document survives.
	mem := NewMemoryBackend(MetricCosine)
	flaky := &flakyBackend{MemoryBackend: mem, upsertsBeforeFailure: 2}
	a, err := NewAdapter(flaky, 10)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	err = a.Insert(context.Background(), recordsN(25))
	if !errors.Is(err, core.ErrIndex) {
		t.Fatalf("Insert: got %v, want ErrIndex", err)
	}
	if errors.Is(err, core.ErrIndexInconsistency) {
		t.Fatal("successful rollback must not report inconsistency")
	}
	if mem.Len() != 0 {
		t.Errorf("index holds %d points after rollback, want 0", mem.Len())
	}
}

func Test_Adapter_InsertReportsInconsistencyWhenRollbackFails(t *testing.T) {
	t.Parallel()

	mem := NewMemoryBackend(MetricCosine)
	flaky := &flakyBackend{MemoryBackend: mem, upsertsBeforeFailure: 1, failRemove: true}
	a, err := NewAdapter(flaky, 10)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	err = a.Insert(context.Background(), recordsN(25))
	if !errors.Is(err, core.ErrIndexInconsistency) {
		t.Fatalf("Insert: got %v, want ErrIndexInconsistency", err)
	}
	if mem.Len() == 0 {
		t.Error("expected stranded points when rollback fails")
	}
}

func Test_Adapter_FirstBatchFailureNeedsNoRollback(t *testing.T) {
	t.Parallel()

	// Even with a broken Remove, a first-batch failure is clean: nothing
	// was written, so nothing needs rolling back.
	mem := NewMemoryBackend(MetricCosine)
	flaky := &flakyBackend{MemoryBackend: mem, upsertsBeforeFailure: 0, failRemove: true}
	a, err := NewAdapter(flaky, 10)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	err = a.Insert(context.Background(), recordsN(5))
	if !errors.Is(err, core.ErrIndex) || errors.Is(err, core.ErrIndexInconsistency) {
		t.Fatalf("Insert: got %v, want plain ErrIndex", err)
	}
	if mem.Len() != 0 {
		t.Errorf("index holds %d points, want 0", mem.Len())
	}
}

func Test_Adapter_EmptyOps(t *testing.T) {
	t.Parallel()

	a, err := NewAdapter(NewMemoryBackend(MetricCosine), 0)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if err := a.Insert(context.Background(), nil); err != nil {
		t.Errorf("Insert(nil): %v", err)
	}
	if err := a.Remove(context.Background(), nil); err != nil {
		t.Errorf("Remove(nil): %v", err)
	}
}
