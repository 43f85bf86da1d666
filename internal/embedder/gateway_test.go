package embedder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/documind-ai/documind-go/internal/core"
)

// fakeBackend records the batches it receives and returns constant-value
// vectors, failing on a configurable call number.
type fakeBackend struct {
	// dims is the dimensionality of returned vectors.
	dims int
	// failOnCall makes the Nth call (1-based) fail; 0 disables failure.
	failOnCall int
	// calls counts Embed invocations.
	calls int
	// batches records the size of each received batch.
	batches []int
}

func (f *fakeBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, len(texts))
	if f.failOnCall != 0 && f.calls == f.failOnCall {
		return nil, fmt.Errorf("backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, f.dims)
		vec[0] = float32(len(texts[i])) // deterministic, text-dependent
		out[i] = vec
	}
	return out, nil
}

func Test_Gateway_SplitsBatchesPreservingOrder(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{dims: 4}
	g, err := NewGateway(backend, 4, 3)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "g"}
	vecs, err := g.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}

	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}
	for i, text := range texts {
		if vecs[i][0] != float32(len(text)) {
			t.Errorf("vector %d does not correspond to input %d (order not preserved)", i, i)
		}
	}

	wantBatches := []int{3, 3, 1}
	if len(backend.batches) != len(wantBatches) {
		t.Fatalf("backend saw %d calls, want %d", len(backend.batches), len(wantBatches))
	}
	for i, want := range wantBatches {
		if backend.batches[i] != want {
			t.Errorf("call %d carried %d texts, want %d", i, backend.batches[i], want)
		}
	}
}

func Test_Gateway_FailedBatchCarriesIndices(t *testing.T) {
	t.Parallel()

	// Three batches of 3; the second fails — indices [3, 6) must be reported.
	backend := &fakeBackend{dims: 4, failOnCall: 2}
	g, err := NewGateway(backend, 4, 3)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	texts := make([]string, 9)
	for i := range texts {
		texts[i] = "t"
	}

	_, err = g.EmbedBatch(context.Background(), texts)
	if !errors.Is(err, core.ErrEmbedding) {
		t.Fatalf("EmbedBatch error = %v, want ErrEmbedding", err)
	}

	var ee *core.EmbeddingError
	if !errors.As(err, &ee) {
		t.Fatal("error is not an *core.EmbeddingError")
	}
	if ee.Start != 3 || ee.End != 6 {
		t.Errorf("failed range = [%d, %d), want [3, 6)", ee.Start, ee.End)
	}
}

func Test_Gateway_RejectsDimensionalityDrift(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{dims: 8}
	g, err := NewGateway(backend, 16, 0)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	if _, err := g.EmbedBatch(context.Background(), []string{"x"}); !errors.Is(err, core.ErrEmbedding) {
		t.Errorf("mismatched vector size: got %v, want ErrEmbedding", err)
	}

	if err := g.Preflight(context.Background()); !errors.Is(err, core.ErrConfig) {
		t.Errorf("Preflight with wrong dims: got %v, want ErrConfig", err)
	}
}

func Test_Gateway_PreflightAcceptsMatchingDims(t *testing.T) {
	t.Parallel()

	g, err := NewGateway(&fakeBackend{dims: 12}, 12, 0)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	if err := g.Preflight(context.Background()); err != nil {
		t.Errorf("Preflight: %v", err)
	}
}

func Test_Gateway_EmptyInput(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{dims: 4}
	g, err := NewGateway(backend, 4, 0)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	vecs, err := g.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch(nil): %v", err)
	}
	if len(vecs) != 0 || backend.calls != 0 {
		t.Errorf("empty input produced %d vectors over %d calls, want 0 and 0", len(vecs), backend.calls)
	}
}

func Test_NewGateway_InvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewGateway(nil, 8, 0); !errors.Is(err, core.ErrConfig) {
		t.Errorf("nil backend: got %v, want ErrConfig", err)
	}
	if _, err := NewGateway(&fakeBackend{dims: 8}, 0, 0); !errors.Is(err, core.ErrConfig) {
		t.Errorf("zero dims: got %v, want ErrConfig", err)
	}
}
