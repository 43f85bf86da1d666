// Package embedder translates text to dense vector embeddings for the
// retrieval engine. A Gateway fronts a concrete Backend (OpenAI, Azure
// OpenAI, Ollama — all plain HTTP, no SDK dependencies) and enforces the
// engine's embedding contract: order-preserving batch splitting, a fixed
// vector dimensionality, and typed per-batch failures. The Gateway caches
// nothing and performs no retries — retry policy belongs to the caller.
package embedder

import (
	"context"
	"fmt"

	"github.com/documind-ai/documind-go/internal/core"
)

// DefaultMaxBatch is the maximum number of texts submitted to the backend
// in a single call when no explicit limit is configured. Large enough to
// amortize per-request latency, small enough to stay under common API
// payload limits.
const DefaultMaxBatch = 64

// Backend converts a batch of texts into their embeddings. The returned
// slice is parallel to the input. Implementations must be safe to call
// from multiple goroutines.
type Backend interface {
	// Embed converts texts into their corresponding embeddings, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Gateway is the embedding gateway used by ingestion and retrieval.
// It is safe for concurrent use.
type Gateway struct {
	// backend performs the actual embedding calls.
	backend Backend
	// maxBatch is the largest batch submitted to the backend per call.
	maxBatch int
	// dims is the expected vector dimensionality, verified by Preflight
	// and on every batch the backend returns.
	dims int
}

// NewGateway constructs a Gateway over the given backend. dims is the
// fixed embedding dimensionality for this deployment; maxBatch limits the
// per-call batch size (0 selects DefaultMaxBatch).
func NewGateway(backend Backend, dims, maxBatch int) (*Gateway, error) {
	if backend == nil {
		return nil, fmt.Errorf("embedder: backend must not be nil: %w", core.ErrConfig)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("embedder: dimensionality %d must be positive: %w", dims, core.ErrConfig)
	}
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Gateway{backend: backend, maxBatch: maxBatch, dims: dims}, nil
}

// Dimensions returns the fixed embedding dimensionality.
func (g *Gateway) Dimensions() int { return g.dims }

// EmbedBatch embeds texts, splitting internally into backend calls of at
// most maxBatch inputs while preserving input order in the result. On
// failure it returns a core.EmbeddingError identifying the input range
// that failed; inputs before that range were embedded successfully but
// the partial result is discarded.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.maxBatch {
		end := start + g.maxBatch
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := g.backend.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, &core.EmbeddingError{Start: start, End: end, Err: err}
		}
		if len(vecs) != end-start {
			return nil, &core.EmbeddingError{
				Start: start,
				End:   end,
				Err:   fmt.Errorf("backend returned %d vectors for %d inputs", len(vecs), end-start),
			}
		}
		for i, v := range vecs {
			if len(v) != g.dims {
				return nil, &core.EmbeddingError{
					Start: start,
					End:   end,
					Err:   fmt.Errorf("vector %d has %d dimensions, deployment uses %d", start+i, len(v), g.dims),
				}
			}
		}
		out = append(out, vecs...)
	}

	return out, nil
}

// EmbedOne embeds a single text, typically a query.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Ping probes the backend when it supports a cheap reachability check
// (Ollama does). Backends without one report healthy; Preflight already
// covers them at startup.
func (g *Gateway) Ping(ctx context.Context) error {
	if p, ok := g.backend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Name returns the backend's readiness label.
func (g *Gateway) Name() string {
	if n, ok := g.backend.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "embedder"
}

// Preflight verifies at startup that the backend produces vectors of the
// configured dimensionality, by embedding a short probe text. A mismatch
// is a configuration error, not a per-call failure: every vector in the
// index must share one dimensionality.
func (g *Gateway) Preflight(ctx context.Context) error {
	vecs, err := g.backend.Embed(ctx, []string{"dimensionality probe"})
	if err != nil {
		return fmt.Errorf("embedder: preflight embed failed: %w", err)
	}
	if len(vecs) != 1 {
		return fmt.Errorf("embedder: preflight returned %d vectors: %w", len(vecs), core.ErrConfig)
	}
	if len(vecs[0]) != g.dims {
		return fmt.Errorf("embedder: backend produces %d-dimensional vectors but %d configured: %w",
			len(vecs[0]), g.dims, core.ErrConfig)
	}
	return nil
}
