package server

import (
	"context"
	"fmt"

	"github.com/documind-ai/documind-go/internal/vecindex"
)

// Pinger is the interface implemented by any dependency that can report its
// own reachability. Each implementation must return nil when the dependency
// is healthy and a descriptive error otherwise.
// Implementations must be safe to call from multiple goroutines.
//
// The embedding backends in internal/embedder satisfy this interface
// directly where the wire protocol offers a cheap probe.
type Pinger interface {
	// Ping checks whether the dependency is reachable within the given context.
	// Returns nil on success, a descriptive error on failure.
	Ping(ctx context.Context) error

	// Name returns a short human-readable label used in readiness responses
	// (e.g. "ollama", "qdrant").
	Name() string
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// backend is the Qdrant index backend to probe.
	backend *vecindex.QdrantBackend
}

// NewQdrantPinger constructs a QdrantPinger for the given index backend.
func NewQdrantPinger(backend *vecindex.QdrantBackend) *QdrantPinger {
	return &QdrantPinger{backend: backend}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if err := p.backend.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
