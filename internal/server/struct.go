package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/docstore"
	"github.com/documind-ai/documind-go/internal/orchestrator"
	"github.com/documind-ai/documind-go/internal/retrieval"
)

// DefaultMaxUploadBytes caps the size of a single document upload.
const DefaultMaxUploadBytes = 10 << 20

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// MaxUploadBytes is the largest accepted document upload.
	// Defaults to [DefaultMaxUploadBytes] if zero.
	MaxUploadBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics and backs GET /metrics.
	// If nil a private registry is created.
	Registry *prometheus.Registry
}

// engine is the interface handlers call into the RAG orchestrator through.
// *orchestrator.Orchestrator satisfies it; tests inject a fake.
type engine interface {
	Ingest(ctx context.Context, req orchestrator.IngestRequest) (core.Document, error)
	Answer(ctx context.Context, question string, params retrieval.Params) (orchestrator.Result, error)
	Delete(ctx context.Context, documentID string) error
	GetDocument(ctx context.Context, documentID string) (core.Document, error)
	ListDocuments(ctx context.Context) ([]core.Document, error)
	Stats(ctx context.Context) (docstore.Stats, error)
	ActiveIngests() int
}

// Server is the HTTP server that exposes the RAG engine as a REST API.
type Server struct {
	// engine is the orchestrator facade handlers delegate to; set to the real
	// orchestrator in production, overridden by a fake in tests.
	engine engine
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds this instance's Prometheus metrics.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// documentResponse is the JSON representation of a document record.
type documentResponse struct {
	// ID is the engine-assigned document identifier.
	ID string `json:"id"`
	// SourceName is the original file name as uploaded.
	SourceName string `json:"source_name"`
	// MIMEType is the declared MIME type of the upload.
	MIMEType string `json:"mime_type"`
	// IngestedAt is when the upload was accepted.
	IngestedAt time.Time `json:"ingested_at"`
	// Status is the lifecycle status (PENDING, READY, FAILED, DELETING).
	Status string `json:"status"`
	// FailureCause explains a FAILED status. Empty otherwise.
	FailureCause string `json:"failure_cause,omitempty"`
}

// listDocumentsResponse is the JSON response for GET /api/documents.
type listDocumentsResponse struct {
	// Documents are the live document records in upload order.
	Documents []documentResponse `json:"documents"`
	// Total is the number of live documents.
	Total int `json:"total"`
}

// queryRequest is the JSON body for POST /api/query.
type queryRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
	// TopK overrides the configured number of passages to retrieve.
	// Zero means use the server default.
	TopK int `json:"top_k,omitempty"`
	// MinScore overrides the configured similarity floor for this query.
	// Omitted keeps the configured floor; an explicit 0 disables it.
	MinScore *float32 `json:"min_score,omitempty"`
}

// citation is one retrieved passage backing an answer.
type citation struct {
	// ChunkID identifies the cited chunk.
	ChunkID string `json:"chunk_id"`
	// DocumentID identifies the owning document.
	DocumentID string `json:"document_id"`
	// SourceName is the owning document's original file name.
	SourceName string `json:"source_name"`
	// Text is the chunk text at retrieval time.
	Text string `json:"text"`
	// Score is the similarity score from the vector search.
	Score float32 `json:"score"`
	// Rank is the 1-based position in the ranked result list.
	Rank int `json:"rank"`
}

// queryResponse is the JSON response for POST /api/query.
type queryResponse struct {
	// Question echoes the question as asked.
	Question string `json:"question"`
	// Answer is the synthesized answer text.
	Answer string `json:"answer"`
	// Citations lists the passages the answer is grounded in, in rank order.
	Citations []citation `json:"citations"`
	// ProcessingTimeMs is the total server-side processing time.
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// healthResponse is the JSON response for GET /api/health.
type healthResponse struct {
	// Status is "ok" whenever the process is alive.
	Status string `json:"status"`
	// Documents is the number of live document records.
	Documents int `json:"documents"`
	// Chunks is the total number of stored chunks.
	Chunks int `json:"chunks"`
	// ByStatus breaks Documents down by lifecycle status.
	ByStatus map[string]int `json:"by_status"`
	// ActiveIngests is the number of ingest pipelines currently running.
	ActiveIngests int `json:"active_ingests"`
}
