package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/documind-ai/documind-go/internal/chunker"
	"github.com/documind-ai/documind-go/internal/docstore"
	"github.com/documind-ai/documind-go/internal/embedder"
	"github.com/documind-ai/documind-go/internal/orchestrator"
	"github.com/documind-ai/documind-go/internal/retrieval"
	"github.com/documind-ai/documind-go/internal/server"
	"github.com/documind-ai/documind-go/internal/synth"
	"github.com/documind-ai/documind-go/internal/vecindex"
)

// engineDeps bundles the wired engine and the handles the caller needs
// for readiness probes and shutdown.
type engineDeps struct {
	// Orch is the fully wired orchestrator.
	Orch *orchestrator.Orchestrator
	// Gateway is the embedding gateway, usable as a readiness pinger.
	Gateway *embedder.Gateway
	// Qdrant is non-nil when the qdrant index backend is in use.
	Qdrant *vecindex.QdrantBackend
	// Close releases the store and index in reverse wiring order.
	Close func()
}

// buildEngine wires store, index, embedder, chunker, retrieval and
// synthesis into an orchestrator from environment variables. Every
// subcommand that touches the corpus goes through here so CLI and
// server behave identically.
func buildEngine(ctx context.Context, log *slog.Logger) (*engineDeps, error) {
	embedder.WarnOnSuspectModel(log)

	gateway, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("provider", getEnvOrDefault("EMBEDDING_PROVIDER", "ollama")),
		slog.Int("dimensions", gateway.Dimensions()),
	)

	store, err := openStore(log)
	if err != nil {
		return nil, err
	}

	backend, qdrantBackend, err := openIndexBackend(ctx, gateway.Dimensions(), log)
	if err != nil {
		store.Close()
		return nil, err
	}

	adapter, err := vecindex.NewAdapter(backend, 0)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, fmt.Errorf("failed to create index adapter: %w", err)
	}

	chk, err := chunker.New(
		getEnvInt("CHUNK_SIZE", chunker.DefaultSize),
		getEnvInt("CHUNK_OVERLAP", chunker.DefaultOverlap),
	)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, fmt.Errorf("invalid chunking configuration: %w", err)
	}

	engine, err := retrieval.NewEngine(gateway, adapter, store, retrieval.Options{
		TopK:      getEnvInt("RETRIEVAL_TOP_K", 0),
		Overfetch: getEnvInt("RETRIEVAL_OVERFETCH", 0),
		MinScore:  getEnvFloat32("RETRIEVAL_MIN_SCORE", 0),
	})
	if err != nil {
		store.Close()
		backend.Close()
		return nil, fmt.Errorf("invalid retrieval configuration: %w", err)
	}

	synthesizer, err := synth.NewFromEnv(ctx)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, fmt.Errorf("failed to initialise synthesis backend: %w", err)
	}
	log.Info("synthesis backend initialised",
		slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "extractive")))

	orch, err := orchestrator.New(store, adapter, gateway, chk, engine, synthesizer, log)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	closeAll := func() {
		_ = orch.Close()
		_ = backend.Close()
		_ = store.Close()
	}

	return &engineDeps{
		Orch:    orch,
		Gateway: gateway,
		Qdrant:  qdrantBackend,
		Close:   closeAll,
	}, nil
}

// openStore opens the SQLite document store. DOCUMIND_DB overrides the
// default path (~/.documind/corpus.db).
func openStore(log *slog.Logger) (docstore.Store, error) {
	dbPath := os.Getenv("DOCUMIND_DB")
	if dbPath == "" {
		var err error
		dbPath, err = docstore.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("could not resolve store path: %w", err)
		}
	}
	store, err := docstore.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store at %s: %w", dbPath, err)
	}
	log.Info("document store opened", slog.String("path", dbPath))
	return store, nil
}

// openIndexBackend constructs the vector index backend selected by
// INDEX_BACKEND: qdrant (default), chromem, or memory. The second return
// value is non-nil only for qdrant, where the caller wants the native
// health check for readiness probes.
func openIndexBackend(ctx context.Context, dims int, log *slog.Logger) (vecindex.Backend, *vecindex.QdrantBackend, error) {
	metric, err := vecindex.ParseMetric(os.Getenv("INDEX_METRIC"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid INDEX_METRIC: %w", err)
	}

	switch backend := getEnvOrDefault("INDEX_BACKEND", "qdrant"); backend {
	case "qdrant":
		host := getEnvOrDefault("QDRANT_HOST", "localhost")
		port := getEnvInt("QDRANT_PORT", 6334)
		qb, err := vecindex.NewQdrantBackend(ctx, &vecindex.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: getEnvOrDefault("QDRANT_COLLECTION", "documind"),
			VectorSize: uint64(dims), //nolint:gosec // dimensions are bounded
			Metric:     metric,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		log.Info("qdrant index ready", slog.String("host", host), slog.Int("port", port))
		return qb, qb, nil

	case "chromem":
		cb, err := vecindex.NewChromemBackend(&vecindex.ChromemConfig{
			Path:       os.Getenv("CHROMEM_PATH"),
			Collection: getEnvOrDefault("CHROMEM_COLLECTION", "documind"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chromem index: %w", err)
		}
		log.Info("chromem index ready", slog.String("path", getEnvOrDefault("CHROMEM_PATH", "(in-memory)")))
		return cb, nil, nil

	case "memory":
		log.Warn("index backend is in-memory, vectors are lost on exit")
		return vecindex.NewMemoryBackend(metric), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown INDEX_BACKEND %q (valid: qdrant, chromem, memory)", backend)
	}
}

// buildPingers assembles the readiness probes for GET /api/ready from
// the wired dependencies.
func buildPingers(deps *engineDeps) []server.Pinger {
	var pingers []server.Pinger
	pingers = append(pingers, deps.Gateway)
	if deps.Qdrant != nil {
		pingers = append(pingers, server.NewQdrantPinger(deps.Qdrant))
	}
	return pingers
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the named environment variable parsed as an int, or
// fallback when unset or unparseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvFloat32 returns the named environment variable parsed as a
// float32, or fallback when unset or unparseable.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
