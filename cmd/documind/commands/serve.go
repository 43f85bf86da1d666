package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/documind-ai/documind-go/internal/logging"
	"github.com/documind-ai/documind-go/internal/orchestrator"
	"github.com/documind-ai/documind-go/internal/server"
)

// NewServeCmd constructs the `documind serve` command, which starts the
// HTTP server exposing the REST API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DocuMind HTTP server",
		Long: `Start the DocuMind HTTP server on localhost.

The server exposes the REST API for document upload, deletion, and
retrieval-augmented question answering. A background reconciler keeps
the vector index consistent with the document store.

Examples:
  documind serve
  documind serve --port 9090
  documind serve --seed
  MODEL_PROVIDER=ollama documind serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Flags win over config; config fills in when flags are left
			// at their defaults.
			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("SERVER_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("SERVER_PORT", port)
			}

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting",
				slog.String("model_provider", getEnvOrDefault("MODEL_PROVIDER", "extractive")),
				slog.String("index_backend", getEnvOrDefault("INDEX_BACKEND", "qdrant")),
			)

			deps, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer deps.Close()

			// One probe embedding verifies the backend produces vectors of
			// the configured size. An unreachable backend is not fatal at
			// startup: /api/ready surfaces it and ingestion fails cleanly.
			if err := deps.Gateway.Preflight(ctx); err != nil {
				log.Warn("embedding preflight failed, ingestion will fail until the backend recovers",
					slog.Any("error", err))
			}

			if seed {
				if err := seedSampleCorpus(ctx, deps.Orch, log); err != nil {
					log.Warn("sample corpus seeding incomplete", slog.Any("error", err))
				}
			}

			deps.Orch.StartReconciler(ctx, orchestrator.DefaultReconcileInterval)

			srv, err := server.New(deps.Orch, &server.Config{
				Host:           host,
				Port:           port,
				Logger:         log,
				Pingers:        buildPingers(deps),
				APIKey:         os.Getenv("DOCUMIND_API_KEY"),
				RateLimit:      float64(getEnvFloat32("SERVER_RATE_LIMIT", 0)),
				RateBurst:      getEnvInt("SERVER_RATE_BURST", 0),
				MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 0)) << 20,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")
	cmd.Flags().BoolVar(&seed, "seed", false, "Seed the corpus with sample documents on startup")

	return cmd
}
