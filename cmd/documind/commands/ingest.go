package commands

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/logging"
	"github.com/documind-ai/documind-go/internal/orchestrator"
)

// NewIngestCmd constructs the `documind ingest` command, which ingests
// local files into the corpus without going through the HTTP server.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest local documents into the corpus",
		Long: `Ingest one or more local files into the DocuMind corpus.

Supported formats: plain text, Markdown, HTML, PDF, DOCX. The MIME type
is inferred from the file extension. Each file is processed to completion
before the command returns, so a zero exit status means every document
is READY and queryable.

Examples:
  documind ingest handbook.pdf
  documind ingest docs/*.md
  INDEX_BACKEND=chromem documind ingest notes.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			deps, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer deps.Close()

			if err := deps.Gateway.Preflight(ctx); err != nil {
				return fmt.Errorf("ingest: embedding backend not usable: %w", err)
			}

			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}

				name := filepath.Base(path)
				doc, err := deps.Orch.Ingest(ctx, orchestrator.IngestRequest{
					SourceName: name,
					MIMEType:   mime.TypeByExtension(filepath.Ext(name)),
					Data:       data,
				})
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", name, err)
				}

				final, err := deps.Orch.Await(ctx, doc.ID)
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", name, err)
				}

				switch final.Status {
				case core.StatusReady:
					fmt.Printf("%s  %s  READY\n", final.ID, name)
				default:
					failed++
					fmt.Printf("%s  %s  %s: %s\n", final.ID, name, final.Status, final.FailureCause)
				}
				log.Info("ingest finished",
					slog.String("document_id", final.ID),
					slog.String("source_name", name),
					slog.String("status", string(final.Status)),
				)
			}

			if failed > 0 {
				return fmt.Errorf("ingest: %d of %d documents failed", failed, len(args))
			}
			return nil
		},
	}

	return cmd
}
