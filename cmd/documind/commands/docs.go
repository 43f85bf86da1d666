package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/documind-ai/documind-go/internal/logging"
)

// NewDocsCmd constructs the `documind docs` command group for corpus
// inspection and maintenance.
func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List and manage ingested documents",
	}

	cmd.AddCommand(newDocsListCmd(), newDocsDeleteCmd(), newDocsStatsCmd())
	return cmd
}

// newDocsListCmd constructs `documind docs list`.
func newDocsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all documents in the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			deps, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			defer deps.Close()

			docs, err := deps.Orch.ListDocuments(ctx)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			if len(docs) == 0 {
				fmt.Println("no documents ingested")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSOURCE\tSTATUS\tINGESTED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					d.ID, d.SourceName, d.Status, d.IngestedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

// newDocsDeleteCmd constructs `documind docs delete`.
func newDocsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [document-id]",
		Short: "Delete a document and its vectors from the corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			deps, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("docs delete: %w", err)
			}
			defer deps.Close()

			if err := deps.Orch.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("docs delete: %w", err)
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

// newDocsStatsCmd constructs `documind docs stats`.
func newDocsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			deps, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("docs stats: %w", err)
			}
			defer deps.Close()

			stats, err := deps.Orch.Stats(ctx)
			if err != nil {
				return fmt.Errorf("docs stats: %w", err)
			}

			fmt.Printf("documents: %d\n", stats.Documents)
			fmt.Printf("chunks:    %d\n", stats.Chunks)
			for status, n := range stats.ByStatus {
				fmt.Printf("  %s: %d\n", status, n)
			}
			return nil
		},
	}
}
