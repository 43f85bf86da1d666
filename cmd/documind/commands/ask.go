package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/documind-ai/documind-go/internal/logging"
	"github.com/documind-ai/documind-go/internal/retrieval"
)

// NewAskCmd constructs the `documind ask` command, which answers a single
// natural language question from the corpus and prints the citations.
func NewAskCmd() *cobra.Command {
	var topK int
	var minScore float32
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against the ingested documents",
		Long: `Ask the DocuMind engine a natural language question.

The answer is synthesized from passages retrieved out of the ingested
corpus and always carries citations. With the default extractive backend
no external model is contacted at all.

Examples:
  documind ask "how many vacation days do employees get?"
  documind ask --top-k 3 "what encryption does CloudSync use?"
  documind ask --sources "what are the API rate limits?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			deps, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer deps.Close()

			params := retrieval.Params{TopK: topK}
			if cmd.Flags().Changed("min-score") {
				params.MinScore = &minScore
			}
			result, err := deps.Orch.Answer(ctx, args[0], params)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(result.Answer)

			if showSources && len(result.Passages) > 0 {
				fmt.Println("\nSources:")
				for _, p := range result.Passages {
					fmt.Printf("  [%d] %s (score %.3f)\n", p.Rank, p.SourceName, p.Score)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of passages to retrieve (0 uses the configured default)")
	cmd.Flags().Float32Var(&minScore, "min-score", 0, "Similarity floor for this query (an explicit 0 disables the configured floor)")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Print the ranked citation list after the answer")

	return cmd
}
