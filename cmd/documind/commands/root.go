// Package commands defines all Cobra CLI commands for the documind binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/documind-ai/documind-go/internal/audit"
	"github.com/documind-ai/documind-go/internal/config"
	"github.com/documind-ai/documind-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "documind",
		Short: "DocuMind — retrieval-augmented question answering over your documents",
		Long: `DocuMind is a local-first document intelligence engine.

Upload text, Markdown, HTML, PDF, or DOCX documents and ask natural
language questions against them. Answers are grounded in retrieved
passages and always carry citations back to the source documents.

Answer synthesis backend is selected via the MODEL_PROVIDER environment
variable or a YAML config file (~/.documind/config.yaml); the default
extractive backend needs no external model at all.
See 'documind --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.documind/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewDocsCmd(),
		NewVersionCmd(),
	)

	return root
}
