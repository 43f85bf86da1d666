// Command documind is the entry point for the DocuMind document
// intelligence engine. It provides a CLI interface (via Cobra) and an
// HTTP server exposing the REST API.
package main

import (
	"fmt"
	"os"

	"github.com/documind-ai/documind-go/cmd/documind/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
