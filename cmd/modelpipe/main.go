// Modelpipe - line-oriented stdin/stdout adapters for ML model inference
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

// errReported marks a failure the command already wrote to stderr in the
// form its wire protocol mandates, so main does not echo it again.
var errReported = errors.New("error already reported")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "modelpipe",
	Short: "Stdin/stdout adapters for ML model inference",
	Long: `Modelpipe exposes machine-learning model inference over simple
line-oriented stdin/stdout protocols, so a calling process in any language
can obtain text embeddings or structured document text without managing
an ML runtime of its own.

Two independent adapters:
  embed    - generate vector embeddings for one text or a JSONL batch
  extract  - persistent server turning documents into markdown and structure

Examples:
  # Embed a single document
  echo "database migration guide" | modelpipe embed

  # Embed a batch with the remote Voyage backend
  cat records.jsonl | modelpipe embed --model voyage-lite --batch

  # Serve DOCX extraction until stdin closes
  modelpipe extract < paths.txt`,
	Version: Version,

	// Fatal errors are reported in whatever form the failing adapter's
	// protocol mandates, so cobra's own echo stays quiet
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(extractCmd)
}
