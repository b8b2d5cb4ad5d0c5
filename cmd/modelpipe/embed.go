package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/modelpipe/internal/config"
	"github.com/shivavenkatesh/modelpipe/internal/embeddings"
	"github.com/shivavenkatesh/modelpipe/internal/protocol"
	"github.com/shivavenkatesh/modelpipe/pkg/types"
)

var (
	embedModel string
	embedBatch bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate vector embeddings for text on stdin",
	Long: `Generate vector embeddings for text read from stdin.

In single mode the whole input stream is one document; the result is one
JSON line {"embedding": [...], "dimensions": N} on stdout.

In batch mode every input line is a JSON record {"id": ..., "text": ...}
and blank lines are skipped. All texts go to the backend in one call and
come back as one {"id", "embedding", "dimensions"} line per record, in
input order. An empty batch exits zero with no output.

Models:
  voyage-lite  - remote Voyage AI API (requires VOYAGE_API_KEY)
  minilm       - all-minilm served by a local Ollama (default)
  bge-m3       - bge-m3 served by a local Ollama
Any other name is passed to Ollama as a model tag verbatim.

Failures print a single {"error": ...} object to stderr and exit non-zero.

Examples:
  echo "some text" | modelpipe embed
  cat records.jsonl | modelpipe embed --batch
  echo "query" | modelpipe embed --model voyage-lite`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVar(&embedModel, "model", "minilm", "Model to use: voyage-lite, minilm, bge-m3, or an Ollama tag")
	embedCmd.Flags().BoolVar(&embedBatch, "batch", false, "Batch mode: read JSONL records from stdin")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return embedFatal(err)
	}

	embedder, err := embeddings.Resolve(ctx, embedModel, embeddings.Config{
		Ollama: embeddings.OllamaConfig{
			BaseURL: cfg.Embeddings.Ollama.BaseURL,
			Timeout: time.Duration(cfg.Embeddings.Ollama.TimeoutSeconds) * time.Second,
		},
		Voyage: embeddings.VoyageConfig{
			BaseURL: cfg.Embeddings.Voyage.BaseURL,
			Timeout: time.Duration(cfg.Embeddings.Voyage.TimeoutSeconds) * time.Second,
		},
	})
	if err != nil {
		return embedFatal(err)
	}
	defer embedder.Close()

	if embedBatch {
		err = protocol.EmbedBatch(ctx, embedder, os.Stdin, os.Stdout)
	} else {
		err = protocol.EmbedSingle(ctx, embedder, os.Stdin, os.Stdout)
	}
	if err != nil {
		return embedFatal(err)
	}
	return nil
}

// embedFatal reports a fatal error the way the embedding protocol mandates:
// exactly one JSON error object on stderr, then a non-zero exit
func embedFatal(err error) error {
	json.NewEncoder(os.Stderr).Encode(types.ErrorResult{Error: err.Error()})
	return errReported
}
