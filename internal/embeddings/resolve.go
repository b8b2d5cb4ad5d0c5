package embeddings

import (
	"context"
)

// VoyageModelName is the model name that selects the remote Voyage AI
// backend. Every other name resolves to a local model served by Ollama.
const VoyageModelName = "voyage-lite"

// localAliases maps short model names to Ollama model tags. Names outside
// the table pass through as raw tags.
var localAliases = map[string]string{
	"minilm": "all-minilm",
	"bge-m3": "bge-m3",
}

// Config carries per-backend settings for Resolve
type Config struct {
	Ollama OllamaConfig
	Voyage VoyageConfig
}

// Resolve selects and constructs the embedding backend for a model name.
// Selection happens exactly once; the returned Embedder never re-dispatches.
// Constructing the local backend loads the model and probes its
// dimensionality, so a resolved Embedder is ready to serve.
func Resolve(ctx context.Context, model string, cfg Config) (Embedder, error) {
	if model == VoyageModelName {
		return NewVoyageClient(cfg.Voyage)
	}

	ollamaCfg := cfg.Ollama
	ollamaCfg.Model = model
	if alias, ok := localAliases[model]; ok {
		ollamaCfg.Model = alias
	}
	return NewOllamaClient(ctx, ollamaCfg)
}
