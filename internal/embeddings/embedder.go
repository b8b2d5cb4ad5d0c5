// Package embeddings provides vector embedding generation
package embeddings

import "context"

// Embedder generates vector embeddings from text. Callers embed whole
// batches; a single text goes through as a one-element batch.
type Embedder interface {
	// EmbedBatch generates embeddings for all texts in one backend call,
	// preserving input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector dimensions
	Dimensions() int

	// Model returns the model identifier
	Model() string

	// Close releases any resources
	Close() error
}
