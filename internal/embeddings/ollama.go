package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// OllamaClient serves local embedding models through Ollama's embed API
type OllamaClient struct {
	baseURL    string
	model      string
	dims       int
	httpClient *http.Client
}

// ollamaRequest is the request payload for Ollama embed API
type ollamaRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// OllamaConfig configures the Ollama client
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOllamaConfig returns sensible defaults
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL: getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
		Model:   "all-minilm",
		Timeout: 120 * time.Second,
	}
}

// NewOllamaClient creates an Ollama embeddings client and loads the model.
// The probe embedding forces Ollama to bring the model into memory (pulling
// weights on first use is Ollama's business) and reveals its dimensionality,
// which is recorded once and reused for every response.
func NewOllamaClient(ctx context.Context, cfg OllamaConfig) (*OllamaClient, error) {
	defaults := DefaultOllamaConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	c := &OllamaClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	probe, err := c.embedTexts(ctx, []string{"hello"})
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", c.model, err)
	}
	if len(probe) == 0 || len(probe[0]) == 0 {
		return nil, fmt.Errorf("failed to load model %q: probe returned no embedding", c.model)
	}
	c.dims = len(probe[0])
	return c, nil
}

// EmbedBatch generates embeddings for all texts in a single Ollama call
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := c.embedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}
	for i, emb := range embeddings {
		if len(emb) != c.dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(emb), c.dims)
		}
	}
	return embeddings, nil
}

func (c *OllamaClient) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	jsonBody, err := json.Marshal(ollamaRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	embeddings, err := c.parseEmbeddingsStream(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return embeddings, nil
}

// parseEmbeddingsStream extracts the embeddings array without a full JSON
// parse. Faster than json.Unmarshal for large vector payloads.
func (c *OllamaClient) parseEmbeddingsStream(r io.Reader) ([][]float32, error) {
	dec := json.NewDecoder(r)

	// Find the embeddings array
	for {
		t, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if key, ok := t.(string); ok && key == "embeddings" {
			// Read opening bracket of the outer array
			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			var embeddings [][]float32
			for dec.More() {
				// Opening bracket of one vector
				if _, err := dec.Token(); err != nil {
					return nil, err
				}
				embedding := make([]float32, 0, c.dims)
				for dec.More() {
					var f float64
					if err := dec.Decode(&f); err != nil {
						return nil, err
					}
					embedding = append(embedding, float32(f))
				}
				// Closing bracket of the vector
				if _, err := dec.Token(); err != nil {
					return nil, err
				}
				embeddings = append(embeddings, embedding)
			}
			return embeddings, nil
		}
	}

	return nil, fmt.Errorf("no embeddings found in response")
}

// Dimensions returns the embedding vector dimensions probed at load time
func (c *OllamaClient) Dimensions() int {
	return c.dims
}

// Model returns the Ollama model tag being served
func (c *OllamaClient) Model() string {
	return c.model
}

// Close releases resources
func (c *OllamaClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
