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

const (
	// EnvVoyageAPIKey names the environment variable holding the API key.
	// It is the only place the key is ever read from.
	EnvVoyageAPIKey = "VOYAGE_API_KEY"

	// voyageWireModel is the model requested from the Voyage API
	voyageWireModel = "voyage-3.5-lite"

	// voyageDimensions is fixed by the model; no probe call is needed
	voyageDimensions = 1024
)

// VoyageClient generates embeddings through the remote Voyage AI API
type VoyageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// voyageRequest is the request body for the embeddings API
type voyageRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// voyageResponse is the response from the embeddings API
type voyageResponse struct {
	Data []voyageEmbedding `json:"data"`
}

// voyageEmbedding contains a single embedding vector. Index is the position
// in the input array.
type voyageEmbedding struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// voyageError is the error response from the Voyage API
type voyageError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// VoyageConfig configures the Voyage client
type VoyageConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultVoyageConfig returns sensible defaults
func DefaultVoyageConfig() VoyageConfig {
	return VoyageConfig{
		BaseURL: "https://api.voyageai.com/v1",
		Timeout: 60 * time.Second,
	}
}

// NewVoyageClient creates a Voyage AI embeddings client. The API key must be
// present in the environment; its absence fails here, before any network
// traffic.
func NewVoyageClient(cfg VoyageConfig) (*VoyageClient, error) {
	apiKey := os.Getenv(EnvVoyageAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("VOYAGE_API_KEY environment variable required for voyage-lite model")
	}

	defaults := DefaultVoyageConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	return &VoyageClient{
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// EmbedBatch generates embeddings for all texts in a single API call.
// Vectors are placed by the index the API reports, so output order always
// matches input order.
func (c *VoyageClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	jsonBody, err := json.Marshal(voyageRequest{
		Input: texts,
		Model: voyageWireModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Voyage API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Voyage API returned status %d: %s", resp.StatusCode, voyageErrorMessage(body))
	}

	var parsed voyageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, fmt.Errorf("unexpected embedding index %d", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
		if len(emb) != voyageDimensions {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(emb), voyageDimensions)
		}
	}
	return embeddings, nil
}

// voyageErrorMessage digs the API's error message out of a failure body,
// falling back to the raw body
func voyageErrorMessage(body []byte) string {
	var parsed voyageError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(body)
}

// Dimensions returns the fixed embedding vector dimensions
func (c *VoyageClient) Dimensions() int {
	return voyageDimensions
}

// Model returns the wire model identifier
func (c *VoyageClient) Model() string {
	return voyageWireModel
}

// Close releases resources
func (c *VoyageClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
