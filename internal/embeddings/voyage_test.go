package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func markerVector(marker float32) []float32 {
	vec := make([]float32, voyageDimensions)
	vec[0] = marker
	return vec
}

func TestVoyageMissingAPIKey(t *testing.T) {
	t.Setenv(EnvVoyageAPIKey, "")

	_, err := NewVoyageClient(VoyageConfig{})
	if err == nil {
		t.Fatal("expected error without API key")
	}
	want := "VOYAGE_API_KEY environment variable required for voyage-lite model"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestVoyageFixedDimensions(t *testing.T) {
	t.Setenv(EnvVoyageAPIKey, "test-key")

	// Construction does no network traffic, so no server is needed
	client, err := NewVoyageClient(VoyageConfig{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	if client.Dimensions() != 1024 {
		t.Errorf("expected 1024 dimensions, got %d", client.Dimensions())
	}
	if client.Model() != "voyage-3.5-lite" {
		t.Errorf("expected voyage-3.5-lite, got %q", client.Model())
	}
}

func TestVoyageEmbedBatchOrdersByIndex(t *testing.T) {
	t.Setenv(EnvVoyageAPIKey, "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req voyageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model != "voyage-3.5-lite" {
			t.Errorf("expected wire model voyage-3.5-lite, got %q", req.Model)
		}
		if len(req.Input) != 2 {
			t.Errorf("expected 2 inputs, got %d", len(req.Input))
		}
		// Answer out of order; the client has to place by index
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "embedding": markerVector(99), "index": 1},
				{"object": "embedding", "embedding": markerVector(42), "index": 0},
			},
			"model": "voyage-3.5-lite",
		})
	}))
	defer srv.Close()

	client, err := NewVoyageClient(VoyageConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	got, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("embed batch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(got))
	}
	if got[0][0] != 42 || got[1][0] != 99 {
		t.Errorf("embeddings not placed by index: %v, %v", got[0][0], got[1][0])
	}
	if len(got[0]) != 1024 {
		t.Errorf("expected 1024 dimensions, got %d", len(got[0]))
	}
}

func TestVoyageAPIErrorMessage(t *testing.T) {
	t.Setenv(EnvVoyageAPIKey, "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": "rate limited",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer srv.Close()

	client, err := NewVoyageClient(VoyageConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.EmbedBatch(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected error from API failure")
	}
	if !strings.Contains(err.Error(), "status 429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVoyageMissingEmbedding(t *testing.T) {
	t.Setenv(EnvVoyageAPIKey, "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": markerVector(1), "index": 0},
			},
		})
	}))
	defer srv.Close()

	client, err := NewVoyageClient(VoyageConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.EmbedBatch(context.Background(), []string{"one", "two"})
	if err == nil {
		t.Fatal("expected error for missing embedding")
	}
	if !strings.Contains(err.Error(), "missing embedding for input 1") {
		t.Errorf("unexpected error: %v", err)
	}
}
