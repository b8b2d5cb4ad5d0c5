package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveLocalAliases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		embeddings := make([][]float32, len(req.Input))
		for i := range embeddings {
			embeddings[i] = []float32{0.1, 0.2, 0.3, 0.4}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer srv.Close()

	tests := []struct {
		model   string
		wantTag string
	}{
		{"minilm", "all-minilm"},
		{"bge-m3", "bge-m3"},
		{"custom/embedder:latest", "custom/embedder:latest"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			emb, err := Resolve(context.Background(), tt.model, Config{
				Ollama: OllamaConfig{BaseURL: srv.URL},
			})
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			defer emb.Close()

			if emb.Model() != tt.wantTag {
				t.Errorf("expected tag %q, got %q", tt.wantTag, emb.Model())
			}
			if emb.Dimensions() != 4 {
				t.Errorf("expected probed dimensions 4, got %d", emb.Dimensions())
			}
			if _, ok := emb.(*OllamaClient); !ok {
				t.Errorf("expected local backend, got %T", emb)
			}
		})
	}
}

func TestResolveVoyage(t *testing.T) {
	t.Setenv(EnvVoyageAPIKey, "test-key")

	emb, err := Resolve(context.Background(), "voyage-lite", Config{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	defer emb.Close()

	if _, ok := emb.(*VoyageClient); !ok {
		t.Fatalf("expected remote backend, got %T", emb)
	}
	if emb.Dimensions() != 1024 {
		t.Errorf("expected 1024 dimensions, got %d", emb.Dimensions())
	}
}

func TestResolveVoyageWithoutKeyFailsBeforeNetwork(t *testing.T) {
	t.Setenv(EnvVoyageAPIKey, "")

	// An unreachable base URL proves construction never dials out
	_, err := Resolve(context.Background(), "voyage-lite", Config{
		Voyage: VoyageConfig{BaseURL: "http://127.0.0.1:1"},
	})
	if err == nil {
		t.Fatal("expected error without API key")
	}
	want := "VOYAGE_API_KEY environment variable required for voyage-lite model"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
