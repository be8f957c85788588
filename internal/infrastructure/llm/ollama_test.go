package llm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"HeatwaveScanner/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOllamaClient(config.OllamaConfig{
		Endpoint:   srv.URL,
		EmbedModel: "nomic-embed-text",
		ChatModel:  "llama3",
	})
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "nomic-embed-text" {
			t.Errorf("unexpected model %s", req["model"])
		}
		if req["prompt"] != "warm water" {
			t.Errorf("unexpected prompt %s", req["prompt"])
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	})

	got, err := client.Embed(context.Background(), "warm water")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != 3 || got[0] != 0.1 {
		t.Fatalf("unexpected embedding %v", got)
	}
}

func TestEmbedEmptyVector(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	})

	if _, err := client.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestEmbedBatchStopsOnError(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 2 {
			http.Error(w, "model crashed", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1}})
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c", "d"})
	if err == nil {
		t.Fatal("expected error from third embed")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "llama3" {
			t.Errorf("unexpected model %v", req["model"])
		}
		if req["stream"] != false {
			t.Errorf("expected stream=false, got %v", req["stream"])
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "it stays warm"})
	})

	got, err := client.Generate(context.Background(), "will it stay warm?")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "it stays warm" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestGenerateBadStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	if _, err := client.Generate(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"diagonal", []float32{1, 0}, []float32{1, 1}, 1 / math.Sqrt2},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CosineSimilarity(tc.a, tc.b)
			if err != nil {
				t.Fatalf("cosine: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if _, err := CosineSimilarity([]float32{1}, []float32{1, 2}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
