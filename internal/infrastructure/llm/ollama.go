package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"HeatwaveScanner/internal/config"
	"HeatwaveScanner/internal/ports"
)

// OllamaClient talks to a local Ollama server for both embeddings and
// chat generation. The same embedding model must serve indexing and
// querying, so one client instance is shared by both use cases.
type OllamaClient struct {
	endpoint   string
	embedModel string
	chatModel  string
	httpClient *http.Client
}

var _ ports.Embedder = (*OllamaClient)(nil)
var _ ports.ChatModel = (*OllamaClient)(nil)

// NewOllamaClient builds a client from configuration.
func NewOllamaClient(cfg config.OllamaConfig) *OllamaClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "llama3"
	}

	return &OllamaClient{
		endpoint:   endpoint,
		embedModel: embedModel,
		chatModel:  chatModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embedResponse
	if err := c.post(ctx, "/api/embeddings", embedRequest{Model: c.embedModel, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts sequentially; Ollama has no native batch API.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a non-streaming completion for the rendered prompt.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	var resp generateResponse
	if err := c.post(ctx, "/api/generate", generateRequest{Model: c.chatModel, Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *OllamaClient) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("ollama returned %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// in [-1, 1]. Vectors must share dimensionality.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		af := float64(a[i])
		bf := float64(b[i])
		dot += af * bf
		normA += af * af
		normB += bf * bf
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
