package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	ollamaEmbedPath    = "/api/embed"
	DefaultOllamaModel = "nomic-embed-text"
	ollamaMaxRetries   = 5
	ollamaInitialDelay = 1 * time.Second
)

// OllamaClient embeds text through an Ollama-compatible /api/embed endpoint.
// nomic-embed-text expects task prefixes, so documents and queries are sent
// as "search_document: ..." and "search_query: ...".
type OllamaClient struct {
	baseURL      string
	model        string
	client       *http.Client
	initialDelay time.Duration
}

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithOllamaURL sets the inference server base URL, e.g.
// http://localhost:11434. A URL that already ends in /api/embed is accepted.
func WithOllamaURL(url string) OllamaOption {
	return func(c *OllamaClient) {
		url = strings.TrimSuffix(strings.TrimRight(url, "/"), ollamaEmbedPath)
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithOllamaModel sets the model name.
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithOllamaRetryDelay sets the first retry delay.
func WithOllamaRetryDelay(d time.Duration) OllamaOption {
	return func(c *OllamaClient) { c.initialDelay = d }
}

// NewOllamaClient creates a client for a local embedding server.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL:      DefaultOllamaURL,
		model:        DefaultOllamaModel,
		client:       &http.Client{Timeout: 30 * time.Second},
		initialDelay: ollamaInitialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedDocument embeds an article body for storage.
func (c *OllamaClient) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, "search_document: "+text)
}

// EmbedQuery embeds a search query.
func (c *OllamaClient) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return c.embed(ctx, "search_query: "+query)
}

func (c *OllamaClient) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < ollamaMaxRetries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, backoff(attempt, c.initialDelay)); err != nil {
				return nil, err
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ollamaEmbedPath, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("local embedding request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("local embedding error (%d): %s", resp.StatusCode, string(respBody))
			if resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		var parsed ollamaEmbedResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(parsed.Embeddings) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return parsed.Embeddings[0], nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", ollamaMaxRetries, lastErr)
}
