package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// Ensure JinaEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*JinaEmbedding)(nil)

// JinaEmbedding implements EmbeddingService using Jina's embedding API.
// The API is OpenAI-compatible, so a custom baseURL points this adapter
// at any compatible provider.
type JinaEmbedding struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	retry      retryPolicy
	client     *http.Client
}

// Known model dimensions for Jina embedding models
var jinaModelDimensions = map[string]int{
	"jina-embeddings-v2-base-en":  768,
	"jina-embeddings-v2-small-en": 512,
	"jina-embeddings-v3":          1024,
}

// NewJinaEmbedding creates a new Jina embedding service.
func NewJinaEmbedding(apiKey, model, baseURL string) (driven.EmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Jina API key is required")
	}
	if model == "" {
		model = "jina-embeddings-v2-base-en"
	}
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1"
	}

	dimensions, ok := jinaModelDimensions[model]
	if !ok {
		dimensions = 768
	}

	return &JinaEmbedding{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		retry:      defaultRetryPolicy(),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// jinaEmbeddingRequest is the request body for the embeddings endpoint
type jinaEmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// jinaEmbeddingResponse is the embeddings endpoint response
type jinaEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed generates embeddings for a batch of texts. Output order matches
// input order; a count mismatch from the provider is an error rather than
// silently dropped vectors.
func (e *JinaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp *jinaEmbeddingResponse
	err := e.retry.do(ctx, func() error {
		var rerr error
		resp, rerr = e.doRequest(ctx, jinaEmbeddingRequest{Input: texts, Model: e.model})
		return rerr
	})
	if err != nil {
		embErr := &domain.EmbeddingError{Err: err}
		// A rejected request fails the whole batch at once
		if isPermanent(err) {
			embErr.BatchIndices = make([]int, len(texts))
			for i := range embErr.BatchIndices {
				embErr.BatchIndices[i] = i
			}
		}
		return nil, embErr
	}

	if len(resp.Data) != len(texts) {
		missing := make([]int, 0)
		got := make(map[int]bool, len(resp.Data))
		for _, d := range resp.Data {
			got[d.Index] = true
		}
		for i := range texts {
			if !got[i] {
				missing = append(missing, i)
			}
		}
		return nil, &domain.EmbeddingError{
			BatchIndices: missing,
			Err:          fmt.Errorf("provider returned %d embeddings for %d inputs", len(resp.Data), len(texts)),
		}
	}

	// Order by index to match input order
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, &domain.EmbeddingError{Err: fmt.Errorf("provider returned out-of-range index %d", d.Index)}
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}

// EmbedQuery generates an embedding for a retrieval query.
func (e *JinaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("no embedding returned for query")}
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size.
func (e *JinaEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used.
func (e *JinaEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is reachable.
func (e *JinaEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service.
func (e *JinaEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// doRequest posts one embeddings request
func (e *JinaEmbedding) doRequest(ctx context.Context, reqBody jinaEmbeddingRequest) (*jinaEmbeddingResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp jinaEmbeddingResponse
		err := fmt.Errorf("embedding API returned status %d", resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			err = fmt.Errorf("embedding API returned status %d: %s (type: %s)", resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		if retryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, permanent(err)
	}

	var embResp jinaEmbeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s (type: %s)", embResp.Error.Message, embResp.Error.Type)
	}
	return &embResp, nil
}
