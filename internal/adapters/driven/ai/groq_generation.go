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

// Ensure GroqGeneration implements GenerationService
var _ driven.GenerationService = (*GroqGeneration)(nil)

// GroqGeneration implements GenerationService against Groq's
// OpenAI-compatible chat completions API. A custom baseURL points it at
// any compatible provider.
type GroqGeneration struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGroqGeneration creates a new Groq generation service.
func NewGroqGeneration(apiKey, model, baseURL string) (driven.GenerationService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Groq API key is required")
	}
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return &GroqGeneration{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// chatCompletionRequest is the chat completions request body
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the chat completions response body
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate produces a completion for the given prompt. The adapter
// makes a single attempt; the chat pipeline owns retry and fallback.
func (g *GroqGeneration) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	resp, err := g.doRequest(ctx, reqBody)
	if err != nil {
		return "", &domain.GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Err: fmt.Errorf("no completion choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name being used.
func (g *GroqGeneration) Model() string {
	return g.model
}

// Ping verifies the generation service is reachable.
func (g *GroqGeneration) Ping(ctx context.Context) error {
	_, err := g.Generate(ctx, "ping", driven.GenerateOptions{MaxTokens: 1})
	return err
}

// Close releases resources held by the generation service.
func (g *GroqGeneration) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// doRequest posts one chat completion request
func (g *GroqGeneration) doRequest(ctx context.Context, reqBody chatCompletionRequest) (*chatCompletionResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("chat API error: %s (type: %s)", chatResp.Error.Message, chatResp.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}
	return &chatResp, nil
}
