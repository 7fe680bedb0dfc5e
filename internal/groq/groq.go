// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package groq is a minimal client for the Groq chat completions API
// (OpenAI-compatible). Both the safety filter and the synthesizer go
// through this client.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/research-assistant/internal/httputil"
)

// DefaultBaseURL is the chat completions endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"

// Client calls the Groq API. BaseURL overrides the endpoint; tests point
// it at an httptest server.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for the chat completions endpoint.
type ChatRequest struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	Temperature         *float64  `json:"temperature,omitempty"`
	TopP                *float64  `json:"top_p,omitempty"`
	MaxCompletionTokens int       `json:"max_completion_tokens,omitempty"`
	Stream              bool      `json:"stream"`
}

// ChatResponse is the response body from the chat completions endpoint.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage reports token accounting for the call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError is returned for non-2xx responses so callers can distinguish
// authentication failures from transient server errors.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Groq API returned HTTP %d: %s", e.StatusCode, e.Body)
}

// IsAuth reports whether the error is an authentication failure.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ChatCompletion issues one chat completion call. HTTP 429 responses are
// retried with backoff; other non-2xx statuses become an *APIError.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, 0)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("calling Groq API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ChatResponse{}, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var cResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return ChatResponse{}, fmt.Errorf("decoding Groq response: %w", err)
	}

	if len(cResp.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("Groq API returned no choices")
	}

	return cResp, nil
}

// Complete is a convenience wrapper that sends an optional system prompt
// and one user message, returning the first choice's content.
func (c *Client) Complete(ctx context.Context, model, system, user string, maxTokens int) (string, error) {
	var messages []Message
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, Message{Role: "user", Content: user})

	resp, err := c.ChatCompletion(ctx, ChatRequest{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}
