// Package summarizer turns a transcript into a structured summary via an
// OpenAI-compatible chat completions endpoint. The prompt, temperature,
// and token budget are fixed; only the model and credentials vary.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lectern/traced"
)

const (
	temperature = 0.7
	maxTokens   = 500

	systemPrompt = "You are a helpful assistant that creates concise summaries."

	userPromptHeader = `Please provide a concise summary of the following text: -MAIN TOPICS AND KEY POINTS
IMPORTANT CONCEPTS AND DEFINITIONS
-ANY SIGNIFICANT EXAMPLES MENTIONED
-KEY TAKEAWAYS
HERE IS THE TEXT`
)

// AuthError means the API rejected the credential (HTTP 401 or 403).
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (HTTP %d): check the API key", e.Status)
}

// APIError is any other non-success response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("summarization API error %d: %s", e.Status, e.Message)
}

// NetworkError wraps transport failures: DNS, refused connections,
// timeouts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("summarization request: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

type Summary struct {
	Text      string
	Model     string
	CreatedAt time.Time
	Metrics   *traced.Metrics
}

type Client struct {
	client  *traced.Client
	baseURL string
	apiKey  string
	model   string
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		client:  traced.NewClient(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

// Warm opens the TLS connection ahead of the first request.
func (c *Client) Warm() { c.client.WarmConnection(c.baseURL) }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize sends the transcript and returns the model's summary.
func (c *Client) Summarize(ctx context.Context, text string) (*Summary, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPromptHeader + text},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	var cResp chatResponse
	if err := json.Unmarshal(resp.Body, &cResp); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if len(cResp.Choices) == 0 {
		return nil, &APIError{Status: resp.StatusCode, Message: "response contained no choices"}
	}

	return &Summary{
		Text:      cResp.Choices[0].Message.Content,
		Model:     c.model,
		CreatedAt: time.Now(),
		Metrics:   resp.Metrics,
	}, nil
}

// errorMessage extracts the API's error text from a failure body, falling
// back to the raw body when it is not the usual JSON shape.
func errorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = "no error details"
	}
	return msg
}
