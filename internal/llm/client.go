// Package llm is a minimal client for OpenAI-compatible chat completion
// APIs. Rate-limit handling comes from the shared apiclient policy.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/breakoutai/automail/internal/apiclient"
)

// DefaultBaseURL points at the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is the generation model used when config names none.
const DefaultModel = "llama3-8b-8192"

// Config holds provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client calls the chat completions endpoint.
type Client struct {
	cfg Config
	api *apiclient.Client
}

// NewClient creates a client. The apiclient carries the retry policy for
// this provider (3 attempts for generation-class calls, 5 for extraction).
func NewClient(cfg Config, api *apiclient.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{cfg: cfg, api: api}
}

// Options tunes a single completion request. Zero values mean provider
// defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a system+user prompt pair and returns the trimmed
// completion text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	req := apiclient.Request{
		Method: http.MethodPost,
		URL:    c.cfg.BaseURL + "/chat/completions",
		Header: http.Header{
			"Authorization": []string{"Bearer " + c.cfg.APIKey},
		},
		Body: chatRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		},
	}

	var resp chatResponse
	if err := c.api.DoJSON(ctx, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
