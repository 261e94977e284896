// Package llm provides the completion provider that turns a prompt into generated text.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/sqlrag/internal/config"
	"github.com/hyperjump/sqlrag/internal/openai"
)

// Completer maps a prompt to generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// Config holds configuration for the OpenAI completer.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// FromConfig converts the completion section of the application config, reading the key from the environment.
func FromConfig(cfg config.CompletionConfig) Config {
	return Config{
		APIKey:      cfg.APIKey(),
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
}

// OpenAICompleter uses the /chat/completions endpoint with a single user message.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
// Temperature has no omitempty: zero must reach the API, whose own default is not zero.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// NewOpenAICompleter returns a completer for an OpenAI-compatible API.
func NewOpenAICompleter(cfg Config) (*OpenAICompleter, error) {
	client, err := openai.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &OpenAICompleter{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Complete sends prompt as a user message and returns the first choice's content.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatCompletionMsg{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	var resp chatCompletionResponse
	if err := c.client.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ModelName returns the chat model name.
func (c *OpenAICompleter) ModelName() string { return c.model }

// Ping checks the API is reachable with the configured key.
func (c *OpenAICompleter) Ping(ctx context.Context) error { return c.client.Ping(ctx) }
