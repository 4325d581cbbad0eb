// Package llm provides the text-in/text-out capability interface for a
// language model, backed by langchaingo's OpenAI-compatible client. The core
// assumes no structured contract beyond prompt → generated text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ErrInvalidConfig indicates invalid LLM configuration.
var ErrInvalidConfig = errors.New("invalid llm configuration")

// Client is the capability interface the agents consume. Mocked in tests.
type Client interface {
	// Generate produces text for a system + user prompt pair.
	Generate(ctx context.Context, system, user string) (string, error)
}

// Config holds LLM client configuration.
type Config struct {
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// OpenAIClient implements Client against OpenAI, Azure OpenAI, or any
// OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	model   llms.Model
	timeout time.Duration
}

// New creates an OpenAIClient.
func New(cfg Config) (*OpenAIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{model: model, timeout: timeout}, nil
}

// Generate implements Client.
func (c *OpenAIClient) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, buildMessages(system, user))
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// buildMessages assembles the system + user prompt pair in the shape
// GenerateContent expects.
func buildMessages(system, user string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}
}
