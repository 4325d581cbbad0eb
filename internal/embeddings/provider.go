package embeddings

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAIProvider builds a Provider backed by langchaingo's OpenAI client.
// Works against OpenAI, Azure OpenAI, and OpenAI-compatible servers such as
// TEI by pointing BaseURL at the server.
func NewOpenAIProvider(cfg Config) (Provider, error) {
	opts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai embedding client: %w", err)
	}
	return llm, nil
}
