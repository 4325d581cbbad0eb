// Package embeddings converts text into fixed-dimension vectors via an
// OpenAI-compatible embedding endpoint (OpenAI, Azure OpenAI, or TEI).
//
// The Client owns the operational concerns the raw provider does not:
// splitting oversized batches, bounded retry with exponential backoff for
// transient failures, rate limiting, and per-call timeouts.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrTransient marks retryable provider failures (rate limits, timeouts,
	// 5xx responses). Subject to the bounded retry policy.
	ErrTransient = errors.New("transient embedding error")

	// ErrFatal marks auth/config failures. Propagated immediately; aborts
	// the enclosing pipeline step.
	ErrFatal = errors.New("fatal embedding error")

	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid embeddings configuration")
)

// Provider is the raw capability: one network call producing one vector per
// input text, order preserved. Satisfied by langchaingo's openai client.
type Provider interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Config holds client configuration.
type Config struct {
	BaseURL         string        `koanf:"base_url"`
	Model           string        `koanf:"model"`
	APIKey          string        `koanf:"api_key"`
	BatchSize       int           `koanf:"batch_size"`
	MaxAttempts     int           `koanf:"max_attempts"`
	RateLimitPerSec float64       `koanf:"rate_limit_per_sec"`
	Timeout         time.Duration `koanf:"timeout"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidConfig)
	}
	return nil
}

// Client wraps a Provider with batching, retry, and rate limiting.
type Client struct {
	provider Provider
	cfg      Config
	limiter  *rate.Limiter
	sleep    func(context.Context, time.Duration) error
}

// NewClient creates a Client around the given provider.
func NewClient(provider Provider, cfg Config) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	return &Client{
		provider: provider,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		sleep:    sleepCtx,
	}, nil
}

// Embed converts a single text into a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch converts texts into vectors, order preserved. Oversized batches
// are split at the configured batch size transparently to the caller.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts", ErrFatal, len(vectors), end-start)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// embedWithRetry issues one provider call with the bounded retry policy.
func (c *Client) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransient, err)
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if c.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		}
		vectors, err := c.provider.CreateEmbedding(callCtx, texts)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return vectors, nil
		}

		classified := classify(err)
		if errors.Is(classified, ErrFatal) {
			return nil, classified
		}
		lastErr = classified
		if attempt < c.cfg.MaxAttempts {
			if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransient, err)
			}
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

// backoffDelay returns the deterministic exponential backoff for an attempt
// number (1-based): 250ms, 500ms, 1s, ... capped at 8s.
func backoffDelay(attempt int) time.Duration {
	d := 250 * time.Millisecond << (attempt - 1)
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classify maps a provider error onto the Transient/Fatal taxonomy.
// Auth and configuration failures are fatal; everything else, including
// timeouts and rate limits, is worth retrying.
func classify(err error) error {
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrFatal) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"401", "403", "unauthorized", "forbidden", "invalid api key", "api key"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrFatal, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
