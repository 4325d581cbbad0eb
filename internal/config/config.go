// Package config loads and validates the engine configuration.
//
// Precedence (highest to lowest): environment variables (ASKD_ prefix),
// YAML config file, hardcoded defaults. Invalid parameters fail at startup,
// never per document or per query.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/seastacklabs/askd/internal/agent"
	"github.com/seastacklabs/askd/internal/chunker"
	"github.com/seastacklabs/askd/internal/embeddings"
	"github.com/seastacklabs/askd/internal/ingest"
	"github.com/seastacklabs/askd/internal/llm"
	"github.com/seastacklabs/askd/internal/logging"
	"github.com/seastacklabs/askd/internal/retriever"
	"github.com/seastacklabs/askd/internal/vectorstore"
)

// ErrInvalidConfig indicates configuration that fails startup validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// SourcesConfig names the document sources to ingest.
type SourcesConfig struct {
	// Dirs are local directory corpora served by the directory connector.
	Dirs []string `koanf:"dirs"`
}

// GitHubConfig controls code-repository link enrichment.
type GitHubConfig struct {
	Token  string `koanf:"token"`
	Enrich bool   `koanf:"enrich"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the listener.
	Addr string `koanf:"addr"`
}

// Config is the complete engine configuration.
type Config struct {
	Sources   SourcesConfig        `koanf:"sources"`
	Chunking  chunker.Config       `koanf:"chunking"`
	Embedding embeddings.Config    `koanf:"embedding"`
	Ingest    ingest.Config        `koanf:"ingest"`
	Index     vectorstore.Config   `koanf:"index"`
	Retrieval retriever.Config     `koanf:"retrieval"`
	LLM       llm.Config           `koanf:"llm"`
	Database  agent.DatabaseConfig `koanf:"database"`
	GitHub    GitHubConfig         `koanf:"github"`
	Logging   logging.Config       `koanf:"logging"`
	Metrics   MetricsConfig        `koanf:"metrics"`
}

// NewDefault returns the built-in defaults.
func NewDefault() *Config {
	return &Config{
		Chunking: chunker.Config{
			Size:    chunker.DefaultSize,
			Overlap: chunker.DefaultOverlap,
		},
		Embedding: embeddings.Config{
			Model:       "text-embedding-3-small",
			BatchSize:   16,
			MaxAttempts: 4,
			Timeout:     30 * time.Second,
		},
		Ingest: ingest.Config{
			Concurrency: 4,
		},
		Index: vectorstore.Config{
			Path:       "vector_store/index.chromem",
			Collection: "askd_docs",
		},
		Retrieval: retriever.Config{
			TopK:     5,
			MinScore: 0.25,
		},
		LLM: llm.Config{
			Model:   "gpt-4o",
			Timeout: 60 * time.Second,
		},
		Database: agent.DatabaseConfig{
			Driver:       "sqlite",
			MaxRows:      100,
			QueryTimeout: 10 * time.Second,
		},
		Logging: *logging.NewDefaultConfig(),
	}
}

// Validate checks every startup-time invariant. Errors wrap ErrInvalidConfig
// (or the owning package's configuration sentinel).
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return err
	}
	if err := c.Embedding.Validate(); err != nil {
		return err
	}
	if err := c.Retrieval.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Index.Path == "" {
		return fmt.Errorf("%w: index path required", ErrInvalidConfig)
	}
	return nil
}
