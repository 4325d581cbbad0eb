// Package retriever implements the online query path: embed the question,
// search the loaded index, and filter by the relevance threshold.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"github.com/seastacklabs/askd/internal/vectorstore"
)

// ErrInvalidConfig indicates invalid retrieval parameters.
var ErrInvalidConfig = errors.New("invalid retrieval configuration")

// Config holds retrieval parameters. MinScore defines "relevant": results
// scoring below it are discarded. Both are tuning knobs, not fixed behavior.
type Config struct {
	TopK     int     `koanf:"top_k"`
	MinScore float64 `koanf:"min_score"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be in [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Embedder is the single-query embedding capability the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the index capability the retriever needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error)
}

// Result is one scored chunk with its source metadata. Ephemeral: constructed
// per query, never persisted.
type Result struct {
	ChunkID    string
	DocumentID string
	Text       string
	Score      float32
	Title      string
	OriginURL  string
	SourceType string
}

// Retriever performs top-k similarity search with threshold filtering.
type Retriever struct {
	embedder Embedder
	index    Searcher
	cfg      Config
}

// New creates a Retriever.
func New(embedder Embedder, index Searcher, cfg Config) (*Retriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Retriever{embedder: embedder, index: index, cfg: cfg}, nil
}

// Retrieve returns relevant chunks for the query, best score first. An empty
// result means no relevant content: either nothing scored above the
// threshold or the index is empty. Callers treat both as "not found".
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Result, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := r.index.Search(ctx, vector, r.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		if float64(m.Score) < r.cfg.MinScore {
			continue
		}
		results = append(results, Result{
			ChunkID:    m.ID,
			DocumentID: m.Metadata.DocumentID,
			Text:       m.Text,
			Score:      m.Score,
			Title:      m.Metadata.Title,
			OriginURL:  m.Metadata.OriginURL,
			SourceType: m.Metadata.SourceType,
		})
	}
	return results, nil
}
