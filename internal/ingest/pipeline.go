// Package ingest orchestrates the offline pipeline: fetch documents from the
// configured sources, extract and chunk their text, embed the chunks, and
// bulk-load a fresh vector index.
//
// The pipeline builds into a new in-memory index and only replaces the
// persisted artifact after a successful full build, so a failed rebuild never
// corrupts the previously working index.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seastacklabs/askd/internal/chunker"
	"github.com/seastacklabs/askd/internal/embeddings"
	"github.com/seastacklabs/askd/internal/logging"
	"github.com/seastacklabs/askd/internal/source"
	"github.com/seastacklabs/askd/internal/vectorstore"
)

// Embedder is the batch embedding capability the pipeline needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Failure records one skipped document.
type Failure struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}

// Report summarizes one ingestion run. Persisted as JSON beside the index.
type Report struct {
	DocumentsProcessed int       `json:"documents_processed"`
	ChunksCreated      int       `json:"chunks_created"`
	Failures           []Failure `json:"failures,omitempty"`

	// Fatal is set when the run was aborted by a non-skippable error
	// (embedding auth failure, index persistence failure).
	Fatal string `json:"fatal,omitempty"`
}

// Config holds pipeline configuration.
type Config struct {
	// Concurrency bounds the number of documents processed at once.
	Concurrency int `koanf:"concurrency"`
}

// Pipeline builds the vector index from document sources.
type Pipeline struct {
	connectors []source.Connector
	chunker    *chunker.Chunker
	embedder   Embedder
	indexCfg   vectorstore.Config
	cfg        Config
	logger     *logging.Logger
}

// New creates a Pipeline. Chunker construction has already validated the
// chunking parameters, so configuration errors surface before any document
// is touched.
func New(connectors []source.Connector, ch *chunker.Chunker, embedder Embedder, indexCfg vectorstore.Config, cfg Config, logger *logging.Logger) (*Pipeline, error) {
	if len(connectors) == 0 {
		return nil, errors.New("at least one source connector is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		connectors: connectors,
		chunker:    ch,
		embedder:   embedder,
		indexCfg:   indexCfg,
		cfg:        cfg,
		logger:     logger.Named("ingest"),
	}, nil
}

// Run executes a full rebuild. Per-document failures are recorded in the
// report and skipped; a fatal embedding or persistence error aborts the run
// and leaves any previously persisted index untouched.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	index, err := vectorstore.New(p.indexCfg)
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	report := &Report{}
	var mu sync.Mutex

	for _, conn := range p.connectors {
		docs, err := conn.ListDocuments(ctx)
		if err != nil {
			p.logger.Error(ctx, "listing documents failed",
				zap.String("connector", conn.Name()), zap.Error(err))
			report.Failures = append(report.Failures, Failure{
				DocumentID: conn.Name(),
				Error:      err.Error(),
			})
			continue
		}
		p.logger.Info(ctx, "listed documents",
			zap.String("connector", conn.Name()), zap.Int("count", len(docs)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Concurrency)

		for _, doc := range docs {
			doc := doc
			g.Go(func() error {
				chunks, entries, err := p.processDocument(gctx, conn, doc)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// Fatal errors abort the whole run; anything else is
					// recorded and the document skipped.
					if errors.Is(err, embeddings.ErrFatal) || errors.Is(err, vectorstore.ErrDimensionMismatch) {
						return fmt.Errorf("document %s: %w", doc.ID, err)
					}
					p.logger.Warn(gctx, "skipping document",
						zap.String("document_id", doc.ID), zap.Error(err))
					report.Failures = append(report.Failures, Failure{
						DocumentID: doc.ID,
						Error:      err.Error(),
					})
					return nil
				}

				if len(entries) > 0 {
					if err := index.Add(gctx, entries); err != nil {
						return fmt.Errorf("document %s: %w", doc.ID, err)
					}
				}
				report.DocumentsProcessed++
				report.ChunksCreated += chunks
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			report.Fatal = err.Error()
			return report, fmt.Errorf("ingestion aborted: %w", err)
		}
	}

	if err := index.Save(p.indexCfg.Path); err != nil {
		report.Fatal = err.Error()
		return report, fmt.Errorf("persisting index: %w", err)
	}
	if err := writeReport(p.indexCfg.Path+".report.json", report); err != nil {
		p.logger.Warn(ctx, "writing build report failed", zap.Error(err))
	}

	p.logger.Info(ctx, "ingestion complete",
		zap.Int("documents", report.DocumentsProcessed),
		zap.Int("chunks", report.ChunksCreated),
		zap.Int("failures", len(report.Failures)),
		zap.Int("index_entries", index.Len()),
	)
	return report, nil
}

// processDocument runs fetch → chunk → embed for a single document.
func (p *Pipeline) processDocument(ctx context.Context, conn source.Connector, doc source.Document) (int, []vectorstore.Entry, error) {
	text, err := conn.FetchContent(ctx, doc)
	if err != nil {
		return 0, nil, fmt.Errorf("fetching content: %w", err)
	}
	doc.RawText = text

	chunks := p.chunker.Split(doc)
	if len(chunks) == 0 {
		return 0, nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, nil, fmt.Errorf("embedding chunks: %w", err)
	}

	entries := make([]vectorstore.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vectorstore.Entry{
			ID:     c.ID,
			Vector: vectors[i],
			Text:   c.Text,
			Metadata: vectorstore.Metadata{
				DocumentID: doc.ID,
				Title:      doc.Title,
				OriginURL:  doc.OriginURL,
				SourceType: string(doc.SourceType),
				Space:      doc.Space,
				Sequence:   c.Sequence,
			},
		}
	}
	return len(chunks), entries, nil
}

func writeReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
