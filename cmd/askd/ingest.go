package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seastacklabs/askd/internal/chunker"
	"github.com/seastacklabs/askd/internal/embeddings"
	"github.com/seastacklabs/askd/internal/ingest"
	"github.com/seastacklabs/askd/internal/source"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the vector index from the configured sources",
	Long: `Fetch every document from the configured sources, extract and chunk
the text, embed the chunks, and build a fresh index. The persisted index is
only replaced after a successful full build.

Exits non-zero when the run aborts on a fatal error; per-document failures
are recorded in the build report and skipped.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Sources.Dirs) == 0 {
		return errors.New("no sources configured: set sources.dirs")
	}

	extractor := source.NewPDFExtractor()
	connectors := make([]source.Connector, 0, len(cfg.Sources.Dirs))
	for _, dir := range cfg.Sources.Dirs {
		conn, err := source.NewDirConnector(dir, extractor)
		if err != nil {
			return err
		}
		connectors = append(connectors, conn)
	}

	ch, err := chunker.New(cfg.Chunking)
	if err != nil {
		return err
	}
	provider, err := embeddings.NewOpenAIProvider(cfg.Embedding)
	if err != nil {
		return err
	}
	embedder, err := embeddings.NewClient(provider, cfg.Embedding)
	if err != nil {
		return err
	}

	pipeline, err := ingest.New(connectors, ch, embedder, cfg.Index, cfg.Ingest, logger)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(cmd.Context())
	if report != nil {
		fmt.Printf("documents: %d  chunks: %d  failures: %d\n",
			report.DocumentsProcessed, report.ChunksCreated, len(report.Failures))
		for _, f := range report.Failures {
			fmt.Printf("  skipped %s: %s\n", f.DocumentID, f.Error)
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("index written to %s\n", cfg.Index.Path)
	return nil
}
