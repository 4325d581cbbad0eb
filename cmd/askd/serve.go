package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/seastacklabs/askd/internal/agent"
	"github.com/seastacklabs/askd/internal/config"
	"github.com/seastacklabs/askd/internal/dbschema"
	"github.com/seastacklabs/askd/internal/embeddings"
	"github.com/seastacklabs/askd/internal/llm"
	"github.com/seastacklabs/askd/internal/logging"
	"github.com/seastacklabs/askd/internal/metrics"
	"github.com/seastacklabs/askd/internal/orchestrator"
	"github.com/seastacklabs/askd/internal/retriever"
	"github.com/seastacklabs/askd/internal/source"
	"github.com/seastacklabs/askd/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer questions interactively against the built index",
	Long: `Load the persisted index read-only and answer questions from stdin,
one per line. The index must have been built with "askd ingest" first.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx := cmd.Context()

	supervisor, cleanup, err := buildSupervisor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("askd ready. Type a question, or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "/quit" || question == "/exit" {
			break
		}

		resp := supervisor.Ask(ctx, question)
		fmt.Println()
		fmt.Println(resp.Answer.Text)
		if len(resp.Answer.Citations) > 0 {
			fmt.Println("\nSources:")
			for _, c := range resp.Answer.Citations {
				fmt.Printf("  - %s (%s)\n", c.Title, c.URL)
			}
		}
		fmt.Printf("\n[tier: %s, %s]\n\n", resp.Tier, resp.Elapsed.Round(time.Millisecond))
	}
	return scanner.Err()
}

// buildSupervisor wires the query path: index, retriever, agents,
// orchestrator, and the optional metrics listener.
func buildSupervisor(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*orchestrator.Supervisor, func(), error) {
	cleanup := func() {}

	index, err := vectorstore.Load(cfg.Index.Path, cfg.Index)
	if err != nil {
		return nil, cleanup, fmt.Errorf("loading index (run \"askd ingest\" first): %w", err)
	}
	logger.Info(ctx, "index loaded",
		zap.String("path", cfg.Index.Path), zap.Int("entries", index.Len()))

	provider, err := embeddings.NewOpenAIProvider(cfg.Embedding)
	if err != nil {
		return nil, cleanup, err
	}
	embedder, err := embeddings.NewClient(provider, cfg.Embedding)
	if err != nil {
		return nil, cleanup, err
	}
	ret, err := retriever.New(embedder, index, cfg.Retrieval)
	if err != nil {
		return nil, cleanup, err
	}
	llmClient, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, cleanup, err
	}

	docs := agent.NewDocsAgent(ret, llmClient, logger)

	var enricher source.RepoEnricher
	if cfg.GitHub.Enrich {
		enricher = source.NewGitHubEnricher(ctx, cfg.GitHub.Token)
	}
	codeLinks := agent.NewCodeLinkAgent(enricher, logger)

	var database agent.Agent
	if cfg.Database.DSN != "" {
		db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("opening database: %w", err)
		}
		cleanup = func() { db.Close() }

		schema, err := dbschema.Introspect(ctx, db, cfg.Database.Driver)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("introspecting database schema: %w", err)
		}
		database = agent.NewDatabaseAgent(schema, llmClient, agent.NewSQLExecutor(db), cfg.Database, logger)
		logger.Info(ctx, "database agent enabled", zap.Int("tables", len(schema.Tables)))
	}

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Warn(ctx, "metrics listener stopped", zap.Error(err))
			}
		}()
	}

	return orchestrator.New(docs, codeLinks, database, logger, m), cleanup, nil
}
