package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seastacklabs/askd/internal/llm"
	"github.com/seastacklabs/askd/internal/logging"
	"github.com/seastacklabs/askd/internal/retriever"
)

const docsAgentName = "documentation"

const docsSystemPrompt = `You are a documentation assistant. Answer the user's question using ONLY the provided documentation excerpts.

Rules:
- Ground every statement in the excerpts; never invent facts.
- If the excerpts do not answer the question, reply with exactly: NOT_FOUND
- Be concise but complete.`

// DocRetriever is the retrieval capability the docs agent consumes.
type DocRetriever interface {
	Retrieve(ctx context.Context, query string) ([]retriever.Result, error)
}

// DocsAgent answers from the documentation index: retrieve relevant chunks,
// then synthesize an answer grounded strictly in their text.
type DocsAgent struct {
	retriever DocRetriever
	llm       llm.Client
	logger    *logging.Logger
}

// NewDocsAgent creates the documentation agent.
func NewDocsAgent(r DocRetriever, client llm.Client, logger *logging.Logger) *DocsAgent {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DocsAgent{retriever: r, llm: client, logger: logger.Named(docsAgentName)}
}

// Name implements Agent.
func (a *DocsAgent) Name() string { return docsAgentName }

// Attempt implements Agent. Empty retrieval (nothing above the relevance
// threshold) is a decline, not an error.
func (a *DocsAgent) Attempt(ctx context.Context, question string) (Answer, error) {
	results, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return NotFound(docsAgentName), fmt.Errorf("retrieving documentation: %w", err)
	}
	if len(results) == 0 {
		a.logger.Debug(ctx, "no relevant chunks above threshold")
		return NotFound(docsAgentName), nil
	}

	text, err := a.llm.Generate(ctx, docsSystemPrompt, buildDocsPrompt(question, results))
	if err != nil {
		return NotFound(docsAgentName), fmt.Errorf("synthesizing answer: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "NOT_FOUND") {
		a.logger.Debug(ctx, "model declined to answer from excerpts",
			zap.Int("chunks", len(results)))
		return NotFound(docsAgentName), nil
	}

	return Answer{
		Text:      text,
		Found:     true,
		Citations: citationsFromResults(results),
		AgentName: docsAgentName,
		Sources:   results,
	}, nil
}

func buildDocsPrompt(question string, results []retriever.Result) string {
	var b strings.Builder
	b.WriteString("Documentation excerpts:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, r.Title, r.OriginURL, r.Text)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}

// citationsFromResults dedupes by origin URL, preserving score order.
func citationsFromResults(results []retriever.Result) []Citation {
	seen := make(map[string]bool, len(results))
	citations := make([]Citation, 0, len(results))
	for _, r := range results {
		if r.OriginURL == "" || seen[r.OriginURL] {
			continue
		}
		seen[r.OriginURL] = true
		citations = append(citations, Citation{Title: r.Title, URL: r.OriginURL})
	}
	return citations
}
