package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/seastacklabs/askd/internal/logging"
	"github.com/seastacklabs/askd/internal/retriever"
	"github.com/seastacklabs/askd/internal/source"
)

const codeLinkAgentName = "code-links"

// repoURLPattern matches repository references on recognizable code hosts
// with an owner/repo path shape. Trailing punctuation is excluded.
var repoURLPattern = regexp.MustCompile(`https?://(?:www\.)?(github\.com|gitlab\.com)/([\w.-]+)/([\w.-]+?)(?:\.git)?(?:[/#?][^\s)>\]"']*)?(?:\b)`)

// CodeLinkAgent extracts code-repository references from retrieved chunks.
// It augments a documentation answer rather than competing with it: the
// orchestrator feeds it the documentation agent's retrieval results, so it
// never runs a search of its own.
type CodeLinkAgent struct {
	enricher source.RepoEnricher
	logger   *logging.Logger
}

// NewCodeLinkAgent creates the code-link agent. The enricher is optional;
// when nil, references are reported without repository metadata.
func NewCodeLinkAgent(enricher source.RepoEnricher, logger *logging.Logger) *CodeLinkAgent {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CodeLinkAgent{enricher: enricher, logger: logger.Named(codeLinkAgentName)}
}

// Name identifies the agent in logs and answers.
func (a *CodeLinkAgent) Name() string { return codeLinkAgentName }

// FromResults extracts repository references from an existing retrieval
// pass, optionally enriching them with repository metadata.
func (a *CodeLinkAgent) FromResults(ctx context.Context, results []retriever.Result) (Answer, error) {
	refs := extractRepoRefs(results)
	if len(refs) == 0 {
		return NotFound(codeLinkAgentName), nil
	}

	var b strings.Builder
	citations := make([]Citation, 0, len(refs))
	b.WriteString("Related code repositories:\n")
	for _, ref := range refs {
		title := ref.Owner + "/" + ref.Name
		line := fmt.Sprintf("- %s (%s)", title, ref.URL)
		if a.enricher != nil {
			if info, err := a.enricher.Enrich(ctx, ref.Owner, ref.Name); err == nil {
				if info.Description != "" {
					line = fmt.Sprintf("- %s — %s (%s, ★%d) %s", title, info.Description, info.Language, info.Stars, ref.URL)
				}
			} else {
				// Enrichment is best effort.
				a.logger.Debug(ctx, "repo enrichment failed",
					zap.String("repo", title), zap.Error(err))
			}
		}
		b.WriteString(line + "\n")
		citations = append(citations, Citation{Title: title, URL: ref.URL})
	}

	return Answer{
		Text:      strings.TrimSpace(b.String()),
		Found:     true,
		Citations: citations,
		AgentName: codeLinkAgentName,
	}, nil
}

type repoRef struct {
	Owner string
	Name  string
	URL   string
}

// extractRepoRefs scans chunk text and metadata for repository URLs,
// deduplicated in first-seen order.
func extractRepoRefs(results []retriever.Result) []repoRef {
	seen := make(map[string]bool)
	var refs []repoRef
	for _, r := range results {
		for _, text := range []string{r.Text, r.OriginURL} {
			for _, m := range repoURLPattern.FindAllStringSubmatch(text, -1) {
				host, owner, name := m[1], m[2], m[3]
				name = strings.TrimSuffix(name, ".")
				key := host + "/" + owner + "/" + name
				if seen[key] {
					continue
				}
				seen[key] = true
				refs = append(refs, repoRef{
					Owner: owner,
					Name:  name,
					URL:   fmt.Sprintf("https://%s/%s/%s", host, owner, name),
				})
			}
		}
	}
	return refs
}
