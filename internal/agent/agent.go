// Package agent implements the answer-or-decline strategies the fallback
// orchestrator sequences: documentation search, code-repository link
// extraction, and natural-language-to-SQL over a known schema.
//
// NotFound is a first-class result (Answer.Found == false), never an error
// value, so the orchestrator's state machine is testable without a real LLM.
package agent

import (
	"context"

	"github.com/seastacklabs/askd/internal/retriever"
)

// Citation points back at a source that contributed to an answer.
type Citation struct {
	Title string
	URL   string
}

// Answer is the outcome of one agent attempt. Found reports whether the
// agent produced an answer; a false Found means this tier conclusively
// declined and the orchestrator should move on.
type Answer struct {
	Text      string
	Found     bool
	Citations []Citation
	AgentName string

	// Sources are the retrieval results the answer was grounded in. Set by
	// the documentation agent so downstream augmentation can reuse the same
	// retrieval pass instead of searching again.
	Sources []retriever.Result
}

// NotFound is the decline result for an agent.
func NotFound(agentName string) Answer {
	return Answer{AgentName: agentName}
}

// Agent is one strategy in the fallback chain.
type Agent interface {
	// Name identifies the agent in logs and answers.
	Name() string

	// Attempt tries to answer the question. A returned error means the
	// attempt failed operationally; a Found=false Answer with nil error
	// means the agent conclusively has nothing.
	Attempt(ctx context.Context, question string) (Answer, error)
}

// MergeCitations appends additions, skipping URLs already cited.
func MergeCitations(base []Citation, additions []Citation) []Citation {
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.URL] = true
	}
	for _, c := range additions {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		base = append(base, c)
	}
	return base
}
