// Package orchestrator sequences the source agents in fixed priority order
// and decides when to stop: documentation first, code links merged into a
// successful documentation answer, then the database tier, then exhausted.
//
// Tiers run sequentially, never raced, so later (costlier) sources are only
// consulted after earlier ones conclusively miss.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/seastacklabs/askd/internal/agent"
	"github.com/seastacklabs/askd/internal/logging"
	"github.com/seastacklabs/askd/internal/metrics"
	"github.com/seastacklabs/askd/internal/retriever"
	"github.com/seastacklabs/askd/internal/sqlguard"
)

// Tier identifies the state that produced the final response.
type Tier string

const (
	// TierDocumentation means the documentation agent answered.
	TierDocumentation Tier = "documentation"
	// TierDatabase means the database agent answered.
	TierDatabase Tier = "database"
	// TierExhausted means every tier declined.
	TierExhausted Tier = "exhausted"
)

// ExhaustedMessage is the fixed user-facing response when every source has
// been tried. Never replaced by a partial or fabricated answer.
const ExhaustedMessage = "I could not find an answer across documentation, code repositories, or the database."

// Response is the orchestrator's final output for one question.
type Response struct {
	Answer    agent.Answer
	Tier      Tier
	RequestID string
	Elapsed   time.Duration
}

// CodeLinker is the opportunistic augmentation agent: consulted only
// alongside a successful documentation answer, never as a fallback tier.
// It operates over the documentation agent's retrieval results, so no
// extra embedding or search happens per question.
type CodeLinker interface {
	FromResults(ctx context.Context, results []retriever.Result) (agent.Answer, error)
}

// Supervisor runs the fallback state machine.
type Supervisor struct {
	docs     agent.Agent
	codeLink CodeLinker
	database agent.Agent
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// New creates a Supervisor. codeLink may be nil to disable augmentation;
// database may be nil when no database is configured, in which case that
// tier is skipped straight to exhausted.
func New(docs agent.Agent, codeLink CodeLinker, database agent.Agent, logger *logging.Logger, m *metrics.Metrics) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Supervisor{
		docs:     docs,
		codeLink: codeLink,
		database: database,
		logger:   logger.Named("orchestrator"),
		metrics:  m,
	}
}

// Ask answers a single question through the fallback chain. Agent failures
// degrade to NotFound (fail-soft); security rejections are logged and also
// degrade to NotFound, never surfaced raw.
func (s *Supervisor) Ask(ctx context.Context, question string) Response {
	ctx, requestID := logging.ContextWithNewRequestID(ctx)
	start := time.Now()
	defer func() {
		s.metrics.AnswerDuration.Observe(time.Since(start).Seconds())
	}()

	s.logger.Info(ctx, "question received", zap.Int("question_len", len(question)))

	// TRY_DOCS
	if answer, ok := s.try(ctx, s.docs, question); ok {
		// TRY_CODE_LINKS: merge best effort, never blocks the answer.
		s.mergeCodeLinks(ctx, &answer)
		s.metrics.QuestionsTotal.WithLabelValues(string(TierDocumentation)).Inc()
		return Response{Answer: answer, Tier: TierDocumentation, RequestID: requestID, Elapsed: time.Since(start)}
	}

	// TRY_DATABASE. The code-link agent has nothing to extract without
	// documentation hits, so it is not an independent tier here.
	if s.database != nil {
		if answer, ok := s.try(ctx, s.database, question); ok {
			s.metrics.QuestionsTotal.WithLabelValues(string(TierDatabase)).Inc()
			return Response{Answer: answer, Tier: TierDatabase, RequestID: requestID, Elapsed: time.Since(start)}
		}
	}

	// EXHAUSTED
	s.logger.Info(ctx, "all tiers exhausted")
	s.metrics.QuestionsTotal.WithLabelValues(string(TierExhausted)).Inc()
	return Response{
		Answer:    agent.Answer{Text: ExhaustedMessage, AgentName: string(TierExhausted)},
		Tier:      TierExhausted,
		RequestID: requestID,
		Elapsed:   time.Since(start),
	}
}

// try invokes one agent with fail-soft semantics.
func (s *Supervisor) try(ctx context.Context, a agent.Agent, question string) (agent.Answer, bool) {
	answer, err := a.Attempt(ctx, question)
	switch {
	case err == nil && answer.Found:
		s.metrics.TierAttempts.WithLabelValues(a.Name(), "found").Inc()
		s.logger.Info(ctx, "tier answered", zap.String("agent", a.Name()))
		return answer, true
	case err == nil:
		s.metrics.TierAttempts.WithLabelValues(a.Name(), "not_found").Inc()
		s.logger.Info(ctx, "tier declined", zap.String("agent", a.Name()))
	case errors.Is(err, sqlguard.ErrSecurityRejected):
		s.metrics.TierAttempts.WithLabelValues(a.Name(), "rejected").Inc()
		s.logger.Warn(ctx, "tier rejected generated sql", zap.String("agent", a.Name()), zap.Error(err))
	default:
		s.metrics.TierAttempts.WithLabelValues(a.Name(), "error").Inc()
		s.logger.Warn(ctx, "tier failed, treating as not found", zap.String("agent", a.Name()), zap.Error(err))
	}
	return agent.Answer{}, false
}

// mergeCodeLinks augments a documentation answer with repository references
// extracted from the chunks the answer was grounded in.
func (s *Supervisor) mergeCodeLinks(ctx context.Context, answer *agent.Answer) {
	if s.codeLink == nil || len(answer.Sources) == 0 {
		return
	}
	links, err := s.codeLink.FromResults(ctx, answer.Sources)
	if err != nil {
		s.logger.Debug(ctx, "code link extraction failed", zap.Error(err))
		return
	}
	if !links.Found {
		return
	}
	answer.Text = answer.Text + "\n\n" + links.Text
	answer.Citations = agent.MergeCitations(answer.Citations, links.Citations)
	s.logger.Debug(ctx, "merged code links", zap.Int("links", len(links.Citations)))
}
