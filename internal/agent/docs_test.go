package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seastacklabs/askd/internal/agent"
	"github.com/seastacklabs/askd/internal/retriever"
)

func TestDocsAgent_AnswersFromExcerpts(t *testing.T) {
	results := []retriever.Result{
		docResult("a#0", "Deploys run every Tuesday.", "https://wiki.example.com/deploys"),
		docResult("a#1", "Rollbacks use the previous artifact.", "https://wiki.example.com/deploys"),
		docResult("b#0", "On-call rotates weekly.", "https://wiki.example.com/oncall"),
	}
	model := &fakeLLM{reply: "Deploys run every Tuesday."}
	a := agent.NewDocsAgent(&fakeRetriever{results: results}, model, nil)

	answer, err := a.Attempt(context.Background(), "When do deploys run?")
	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Equal(t, "Deploys run every Tuesday.", answer.Text)
	assert.Equal(t, "documentation", answer.AgentName)

	// Citations dedupe by origin URL in score order.
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, "https://wiki.example.com/deploys", answer.Citations[0].URL)
	assert.Equal(t, "https://wiki.example.com/oncall", answer.Citations[1].URL)

	// The answer carries its grounding results for downstream augmentation.
	assert.Equal(t, results, answer.Sources)

	// The prompt carries the excerpts and the question.
	require.Len(t, model.users, 1)
	assert.Contains(t, model.users[0], "Deploys run every Tuesday.")
	assert.Contains(t, model.users[0], "When do deploys run?")
}

func TestDocsAgent_EmptyRetrievalDeclines(t *testing.T) {
	model := &fakeLLM{reply: "should never be called"}
	a := agent.NewDocsAgent(&fakeRetriever{}, model, nil)

	answer, err := a.Attempt(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, answer.Found)
	assert.Empty(t, model.users, "no synthesis without relevant chunks")
}

func TestDocsAgent_ModelDeclineIsNotFound(t *testing.T) {
	results := []retriever.Result{docResult("a#0", "unrelated text", "https://wiki.example.com/a")}

	for _, reply := range []string{"NOT_FOUND", "not_found", "  NOT_FOUND  ", ""} {
		a := agent.NewDocsAgent(&fakeRetriever{results: results}, &fakeLLM{reply: reply}, nil)
		answer, err := a.Attempt(context.Background(), "anything")
		require.NoError(t, err)
		assert.False(t, answer.Found, "reply %q must decline", reply)
	}
}

func TestDocsAgent_RetrieverErrorPropagates(t *testing.T) {
	wantErr := errors.New("index unavailable")
	a := agent.NewDocsAgent(&fakeRetriever{err: wantErr}, &fakeLLM{}, nil)

	answer, err := a.Attempt(context.Background(), "anything")
	require.ErrorIs(t, err, wantErr)
	assert.False(t, answer.Found)
}

func TestDocsAgent_LLMErrorPropagates(t *testing.T) {
	wantErr := errors.New("model overloaded")
	results := []retriever.Result{docResult("a#0", "text", "https://wiki.example.com/a")}
	a := agent.NewDocsAgent(&fakeRetriever{results: results}, &fakeLLM{err: wantErr}, nil)

	answer, err := a.Attempt(context.Background(), "anything")
	require.ErrorIs(t, err, wantErr)
	assert.False(t, answer.Found)
}
