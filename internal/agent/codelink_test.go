package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seastacklabs/askd/internal/agent"
	"github.com/seastacklabs/askd/internal/retriever"
	"github.com/seastacklabs/askd/internal/source"
)

func TestCodeLinkAgent_ExtractsRepositoryURLs(t *testing.T) {
	results := []retriever.Result{
		docResult("a#0", "The service lives at https://github.com/acme/payments and the docs reference https://gitlab.com/acme/infra/-/blob/main/README.md too.", "https://wiki.example.com/a"),
		docResult("b#0", "See https://github.com/acme/payments again.", "https://wiki.example.com/b"),
	}
	a := agent.NewCodeLinkAgent(nil, nil)

	answer, err := a.FromResults(context.Background(), results)
	require.NoError(t, err)
	assert.True(t, answer.Found)
	assert.Equal(t, "code-links", answer.AgentName)

	// First-seen order, duplicates collapsed.
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, "https://github.com/acme/payments", answer.Citations[0].URL)
	assert.Equal(t, "acme/payments", answer.Citations[0].Title)
	assert.Equal(t, "https://gitlab.com/acme/infra", answer.Citations[1].URL)
	assert.Contains(t, answer.Text, "acme/payments")
}

func TestCodeLinkAgent_OriginURLCounts(t *testing.T) {
	results := []retriever.Result{
		docResult("a#0", "no links in the body", "https://github.com/acme/tooling/blob/main/docs/setup.md"),
	}
	a := agent.NewCodeLinkAgent(nil, nil)

	answer, err := a.FromResults(context.Background(), results)
	require.NoError(t, err)
	require.True(t, answer.Found)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "https://github.com/acme/tooling", answer.Citations[0].URL)
}

func TestCodeLinkAgent_NoReferencesDeclines(t *testing.T) {
	results := []retriever.Result{
		docResult("a#0", "plain prose, and a non-code link https://example.com/page", "https://wiki.example.com/a"),
	}
	a := agent.NewCodeLinkAgent(nil, nil)

	answer, err := a.FromResults(context.Background(), results)
	require.NoError(t, err)
	assert.False(t, answer.Found)
}

func TestCodeLinkAgent_EmptyResultsDecline(t *testing.T) {
	a := agent.NewCodeLinkAgent(nil, nil)

	answer, err := a.FromResults(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, answer.Found)
}

func TestCodeLinkAgent_EnrichmentAnnotates(t *testing.T) {
	results := []retriever.Result{
		docResult("a#0", "code at https://github.com/acme/payments", "https://wiki.example.com/a"),
	}
	enricher := &fakeEnricher{info: source.RepoInfo{
		Description: "Payment processing service",
		Language:    "Go",
		Stars:       42,
	}}
	a := agent.NewCodeLinkAgent(enricher, nil)

	answer, err := a.FromResults(context.Background(), results)
	require.NoError(t, err)
	require.True(t, answer.Found)
	assert.Equal(t, 1, enricher.calls)
	assert.Contains(t, answer.Text, "Payment processing service")
	assert.Contains(t, answer.Text, "Go")
}

func TestCodeLinkAgent_EnrichmentFailureTolerated(t *testing.T) {
	results := []retriever.Result{
		docResult("a#0", "code at https://github.com/acme/payments", "https://wiki.example.com/a"),
	}
	enricher := &fakeEnricher{err: errors.New("api rate limited")}
	a := agent.NewCodeLinkAgent(enricher, nil)

	answer, err := a.FromResults(context.Background(), results)
	require.NoError(t, err)
	assert.True(t, answer.Found, "enrichment failure must not suppress references")
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "https://github.com/acme/payments", answer.Citations[0].URL)
}
