package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const githubTimeout = 10 * time.Second

// RepoInfo describes a code repository referenced from documentation.
type RepoInfo struct {
	Owner       string
	Name        string
	URL         string
	Description string
	Language    string
	Stars       int
}

// RepoEnricher resolves owner/repo references to repository metadata.
// Enrichment is best effort; callers must tolerate errors.
type RepoEnricher interface {
	Enrich(ctx context.Context, owner, name string) (RepoInfo, error)
}

// GitHubEnricher resolves repository references via the GitHub API.
type GitHubEnricher struct {
	client *gh.Client
}

// NewGitHubEnricher creates an enricher. An empty token yields an
// unauthenticated client subject to the public rate limits.
func NewGitHubEnricher(ctx context.Context, token string) *GitHubEnricher {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = githubTimeout
	return &GitHubEnricher{client: gh.NewClient(hc)}
}

// Enrich implements RepoEnricher.
func (e *GitHubEnricher) Enrich(ctx context.Context, owner, name string) (RepoInfo, error) {
	repo, _, err := e.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return RepoInfo{}, fmt.Errorf("fetching repo %s/%s: %w", owner, name, err)
	}
	return RepoInfo{
		Owner:       owner,
		Name:        name,
		URL:         repo.GetHTMLURL(),
		Description: repo.GetDescription(),
		Language:    repo.GetLanguage(),
		Stars:       repo.GetStargazersCount(),
	}, nil
}
