package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seastacklabs/askd/internal/retriever"
	"github.com/seastacklabs/askd/internal/vectorstore"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeSearcher struct {
	matches []vectorstore.Match
	err     error
	gotK    int
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error) {
	f.gotK = k
	return f.matches, f.err
}

func match(id string, score float32) vectorstore.Match {
	return vectorstore.Match{
		ID:    id,
		Text:  "text " + id,
		Score: score,
		Metadata: vectorstore.Metadata{
			DocumentID: "doc-" + id,
			Title:      "Title " + id,
			OriginURL:  "https://wiki.example.com/" + id,
			SourceType: "page",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     retriever.Config
		wantErr bool
	}{
		{"valid", retriever.Config{TopK: 5, MinScore: 0.25}, false},
		{"zero min score", retriever.Config{TopK: 1, MinScore: 0}, false},
		{"max min score", retriever.Config{TopK: 1, MinScore: 1}, false},
		{"zero top_k", retriever.Config{TopK: 0, MinScore: 0.5}, true},
		{"negative min score", retriever.Config{TopK: 5, MinScore: -0.1}, true},
		{"min score above one", retriever.Config{TopK: 5, MinScore: 1.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, retriever.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRetrieve_FiltersBelowThreshold(t *testing.T) {
	searcher := &fakeSearcher{matches: []vectorstore.Match{
		match("a", 0.92),
		match("b", 0.40),
		match("c", 0.10),
	}}
	r, err := retriever.New(&fakeEmbedder{vector: []float32{1, 0}}, searcher, retriever.Config{TopK: 3, MinScore: 0.25})
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 3, searcher.gotK)
	assert.Equal(t, "a", results[0].ChunkID)
	assert.Equal(t, "b", results[1].ChunkID)
	assert.Equal(t, "doc-a", results[0].DocumentID)
	assert.Equal(t, "https://wiki.example.com/a", results[0].OriginURL)
}

func TestRetrieve_AllBelowThresholdIsEmptyNotError(t *testing.T) {
	searcher := &fakeSearcher{matches: []vectorstore.Match{match("a", 0.1)}}
	r, err := retriever.New(&fakeEmbedder{vector: []float32{1, 0}}, searcher, retriever.Config{TopK: 5, MinScore: 0.9})
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmptyIndexIsEmptyNotError(t *testing.T) {
	r, err := retriever.New(&fakeEmbedder{vector: []float32{1, 0}}, &fakeSearcher{}, retriever.Config{TopK: 5, MinScore: 0.25})
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "question")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmbedderErrorPropagates(t *testing.T) {
	wantErr := errors.New("embedding down")
	r, err := retriever.New(&fakeEmbedder{err: wantErr}, &fakeSearcher{}, retriever.Config{TopK: 5, MinScore: 0.25})
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "question")
	require.ErrorIs(t, err, wantErr)
}

func TestRetrieve_SearcherErrorPropagates(t *testing.T) {
	wantErr := errors.New("index corrupt")
	r, err := retriever.New(&fakeEmbedder{vector: []float32{1}}, &fakeSearcher{err: wantErr}, retriever.Config{TopK: 5, MinScore: 0.25})
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "question")
	require.ErrorIs(t, err, wantErr)
}
