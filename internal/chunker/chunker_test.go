package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seastacklabs/askd/internal/chunker"
	"github.com/seastacklabs/askd/internal/source"
)

func TestNew_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 100, 20, false},
		{"zero overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative size", -1, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chunker.New(chunker.Config{Size: tt.size, Overlap: tt.overlap})
			if tt.wantErr {
				require.ErrorIs(t, err, chunker.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c, err := chunker.New(chunker.Config{Size: 100, Overlap: 10})
	require.NoError(t, err)

	chunks := c.Split(source.Document{ID: "doc-1"})
	assert.Empty(t, chunks)
}

func TestSplit_Reconstruction(t *testing.T) {
	// Concatenating chunks minus the overlap must reproduce the original
	// text, and no chunk may exceed the configured size.
	c, err := chunker.New(chunker.Config{Size: 50, Overlap: 10})
	require.NoError(t, err)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)
	chunks := c.Split(source.Document{ID: "doc-1", RawText: text})
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		assert.LessOrEqual(t, len(runes), 50, "chunk %d too large", i)
		if i == 0 {
			rebuilt.WriteString(ch.Text)
		} else {
			rebuilt.WriteString(string(runes[10:]))
		}
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplit_DeterministicIDs(t *testing.T) {
	c, err := chunker.New(chunker.Config{Size: 10, Overlap: 2})
	require.NoError(t, err)

	doc := source.Document{ID: "space/page-42", RawText: strings.Repeat("x", 25)}
	first := c.Split(doc)
	second := c.Split(doc)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, chunker.ChunkID("space/page-42", i), first[i].ID)
		assert.Equal(t, i, first[i].Sequence)
	}
}

func TestSplit_MultibyteSafety(t *testing.T) {
	c, err := chunker.New(chunker.Config{Size: 7, Overlap: 3})
	require.NoError(t, err)

	text := "héllo wörld — 日本語のテキスト and ümlauts"
	chunks := c.Split(source.Document{ID: "doc-1", RawText: text})
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text), "chunk %d splits a multibyte character", i)
	}
}

func TestSplit_TextSmallerThanWindow(t *testing.T) {
	c, err := chunker.New(chunker.Config{Size: 1000, Overlap: 200})
	require.NoError(t, err)

	chunks := c.Split(source.Document{ID: "doc-1", RawText: "short"})
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 5, chunks[0].EndOffset)
}

func TestSplit_Offsets(t *testing.T) {
	c, err := chunker.New(chunker.Config{Size: 10, Overlap: 4})
	require.NoError(t, err)

	text := strings.Repeat("a", 22)
	chunks := c.Split(source.Document{ID: "doc-1", RawText: text})

	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].StartOffset+6, chunks[i].StartOffset, "step must be size-overlap")
	}
	assert.Equal(t, 22, chunks[len(chunks)-1].EndOffset)
}
