package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seastacklabs/askd/internal/source"
)

// fakeExtractor returns fixed text for any PDF bytes.
type fakeExtractor struct {
	text string
	err  error
	got  []byte
}

func (f *fakeExtractor) Extract(data []byte) (string, error) {
	f.got = data
	return f.text, f.err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestDirConnector_ListDocuments(t *testing.T) {
	root := writeTree(t, map[string]string{
		"runbooks/deploys.md":   "# Deploys\nEvery Tuesday.",
		"notes.txt":             "plain notes",
		"attachments/spec.pdf":  "%PDF-1.4 fake",
		"images/diagram.png":    "not a document",
		"runbooks/oncall.markdown": "weekly rotation",
	})
	conn, err := source.NewDirConnector(root, &fakeExtractor{})
	require.NoError(t, err)

	docs, err := conn.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 4, "unsupported extensions are skipped")

	byID := make(map[string]source.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	md := byID[filepath.Join("runbooks", "deploys.md")]
	assert.Equal(t, source.TypePage, md.SourceType)
	assert.Equal(t, "deploys", md.Title)
	assert.Equal(t, "runbooks", md.Space)
	assert.Contains(t, md.OriginURL, "file://")
	assert.NotEmpty(t, md.Version)

	pdf := byID[filepath.Join("attachments", "spec.pdf")]
	assert.Equal(t, source.TypePDFAttachment, pdf.SourceType)
	assert.Equal(t, "spec", pdf.Title)
}

func TestDirConnector_FetchContent(t *testing.T) {
	root := writeTree(t, map[string]string{"notes.txt": "plain notes"})
	conn, err := source.NewDirConnector(root, &fakeExtractor{})
	require.NoError(t, err)

	text, err := conn.FetchContent(context.Background(), source.Document{
		ID:         "notes.txt",
		SourceType: source.TypePage,
	})
	require.NoError(t, err)
	assert.Equal(t, "plain notes", text)
}

func TestDirConnector_FetchContentRoutesPDFs(t *testing.T) {
	root := writeTree(t, map[string]string{"spec.pdf": "%PDF-1.4 raw bytes"})
	extractor := &fakeExtractor{text: "extracted spec text"}
	conn, err := source.NewDirConnector(root, extractor)
	require.NoError(t, err)

	text, err := conn.FetchContent(context.Background(), source.Document{
		ID:         "spec.pdf",
		SourceType: source.TypePDFAttachment,
	})
	require.NoError(t, err)
	assert.Equal(t, "extracted spec text", text)
	assert.Equal(t, []byte("%PDF-1.4 raw bytes"), extractor.got)
}

func TestDirConnector_FetchContentMissingFile(t *testing.T) {
	conn, err := source.NewDirConnector(t.TempDir(), &fakeExtractor{})
	require.NoError(t, err)

	_, err = conn.FetchContent(context.Background(), source.Document{ID: "gone.md"})
	require.Error(t, err)
}

func TestNewDirConnector_RejectsNonDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"file.txt": "x"})

	_, err := source.NewDirConnector(filepath.Join(root, "file.txt"), nil)
	require.Error(t, err)

	_, err = source.NewDirConnector(filepath.Join(root, "missing"), nil)
	require.Error(t, err)
}
