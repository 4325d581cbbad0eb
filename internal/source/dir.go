package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirConnector serves a local directory tree as a document source.
// Markdown and plain-text files become pages; PDF files are routed through
// the text extractor and become pdf-attachment documents.
//
// It exists for local corpora and as the reference Connector implementation;
// remote wiki connectors satisfy the same interface.
type DirConnector struct {
	root      string
	extractor TextExtractor
}

// NewDirConnector creates a connector rooted at dir.
func NewDirConnector(dir string, extractor TextExtractor) (*DirConnector, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat source dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", dir)
	}
	if extractor == nil {
		extractor = NewPDFExtractor()
	}
	return &DirConnector{root: dir, extractor: extractor}, nil
}

// Name implements Connector.
func (c *DirConnector) Name() string {
	return "dir:" + c.root
}

// ListDocuments walks the tree and lists supported files.
func (c *DirConnector) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		srcType, ok := typeForExt(filepath.Ext(path))
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		docs = append(docs, Document{
			ID:         rel,
			SourceType: srcType,
			Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Space:      filepath.Dir(rel),
			OriginURL:  "file://" + path,
			Version:    info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents under %s: %w", c.root, err)
	}
	return docs, nil
}

// FetchContent reads a document's text, extracting PDFs as needed.
func (c *DirConnector) FetchContent(ctx context.Context, doc Document) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	data, err := os.ReadFile(filepath.Join(c.root, doc.ID))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", doc.ID, err)
	}
	if doc.SourceType == TypePDFAttachment {
		text, err := c.extractor.Extract(data)
		if err != nil {
			return "", fmt.Errorf("extracting pdf text from %s: %w", doc.ID, err)
		}
		return text, nil
	}
	return string(data), nil
}

func typeForExt(ext string) (SourceType, bool) {
	switch strings.ToLower(ext) {
	case ".md", ".txt", ".markdown":
		return TypePage, true
	case ".pdf":
		return TypePDFAttachment, true
	default:
		return "", false
	}
}
