// Package source defines the document model and the connector contract for
// knowledge sources, plus the local implementations the engine ships with.
//
// Connectors are capability interfaces: a wiki API, a code host, or a plain
// directory of files all look the same to the ingestion pipeline.
package source

import (
	"context"
)

// SourceType identifies where a document's text came from.
type SourceType string

const (
	// TypePage is a wiki-style page.
	TypePage SourceType = "page"
	// TypePDFAttachment is a PDF attachment whose text was extracted.
	TypePDFAttachment SourceType = "pdf-attachment"
)

// Document is one unit of raw knowledge fetched from a source.
// Documents are immutable once fetched; identity is the stable source ID
// plus the Version marker, used to decide whether re-ingestion is needed.
type Document struct {
	// ID is the stable identifier assigned by the source.
	ID string

	// SourceType distinguishes pages from PDF attachments.
	SourceType SourceType

	// Title is the human-readable document title.
	Title string

	// RawText is the extracted plain text. Populated by FetchContent.
	RawText string

	// Space is the parent space or collection the document belongs to.
	Space string

	// OriginURL points back at the document in its source system.
	OriginURL string

	// Version is a last-modified marker from the source.
	Version string
}

// Connector lists and fetches documents from one knowledge source.
//
// Implementations own transport concerns (HTTP clients, auth). PDF bytes are
// routed through a TextExtractor before they reach the caller as RawText.
type Connector interface {
	// Name identifies the connector in logs and build reports.
	Name() string

	// ListDocuments enumerates available documents without content.
	ListDocuments(ctx context.Context) ([]Document, error)

	// FetchContent returns the plain text for a listed document.
	FetchContent(ctx context.Context, doc Document) (string, error)
}

// TextExtractor converts binary attachment bytes into plain text.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}
