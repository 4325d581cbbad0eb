package source

import (
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrNoText indicates a PDF from which no text could be recovered.
var ErrNoText = errors.New("no extractable text")

// PDFExtractor extracts plain text from PDF bytes. When the PDF parser cannot
// produce text (scanned or malformed files), it falls back to salvaging
// printable runes from the raw bytes.
type PDFExtractor struct{}

// NewPDFExtractor returns a ready-to-use extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract implements TextExtractor.
func (e *PDFExtractor) Extract(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoText
	}
	if r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		if reader, err := r.GetPlainText(); err == nil {
			if out, err := io.ReadAll(reader); err == nil && len(out) > 0 {
				return string(out), nil
			}
		}
	}
	salvaged := extractPrintableText(data)
	if len(salvaged) == 0 {
		return "", ErrNoText
	}
	return string(salvaged), nil
}

func extractPrintableText(in []byte) []byte {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			if b := in[0]; isPrintableASCII(b) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if isPrintableRune(r) {
			out.WriteRune(r)
		}
	}
	return out.Bytes()
}

func isPrintableASCII(b byte) bool {
	return b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127)
}

func isPrintableRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return true
	}
	return r >= 32 && r != 127
}
