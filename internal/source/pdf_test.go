package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seastacklabs/askd/internal/source"
)

func TestPDFExtractor_EmptyInput(t *testing.T) {
	_, err := source.NewPDFExtractor().Extract(nil)
	require.ErrorIs(t, err, source.ErrNoText)
}

func TestPDFExtractor_SalvagesPrintableText(t *testing.T) {
	// Not a parseable PDF: the extractor falls back to printable runes.
	data := append([]byte{0x00, 0x01, 0x02}, []byte("deploys run every Tuesday")...)
	data = append(data, 0xFF, 0xFE)

	text, err := source.NewPDFExtractor().Extract(data)
	require.NoError(t, err)
	assert.Contains(t, text, "deploys run every Tuesday")
	assert.NotContains(t, text, "\x00")
}

func TestPDFExtractor_NothingSalvageable(t *testing.T) {
	_, err := source.NewPDFExtractor().Extract([]byte{0x00, 0x01, 0x02, 0x03})
	require.ErrorIs(t, err, source.ErrNoText)
}
