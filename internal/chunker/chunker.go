// Package chunker splits document text into overlapping windows sized for
// embedding. Chunk IDs are derived deterministically from the document ID and
// the chunk sequence, so a full re-ingestion overwrites instead of
// duplicating.
package chunker

import (
	"errors"
	"fmt"

	"github.com/seastacklabs/askd/internal/source"
)

// ErrInvalidConfig indicates chunking parameters that violate
// 0 <= overlap < size, size > 0. Caught at pipeline start.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Defaults mirror common embedding-friendly window sizes. They are defaults
// for the config layer, not behavior baked into the chunker.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Config holds chunking parameters. Size and Overlap are measured in runes
// so windows never split a multibyte character.
type Config struct {
	Size    int `koanf:"size"`
	Overlap int `koanf:"overlap"`
}

// Validate checks the invariant size > 0 && 0 <= overlap < size.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap must be in [0, size), got overlap=%d size=%d", ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// Chunk is a bounded contiguous slice of one document's text. Never mutated
// after creation. Offsets are rune offsets into the document text.
type Chunk struct {
	ID          string
	DocumentID  string
	Text        string
	StartOffset int
	EndOffset   int
	Sequence    int
}

// ChunkID derives the deterministic chunk identifier.
func ChunkID(documentID string, sequence int) string {
	return fmt.Sprintf("%s#%d", documentID, sequence)
}

// Chunker splits documents into overlapping windows.
type Chunker struct {
	cfg Config
}

// New creates a Chunker, failing with ErrInvalidConfig on bad parameters.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Split produces the ordered chunk sequence for one document.
// Empty text yields an empty sequence, not an error.
func (c *Chunker) Split(doc source.Document) []Chunk {
	runes := []rune(doc.RawText)
	if len(runes) == 0 {
		return nil
	}

	step := c.cfg.Size - c.cfg.Overlap
	chunks := make([]Chunk, 0, len(runes)/step+1)

	for start, seq := 0, 0; start < len(runes); start, seq = start+step, seq+1 {
		end := start + c.cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			ID:          ChunkID(doc.ID, seq),
			DocumentID:  doc.ID,
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
			Sequence:    seq,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
