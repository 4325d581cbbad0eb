// Package vectorstore provides the persistent nearest-neighbor index over
// chunk embeddings, backed by chromem-go.
//
// chromem-go is an embeddable vector database with no external service
// dependency. The index here is a flat mapping from entry ID to
// (vector, metadata) with cosine-similarity search; rebuilds replace the
// whole index rather than merging incrementally.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

var (
	// ErrInvalidConfig indicates invalid index configuration.
	ErrInvalidConfig = errors.New("invalid index configuration")

	// ErrDimensionMismatch indicates an entry vector whose dimension does
	// not match the index. Fatal during ingestion.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyEntries indicates an Add call with no entries.
	ErrEmptyEntries = errors.New("no entries to add")
)

// Config holds index configuration.
type Config struct {
	// Path is the index artifact file. Save writes it atomically.
	Path string `koanf:"path"`

	// Collection names the chromem collection inside the artifact.
	Collection string `koanf:"collection"`

	// VectorSize is the embedding dimension. 0 means adopt the dimension of
	// the first entry added.
	VectorSize int `koanf:"vector_size"`

	// Compress enables gzip compression of the persisted artifact.
	Compress bool `koanf:"compress"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "askd_docs"
	}
}

// Metadata is the chunk provenance stored alongside each vector.
type Metadata struct {
	DocumentID string
	Title      string
	OriginURL  string
	SourceType string
	Space      string
	Sequence   int
}

// Entry is one (vector, chunk) pair to index.
type Entry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// Match is one search hit, best score first in a result slice.
type Match struct {
	ID       string
	Text     string
	Score    float32
	Metadata Metadata
}

// Index is a flat cosine-similarity index. Built fully during ingestion,
// persisted with Save, loaded read-only for query serving.
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	cfg        Config
	dimension  int
	// seq orders entries by insertion so score ties break stably.
	seq int
}

// New creates an empty in-memory index.
func New(cfg Config) (*Index, error) {
	cfg.ApplyDefaults()
	if cfg.VectorSize < 0 {
		return nil, fmt.Errorf("%w: vector size must be non-negative", ErrInvalidConfig)
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(cfg.Collection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", cfg.Collection, err)
	}
	return &Index{
		db:         db,
		collection: collection,
		cfg:        cfg,
		dimension:  cfg.VectorSize,
	}, nil
}

// rejectEmbedding guards against chromem computing embeddings internally;
// all vectors enter the index precomputed.
func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("index stores precomputed embeddings only")
}

// Len returns the number of entries.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.collection.Count()
}

// Dimension returns the vector dimension, or 0 before the first entry.
func (i *Index) Dimension() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dimension
}

// Add bulk-appends entries. All vectors in one index must share the same
// dimension; a mismatch is reported as ErrDimensionMismatch.
func (i *Index) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return ErrEmptyEntries
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	docs := make([]chromem.Document, len(entries))
	for n, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: entry %s has an empty vector", ErrDimensionMismatch, e.ID)
		}
		if i.dimension == 0 {
			i.dimension = len(e.Vector)
		}
		if len(e.Vector) != i.dimension {
			return fmt.Errorf("%w: entry %s has dimension %d, index has %d", ErrDimensionMismatch, e.ID, len(e.Vector), i.dimension)
		}
		docs[n] = chromem.Document{
			ID:        e.ID,
			Content:   e.Text,
			Embedding: e.Vector,
			Metadata:  encodeMetadata(e.Metadata, i.seq),
		}
		i.seq++
	}

	if err := i.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding %d entries: %w", len(docs), err)
	}
	return nil
}

// Search returns up to k nearest entries by cosine similarity, best match
// first. Score ties break by insertion order. An empty index yields an empty
// result, not an error.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	count := i.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if i.dimension != 0 && len(vector) != i.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrDimensionMismatch, len(vector), i.dimension)
	}

	// chromem scores every entry regardless of nResults, so asking for all
	// of them costs only the sort and lets the insertion-order tie break be
	// applied before truncating to k.
	results, err := i.collection.QueryEmbedding(ctx, vector, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	type ordered struct {
		match     Match
		insertSeq int
	}
	hits := make([]ordered, len(results))
	for n, r := range results {
		meta, insertSeq := decodeMetadata(r.Metadata)
		hits[n] = ordered{
			match: Match{
				ID:       r.ID,
				Text:     r.Content,
				Score:    r.Similarity,
				Metadata: meta,
			},
			insertSeq: insertSeq,
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].match.Score != hits[b].match.Score {
			return hits[a].match.Score > hits[b].match.Score
		}
		return hits[a].insertSeq < hits[b].insertSeq
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	matches := make([]Match, len(hits))
	for n, h := range hits {
		matches[n] = h.match
	}
	return matches, nil
}

// Save persists the index atomically: export to a temp file in the target
// directory, then rename over the destination. A failed export never
// corrupts a previously persisted index.
func (i *Index) Save(path string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := i.db.ExportToFile(tmp, i.cfg.Compress, ""); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("exporting index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing index artifact: %w", err)
	}
	return nil
}

// Load reads a persisted index artifact for query serving.
func Load(path string, cfg Config) (*Index, error) {
	cfg.ApplyDefaults()

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("importing index from %s: %w", path, err)
	}
	collection := db.GetCollection(cfg.Collection, rejectEmbedding)
	if collection == nil {
		return nil, fmt.Errorf("index at %s has no collection %q", path, cfg.Collection)
	}

	idx := &Index{
		db:         db,
		collection: collection,
		cfg:        cfg,
		dimension:  cfg.VectorSize,
		seq:        collection.Count(),
	}
	return idx, nil
}

func encodeMetadata(m Metadata, seq int) map[string]string {
	return map[string]string{
		"doc_id":      m.DocumentID,
		"title":       m.Title,
		"origin_url":  m.OriginURL,
		"source_type": m.SourceType,
		"space":       m.Space,
		"chunk_seq":   strconv.Itoa(m.Sequence),
		"insert_seq":  strconv.Itoa(seq),
	}
}

func decodeMetadata(raw map[string]string) (Metadata, int) {
	chunkSeq, _ := strconv.Atoi(raw["chunk_seq"])
	insertSeq, _ := strconv.Atoi(raw["insert_seq"])
	return Metadata{
		DocumentID: raw["doc_id"],
		Title:      raw["title"],
		OriginURL:  raw["origin_url"],
		SourceType: raw["source_type"],
		Space:      raw["space"],
		Sequence:   chunkSeq,
	}, insertSeq
}
