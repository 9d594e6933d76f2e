// Package sparse implements TF-IDF retrieval over normalized documents.
package sparse

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"docsearch/internal/domain"
	"docsearch/internal/fsutil"
	"docsearch/internal/similarity"
	"docsearch/internal/textnorm"
)

// Ensure Index implements the interface.
var _ domain.Index = (*Index)(nil)

// Index is a TF-IDF vector space over one document set. The artifact at
// path holds three gob values in order: vectorizer, matrix, document names.
type Index struct {
	path       string
	normalizer *textnorm.Normalizer
	logger     *slog.Logger

	vectorizer *Vectorizer
	matrix     *Matrix
	names      []string
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
	}
}

// WithNormalizer overrides the process-wide normalizer used for queries.
func WithNormalizer(n *textnorm.Normalizer) Option {
	return func(ix *Index) {
		if n != nil {
			ix.normalizer = n
		}
	}
}

// New creates an uninitialized index persisting to path.
func New(path string, opts ...Option) (*Index, error) {
	ix := &Index{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.normalizer == nil {
		n, err := textnorm.Default()
		if err != nil {
			return nil, err
		}
		ix.normalizer = n
	}
	return ix, nil
}

// Name returns the identifier of this index implementation.
func (ix *Index) Name() string { return "tfidf" }

// Ready reports whether the index can answer searches.
func (ix *Index) Ready() bool { return ix.vectorizer != nil }

// Train fits the vectorizer on the documents' normalized content, builds the
// weight matrix and persists it. State changes only after a successful write.
func (ix *Index) Train(ctx context.Context, docs []domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	contents := make([]string, len(docs))
	names := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
		names[i] = d.Name
	}
	vec := Fit(contents)
	matrix := &Matrix{Cols: vec.Dimension(), Rows: make([]Vector, len(contents))}
	for i, text := range contents {
		matrix.Rows[i] = vec.Transform(text)
	}

	err := fsutil.WriteAtomic(ix.path, func(w io.Writer) error {
		enc := gob.NewEncoder(w)
		if err := enc.Encode(vec); err != nil {
			return fmt.Errorf("encode vectorizer: %w", err)
		}
		if err := enc.Encode(matrix); err != nil {
			return fmt.Errorf("encode matrix: %w", err)
		}
		if err := enc.Encode(names); err != nil {
			return fmt.Errorf("encode document names: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save tfidf model: %w", err)
	}

	ix.vectorizer, ix.matrix, ix.names = vec, matrix, names
	ix.logger.Info("tfidf model trained", "documents", len(names), "terms", vec.Dimension(), "path", ix.path)
	return nil
}

// Load restores the persisted artifact, training over docs when it is
// missing or unreadable.
func (ix *Index) Load(ctx context.Context, docs []domain.Document) error {
	if !fsutil.Exists(ix.path) {
		ix.logger.Info("no tfidf model found, training", "path", ix.path)
		return ix.Train(ctx, docs)
	}
	vec, matrix, names, err := readArtifact(ix.path)
	if err != nil {
		ix.logger.Warn("tfidf model unreadable, retraining", "path", ix.path, "err", err)
		return ix.Train(ctx, docs)
	}
	ix.vectorizer, ix.matrix, ix.names = vec, matrix, names
	ix.logger.Info("tfidf model loaded", "documents", len(names), "terms", vec.Dimension())
	return nil
}

// Search ranks documents by cosine similarity to the normalized query.
func (ix *Index) Search(query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if !ix.Ready() {
		return nil, fmt.Errorf("tfidf: %w", domain.ErrNotReady)
	}
	q := ix.vectorizer.Transform(ix.normalizer.Normalize(query))
	scores := make([]float64, len(ix.matrix.Rows))
	for i, row := range ix.matrix.Rows {
		// Rows and query are L2-normalized, so the dot product is the cosine.
		scores[i] = row.Dot(q)
	}
	return similarity.Rank(ix.names, scores, opts), nil
}

// Names returns document names in matrix row order.
func (ix *Index) Names() []string { return ix.names }

func readArtifact(path string) (*Vectorizer, *Matrix, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	dec := gob.NewDecoder(f)
	var (
		vec    Vectorizer
		matrix Matrix
		names  []string
	)
	if err := dec.Decode(&vec); err != nil {
		return nil, nil, nil, fmt.Errorf("decode vectorizer: %w", err)
	}
	if err := dec.Decode(&matrix); err != nil {
		return nil, nil, nil, fmt.Errorf("decode matrix: %w", err)
	}
	if err := dec.Decode(&names); err != nil {
		return nil, nil, nil, fmt.Errorf("decode document names: %w", err)
	}
	if len(matrix.Rows) != len(names) {
		return nil, nil, nil, errors.New("matrix rows do not match document names")
	}
	if len(vec.IDF) != matrix.Cols {
		return nil, nil, nil, errors.New("vocabulary does not match matrix width")
	}
	return &vec, &matrix, names, nil
}
