package dense

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"docsearch/internal/domain"
	"docsearch/internal/fsutil"
	"docsearch/internal/textnorm"
	"docsearch/internal/vectorstore/memory"
)

// Ensure Index implements the interface.
var _ domain.Index = (*Index)(nil)

// Index serves searches from a trained model and the document vectors
// derived from it. The model and the name -> vector mapping are persisted
// separately.
type Index struct {
	modelPath   string
	vectorsPath string
	params      Params
	normalizer  *textnorm.Normalizer
	logger      *slog.Logger

	model   *Model
	vectors *memory.Storage
}

// Option configures an Index.
type Option func(*Index)

// WithParams overrides the training hyperparameters. Zero fields keep their defaults.
func WithParams(p Params) Option {
	return func(ix *Index) {
		ix.params = p.withDefaults()
	}
}

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

// New creates an uninitialized index persisting to modelPath and vectorsPath.
func New(modelPath, vectorsPath string, opts ...Option) (*Index, error) {
	ix := &Index{
		modelPath:   modelPath,
		vectorsPath: vectorsPath,
		params:      DefaultParams(),
		logger:      slog.Default(),
	}
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
func (ix *Index) Name() string { return "doc2vec" }

// Ready reports whether both the model and the document vectors are loaded.
func (ix *Index) Ready() bool { return ix.model != nil && ix.vectors != nil }

// Train fits a new model over docs, tagging each token sequence with the
// document name, and persists the model and its document vectors.
func (ix *Index) Train(ctx context.Context, docs []domain.Document) error {
	tagged := make([]TaggedDocument, len(docs))
	for i, d := range docs {
		tagged[i] = TaggedDocument{Tag: d.Name, Words: strings.Fields(d.Content)}
	}
	ix.logger.Info("training doc2vec model", "documents", len(docs), "epochs", ix.params.Epochs, "workers", ix.params.Workers)

	model, err := Train(ctx, tagged, ix.params, ix.logger)
	if err != nil {
		return fmt.Errorf("train doc2vec: %w", err)
	}
	vectors := ix.vectorsFor(model, docs)

	if err := model.Save(ix.modelPath); err != nil {
		return fmt.Errorf("save doc2vec model: %w", err)
	}
	if err := saveVectors(ix.vectorsPath, vectors); err != nil {
		// The model is only usable together with its document vectors.
		if rmErr := os.Remove(ix.modelPath); rmErr != nil {
			ix.logger.Warn("failed to remove doc2vec model", "path", ix.modelPath, "err", rmErr)
		}
		return fmt.Errorf("save doc2vec vectors: %w", err)
	}
	ix.model, ix.vectors = model, vectors
	ix.logger.Info("doc2vec model trained", "documents", len(docs), "words", len(model.Words), "path", ix.modelPath)
	return nil
}

// Load restores the persisted model, training over docs when there is none.
// Missing or malformed document vectors are regenerated from the loaded
// model for docs without retraining.
func (ix *Index) Load(ctx context.Context, docs []domain.Document) error {
	if !fsutil.Exists(ix.modelPath) {
		ix.logger.Info("no doc2vec model found, training", "path", ix.modelPath)
		return ix.Train(ctx, docs)
	}
	model, err := LoadModel(ix.modelPath)
	if err != nil {
		ix.logger.Warn("doc2vec model unreadable, retraining", "path", ix.modelPath, "err", err)
		return ix.Train(ctx, docs)
	}

	vectors, err := loadVectors(ix.vectorsPath, model.Params.VectorSize)
	if err != nil {
		ix.logger.Info("regenerating doc2vec vectors", "path", ix.vectorsPath, "reason", err)
		vectors = ix.vectorsFor(model, docs)
		if err := saveVectors(ix.vectorsPath, vectors); err != nil {
			return fmt.Errorf("save doc2vec vectors: %w", err)
		}
	}
	ix.model, ix.vectors = model, vectors
	ix.logger.Info("doc2vec model loaded", "documents", vectors.Len(), "words", len(model.Words))
	return nil
}

// Search infers a vector for the normalized query and ranks documents by
// cosine similarity to it.
func (ix *Index) Search(query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if !ix.Ready() {
		return nil, fmt.Errorf("doc2vec: %w", domain.ErrNotReady)
	}
	tokens := strings.Fields(ix.normalizer.Normalize(query))
	return ix.vectors.Search(ix.model.Infer(tokens), opts), nil
}

// Names returns the names of documents with stored vectors, in mapping order.
func (ix *Index) Names() []string {
	if ix.vectors == nil {
		return nil
	}
	return ix.vectors.Names()
}

// vectorsFor collects the model's vectors for docs in document order.
func (ix *Index) vectorsFor(model *Model, docs []domain.Document) *memory.Storage {
	store := memory.NewStorage(model.Params.VectorSize)
	for _, d := range docs {
		vec, ok := model.DocVector(d.Name)
		if !ok {
			ix.logger.Warn("document not in doc2vec model, skipping", "document", d.Name)
			continue
		}
		// Upsert only fails on a dimension mismatch, which a model row cannot have.
		_ = store.Upsert(d.Name, vec)
	}
	return store
}

func saveVectors(path string, vectors *memory.Storage) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(vectors)
	})
}

func loadVectors(path string, dim int) (*memory.Storage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	store := memory.NewStorage(dim)
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return store, nil
}
