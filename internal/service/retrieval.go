// Package service binds the sparse and dense indexes to one loaded document
// set and exposes the search operations used by the CLI and the TUI.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"docsearch/internal/domain"
)

// AllCategories is the category value that disables filtering.
const AllCategories = "all"

// Retrieval owns one sparse and one dense index built over the same documents.
type Retrieval struct {
	sparse      domain.Index
	dense       domain.Index
	docs        []domain.Document
	categorizer domain.Categorizer
	logger      *slog.Logger
}

// Option configures a Retrieval.
type Option func(*Retrieval)

// WithCategorizer supplies document categories for filtered searches.
func WithCategorizer(c domain.Categorizer) Option {
	return func(r *Retrieval) {
		r.categorizer = c
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retrieval) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// Open loads both indexes for docs, training either one whose persisted
// artifact is missing.
func Open(ctx context.Context, docs []domain.Document, sparse, dense domain.Index, opts ...Option) (*Retrieval, error) {
	r := newRetrieval(docs, sparse, dense, opts)
	if err := r.each(ctx, "load", domain.Index.Load); err != nil {
		return nil, err
	}
	return r, nil
}

// Build retrains both indexes over docs from scratch.
func Build(ctx context.Context, docs []domain.Document, sparse, dense domain.Index, opts ...Option) (*Retrieval, error) {
	r := newRetrieval(docs, sparse, dense, opts)
	if err := r.each(ctx, "train", domain.Index.Train); err != nil {
		return nil, err
	}
	return r, nil
}

func newRetrieval(docs []domain.Document, sparse, dense domain.Index, opts []Option) *Retrieval {
	r := &Retrieval{sparse: sparse, dense: dense, docs: docs, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// each runs op on both indexes concurrently. The indexes share no state.
func (r *Retrieval) each(ctx context.Context, verb string, op func(domain.Index, context.Context, []domain.Document) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ix := range []domain.Index{r.sparse, r.dense} {
		g.Go(func() error {
			if err := op(ix, gctx, r.docs); err != nil {
				return fmt.Errorf("%s %s index: %w", verb, ix.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.logger.Info("indexes ready", "action", verb, "documents", len(r.docs))
	return nil
}

// SearchSparse ranks documents against query with the TF-IDF index.
func (r *Retrieval) SearchSparse(query string, topN int, category string) ([]domain.SearchResult, error) {
	return r.search(r.sparse, query, topN, category)
}

// SearchDense ranks documents against query with the doc2vec index.
func (r *Retrieval) SearchDense(query string, topN int, category string) ([]domain.SearchResult, error) {
	return r.search(r.dense, query, topN, category)
}

// Documents returns the documents the indexes were bound to.
func (r *Retrieval) Documents() []domain.Document { return r.docs }

func (r *Retrieval) search(ix domain.Index, query string, topN int, category string) ([]domain.SearchResult, error) {
	opts, err := r.options(topN, category)
	if err != nil {
		return nil, err
	}
	res, err := ix.Search(query, opts)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("search", "index", ix.Name(), "query", query, "category", category, "results", len(res))
	return res, nil
}

func (r *Retrieval) options(topN int, category string) (domain.SearchOptions, error) {
	opts := domain.SearchOptions{TopN: topN}
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategories) {
		return opts, nil
	}
	if r.categorizer == nil {
		return opts, fmt.Errorf("%w: %q", domain.ErrCategoryUnavailable, category)
	}
	opts.Filter = func(name string) bool {
		c, ok := r.categorizer.Category(name)
		return ok && strings.EqualFold(c, category)
	}
	return opts, nil
}
