package main

import (
	"fmt"
	"log/slog"

	"docsearch/internal/config"
	"docsearch/internal/corpus"
	"docsearch/internal/dense"
	"docsearch/internal/domain"
	"docsearch/internal/opener"
	"docsearch/internal/preview"
	"docsearch/internal/service"
	"docsearch/internal/sparse"
	"docsearch/internal/textnorm"
)

// app assembles the components from configuration.
type app struct {
	cfg        *config.AppConfig
	logger     *slog.Logger
	normalizer *textnorm.Normalizer
	store      *corpus.Store
	session    *service.Session
	opener     *opener.Opener
	summarizer *preview.FrequencySummarizer
}

func newApp(cfg *config.AppConfig) (*app, error) {
	logger := slog.Default()
	normalizer, err := textnorm.Default()
	if err != nil {
		return nil, fmt.Errorf("load text normalizer: %w", err)
	}
	store, err := corpus.NewStore(cfg.Documents.Dir, cfg.FingerprintPath(),
		corpus.WithExtensions(cfg.Documents.Extensions...),
		corpus.WithNormalizer(normalizer),
		corpus.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		normalizer: normalizer,
		store:      store,
		opener:     opener.New(store),
		summarizer: preview.NewFrequencySummarizer(normalizer),
	}
	opts := []service.Option{service.WithLogger(logger)}
	if len(cfg.Categories) > 0 {
		opts = append(opts, service.WithCategorizer(service.CategoryMap(cfg.Categories)))
	}
	a.session = service.NewSession(store, a.indexes, logger, opts...)
	return a, nil
}

// indexes creates fresh sparse and dense indexes bound to the configured artifact paths.
func (a *app) indexes() (domain.Index, domain.Index, error) {
	sp, err := sparse.New(a.cfg.SparseModelPath(),
		sparse.WithLogger(a.logger),
		sparse.WithNormalizer(a.normalizer),
	)
	if err != nil {
		return nil, nil, err
	}
	dn, err := dense.New(a.cfg.DenseModelPath(), a.cfg.DenseVectorsPath(),
		dense.WithParams(denseParams(a.cfg.Dense)),
		dense.WithLogger(a.logger),
		dense.WithNormalizer(a.normalizer),
	)
	if err != nil {
		return nil, nil, err
	}
	return sp, dn, nil
}

// preview returns a short extract of a document for the TUI.
func (a *app) preview(name, query string) (string, error) {
	raw, err := a.store.ReadRaw(name)
	if err != nil {
		return "", err
	}
	return a.summarizer.Summarize(raw, query, a.cfg.Search.PreviewSentences), nil
}

func denseParams(c config.DenseConfig) dense.Params {
	return dense.Params{
		VectorSize: c.VectorSize,
		Window:     c.Window,
		MinCount:   c.MinCount,
		Epochs:     c.Epochs,
		Negative:   c.Negative,
		Workers:    c.Workers,
		BatchSize:  c.BatchSize,
		Alpha:      c.Alpha,
		MinAlpha:   c.MinAlpha,
		Sample:     c.Sample,
		Seed:       c.Seed,
	}
}
