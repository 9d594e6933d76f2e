package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"docsearch/internal/corpus"
	"docsearch/internal/domain"
)

// DocumentSource is the part of the corpus store a session needs.
type DocumentSource interface {
	HasChanges() bool
	LoadDocuments() ([]domain.Document, error)
}

// IndexFactory creates fresh, uninitialized sparse and dense indexes.
type IndexFactory func() (sparse, dense domain.Index, err error)

// Session caches the Retrieval for the current corpus snapshot so repeated
// opens over unchanged documents reuse the loaded indexes.
type Session struct {
	mu      sync.Mutex
	source  DocumentSource
	factory IndexFactory
	opts    []Option
	logger  *slog.Logger

	key     string
	current *Retrieval
}

// NewSession creates a session over source. opts are applied to every
// Retrieval the session opens.
func NewSession(source DocumentSource, factory IndexFactory, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{source: source, factory: factory, logger: logger, opts: opts}
}

// NeedsDecision reports whether the documents changed since the indexes were
// last built, in which case the caller should choose between retraining and
// reusing the persisted indexes. It must be called before Open, which
// records the new snapshot.
func (s *Session) NeedsDecision() bool {
	return s.source.HasChanges()
}

// Open loads the documents and returns a Retrieval bound to them. With
// retrain set both indexes are rebuilt; otherwise persisted indexes are
// loaded, and a cached Retrieval for the same snapshot is returned as is.
func (s *Session) Open(ctx context.Context, retrain bool) (*Retrieval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.source.LoadDocuments()
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	key := corpus.FingerprintOf(docs).Key()
	if !retrain && s.current != nil && key == s.key {
		s.logger.Debug("reusing cached indexes", "snapshot", key[:12])
		return s.current, nil
	}

	sparse, dense, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	var r *Retrieval
	if retrain {
		r, err = Build(ctx, docs, sparse, dense, s.opts...)
	} else {
		r, err = Open(ctx, docs, sparse, dense, s.opts...)
	}
	if err != nil {
		return nil, err
	}
	s.key, s.current = key, r
	return r, nil
}

// Invalidate drops the cached Retrieval.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key, s.current = "", nil
}
