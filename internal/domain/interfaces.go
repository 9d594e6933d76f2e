package domain

import (
	"context"
	"time"
)

// Document represents a single text file loaded from the documents directory.
// Content holds the normalized token stream joined with single spaces.
type Document struct {
	Name    string
	ModTime time.Time
	Content string
}

// SearchResult is a ranked document with its similarity score.
type SearchResult struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SearchOptions controls how many results an index returns and which
// documents are eligible.
type SearchOptions struct {
	TopN int
	// Filter, when non-nil, keeps only documents for which it returns true.
	Filter func(name string) bool
}

// Allows reports whether name passes the filter.
func (o SearchOptions) Allows(name string) bool {
	return o.Filter == nil || o.Filter(name)
}

// Index is a retrieval structure built over a document set.
// It starts uninitialized and becomes ready after Train or Load.
type Index interface {
	Name() string
	Train(ctx context.Context, docs []Document) error
	// Load restores persisted state, training over docs when none exists.
	Load(ctx context.Context, docs []Document) error
	Ready() bool
	Search(query string, opts SearchOptions) ([]SearchResult, error)
}

// Categorizer supplies category labels for documents. Category assignment
// lives outside the retrieval core.
type Categorizer interface {
	Category(name string) (string, bool)
}
