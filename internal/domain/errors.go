package domain

import "errors"

var (
	// ErrNotReady indicates a search was requested before the index was trained or loaded.
	ErrNotReady = errors.New("index not ready")

	// ErrCategoryUnavailable indicates a category filter was requested but no
	// categorizer is configured.
	ErrCategoryUnavailable = errors.New("category filter unavailable")

	// ErrInvalidName indicates a document name that does not resolve inside the documents directory.
	ErrInvalidName = errors.New("invalid document name")
)
