// Package corpus enumerates the documents directory, detects changes through
// a persisted modification-time fingerprint and produces normalized documents.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docsearch/internal/domain"
	"docsearch/internal/textnorm"
)

// DefaultExtensions lists the file extensions indexed by default.
var DefaultExtensions = []string{".txt"}

// Store reads documents from a single directory.
type Store struct {
	dir             string
	fingerprintPath string
	extensions      []string
	normalizer      *textnorm.Normalizer
	logger          *slog.Logger
	documents       []domain.Document
}

// Option configures a Store.
type Option func(*Store)

// WithExtensions sets the accepted file extensions (leading dot, case-insensitive).
func WithExtensions(exts ...string) Option {
	return func(s *Store) {
		if len(exts) == 0 {
			return
		}
		s.extensions = make([]string, 0, len(exts))
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			s.extensions = append(s.extensions, e)
		}
	}
}

// WithNormalizer overrides the process-wide normalizer.
func WithNormalizer(n *textnorm.Normalizer) Option {
	return func(s *Store) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewStore creates a store over dir that persists its fingerprint at fingerprintPath.
func NewStore(dir, fingerprintPath string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:             dir,
		fingerprintPath: fingerprintPath,
		extensions:      DefaultExtensions,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		n, err := textnorm.Default()
		if err != nil {
			return nil, err
		}
		s.normalizer = n
	}
	return s, nil
}

// Dir returns the documents directory.
func (s *Store) Dir() string { return s.dir }

// ListDocumentFiles returns the sorted names of accepted files in the
// documents directory. A missing directory yields no files.
func (s *Store) ListDocumentFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !s.accepts(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Snapshot stats every accepted file without touching the persisted fingerprint.
func (s *Store) Snapshot() (Fingerprint, error) {
	names, err := s.ListDocumentFiles()
	if err != nil {
		return nil, err
	}
	fp := make(Fingerprint, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		fp[name] = ModTimeSeconds(info.ModTime())
	}
	return fp, nil
}

// HasChanges reports whether the documents differ from the last persisted
// fingerprint. Any doubt (missing or unreadable fingerprint, listing errors)
// counts as a change.
func (s *Store) HasChanges() bool {
	old, err := ReadFingerprint(s.fingerprintPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("fingerprint unreadable, assuming changes", "path", s.fingerprintPath, "err", err)
		}
		return true
	}
	current, err := s.Snapshot()
	if err != nil {
		s.logger.Warn("cannot snapshot documents, assuming changes", "dir", s.dir, "err", err)
		return true
	}
	return !old.Equal(current)
}

// LoadDocuments reads and normalizes every accepted file, then persists the
// fingerprint of what was loaded. Previously held documents are discarded.
func (s *Store) LoadDocuments() ([]domain.Document, error) {
	s.documents = nil

	names, err := s.ListDocumentFiles()
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(names))
	fp := make(Fingerprint, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		raw, err := readText(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{
			Name:    name,
			ModTime: info.ModTime(),
			Content: s.normalizer.Normalize(raw),
		})
		fp[name] = ModTimeSeconds(info.ModTime())
	}

	if err := WriteFingerprint(s.fingerprintPath, fp); err != nil {
		return nil, fmt.Errorf("save fingerprint: %w", err)
	}
	s.logger.Info("documents loaded", "dir", s.dir, "count", len(docs))
	s.documents = docs
	return docs, nil
}

// Documents returns the documents from the last LoadDocuments call.
func (s *Store) Documents() []domain.Document {
	return s.documents
}

// Path resolves a document name to its file path inside the documents directory.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// ReadRaw returns the original text of a document with undecodable bytes dropped.
func (s *Store) ReadRaw(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	return readText(path)
}

func (s *Store) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range s.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
