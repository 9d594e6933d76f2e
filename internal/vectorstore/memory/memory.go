// Package memory is an in-memory document vector store with brute-force
// cosine search. Insertion order is kept, and it is the order used for
// ties in search and for the JSON encoding.
package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"docsearch/internal/domain"
	"docsearch/internal/similarity"
)

var (
	// ErrDimension is returned for vectors whose length differs from the store's.
	ErrDimension = errors.New("vector dimension mismatch")
)

// Storage maps document names to fixed-length vectors.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	names     []string
	vectors   [][]float64
	index     map[string]int
}

// NewStorage creates an empty store. A dimension of zero is fixed by the
// first Upsert.
func NewStorage(dimension int) *Storage {
	return &Storage{dimension: dimension, index: make(map[string]int)}
}

// Dimension returns the vector length enforced by the store.
func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Upsert stores vec under name. A new name is appended; an existing name
// keeps its position.
func (s *Storage) Upsert(name string, vec []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		s.dimension = len(vec)
	}
	if len(vec) != s.dimension || len(vec) == 0 {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrDimension, name, len(vec), s.dimension)
	}
	cp := append([]float64(nil), vec...)
	if i, ok := s.index[name]; ok {
		s.vectors[i] = cp
		return nil
	}
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
	s.vectors = append(s.vectors, cp)
	return nil
}

// Names returns document names in insertion order.
func (s *Storage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.names...)
}

// Len returns the number of stored vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}

// Search ranks stored documents by cosine similarity to vector.
func (s *Storage) Search(vector []float64, opts domain.SearchOptions) []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make([]float64, len(s.vectors))
	for i, v := range s.vectors {
		scores[i] = similarity.Cosine(v, vector)
	}
	return similarity.Rank(s.names, scores, opts)
}


// MarshalJSON encodes the store as a JSON object with keys in insertion order.
func (s *Storage) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.vectors[i])
		if err != nil {
			return nil, fmt.Errorf("encode vector %s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the contents with a JSON object of name -> vector,
// keeping the key order of the input. Every vector must match the store's
// dimension, or the first vector's length when the dimension is unset.
func (s *Storage) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("vector mapping must be a JSON object")
	}

	loaded := NewStorage(s.Dimension())
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var vec []float64
		if err := dec.Decode(&vec); err != nil {
			return fmt.Errorf("decode vector %s: %w", name, err)
		}
		if err := loaded.Upsert(name, vec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = loaded.dimension
	s.names = loaded.names
	s.vectors = loaded.vectors
	s.index = loaded.index
	return nil
}
