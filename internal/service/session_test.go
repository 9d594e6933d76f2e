package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
)

type fakeSource struct {
	docs    []domain.Document
	changed bool
	err     error
	loads   int
}

func (s *fakeSource) HasChanges() bool { return s.changed }

func (s *fakeSource) LoadDocuments() ([]domain.Document, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	s.changed = false
	return s.docs, nil
}

type factoryCounter struct {
	calls  int
	sparse []*fakeIndex
	dense  []*fakeIndex
}

func (f *factoryCounter) build() (domain.Index, domain.Index, error) {
	f.calls++
	s, d := newFakeIndex("tfidf", nil), newFakeIndex("doc2vec", nil)
	f.sparse = append(f.sparse, s)
	f.dense = append(f.dense, d)
	return s, d, nil
}

func TestSession_ReusesCachedRetrievalForSameSnapshot(t *testing.T) {
	src := &fakeSource{docs: testDocs()}
	fc := &factoryCounter{}
	s := NewSession(src, fc.build, nil)

	first, err := s.Open(context.Background(), false)
	require.NoError(t, err)
	second, err := s.Open(context.Background(), false)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, 2, src.loads)
}

func TestSession_RebuildsWhenSnapshotChanges(t *testing.T) {
	src := &fakeSource{docs: testDocs()}
	fc := &factoryCounter{}
	s := NewSession(src, fc.build, nil)
	first, err := s.Open(context.Background(), false)
	require.NoError(t, err)

	src.docs = append(testDocs(), domain.Document{Name: "d.txt", ModTime: time.Now()})
	second, err := s.Open(context.Background(), false)

	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, fc.calls)
	assert.Equal(t, 1, fc.sparse[1].loads)
}

func TestSession_RetrainAlwaysBuilds(t *testing.T) {
	src := &fakeSource{docs: testDocs()}
	fc := &factoryCounter{}
	s := NewSession(src, fc.build, nil)
	_, err := s.Open(context.Background(), false)
	require.NoError(t, err)

	_, err = s.Open(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, 2, fc.calls)
	assert.Equal(t, 1, fc.sparse[1].trains)
	assert.Equal(t, 1, fc.dense[1].trains)
}

func TestSession_Invalidate(t *testing.T) {
	src := &fakeSource{docs: testDocs()}
	fc := &factoryCounter{}
	s := NewSession(src, fc.build, nil)
	_, err := s.Open(context.Background(), false)
	require.NoError(t, err)

	s.Invalidate()
	_, err = s.Open(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 2, fc.calls)
}

func TestSession_NeedsDecision(t *testing.T) {
	src := &fakeSource{docs: testDocs(), changed: true}
	s := NewSession(src, (&factoryCounter{}).build, nil)

	assert.True(t, s.NeedsDecision())
	_, err := s.Open(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, s.NeedsDecision())
}

func TestSession_LoadError(t *testing.T) {
	boom := errors.New("permission denied")
	fc := &factoryCounter{}
	s := NewSession(&fakeSource{err: boom}, fc.build, nil)

	_, err := s.Open(context.Background(), false)

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, fc.calls)
}

func TestSession_AppliesOptions(t *testing.T) {
	src := &fakeSource{docs: testDocs()}
	s := NewSession(src, (&factoryCounter{}).build, nil, WithCategorizer(CategoryMap{"a.txt": "x"}))

	r, err := s.Open(context.Background(), false)
	require.NoError(t, err)

	_, err = r.SearchSparse("q", 5, "x")
	assert.NoError(t, err)
}
