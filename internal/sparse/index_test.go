package sparse

import (
	"context"
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
	"docsearch/internal/textnorm"
)

func normalizedDocs(t *testing.T, raw ...[2]string) []domain.Document {
	t.Helper()
	docs := make([]domain.Document, len(raw))
	for i, r := range raw {
		docs[i] = domain.Document{Name: r[0], Content: textnorm.Normalize(r[1])}
	}
	return docs
}

func newIndex(t *testing.T) (*Index, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "tfidf_model.gob")
	ix, err := New(path)
	require.NoError(t, err)
	return ix, path
}

func TestFit_SmoothedIDF(t *testing.T) {
	v := Fit([]string{"cat sat", "cat run", "dog run"})

	require.Equal(t, 4, v.Dimension())
	assert.Equal(t, map[string]int{"cat": 0, "dog": 1, "run": 2, "sat": 3}, v.Vocabulary)
	assert.InDelta(t, math.Log(4.0/3.0)+1, v.IDF[v.Vocabulary["cat"]], 1e-12)
	assert.InDelta(t, math.Log(4.0/2.0)+1, v.IDF[v.Vocabulary["dog"]], 1e-12)
}

func TestTransform_NormalizedAndSorted(t *testing.T) {
	v := Fit([]string{"alpha beta beta", "gamma"})

	vec := v.Transform("beta alpha beta unknown")

	assert.Equal(t, []int{0, 1}, vec.Indices)
	assert.InDelta(t, 1.0, vec.Dot(vec), 1e-12)
	assert.Greater(t, vec.Values[1], vec.Values[0])
	assert.Empty(t, v.Transform("nothing known").Indices)
}

func TestVectorDot(t *testing.T) {
	a := Vector{Indices: []int{0, 2, 5}, Values: []float64{1, 2, 3}}
	b := Vector{Indices: []int{2, 3, 5}, Values: []float64{4, 1, 1}}

	assert.Equal(t, 11.0, a.Dot(b))
	assert.Equal(t, 0.0, a.Dot(Vector{}))
}

func TestSearch_NotReady(t *testing.T) {
	ix, _ := newIndex(t)

	_, err := ix.Search("anything", domain.SearchOptions{TopN: 5})

	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.False(t, ix.Ready())
}

func TestSearch_ExampleRanksCatDocumentFirst(t *testing.T) {
	ix, _ := newIndex(t)
	docs := normalizedDocs(t, [2]string{"a.txt", "the cat sat"}, [2]string{"b.txt", "dogs run fast"})
	require.NoError(t, ix.Train(context.Background(), docs))

	res, err := ix.Search("cat", domain.SearchOptions{TopN: 5})

	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a.txt", res[0].Name)
	assert.Greater(t, res[0].Score, res[1].Score)
}

func TestSearch_SelfMatchScoresOne(t *testing.T) {
	ix, _ := newIndex(t)
	docs := normalizedDocs(t,
		[2]string{"space.txt", "Astronomers observed a distant galaxy with the new telescope"},
		[2]string{"food.txt", "The chef cooked pasta with fresh tomatoes and basil"},
		[2]string{"sport.txt", "The team won the championship after a dramatic final"},
	)
	require.NoError(t, ix.Train(context.Background(), docs))

	res, err := ix.Search("The chef cooked pasta with fresh tomatoes and basil", domain.SearchOptions{TopN: 3})

	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "food.txt", res[0].Name)
	assert.Equal(t, 1.0, res[0].Score)
}

func TestSearch_TopNAndOrdering(t *testing.T) {
	ix, _ := newIndex(t)
	docs := normalizedDocs(t,
		[2]string{"1.txt", "apple banana cherry"},
		[2]string{"2.txt", "apple banana"},
		[2]string{"3.txt", "apple"},
		[2]string{"4.txt", "durian"},
	)
	require.NoError(t, ix.Train(context.Background(), docs))

	res, err := ix.Search("apple banana", domain.SearchOptions{TopN: 2})

	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "2.txt", res[0].Name)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
	for _, r := range res {
		assert.GreaterOrEqual(t, r.Score, -1.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		assert.Equal(t, math.Round(r.Score*1e4)/1e4, r.Score)
	}
}

func TestSearch_UnknownQueryKeepsRowOrder(t *testing.T) {
	ix, _ := newIndex(t)
	docs := normalizedDocs(t, [2]string{"b.txt", "beta"}, [2]string{"a.txt", "alpha"})
	require.NoError(t, ix.Train(context.Background(), docs))

	res, err := ix.Search("zebra", domain.SearchOptions{TopN: 5})

	require.NoError(t, err)
	assert.Equal(t, []domain.SearchResult{{Name: "b.txt", Score: 0}, {Name: "a.txt", Score: 0}}, res)
}

func TestSearch_Filter(t *testing.T) {
	ix, _ := newIndex(t)
	docs := normalizedDocs(t, [2]string{"a.txt", "cat"}, [2]string{"b.txt", "cat dog"})
	require.NoError(t, ix.Train(context.Background(), docs))

	res, err := ix.Search("cat", domain.SearchOptions{TopN: 5, Filter: func(n string) bool { return n == "b.txt" }})

	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b.txt", res[0].Name)
}

func TestEmptyCorpus(t *testing.T) {
	ix, _ := newIndex(t)
	require.NoError(t, ix.Train(context.Background(), nil))

	res, err := ix.Search("anything at all", domain.SearchOptions{TopN: 5})

	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestLoad_TrainsWhenArtifactMissing(t *testing.T) {
	ix, path := newIndex(t)
	docs := normalizedDocs(t, [2]string{"a.txt", "cat"})

	require.NoError(t, ix.Load(context.Background(), docs))

	assert.True(t, ix.Ready())
	assert.FileExists(t, path)
}

func TestLoad_ReusesPersistedArtifact(t *testing.T) {
	ix, path := newIndex(t)
	docs := normalizedDocs(t, [2]string{"a.txt", "the cat sat"}, [2]string{"b.txt", "dogs run fast"})
	require.NoError(t, ix.Train(context.Background(), docs))

	reloaded, err := New(path)
	require.NoError(t, err)
	// Documents passed to Load are ignored when the artifact exists.
	require.NoError(t, reloaded.Load(context.Background(), nil))

	assert.Equal(t, []string{"a.txt", "b.txt"}, reloaded.Names())
	want, err := ix.Search("cat", domain.SearchOptions{TopN: 5})
	require.NoError(t, err)
	got, err := reloaded.Search("cat", domain.SearchOptions{TopN: 5})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_RetrainsWhenArtifactCorrupt(t *testing.T) {
	ix, path := newIndex(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	docs := normalizedDocs(t, [2]string{"a.txt", "cat"})

	require.NoError(t, ix.Load(context.Background(), docs))

	assert.Equal(t, []string{"a.txt"}, ix.Names())
}

func TestArtifact_HoldsThreeValuesInOrder(t *testing.T) {
	ix, path := newIndex(t)
	docs := normalizedDocs(t, [2]string{"x.txt", "alpha beta"}, [2]string{"y.txt", "gamma"})
	require.NoError(t, ix.Train(context.Background(), docs))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dec := gob.NewDecoder(f)

	var vec Vectorizer
	var matrix Matrix
	var names []string
	require.NoError(t, dec.Decode(&vec))
	require.NoError(t, dec.Decode(&matrix))
	require.NoError(t, dec.Decode(&names))

	assert.Equal(t, 3, vec.Dimension())
	assert.Len(t, matrix.Rows, 2)
	assert.Equal(t, []string{"x.txt", "y.txt"}, names)
}

func TestTrain_CancelledContext(t *testing.T) {
	ix, path := newIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ix.Train(ctx, normalizedDocs(t, [2]string{"a.txt", "cat"}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
	assert.False(t, ix.Ready())
}
