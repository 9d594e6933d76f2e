package sparse

import (
	"math"
	"regexp"
	"sort"
)

// tokenPattern matches runs of two or more word characters. Input is already
// normalized, so no lowercasing or stop-word removal happens here.
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// Vectorizer holds a frozen vocabulary and its IDF weights.
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
}

// Fit builds the vocabulary and smoothed IDF values from corpus.
func Fit(corpus []string) *Vectorizer {
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenPattern.FindAllString(text, -1) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		v.Vocabulary[term] = i
		// Smoothed IDF
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return v
}

// Dimension returns the vocabulary size.
func (v *Vectorizer) Dimension() int { return len(v.IDF) }

// Transform projects text into the vocabulary space. Terms outside the
// vocabulary are ignored; the result is L2-normalized.
func (v *Vectorizer) Transform(text string) Vector {
	tf := make(map[int]int)
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if idx, ok := v.Vocabulary[tok]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return Vector{}
	}
	vec := Vector{
		Indices: make([]int, 0, len(tf)),
		Values:  make([]float64, 0, len(tf)),
	}
	for idx := range tf {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	norm := 0.0
	for _, idx := range vec.Indices {
		w := float64(tf[idx]) * v.IDF[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	// L2 normalize
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

// Vector is a sparse row with indices in ascending order.
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of two sparse vectors.
func (a Vector) Dot(b Vector) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Matrix is the document-term weight matrix, one row per document.
type Matrix struct {
	Cols int
	Rows []Vector
}
