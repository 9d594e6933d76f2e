// Package similarity holds the scoring helpers shared by both indexes.
package similarity

import (
	"math"
	"sort"

	"docsearch/internal/domain"
)

// DefaultTopN is used when a caller asks for zero or fewer results.
const DefaultTopN = 5

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Round4 rounds a score to four decimal places.
func Round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// Rank orders names by descending score, keeping the input order among
// ties, applies the filter and returns at most opts.TopN rounded results.
func Rank(names []string, scores []float64, opts domain.SearchOptions) []domain.SearchResult {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	idxs := make([]int, 0, len(names))
	for i, name := range names {
		if opts.Allows(name) {
			idxs = append(idxs, i)
		}
	}
	sort.SliceStable(idxs, func(i, j int) bool { return scores[idxs[i]] > scores[idxs[j]] })
	if topN > len(idxs) {
		topN = len(idxs)
	}
	out := make([]domain.SearchResult, 0, topN)
	for _, i := range idxs[:topN] {
		out = append(out, domain.SearchResult{Name: names[i], Score: Round4(clamp(scores[i]))})
	}
	return out
}

// clamp guards against floating point drift just outside [-1, 1].
func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
