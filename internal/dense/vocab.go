package dense

import (
	"math"
	"sort"
)

// buildVocab counts tokens across docs and keeps those seen at least
// minCount times, ordered by descending count then word.
func buildVocab(docs [][]string, minCount int) ([]string, []int64) {
	counts := make(map[string]int64)
	for _, tokens := range docs {
		for _, tok := range tokens {
			counts[tok]++
		}
	}
	words := make([]string, 0, len(counts))
	for w, c := range counts {
		if c >= int64(minCount) {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		ci, cj := counts[words[i]], counts[words[j]]
		if ci != cj {
			return ci > cj
		}
		return words[i] < words[j]
	})
	kept := make([]int64, len(words))
	for i, w := range words {
		kept[i] = counts[w]
	}
	return words, kept
}

// noiseTable returns the cumulative unigram^0.75 distribution used to draw
// negative samples.
func noiseTable(counts []int64) []float64 {
	cum := make([]float64, len(counts))
	total := 0.0
	for i, c := range counts {
		total += math.Pow(float64(c), 0.75)
		cum[i] = total
	}
	return cum
}

// keepProbabilities returns, per word, the probability that an occurrence
// survives frequent-word downsampling.
func keepProbabilities(counts []int64, sample float64) []float64 {
	keep := make([]float64, len(counts))
	var total int64
	for _, c := range counts {
		total += c
	}
	threshold := sample * float64(total)
	for i, c := range counts {
		if sample <= 0 || c == 0 {
			keep[i] = 1
			continue
		}
		f := float64(c)
		p := (math.Sqrt(f/threshold) + 1) * threshold / f
		keep[i] = math.Min(p, 1)
	}
	return keep
}
