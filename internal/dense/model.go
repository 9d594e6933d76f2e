package dense

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"docsearch/internal/fsutil"
)

const maxExp = 6.0

// TaggedDocument is a token sequence labelled with its document name.
type TaggedDocument struct {
	Tag   string
	Words []string
}

// Model is a trained PV-DM model. Vectors are stored row-major, one row of
// Params.VectorSize values per word or document.
type Model struct {
	Params   Params
	Words    []string
	Counts   []int64
	WordVecs []float64
	OutVecs  []float64
	Tags     []string
	DocVecs  []float64

	wordIndex map[string]int
	tagIndex  map[string]int
	noise     []float64
	keep      []float64
}

// Train builds the vocabulary from docs and trains word, output and document
// vectors. Documents in a batch are trained concurrently on a worker pool
// against a fixed snapshot of the shared weights; their updates are merged in
// document order, so a given seed always yields the same model.
func Train(ctx context.Context, docs []TaggedDocument, params Params, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := params.withDefaults()
	dim := p.VectorSize

	corpus := make([][]string, len(docs))
	tags := make([]string, len(docs))
	for i, d := range docs {
		corpus[i] = d.Words
		tags[i] = d.Tag
	}
	m := &Model{Params: p, Tags: tags}
	m.Words, m.Counts = buildVocab(corpus, p.MinCount)
	m.prepare()

	initRng := rand.New(rand.NewPCG(p.Seed, 0))
	m.WordVecs = randomVectors(initRng, len(m.Words), dim)
	m.OutVecs = make([]float64, len(m.Words)*dim)
	m.DocVecs = randomVectors(initRng, len(docs), dim)

	seqs := make([][]int, len(docs))
	for i, words := range corpus {
		seqs[i] = m.lookup(words)
	}

	logger.Debug("doc2vec vocabulary built", "documents", len(docs), "words", len(m.Words), "min_count", p.MinCount)

	pool, err := ants.NewPool(p.Workers)
	if err != nil {
		return nil, fmt.Errorf("create training pool: %w", err)
	}
	defer pool.Release()

	for epoch := 0; epoch < p.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		alpha := p.alphaAt(epoch)
		for start := 0; start < len(seqs); start += p.BatchSize {
			end := min(start+p.BatchSize, len(seqs))
			if err := m.trainBatch(pool, seqs, start, end, epoch, alpha); err != nil {
				return nil, err
			}
		}
		if (epoch+1)%20 == 0 || epoch+1 == p.Epochs {
			logger.Debug("doc2vec epoch done", "epoch", epoch+1, "epochs", p.Epochs, "alpha", alpha)
		}
	}
	return m, nil
}

// trainBatch trains documents [start, end) of one epoch.
func (m *Model) trainBatch(pool *ants.Pool, seqs [][]int, start, end, epoch int, alpha float64) error {
	deltas := make([]*delta, end-start)
	var wg sync.WaitGroup
	for d := start; d < end; d++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			dl := newDelta(m.Params.VectorSize)
			rng := rand.New(rand.NewPCG(m.Params.Seed, uint64(epoch)<<32|uint64(d)))
			m.trainSequence(m.docRow(d), seqs[d], alpha, rng, dl)
			deltas[d-start] = dl
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit training task: %w", err)
		}
	}
	wg.Wait()
	for _, dl := range deltas {
		m.apply(dl)
	}
	return nil
}

// trainSequence runs one PV-DM pass over seq, updating docVec in place.
// Word and output gradients go to dl; a nil dl freezes them.
func (m *Model) trainSequence(docVec []float64, seq []int, alpha float64, rng *rand.Rand, dl *delta) {
	words := m.subsample(seq, rng)
	if len(words) == 0 {
		return
	}
	dim := m.Params.VectorSize
	window := m.Params.Window
	l1 := make([]float64, dim)
	neu1e := make([]float64, dim)

	for pos, target := range words {
		b := rng.IntN(window)
		lo := max(0, pos-window+b)
		hi := min(len(words), pos+window-b+1)

		copy(l1, docVec)
		count := 1.0
		for j := lo; j < hi; j++ {
			if j == pos {
				continue
			}
			axpy(1, m.wordRow(words[j]), l1)
			count++
		}
		scale(l1, 1/count)

		clear(neu1e)
		m.negativeStep(target, l1, neu1e, alpha, rng, dl)
		scale(neu1e, 1/count)

		axpy(1, neu1e, docVec)
		if dl == nil {
			continue
		}
		for j := lo; j < hi; j++ {
			if j == pos {
				continue
			}
			axpy(1, neu1e, dl.row(dl.words, words[j]))
		}
	}
}

// negativeStep scores the target word against Negative noise words and
// accumulates the hidden-layer error into neu1e.
func (m *Model) negativeStep(target int, l1, neu1e []float64, alpha float64, rng *rand.Rand, dl *delta) {
	for k := 0; k <= m.Params.Negative; k++ {
		word, label := target, 1.0
		if k > 0 {
			word, label = m.sampleNoise(rng), 0
			if word == target {
				continue
			}
		}
		out := m.outRow(word)
		g := (label - sigmoid(dot(l1, out))) * alpha
		axpy(g, out, neu1e)
		if dl != nil {
			axpy(g, l1, dl.row(dl.out, word))
		}
	}
}

// Infer embeds an unseen token sequence against the frozen model. The
// result depends only on the tokens and the model's seed.
func (m *Model) Infer(tokens []string) []float64 {
	rng := rand.New(rand.NewPCG(m.Params.Seed, tokenHash(tokens)))
	vec := randomVectors(rng, 1, m.Params.VectorSize)
	seq := m.lookup(tokens)
	for epoch := 0; epoch < m.Params.Epochs; epoch++ {
		m.trainSequence(vec, seq, m.Params.alphaAt(epoch), rng, nil)
	}
	return vec
}

// DocVector returns the trained vector for a document tag.
func (m *Model) DocVector(tag string) ([]float64, bool) {
	i, ok := m.tagIndex[tag]
	if !ok {
		return nil, false
	}
	return m.docRow(i), true
}

// Save writes the model to path atomically.
func (m *Model) Save(path string) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(m)
	})
}

// LoadModel reads a model written by Save.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode doc2vec model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	m.prepare()
	return &m, nil
}

func (m *Model) validate() error {
	dim := m.Params.VectorSize
	switch {
	case dim <= 0 || m.Params.Window <= 0 || m.Params.Epochs <= 0:
		return errors.New("doc2vec model has invalid parameters")
	case len(m.Counts) != len(m.Words):
		return errors.New("doc2vec vocabulary counts do not match words")
	case len(m.WordVecs) != len(m.Words)*dim || len(m.OutVecs) != len(m.Words)*dim:
		return errors.New("doc2vec word vectors do not match vocabulary")
	case len(m.DocVecs) != len(m.Tags)*dim:
		return errors.New("doc2vec document vectors do not match tags")
	}
	return nil
}

// prepare rebuilds the lookup tables derived from the persisted fields.
func (m *Model) prepare() {
	m.wordIndex = make(map[string]int, len(m.Words))
	for i, w := range m.Words {
		m.wordIndex[w] = i
	}
	m.tagIndex = make(map[string]int, len(m.Tags))
	for i, t := range m.Tags {
		if _, dup := m.tagIndex[t]; !dup {
			m.tagIndex[t] = i
		}
	}
	m.noise = noiseTable(m.Counts)
	m.keep = keepProbabilities(m.Counts, m.Params.Sample)
}

// lookup maps tokens to vocabulary indices, dropping unknown words.
func (m *Model) lookup(tokens []string) []int {
	seq := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if i, ok := m.wordIndex[tok]; ok {
			seq = append(seq, i)
		}
	}
	return seq
}

func (m *Model) subsample(seq []int, rng *rand.Rand) []int {
	out := make([]int, 0, len(seq))
	for _, w := range seq {
		if p := m.keep[w]; p >= 1 || rng.Float64() < p {
			out = append(out, w)
		}
	}
	return out
}

func (m *Model) sampleNoise(rng *rand.Rand) int {
	r := rng.Float64() * m.noise[len(m.noise)-1]
	i := sort.SearchFloat64s(m.noise, r)
	if i >= len(m.noise) {
		i = len(m.noise) - 1
	}
	return i
}

func (m *Model) apply(dl *delta) {
	for w, g := range dl.words {
		axpy(1, g, m.wordRow(w))
	}
	for w, g := range dl.out {
		axpy(1, g, m.outRow(w))
	}
}

func (m *Model) wordRow(i int) []float64 { return row(m.WordVecs, i, m.Params.VectorSize) }
func (m *Model) outRow(i int) []float64  { return row(m.OutVecs, i, m.Params.VectorSize) }
func (m *Model) docRow(i int) []float64  { return row(m.DocVecs, i, m.Params.VectorSize) }

// delta accumulates one document's word and output weight gradients.
type delta struct {
	dim   int
	words map[int][]float64
	out   map[int][]float64
}

func newDelta(dim int) *delta {
	return &delta{dim: dim, words: make(map[int][]float64), out: make(map[int][]float64)}
}

func (dl *delta) row(rows map[int][]float64, i int) []float64 {
	r, ok := rows[i]
	if !ok {
		r = make([]float64, dl.dim)
		rows[i] = r
	}
	return r
}

func row(vecs []float64, i, dim int) []float64 {
	return vecs[i*dim : (i+1)*dim : (i+1)*dim]
}

func randomVectors(rng *rand.Rand, n, dim int) []float64 {
	out := make([]float64, n*dim)
	for i := range out {
		out[i] = (rng.Float64() - 0.5) / float64(dim)
	}
	return out
}

func tokenHash(tokens []string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.Join(tokens, " ")))
	return h.Sum64()
}

func sigmoid(x float64) float64 {
	switch {
	case x > maxExp:
		return 1
	case x < -maxExp:
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// axpy computes y += a*x.
func axpy(a float64, x, y []float64) {
	for i := range x {
		y[i] += a * x[i]
	}
}

func scale(x []float64, a float64) {
	for i := range x {
		x[i] *= a
	}
}
