// Package textnorm turns raw text into the token stream shared by indexing
// and querying. Documents and queries must pass through the same pipeline
// for their vectors to be comparable.
package textnorm

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/blevesearch/bleve/v2/analysis"
	bleveen "github.com/blevesearch/bleve/v2/analysis/lang/en"
)

var (
	markupRe = regexp.MustCompile(`<[^>]+>`)
	urlRe    = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	emailRe  = regexp.MustCompile(`(?i)\b[\w.-]+@[\w.-]+\.\w+\b`)
	spaceRe  = regexp.MustCompile(`\s+`)
	tokenRe  = regexp.MustCompile(`[a-z]{2,}`)
	lemmaRe  = regexp.MustCompile(`^[a-z]{2,}$`)
)

// contractionFragments are the pieces left behind when the tokenizer splits
// English contractions ("isn't" -> "isn"). The snowball list only carries the
// full forms.
var contractionFragments = []string{
	"ain", "aren", "couldn", "didn", "doesn", "don", "hadn", "hasn", "haven",
	"isn", "ll", "ma", "mightn", "mustn", "needn", "re", "shan", "shouldn",
	"ve", "wasn", "weren", "won", "wouldn", "can", "will", "just", "now",
}

// Lemmatizer reduces a lowercase word to its dictionary base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Normalizer runs the clean, tokenize, filter and lemmatize pipeline.
// It is safe for concurrent use; its resources are read-only after New.
type Normalizer struct {
	stopwords  map[string]struct{}
	lemmatizer Lemmatizer
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLemmatizer replaces the dictionary lemmatizer.
func WithLemmatizer(l Lemmatizer) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.lemmatizer = l
		}
	}
}

// New loads the English stop words and lemmatizer dictionary.
func New(opts ...Option) (*Normalizer, error) {
	stop, err := englishStopwords()
	if err != nil {
		return nil, err
	}
	n := &Normalizer{stopwords: stop}
	for _, opt := range opts {
		opt(n)
	}
	if n.lemmatizer == nil {
		lem, err := golem.New(en.New())
		if err != nil {
			return nil, fmt.Errorf("load english lemmatizer: %w", err)
		}
		n.lemmatizer = lem
	}
	return n, nil
}

// Normalize returns the normalized tokens joined with single spaces.
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}

// Tokens returns the normalized token sequence.
func (n *Normalizer) Tokens(text string) []string {
	if text == "" {
		return []string{}
	}
	text = cleanup(text)
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if n.IsStopword(tok) {
			continue
		}
		out = append(out, n.lemma(tok))
	}
	return out
}

// IsStopword reports whether tok is in the English stop-word set.
func (n *Normalizer) IsStopword(tok string) bool {
	_, ok := n.stopwords[tok]
	return ok
}

// maxLemmaSteps bounds the walk down lemma chains such as
// meetings -> meeting -> meet.
const maxLemmaSteps = 8

// lemma follows the lemmatizer until the base form stops changing, so that
// normalized text is a fixed point. A step whose result would not itself
// survive tokenization and stop-word removal ends the walk at the previous
// form. On a cycle the smallest member of the cycle is returned, which is
// the same whichever member the walk starts from.
func (n *Normalizer) lemma(tok string) string {
	path := []string{tok}
	cur := tok
	for range maxLemmaSteps {
		next := strings.ToLower(n.lemmatizer.Lemma(cur))
		if next == cur || !lemmaRe.MatchString(next) || n.IsStopword(next) {
			return cur
		}
		if i := slices.Index(path, next); i >= 0 {
			return slices.Min(path[i:])
		}
		path = append(path, next)
		cur = next
	}
	return cur
}

func cleanup(text string) string {
	text = markupRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " ")
	text = emailRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func englishStopwords() (map[string]struct{}, error) {
	tm := analysis.NewTokenMap()
	if err := tm.LoadBytes(bleveen.EnglishStopWords); err != nil {
		return nil, fmt.Errorf("load english stop words: %w", err)
	}
	m := make(map[string]struct{}, len(tm)+len(contractionFragments))
	for w := range tm {
		// The tokenizer never yields apostrophes or one-letter tokens.
		if tokenRe.FindString(w) != w {
			continue
		}
		m[w] = struct{}{}
	}
	for _, w := range contractionFragments {
		m[w] = struct{}{}
	}
	return m, nil
}

var (
	defaultOnce sync.Once
	defaultNorm *Normalizer
	defaultErr  error
)

// Default returns the process-wide Normalizer, initializing it on first use.
func Default() (*Normalizer, error) {
	defaultOnce.Do(func() {
		defaultNorm, defaultErr = New()
	})
	return defaultNorm, defaultErr
}

func mustDefault() *Normalizer {
	n, err := Default()
	if err != nil {
		panic(err)
	}
	return n
}

// Normalize runs the default pipeline in joined mode.
func Normalize(text string) string { return mustDefault().Normalize(text) }

// Tokens runs the default pipeline in list mode.
func Tokens(text string) []string { return mustDefault().Tokens(text) }
