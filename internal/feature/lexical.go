package feature

import (
	"fmt"
	"math"
	"sort"

	"github.com/seaglass-ai/triage/internal/textnorm"
)

// Lexical is a fit-once TF-IDF vectorizer over normalized tokens.
// Fit builds the vocabulary and inverse-document-frequency weights;
// Transform scores messages against the fitted vocabulary, ignoring
// tokens never seen during fitting. Rows are L2-normalized.
type Lexical struct {
	tokenize func(string) []string
	vocab    map[string]int
	idf      []float64
}

// LexicalState is the serializable fitted state of a Lexical extractor.
type LexicalState struct {
	Vocab map[string]int `json:"vocab"`
	IDF   []float64      `json:"idf"`
}

// NewLexical creates an unfitted TF-IDF extractor using the standard
// message normalizer.
func NewLexical() *Lexical {
	return &Lexical{tokenize: textnorm.Tokens}
}

// NewLexicalFromState restores a fitted extractor from persisted state.
func NewLexicalFromState(s LexicalState) (*Lexical, error) {
	if len(s.Vocab) != len(s.IDF) {
		return nil, fmt.Errorf("lexical: state has %d vocab entries but %d idf weights",
			len(s.Vocab), len(s.IDF))
	}
	return &Lexical{tokenize: textnorm.Tokens, vocab: s.Vocab, idf: s.IDF}, nil
}

// Fit builds the vocabulary (sorted token order, so fitting the same
// corpus twice yields identical vocabularies) and smoothed IDF weights:
// idf(t) = ln((1+N)/(1+df(t))) + 1.
func (l *Lexical) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return fmt.Errorf("lexical: empty corpus")
	}

	df := make(map[string]int)
	for _, msg := range corpus {
		seen := make(map[string]bool)
		for _, tok := range l.tokenize(msg) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return fmt.Errorf("lexical: corpus produced no tokens")
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	l.vocab = make(map[string]int, len(terms))
	l.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, t := range terms {
		l.vocab[t] = i
		l.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return nil
}

// Transform maps messages to sparse-ish TF-IDF rows of the fitted
// dimension. A message with only out-of-vocabulary tokens (or no tokens
// at all) yields an all-zero row, not an error.
func (l *Lexical) Transform(messages []string) ([][]float64, error) {
	if l.vocab == nil {
		return nil, fmt.Errorf("lexical: transform before fit")
	}

	rows := make([][]float64, len(messages))
	for i, msg := range messages {
		row := make([]float64, len(l.idf))
		for _, tok := range l.tokenize(msg) {
			if j, ok := l.vocab[tok]; ok {
				row[j] += l.idf[j]
			}
		}
		normalize(row)
		rows[i] = row
	}
	return rows, nil
}

// Dim returns the fitted vocabulary size.
func (l *Lexical) Dim() int { return len(l.idf) }

// State exports the fitted state for persistence.
func (l *Lexical) State() LexicalState {
	return LexicalState{Vocab: l.vocab, IDF: l.idf}
}

func normalize(row []float64) {
	var norm float64
	for _, v := range row {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	inv := 1 / math.Sqrt(norm)
	for i := range row {
		row[i] *= inv
	}
}
