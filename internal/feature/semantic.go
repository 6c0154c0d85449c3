package feature

import (
	"fmt"
	"log/slog"

	"github.com/seaglass-ai/triage/internal/embed"
)

// Semantic wraps a frozen sentence encoder as a feature extractor. It has
// no trainable state: the encoder is pretrained, loaded once before the
// run, and never mutated. Embedding is typically the slowest step, so the
// extractor logs batch progress; logging never affects the numbers.
type Semantic struct {
	enc embed.Encoder
}

// NewSemantic creates a semantic extractor around the given encoder. The
// encoder is an explicit dependency — the caller owns its lifecycle.
func NewSemantic(enc embed.Encoder) *Semantic {
	return &Semantic{enc: enc}
}

// Fit is a no-op: the underlying embedding model is frozen.
func (s *Semantic) Fit(corpus []string) error { return nil }

// Transform encodes messages into dense vectors, one per message in
// input order.
func (s *Semantic) Transform(messages []string) ([][]float64, error) {
	slog.Debug("encoding messages", "count", len(messages), "dim", s.enc.Dim())

	vecs, err := s.enc.Encode(messages)
	if err != nil {
		return nil, fmt.Errorf("semantic: %w", err)
	}
	if len(vecs) != len(messages) {
		return nil, fmt.Errorf("semantic: encoder returned %d vectors for %d messages",
			len(vecs), len(messages))
	}

	rows := make([][]float64, len(vecs))
	for i, v := range vecs {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		rows[i] = row
	}
	return rows, nil
}

// Dim returns the encoder's output dimensionality.
func (s *Semantic) Dim() int { return s.enc.Dim() }
