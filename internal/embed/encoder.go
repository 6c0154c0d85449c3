// Package embed provides frozen sentence encoders: pretrained models that
// map a message to a fixed-length dense vector. Encoders hold no training
// state — they are loaded once before a run and treated as read-only.
package embed

import "fmt"

// Encoder produces one dense vector per input text. The output length is
// Dim() for every text regardless of message length. Implementations must
// be deterministic: encoding the same texts in the same order twice yields
// identical vectors. Safe for concurrent Encode calls once constructed.
type Encoder interface {
	Encode(texts []string) ([][]float32, error)
	Dim() int
	Close() error
}

// Progress is called after each encoded batch with the number of texts
// done so far and the total. Used for long-running progress reporting;
// it must not influence the numeric result.
type Progress func(done, total int)

// Kind selects an encoder implementation.
type Kind string

const (
	// KindONNX runs a pretrained BERT-style model locally via ONNX Runtime.
	KindONNX Kind = "onnx"
	// KindHash is a stateless feature-hashing encoder that needs no model
	// files. Useful for tests and environments without the ONNX runtime.
	KindHash Kind = "hash"
)

// ParseKind validates an encoder kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindONNX, KindHash:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("embed: unknown encoder kind %q", s)
	}
}
