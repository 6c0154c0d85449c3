package embed

import (
	"hash/fnv"
	"math"
	"strings"
)

// HashEncoder embeds text with the signed hashing trick: each lowercased
// whitespace token is hashed into one of dim buckets with a ±1 sign, and
// the resulting vector is L2-normalized. No model files, no fit state,
// fully deterministic.
type HashEncoder struct {
	dim int
}

// NewHash creates a HashEncoder with the given output dimensionality.
func NewHash(dim int) *HashEncoder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEncoder{dim: dim}
}

// Dim returns the output vector length.
func (e *HashEncoder) Dim() int { return e.dim }

// Encode produces one vector per text.
func (e *HashEncoder) Encode(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.encodeOne(text)
	}
	return out, nil
}

func (e *HashEncoder) encodeOne(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dim))
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// Close is a no-op; HashEncoder holds no resources.
func (e *HashEncoder) Close() error { return nil }
