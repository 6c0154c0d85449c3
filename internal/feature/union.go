package feature

import "fmt"

// Union concatenates the outputs of multiple extractors into one joint
// vector per message. Composition is parallel, not sequential: Fit hands
// the same corpus to every part, and Transform concatenates sub-vectors
// in the declared part order. Once fitted, the part order and sub-vector
// dimensions are fixed for the life of the Union.
type Union struct {
	parts []Extractor
}

// NewUnion creates a Union over the given extractors in declaration order.
func NewUnion(parts ...Extractor) *Union {
	return &Union{parts: parts}
}

// Fit fits every part on the same corpus.
func (u *Union) Fit(corpus []string) error {
	if len(u.parts) == 0 {
		return fmt.Errorf("union: no extractors")
	}
	for i, p := range u.parts {
		if err := p.Fit(corpus); err != nil {
			return fmt.Errorf("union: part %d: %w", i, err)
		}
	}
	return nil
}

// Transform runs every part and concatenates the sub-vectors per message.
func (u *Union) Transform(messages []string) ([][]float64, error) {
	rows := make([][]float64, len(messages))
	for i := range rows {
		rows[i] = make([]float64, 0, u.Dim())
	}

	for pi, p := range u.parts {
		sub, err := p.Transform(messages)
		if err != nil {
			return nil, fmt.Errorf("union: part %d: %w", pi, err)
		}
		if len(sub) != len(messages) {
			return nil, fmt.Errorf("union: part %d returned %d rows for %d messages",
				pi, len(sub), len(messages))
		}
		for i := range rows {
			rows[i] = append(rows[i], sub[i]...)
		}
	}
	return rows, nil
}

// Dim returns the sum of part dimensions.
func (u *Union) Dim() int {
	total := 0
	for _, p := range u.parts {
		total += p.Dim()
	}
	return total
}
