package learn

import "fmt"

// MultiLabel extends a binary algorithm to multi-label classification by
// fitting one independent learner per category column against the same
// feature matrix. Categories share no parameters; correlations between
// them are deliberately not exploited. The learner order always matches
// the label matrix column order.
type MultiLabel struct {
	cfg    Config
	models []Learner
}

// NewMultiLabel creates an unfitted multi-label classifier for the given
// hyperparameter combination.
func NewMultiLabel(cfg Config) *MultiLabel {
	return &MultiLabel{cfg: cfg}
}

// RestoreMultiLabel rebuilds a fitted classifier from persisted per-
// category states, preserving column order.
func RestoreMultiLabel(cfg Config, states []State) (*MultiLabel, error) {
	m := &MultiLabel{cfg: cfg, models: make([]Learner, len(states))}
	for i, s := range states {
		learner, err := Restore(cfg, s)
		if err != nil {
			return nil, fmt.Errorf("learn: category %d: %w", i, err)
		}
		m.models[i] = learner
	}
	return m, nil
}

// Config returns the hyperparameter combination this classifier was
// built with.
func (m *MultiLabel) Config() Config { return m.cfg }

// Fit trains one binary learner per label column. Y is row-major:
// Y[i][c] is the indicator for message i, category c.
func (m *MultiLabel) Fit(X [][]float64, Y [][]int) error {
	if len(X) == 0 || len(X) != len(Y) {
		return fmt.Errorf("learn: multilabel fit: %d rows, %d label rows", len(X), len(Y))
	}

	numCats := len(Y[0])
	if numCats == 0 {
		return fmt.Errorf("learn: multilabel fit: no category columns")
	}

	models := make([]Learner, numCats)
	column := make([]int, len(Y))
	for c := 0; c < numCats; c++ {
		for i, row := range Y {
			if len(row) != numCats {
				return fmt.Errorf("learn: multilabel fit: label row %d has %d columns, want %d",
					i, len(row), numCats)
			}
			column[i] = row[c]
		}

		learner, err := New(m.cfg)
		if err != nil {
			return err
		}
		if err := learner.Fit(X, column); err != nil {
			return fmt.Errorf("learn: category %d: %w", c, err)
		}
		models[c] = learner
	}

	m.models = models
	return nil
}

// Scores returns an N x C table of probability-like scores, C being the
// number of fitted categories.
func (m *MultiLabel) Scores(X [][]float64) ([][]float64, error) {
	if len(m.models) == 0 {
		return nil, fmt.Errorf("learn: multilabel scores before fit")
	}

	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(m.models))
	}
	for c, model := range m.models {
		col := model.Scores(X)
		for i, s := range col {
			out[i][c] = s
		}
	}
	return out, nil
}

// NumCategories returns the number of fitted per-category models.
func (m *MultiLabel) NumCategories() int { return len(m.models) }

// States exports per-category fitted states in column order.
func (m *MultiLabel) States() []State {
	states := make([]State, len(m.models))
	for i, model := range m.models {
		states[i] = model.State()
	}
	return states
}
