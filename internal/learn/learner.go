// Package learn implements the binary classification algorithms and the
// multi-label wrapper that fits one independent binary model per category.
package learn

import "fmt"

// Kind selects a binary classification algorithm.
type Kind string

const (
	// KindLogistic is logistic regression trained by gradient descent
	// with an l1 or l2 penalty.
	KindLogistic Kind = "logistic"
	// KindBoost is an adaptively boosted ensemble of decision stumps.
	KindBoost Kind = "boost"
)

// ParseKind validates an algorithm kind string. An unrecognized kind is a
// configuration error, surfaced before any fitting begins.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLogistic, KindBoost:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("learn: unknown algorithm kind %q", s)
	}
}

// Config is one hyperparameter combination for a given algorithm kind.
// Only the fields for that kind are meaningful.
type Config struct {
	Kind Kind `json:"kind"`

	// Logistic regression.
	MaxIter int    `json:"max_iter,omitempty"`
	Penalty string `json:"penalty,omitempty"` // "l1" or "l2"

	// Boosted stumps.
	LearningRate float64 `json:"learning_rate,omitempty"`
	Rounds       int     `json:"rounds,omitempty"`
}

// String renders the combination for progress logs.
func (c Config) String() string {
	switch c.Kind {
	case KindLogistic:
		return fmt.Sprintf("logistic(max_iter=%d penalty=%s)", c.MaxIter, c.Penalty)
	case KindBoost:
		return fmt.Sprintf("boost(learning_rate=%g rounds=%d)", c.LearningRate, c.Rounds)
	default:
		return fmt.Sprintf("unknown(%s)", c.Kind)
	}
}

// Learner is a single binary decision function. Fit trains on a feature
// matrix and binary labels; Scores returns a probability-like score in
// [0,1] per row. Fitted state is written once by Fit and immutable after,
// so concurrent Scores calls are safe.
type Learner interface {
	Fit(X [][]float64, y []int) error
	Scores(X [][]float64) []float64
	State() State
}

// State is the serializable fitted state of one binary learner, tagged by
// which variant is populated.
type State struct {
	Logistic *LogisticState `json:"logistic,omitempty"`
	Boost    *BoostState    `json:"boost,omitempty"`
}

// New creates an unfitted learner for the given combination.
func New(cfg Config) (Learner, error) {
	switch cfg.Kind {
	case KindLogistic:
		return newLogistic(cfg)
	case KindBoost:
		return newBoost(cfg)
	default:
		return nil, fmt.Errorf("learn: unknown algorithm kind %q", cfg.Kind)
	}
}

// Restore rebuilds a fitted learner from persisted state.
func Restore(cfg Config, s State) (Learner, error) {
	switch cfg.Kind {
	case KindLogistic:
		if s.Logistic == nil {
			return nil, fmt.Errorf("learn: missing logistic state")
		}
		l, err := newLogistic(cfg)
		if err != nil {
			return nil, err
		}
		l.weights = s.Logistic.Weights
		l.bias = s.Logistic.Bias
		return l, nil
	case KindBoost:
		if s.Boost == nil {
			return nil, fmt.Errorf("learn: missing boost state")
		}
		b, err := newBoost(cfg)
		if err != nil {
			return nil, err
		}
		b.stumps = s.Boost.Stumps
		return b, nil
	default:
		return nil, fmt.Errorf("learn: unknown algorithm kind %q", cfg.Kind)
	}
}

// checkBinary verifies that the label column contains both classes.
// Single-class columns are untrainable; during cross-validation this
// surfaces as a recoverable fold-level fit error.
func checkBinary(y []int) error {
	var zeros, ones int
	for _, v := range y {
		switch v {
		case 0:
			zeros++
		case 1:
			ones++
		default:
			return fmt.Errorf("learn: label value %d is not binary", v)
		}
	}
	if zeros == 0 || ones == 0 {
		return fmt.Errorf("learn: labels contain a single class")
	}
	return nil
}
