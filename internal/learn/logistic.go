package learn

import (
	"fmt"
	"math"
)

const (
	logisticStep   = 0.5
	logisticLambda = 1e-3
)

// logistic is binary logistic regression trained by full-batch gradient
// descent. The penalty is applied as weight decay (l2) or soft
// thresholding (l1) after each step.
type logistic struct {
	maxIter int
	penalty string

	weights []float64
	bias    float64
}

// LogisticState is the fitted state of a logistic learner.
type LogisticState struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func newLogistic(cfg Config) (*logistic, error) {
	if cfg.MaxIter <= 0 {
		return nil, fmt.Errorf("learn: logistic max_iter must be positive, got %d", cfg.MaxIter)
	}
	if cfg.Penalty != "l1" && cfg.Penalty != "l2" {
		return nil, fmt.Errorf("learn: logistic penalty must be l1 or l2, got %q", cfg.Penalty)
	}
	return &logistic{maxIter: cfg.MaxIter, penalty: cfg.Penalty}, nil
}

func (l *logistic) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("learn: logistic fit: %d rows, %d labels", len(X), len(y))
	}
	if err := checkBinary(y); err != nil {
		return err
	}

	dim := len(X[0])
	w := make([]float64, dim)
	b := 0.0
	grad := make([]float64, dim)
	invN := 1.0 / float64(len(X))

	for iter := 0; iter < l.maxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0

		for i, row := range X {
			diff := sigmoid(dot(w, row)+b) - float64(y[i])
			for j, x := range row {
				grad[j] += diff * x
			}
			gradB += diff
		}

		for j := range w {
			w[j] -= logisticStep * grad[j] * invN
		}
		b -= logisticStep * gradB * invN

		switch l.penalty {
		case "l2":
			decay := 1 - logisticStep*logisticLambda
			for j := range w {
				w[j] *= decay
			}
		case "l1":
			shrink := logisticStep * logisticLambda
			for j := range w {
				w[j] = softThreshold(w[j], shrink)
			}
		}
	}

	l.weights = w
	l.bias = b
	return nil
}

func (l *logistic) Scores(X [][]float64) []float64 {
	scores := make([]float64, len(X))
	for i, row := range X {
		scores[i] = sigmoid(dot(l.weights, row) + l.bias)
	}
	return scores
}

func (l *logistic) State() State {
	return State{Logistic: &LogisticState{Weights: l.weights, Bias: l.bias}}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(w, x []float64) float64 {
	var sum float64
	for j, v := range w {
		sum += v * x[j]
	}
	return sum
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
