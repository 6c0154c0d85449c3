package search

import (
	"fmt"

	"github.com/seaglass-ai/triage/internal/learn"
)

// Grid returns the candidate hyperparameter combinations for an
// algorithm kind. The kind→grid mapping is the authoritative contract:
// adding an algorithm means adding a learn.Kind and a case here. An
// unrecognized kind is a configuration error, reported before any
// fitting begins.
func Grid(kind learn.Kind) ([]learn.Config, error) {
	switch kind {
	case learn.KindLogistic:
		var grid []learn.Config
		for _, maxIter := range []int{100, 150} {
			for _, penalty := range []string{"l1", "l2"} {
				grid = append(grid, learn.Config{
					Kind:    learn.KindLogistic,
					MaxIter: maxIter,
					Penalty: penalty,
				})
			}
		}
		return grid, nil
	case learn.KindBoost:
		var grid []learn.Config
		for _, rate := range []float64{0.05, 0.5, 1.0} {
			for _, rounds := range []int{10, 20, 30} {
				grid = append(grid, learn.Config{
					Kind:         learn.KindBoost,
					LearningRate: rate,
					Rounds:       rounds,
				})
			}
		}
		return grid, nil
	default:
		return nil, fmt.Errorf("search: no hyperparameter grid for algorithm kind %q", kind)
	}
}
