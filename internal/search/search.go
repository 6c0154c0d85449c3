// Package search selects classifier hyperparameters by k-fold
// cross-validated grid search over whole-pipeline fits.
package search

import (
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/seaglass-ai/triage/internal/learn"
	"github.com/seaglass-ai/triage/internal/pipeline"
)

// threshold converts a probability-like score into a predicted label
// when computing fold accuracy.
const threshold = 0.5

// Controller runs cross-validated grid search. Every candidate fit
// operates on an independent pipeline built by NewPipeline and an
// independent data partition, so fold evaluations run in parallel
// without shared mutable state.
type Controller struct {
	Grid        []learn.Config
	Folds       int
	Parallelism int // max simultaneous fold fits; <=0 means GOMAXPROCS

	// NewPipeline builds a fresh unfitted pipeline for one combination.
	NewPipeline func(cfg learn.Config) *pipeline.Pipeline
}

// Outcome is the result of a completed search.
type Outcome struct {
	Best      learn.Config
	BestScore float64             // mean held-out fold score of Best
	Scores    []float64           // mean score per grid combination
	Pipeline  *pipeline.Pipeline  // refitted on the full training set
}

// Run cross-validates every grid combination and refits the best one on
// the whole training set. A combination that fails on an isolated fold
// gets the worst score for that fold and stays in the running; the
// search only fails if every combination fails on every fold.
func (c *Controller) Run(messages []string, labels [][]int) (*Outcome, error) {
	if len(c.Grid) == 0 {
		return nil, fmt.Errorf("search: empty hyperparameter grid")
	}
	if c.Folds < 2 {
		return nil, fmt.Errorf("search: need at least 2 folds, got %d", c.Folds)
	}
	if len(messages) < c.Folds {
		return nil, fmt.Errorf("search: %d training examples cannot fill %d folds",
			len(messages), c.Folds)
	}
	if len(messages) != len(labels) {
		return nil, fmt.Errorf("search: %d messages but %d label rows", len(messages), len(labels))
	}
	if c.NewPipeline == nil {
		return nil, fmt.Errorf("search: no pipeline factory")
	}

	parallelism := c.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	// Round-robin fold assignment: row i belongs to fold i mod k.
	// Deterministic and keeps every partition order-stable.
	folds := c.Folds
	type cell struct {
		score  float64
		failed bool
	}
	results := make([][]cell, len(c.Grid))
	for gi := range results {
		results[gi] = make([]cell, folds)
	}

	var g errgroup.Group
	g.SetLimit(parallelism)
	for gi, cfg := range c.Grid {
		for f := 0; f < folds; f++ {
			g.Go(func() error {
				score, err := c.evaluateFold(cfg, messages, labels, f)
				if err != nil {
					slog.Debug("fold fit failed",
						"combination", cfg.String(), "fold", f, "error", err)
					results[gi][f] = cell{failed: true}
					return nil
				}
				results[gi][f] = cell{score: score}
				return nil
			})
		}
	}
	// Tasks report failures through the results table, never an error.
	_ = g.Wait()

	means := make([]float64, len(c.Grid))
	bestIdx := -1
	anyViable := false
	for gi := range c.Grid {
		allFailed := true
		var sum float64
		for f := 0; f < folds; f++ {
			if !results[gi][f].failed {
				allFailed = false
				sum += results[gi][f].score
			}
			// Failed folds contribute the worst score (zero).
		}
		means[gi] = sum / float64(folds)
		if allFailed {
			continue
		}
		anyViable = true
		if bestIdx < 0 || means[gi] > means[bestIdx] {
			bestIdx = gi
		}
		slog.Debug("combination evaluated",
			"combination", c.Grid[gi].String(), "mean_score", means[gi])
	}
	if !anyViable {
		return nil, fmt.Errorf("search: every hyperparameter combination failed")
	}

	best := c.Grid[bestIdx]
	slog.Info("selected hyperparameters",
		"combination", best.String(), "mean_score", means[bestIdx])

	final := c.NewPipeline(best)
	if err := final.Fit(messages, labels); err != nil {
		return nil, fmt.Errorf("search: refit with best combination: %w", err)
	}

	return &Outcome{
		Best:      best,
		BestScore: means[bestIdx],
		Scores:    means,
		Pipeline:  final,
	}, nil
}

// evaluateFold trains a fresh pipeline on all rows outside the fold and
// scores it on the held-out fold. Held-in and held-out subsets preserve
// the original row order.
func (c *Controller) evaluateFold(cfg learn.Config, messages []string, labels [][]int, fold int) (float64, error) {
	var trainMsgs, testMsgs []string
	var trainLabels, testLabels [][]int
	for i := range messages {
		if i%c.Folds == fold {
			testMsgs = append(testMsgs, messages[i])
			testLabels = append(testLabels, labels[i])
		} else {
			trainMsgs = append(trainMsgs, messages[i])
			trainLabels = append(trainLabels, labels[i])
		}
	}

	p := c.NewPipeline(cfg)
	if err := p.Fit(trainMsgs, trainLabels); err != nil {
		return 0, err
	}
	scores, err := p.Scores(testMsgs)
	if err != nil {
		return 0, err
	}
	return meanAccuracy(scores, testLabels), nil
}

// meanAccuracy is the fold scoring criterion: accuracy of thresholded
// predictions averaged over every message and category cell.
func meanAccuracy(scores [][]float64, truth [][]int) float64 {
	var correct, total int
	for i, row := range scores {
		for c, s := range row {
			pred := 0
			if s >= threshold {
				pred = 1
			}
			if pred == truth[i][c] {
				correct++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
