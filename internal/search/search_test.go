package search

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaglass-ai/triage/internal/embed"
	"github.com/seaglass-ai/triage/internal/feature"
	"github.com/seaglass-ai/triage/internal/learn"
	"github.com/seaglass-ai/triage/internal/pipeline"
)

var searchMessages = []string{
	"we urgently need drinking water",
	"water supply cut off in the camp",
	"send bottled water please",
	"clean water for the children",
	"doctor needed for injured child",
	"medical supplies running low",
	"hospital requests medicine and bandages",
	"nurse wanted at the clinic",
	"looking for shelter after the storm",
	"our house collapsed we need shelter",
	"tents and blankets required for families",
	"roof gone need a place to sleep",
}

// Columns: water, medical.
var searchLabels = [][]int{
	{1, 0}, {1, 0}, {1, 0}, {1, 0},
	{0, 1}, {0, 1}, {0, 1}, {0, 1},
	{0, 0}, {0, 0}, {0, 0}, {0, 0},
}

func factory(calls *atomic.Int64) func(cfg learn.Config) *pipeline.Pipeline {
	return func(cfg learn.Config) *pipeline.Pipeline {
		if calls != nil {
			calls.Add(1)
		}
		return pipeline.New(
			feature.NewLexical(),
			feature.NewSemantic(embed.NewHash(16)),
			learn.NewMultiLabel(cfg),
		)
	}
}

func TestGridShapes(t *testing.T) {
	logGrid, err := Grid(learn.KindLogistic)
	require.NoError(t, err)
	assert.Len(t, logGrid, 4) // max_iter {100,150} x penalty {l1,l2}

	boostGrid, err := Grid(learn.KindBoost)
	require.NoError(t, err)
	assert.Len(t, boostGrid, 9) // learning_rate {0.05,0.5,1.0} x rounds {10,20,30}

	_, err = Grid(learn.Kind("svm"))
	assert.Error(t, err)
}

func TestRunAttemptsGridTimesFolds(t *testing.T) {
	var calls atomic.Int64
	grid := []learn.Config{
		{Kind: learn.KindLogistic, MaxIter: 50, Penalty: "l2"},
		{Kind: learn.KindLogistic, MaxIter: 100, Penalty: "l1"},
		{Kind: learn.KindLogistic, MaxIter: 100, Penalty: "l2"},
	}
	c := &Controller{Grid: grid, Folds: 3, NewPipeline: factory(&calls)}

	out, err := c.Run(searchMessages, searchLabels)
	require.NoError(t, err)

	// One pipeline per combination x fold, plus the final refit.
	assert.Equal(t, int64(len(grid)*3+1), calls.Load())
	require.NotNil(t, out.Pipeline)
	assert.Len(t, out.Scores, len(grid))
}

func TestRunSelectsBestMean(t *testing.T) {
	c := &Controller{
		Grid: []learn.Config{
			{Kind: learn.KindLogistic, MaxIter: 100, Penalty: "l1"},
			{Kind: learn.KindLogistic, MaxIter: 150, Penalty: "l2"},
		},
		Folds:       2,
		NewPipeline: factory(nil),
	}
	out, err := c.Run(searchMessages, searchLabels)
	require.NoError(t, err)

	for gi, mean := range out.Scores {
		assert.GreaterOrEqual(t, out.BestScore, mean, "combination %d", gi)
	}
	assert.Contains(t, []learn.Config(c.Grid), out.Best)
}

func TestRunRecoversFromFailingCombination(t *testing.T) {
	// MaxIter 0 fails validation inside every fold fit for that
	// combination; the healthy combination must still win.
	grid := []learn.Config{
		{Kind: learn.KindLogistic, MaxIter: 0, Penalty: "l2"},
		{Kind: learn.KindLogistic, MaxIter: 100, Penalty: "l2"},
	}
	c := &Controller{Grid: grid, Folds: 2, NewPipeline: factory(nil)}

	out, err := c.Run(searchMessages, searchLabels)
	require.NoError(t, err)
	assert.Equal(t, grid[1], out.Best)
}

func TestRunFailsWhenEveryCombinationFails(t *testing.T) {
	grid := []learn.Config{
		{Kind: learn.KindLogistic, MaxIter: 0, Penalty: "l2"},
		{Kind: learn.KindLogistic, MaxIter: -1, Penalty: "l1"},
	}
	c := &Controller{Grid: grid, Folds: 2, NewPipeline: factory(nil)}

	_, err := c.Run(searchMessages, searchLabels)
	assert.Error(t, err)
}

func TestRunValidation(t *testing.T) {
	good := []learn.Config{{Kind: learn.KindLogistic, MaxIter: 50, Penalty: "l2"}}

	tests := []struct {
		name string
		c    *Controller
		msgs []string
		lbls [][]int
	}{
		{"empty grid", &Controller{Folds: 2, NewPipeline: factory(nil)}, searchMessages, searchLabels},
		{"one fold", &Controller{Grid: good, Folds: 1, NewPipeline: factory(nil)}, searchMessages, searchLabels},
		{"too few examples", &Controller{Grid: good, Folds: 5, NewPipeline: factory(nil)}, searchMessages[:3], searchLabels[:3]},
		{"no factory", &Controller{Grid: good, Folds: 2}, searchMessages, searchLabels},
		{"row mismatch", &Controller{Grid: good, Folds: 2, NewPipeline: factory(nil)}, searchMessages, searchLabels[:4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.c.Run(tt.msgs, tt.lbls)
			assert.Error(t, err)
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	grid := []learn.Config{
		{Kind: learn.KindLogistic, MaxIter: 100, Penalty: "l1"},
		{Kind: learn.KindLogistic, MaxIter: 100, Penalty: "l2"},
	}
	run := func() *Outcome {
		c := &Controller{Grid: grid, Folds: 3, Parallelism: 2, NewPipeline: factory(nil)}
		out, err := c.Run(searchMessages, searchLabels)
		require.NoError(t, err)
		return out
	}
	a, b := run(), run()
	assert.Equal(t, a.Best, b.Best)
	assert.Equal(t, a.Scores, b.Scores)
}
