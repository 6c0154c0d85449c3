// Package evaluate turns per-category scores into a thresholded
// classification report.
package evaluate

import (
	"fmt"
	"strings"
)

// DefaultThreshold is the decision boundary for converting scores to
// binary predictions. A score exactly at the threshold counts as
// positive (score >= threshold → 1).
const DefaultThreshold = 0.5

// CategoryReport holds the metrics for one category.
type CategoryReport struct {
	Category  string
	Precision float64
	Recall    float64
	F1        float64
	Support   int // number of true positives + false negatives (actual positives)
}

// Report is the per-category evaluation summary, in label-matrix column
// order.
type Report []CategoryReport

// Evaluate thresholds the N x C score table and compares it against the
// ground-truth label matrix, producing one report row per category in
// the given order. It has no side effects; rendering is the caller's
// concern.
func Evaluate(scores [][]float64, truth [][]int, categories []string, threshold float64) (Report, error) {
	if len(scores) != len(truth) {
		return nil, fmt.Errorf("evaluate: %d score rows but %d truth rows", len(scores), len(truth))
	}
	numCats := len(categories)
	for i, row := range scores {
		if len(row) != numCats {
			return nil, fmt.Errorf("evaluate: score row %d has %d columns, want %d", i, len(row), numCats)
		}
		if len(truth[i]) != numCats {
			return nil, fmt.Errorf("evaluate: truth row %d has %d columns, want %d", i, len(truth[i]), numCats)
		}
	}

	report := make(Report, numCats)
	for c, name := range categories {
		var tp, fp, fn int
		for i := range scores {
			pred := scores[i][c] >= threshold
			actual := truth[i][c] == 1
			switch {
			case pred && actual:
				tp++
			case pred && !actual:
				fp++
			case !pred && actual:
				fn++
			}
		}

		precision := ratio(tp, tp+fp)
		recall := ratio(tp, tp+fn)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		report[c] = CategoryReport{
			Category:  name,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   tp + fn,
		}
	}
	return report, nil
}

// String renders the report as an aligned table for the CLI.
func (r Report) String() string {
	var b strings.Builder
	width := len("category")
	for _, row := range r {
		if len(row.Category) > width {
			width = len(row.Category)
		}
	}
	fmt.Fprintf(&b, "%-*s  precision  recall  f1      support\n", width, "category")
	for _, row := range r {
		fmt.Fprintf(&b, "%-*s  %9.3f  %6.3f  %6.3f  %7d\n",
			width, row.Category, row.Precision, row.Recall, row.F1, row.Support)
	}
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
