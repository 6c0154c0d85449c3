package learn

import (
	"fmt"
	"math"
	"sort"
)

// Thresholds examined per feature when fitting a stump. Candidates are
// midpoints between consecutive sorted values, strided down to this cap.
const maxThresholdCandidates = 64

// boost is an adaptively boosted ensemble of single-feature decision
// stumps. Each round fits the stump with the lowest weighted error,
// then reweights samples toward the ones it got wrong.
type boost struct {
	rounds int
	rate   float64

	stumps []Stump
}

// Stump is one weak decision rule: predict positive when
// polarity*(x[feature]-threshold) > 0.
type Stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Polarity  int     `json:"polarity"`
	Alpha     float64 `json:"alpha"`
}

// BoostState is the fitted state of a boost learner.
type BoostState struct {
	Stumps []Stump `json:"stumps"`
}

func newBoost(cfg Config) (*boost, error) {
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("learn: boost rounds must be positive, got %d", cfg.Rounds)
	}
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("learn: boost learning_rate must be positive, got %g", cfg.LearningRate)
	}
	return &boost{rounds: cfg.Rounds, rate: cfg.LearningRate}, nil
}

func (b *boost) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("learn: boost fit: %d rows, %d labels", len(X), len(y))
	}
	if err := checkBinary(y); err != nil {
		return err
	}

	n := len(X)
	// Signed targets: {0,1} → {-1,+1}.
	t := make([]float64, n)
	for i, v := range y {
		t[i] = 2*float64(v) - 1
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}

	b.stumps = b.stumps[:0]
	for round := 0; round < b.rounds; round++ {
		stump, err := bestStump(X, t, weights)
		if err != nil {
			return err
		}
		if stump.err >= 0.5 {
			// No weak rule better than chance remains.
			break
		}

		e := math.Max(stump.err, 1e-10)
		alpha := b.rate * 0.5 * math.Log((1-e)/e)
		s := stump.Stump
		s.Alpha = alpha
		b.stumps = append(b.stumps, s)

		var total float64
		for i, row := range X {
			weights[i] *= math.Exp(-alpha * t[i] * stumpSign(s, row))
			total += weights[i]
		}
		for i := range weights {
			weights[i] /= total
		}

		if stump.err == 0 {
			break
		}
	}

	if len(b.stumps) == 0 {
		return fmt.Errorf("learn: boost found no useful stump")
	}
	return nil
}

// Scores maps the ensemble margin through a logistic link so the result
// behaves like a probability in [0,1].
func (b *boost) Scores(X [][]float64) []float64 {
	scores := make([]float64, len(X))
	for i, row := range X {
		var margin float64
		for _, s := range b.stumps {
			margin += s.Alpha * stumpSign(s, row)
		}
		scores[i] = sigmoid(2 * margin)
	}
	return scores
}

func (b *boost) State() State {
	return State{Boost: &BoostState{Stumps: b.stumps}}
}

func stumpSign(s Stump, row []float64) float64 {
	if float64(s.Polarity)*(row[s.Feature]-s.Threshold) > 0 {
		return 1
	}
	return -1
}

type scoredStump struct {
	Stump
	err float64
}

// bestStump searches every feature for the threshold and polarity with
// the lowest weighted misclassification error.
func bestStump(X [][]float64, t, weights []float64) (scoredStump, error) {
	dim := len(X[0])
	best := scoredStump{err: math.Inf(1)}

	values := make([]float64, len(X))
	for f := 0; f < dim; f++ {
		for i, row := range X {
			values[i] = row[f]
		}
		for _, thr := range thresholdCandidates(values) {
			for _, pol := range []int{1, -1} {
				s := Stump{Feature: f, Threshold: thr, Polarity: pol}
				var e float64
				for i, row := range X {
					if stumpSign(s, row) != t[i] {
						e += weights[i]
					}
				}
				if e < best.err {
					best = scoredStump{Stump: s, err: e}
				}
			}
		}
	}

	if math.IsInf(best.err, 1) {
		return best, fmt.Errorf("learn: no threshold candidates (constant features)")
	}
	return best, nil
}

// thresholdCandidates returns midpoints between consecutive distinct
// sorted values, strided down to maxThresholdCandidates.
func thresholdCandidates(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var mids []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			mids = append(mids, (sorted[i]+sorted[i-1])/2)
		}
	}
	if len(mids) <= maxThresholdCandidates {
		return mids
	}

	stride := len(mids) / maxThresholdCandidates
	strided := make([]float64, 0, maxThresholdCandidates)
	for i := 0; i < len(mids); i += stride {
		strided = append(strided, mids[i])
	}
	return strided
}
