package trainer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seaglass-ai/triage/internal/artifact"
	"github.com/seaglass-ai/triage/internal/config"
	"github.com/seaglass-ai/triage/internal/embed"
)

// writeCorpus produces 20 labeled messages where every category keeps
// both classes in any train subset the seeded split can produce.
func writeCorpus(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("id,message,original,genre,water,medical_help,shelter\n")
	for i := 0; i < 20; i++ {
		water := 0
		msg := "food delivery arrived in town sector " + string(rune('a'+i))
		if i < 10 {
			water = 1
			msg = "people need clean drinking water in sector " + string(rune('a'+i))
		}
		medical := i % 2
		if medical == 1 {
			msg += " and injured need a doctor"
		}
		shelter := (i / 2) % 2
		if shelter == 1 {
			msg += " homes collapsed need shelter"
		}
		fmt.Fprintf(&b, "%d,%s,,direct,%d,%d,%d\n", i+1, msg, water, medical, shelter)
	}

	path := filepath.Join(t.TempDir(), "messages.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testConfig() config.Config {
	return config.Config{
		Algorithm:    "logistic",
		Encoder:      "hash",
		Folds:        5,
		TestFraction: 0.2,
		Seed:         42,
		Threshold:    0.5,
		Parallelism:  2,
		HashDim:      16,
		LogLevel:     "info",
	}
}

func TestRunEndToEnd(t *testing.T) {
	dataPath := writeCorpus(t)
	modelPath := filepath.Join(t.TempDir(), "model.bin")

	tr := New(testConfig())
	var out bytes.Buffer
	tr.Out = &out

	require.NoError(t, tr.Run(dataPath, modelPath))

	// Report lists every category in column order.
	report := out.String()
	assert.Contains(t, report, "precision")
	for _, name := range []string{"water", "medical_help", "shelter"} {
		assert.Contains(t, report, name)
	}

	// The saved artifact must reload into a working pipeline.
	model, meta, err := artifact.Load(modelPath)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Categories)
	assert.Equal(t, []string{"water", "medical_help", "shelter"}, model.Categories)

	p, err := model.Pipeline(embed.NewHash(16))
	require.NoError(t, err)
	scores, err := p.Scores([]string{"we urgently need drinking water"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Len(t, scores[0], 3)
}

func TestRunBoostAlgorithm(t *testing.T) {
	dataPath := writeCorpus(t)
	modelPath := filepath.Join(t.TempDir(), "model.bin")

	cfg := testConfig()
	cfg.Algorithm = "boost"
	cfg.Folds = 3
	tr := New(cfg)
	tr.Out = &bytes.Buffer{}

	require.NoError(t, tr.Run(dataPath, modelPath))

	_, meta, err := artifact.Load(modelPath)
	require.NoError(t, err)
	assert.Equal(t, "boost", string(meta.Algorithm))
}

func TestRunUnknownAlgorithmFailsBeforeDataLoad(t *testing.T) {
	cfg := testConfig()
	cfg.Algorithm = "forest"
	tr := New(cfg)
	tr.Out = &bytes.Buffer{}

	// The data path does not exist: a configuration error must surface
	// first, so the error talks about the algorithm, not the file.
	err := tr.Run(filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "m.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forest")
}

func TestRunMissingDataFile(t *testing.T) {
	tr := New(testConfig())
	tr.Out = &bytes.Buffer{}

	err := tr.Run(filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "m.bin"))
	assert.Error(t, err)
}

func TestRunFailedSaveReportsError(t *testing.T) {
	dataPath := writeCorpus(t)
	tr := New(testConfig())
	tr.Out = &bytes.Buffer{}

	err := tr.Run(dataPath, filepath.Join(t.TempDir(), "no", "such", "dir", "m.bin"))
	assert.Error(t, err)
}
