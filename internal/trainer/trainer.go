// Package trainer orchestrates a full training run: load the labeled
// corpus, split off a held-out set, grid-search hyperparameters with
// cross-validation, report held-out metrics, and persist the winning
// model.
package trainer

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/seaglass-ai/triage/internal/artifact"
	"github.com/seaglass-ai/triage/internal/config"
	"github.com/seaglass-ai/triage/internal/dataset"
	"github.com/seaglass-ai/triage/internal/embed"
	"github.com/seaglass-ai/triage/internal/evaluate"
	"github.com/seaglass-ai/triage/internal/feature"
	"github.com/seaglass-ai/triage/internal/learn"
	"github.com/seaglass-ai/triage/internal/pipeline"
	"github.com/seaglass-ai/triage/internal/search"
)

// Trainer runs the end-to-end training pipeline for one configuration.
type Trainer struct {
	cfg config.Config

	// Out receives the evaluation report; defaults to stdout.
	Out io.Writer
}

// New creates a trainer for a validated configuration.
func New(cfg config.Config) *Trainer {
	return &Trainer{cfg: cfg, Out: os.Stdout}
}

// Run executes the whole training sequence and writes the model to
// modelPath. Configuration problems (unknown algorithm, missing encoder
// files) surface before any data is read.
func (t *Trainer) Run(dataPath, modelPath string) error {
	kind, err := learn.ParseKind(t.cfg.Algorithm)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	grid, err := search.Grid(kind)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}

	encKind, err := embed.ParseKind(t.cfg.Encoder)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	enc, err := t.newEncoder(encKind)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	defer enc.Close()

	slog.Info("loading data", "path", dataPath)
	ds, err := dataset.Load(dataPath)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	slog.Info("loaded corpus",
		"examples", ds.Len(), "categories", len(ds.Categories))

	train, test, err := ds.Split(t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	slog.Info("split corpus", "train", train.Len(), "held_out", test.Len())

	// Every candidate pipeline shares the frozen encoder; only the
	// lexical extractor and the classifier are refitted per candidate.
	controller := &search.Controller{
		Grid:        grid,
		Folds:       t.cfg.Folds,
		Parallelism: t.cfg.Parallelism,
		NewPipeline: func(cfg learn.Config) *pipeline.Pipeline {
			return pipeline.New(feature.NewLexical(), feature.NewSemantic(enc), learn.NewMultiLabel(cfg))
		},
	}

	slog.Info("training", "algorithm", kind,
		"combinations", len(grid), "folds", t.cfg.Folds)
	outcome, err := controller.Run(train.Messages, train.Labels)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}

	slog.Info("evaluating on held-out set", "examples", test.Len())
	scores, err := outcome.Pipeline.Scores(test.Messages)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	report, err := evaluate.Evaluate(scores, test.Labels, ds.Categories, t.cfg.Threshold)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	if _, err := fmt.Fprint(t.Out, report.String()); err != nil {
		return fmt.Errorf("trainer: write report: %w", err)
	}

	slog.Info("saving model", "path", modelPath)
	model, err := artifact.FromPipeline(outcome.Pipeline, ds.Categories, encKind)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	meta, err := artifact.Save(modelPath, model)
	if err != nil {
		return fmt.Errorf("trainer: %w", err)
	}
	slog.Info("model saved", "path", modelPath, "id", meta.ID,
		"combination", outcome.Best.String(), "cv_score", outcome.BestScore)
	return nil
}

func (t *Trainer) newEncoder(kind embed.Kind) (embed.Encoder, error) {
	switch kind {
	case embed.KindHash:
		return embed.NewHash(t.cfg.HashDim), nil
	case embed.KindONNX:
		return embed.NewONNX(embed.ONNXConfig{
			ModelPath:      t.cfg.ModelPath,
			VocabPath:      t.cfg.VocabPath,
			ProjectionPath: t.cfg.ProjectionPath,
			BatchSize:      t.cfg.BatchSize,
			Progress: func(done, total int) {
				slog.Debug("embedding corpus", "done", done, "total", total)
			},
		})
	default:
		return nil, fmt.Errorf("unsupported encoder kind %q", kind)
	}
}
