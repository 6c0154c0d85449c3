// Package config holds training configuration. Values come from the
// environment (TRIAGE_* variables), optionally seeded from a .env file;
// the two CLI arguments (data path, model path) stay positional and are
// not part of this package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/seaglass-ai/triage/internal/embed"
	"github.com/seaglass-ai/triage/internal/learn"
)

// Version is the build version, overridable at link time.
var Version = "0.3.0"

// Config holds all knobs for a training run.
type Config struct {
	// Algorithm selects the per-category learner family whose
	// hyperparameter grid gets searched: "logistic" or "boost".
	Algorithm string `env:"TRIAGE_ALGORITHM" envDefault:"logistic"`

	// Encoder selects the sentence-embedding backend: "hash" for the
	// self-contained feature-hashing encoder, "onnx" for the
	// transformer encoder (requires the model files below).
	Encoder string `env:"TRIAGE_ENCODER" envDefault:"hash"`

	Folds        int     `env:"TRIAGE_FOLDS" envDefault:"5"`
	TestFraction float64 `env:"TRIAGE_TEST_FRACTION" envDefault:"0.2"`
	Seed         int64   `env:"TRIAGE_SEED" envDefault:"42"`
	Threshold    float64 `env:"TRIAGE_THRESHOLD" envDefault:"0.5"`

	// Parallelism bounds concurrent fold evaluations; 0 means one per
	// CPU.
	Parallelism int `env:"TRIAGE_PARALLELISM" envDefault:"0"`

	HashDim int `env:"TRIAGE_HASH_DIM" envDefault:"256"`

	ModelPath      string `env:"TRIAGE_MODEL_PATH" envDefault:"models/model_quantized.onnx"`
	VocabPath      string `env:"TRIAGE_VOCAB_PATH" envDefault:"models/vocab.txt"`
	ProjectionPath string `env:"TRIAGE_PROJECTION_PATH" envDefault:"models/2_Dense/model.safetensors"`
	BatchSize      int    `env:"TRIAGE_BATCH_SIZE" envDefault:"32"`

	LogLevel string `env:"TRIAGE_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once, so a
// misconfigured run fails with the full picture instead of one error
// per attempt.
func (c Config) Validate() error {
	var errs []error

	if _, err := learn.ParseKind(c.Algorithm); err != nil {
		errs = append(errs, fmt.Errorf("TRIAGE_ALGORITHM: %w", err))
	}
	kind, err := embed.ParseKind(c.Encoder)
	if err != nil {
		errs = append(errs, fmt.Errorf("TRIAGE_ENCODER: %w", err))
	}

	if c.Folds < 2 {
		errs = append(errs, fmt.Errorf("TRIAGE_FOLDS must be at least 2, got %d", c.Folds))
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		errs = append(errs, fmt.Errorf("TRIAGE_TEST_FRACTION must be in (0,1), got %g", c.TestFraction))
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("TRIAGE_THRESHOLD must be in [0,1], got %g", c.Threshold))
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("TRIAGE_PARALLELISM must not be negative, got %d", c.Parallelism))
	}

	switch kind {
	case embed.KindHash:
		if c.HashDim <= 0 {
			errs = append(errs, fmt.Errorf("TRIAGE_HASH_DIM must be positive, got %d", c.HashDim))
		}
	case embed.KindONNX:
		if c.BatchSize <= 0 {
			errs = append(errs, fmt.Errorf("TRIAGE_BATCH_SIZE must be positive, got %d", c.BatchSize))
		}
		for _, f := range []struct{ name, path string }{
			{"TRIAGE_MODEL_PATH", c.ModelPath},
			{"TRIAGE_VOCAB_PATH", c.VocabPath},
			{"TRIAGE_PROJECTION_PATH", c.ProjectionPath},
		} {
			if _, statErr := os.Stat(f.path); statErr != nil {
				errs = append(errs, fmt.Errorf("%s: %q: %w", f.name, f.path, statErr))
			}
		}
	}

	if !validLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("TRIAGE_LOG_LEVEL must be debug, info, warn, or error, got %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

func validLogLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
