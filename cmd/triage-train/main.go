// Command triage-train trains the disaster-message classifier.
//
// Usage:
//
//	triage-train <messages.csv> <model-output-path>
//
// The CSV holds one message per row with binary category-indicator
// columns; the trained model is written to the output path. Everything
// else is configured through TRIAGE_* environment variables (see
// internal/config), optionally via a .env file.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/seaglass-ai/triage/internal/config"
	"github.com/seaglass-ai/triage/internal/logging"
	"github.com/seaglass-ai/triage/internal/trainer"
)

func main() {
	if len(os.Args) != 3 {
		usage()
		os.Exit(2)
	}
	dataPath, modelPath := os.Args[1], os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "triage-train: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "triage-train: invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	slog.Info("starting training run",
		"version", config.Version,
		"algorithm", cfg.Algorithm,
		"encoder", cfg.Encoder)

	if err := trainer.New(cfg).Run(dataPath, modelPath); err != nil {
		slog.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `Usage: %s <messages.csv> <model-output-path>

Trains the multi-label disaster-message classifier on the labeled CSV
and writes the fitted model to the output path.

Configuration comes from TRIAGE_* environment variables, for example:
  TRIAGE_ALGORITHM   classifier family: logistic or boost (default logistic)
  TRIAGE_ENCODER     embedding backend: hash or onnx (default hash)
  TRIAGE_FOLDS       cross-validation folds (default 5)
  TRIAGE_LOG_LEVEL   debug, info, warn, or error (default info)
`, prog)
}
