package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var triageEnvVars = []string{
	"TRIAGE_ALGORITHM", "TRIAGE_ENCODER", "TRIAGE_FOLDS",
	"TRIAGE_TEST_FRACTION", "TRIAGE_SEED", "TRIAGE_THRESHOLD",
	"TRIAGE_PARALLELISM", "TRIAGE_HASH_DIM", "TRIAGE_MODEL_PATH",
	"TRIAGE_VOCAB_PATH", "TRIAGE_PROJECTION_PATH", "TRIAGE_BATCH_SIZE",
	"TRIAGE_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range triageEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "logistic", cfg.Algorithm)
	assert.Equal(t, "hash", cfg.Encoder)
	assert.Equal(t, 5, cfg.Folds)
	assert.Equal(t, 0.2, cfg.TestFraction)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 0.5, cfg.Threshold)
	assert.Equal(t, 0, cfg.Parallelism)
	assert.Equal(t, 256, cfg.HashDim)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRIAGE_ALGORITHM", "boost")
	t.Setenv("TRIAGE_FOLDS", "3")
	t.Setenv("TRIAGE_SEED", "7")
	t.Setenv("TRIAGE_HASH_DIM", "64")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "boost", cfg.Algorithm)
	assert.Equal(t, 3, cfg.Folds)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 64, cfg.HashDim)
}

func TestLoadRejectsMalformedValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRIAGE_FOLDS", "five")

	_, err := Load()
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Algorithm:    "logistic",
		Encoder:      "hash",
		Folds:        5,
		TestFraction: 0.2,
		Seed:         42,
		Threshold:    0.5,
		HashDim:      256,
		BatchSize:    32,
		LogLevel:     "info",
	}
}

func TestValidateValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		mention string
	}{
		{"unknown algorithm", func(c *Config) { c.Algorithm = "forest" }, "TRIAGE_ALGORITHM"},
		{"unknown encoder", func(c *Config) { c.Encoder = "glove" }, "TRIAGE_ENCODER"},
		{"folds too small", func(c *Config) { c.Folds = 1 }, "TRIAGE_FOLDS"},
		{"fraction at zero", func(c *Config) { c.TestFraction = 0 }, "TRIAGE_TEST_FRACTION"},
		{"fraction at one", func(c *Config) { c.TestFraction = 1 }, "TRIAGE_TEST_FRACTION"},
		{"threshold above one", func(c *Config) { c.Threshold = 1.5 }, "TRIAGE_THRESHOLD"},
		{"negative parallelism", func(c *Config) { c.Parallelism = -1 }, "TRIAGE_PARALLELISM"},
		{"zero hash dim", func(c *Config) { c.HashDim = 0 }, "TRIAGE_HASH_DIM"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "TRIAGE_LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.mention)
		})
	}
}

func TestValidateONNXRequiresModelFiles(t *testing.T) {
	cfg := validConfig()
	cfg.Encoder = "onnx"
	cfg.ModelPath = "/nonexistent/model.onnx"
	cfg.VocabPath = "/nonexistent/vocab.txt"
	cfg.ProjectionPath = "/nonexistent/proj.safetensors"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"TRIAGE_MODEL_PATH", "TRIAGE_VOCAB_PATH", "TRIAGE_PROJECTION_PATH"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateONNXWithPresentFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig()
	cfg.Encoder = "onnx"
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"model.onnx", &cfg.ModelPath},
		{"vocab.txt", &cfg.VocabPath},
		{"proj.safetensors", &cfg.ProjectionPath},
	} {
		path := filepath.Join(dir, f.name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		*f.dst = path
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Algorithm = "forest"
	cfg.Folds = 0
	cfg.Threshold = -1

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"TRIAGE_ALGORITHM", "TRIAGE_FOLDS", "TRIAGE_THRESHOLD"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %s, got: %v", want, msg)
		}
	}
}

func TestVersionIsSet(t *testing.T) {
	assert.NotEmpty(t, Version)
}
