package triage

import "path/filepath"

type options struct {
	modelDir       string
	onnxPath       string
	vocabPath      string
	projectionPath string
	threshold      float64
	batchSize      int
}

// Option configures a Classifier.
type Option func(*options)

// WithThreshold sets the decision boundary for Predict: categories with
// a score at or above it are returned. Default: 0.5.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithEncoderDir sets the directory holding the transformer encoder
// files, needed only for models trained with the "onnx" encoder.
// Expects: model_quantized.onnx, vocab.txt, 2_Dense/model.safetensors.
func WithEncoderDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithEncoderPaths sets explicit paths for each transformer encoder
// file. Use this when the files aren't in the default directory layout.
func WithEncoderPaths(model, vocab, projection string) Option {
	return func(o *options) {
		o.onnxPath = model
		o.vocabPath = vocab
		o.projectionPath = projection
	}
}

// WithBatchSize sets how many messages go through the transformer
// encoder per inference call. Default: 32.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

func defaultOptions() options {
	return options{
		threshold: 0.5,
		batchSize: 32,
	}
}

// resolveEncoderPaths determines the transformer encoder file paths.
// Explicit paths take precedence over the encoder directory.
func resolveEncoderPaths(o options) (model, vocab, projection string) {
	if o.onnxPath != "" {
		return o.onnxPath, o.vocabPath, o.projectionPath
	}
	dir := o.modelDir
	if dir == "" {
		dir = "models"
	}
	return filepath.Join(dir, "model_quantized.onnx"),
		filepath.Join(dir, "vocab.txt"),
		filepath.Join(dir, "2_Dense", "model.safetensors")
}
