package embed

import (
	"os"
	"testing"
)

const (
	testModelPath      = "../../models/model_quantized.onnx"
	testVocabPath      = "../../models/vocab.txt"
	testProjectionPath = "../../models/2_Dense/model.safetensors"
)

func skipIfNoModel(t *testing.T) {
	t.Helper()
	for _, path := range []string{testModelPath, testVocabPath, testProjectionPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Skipf("%s not found; download the encoder model files first", path)
		}
	}
}

func newTestONNX(t *testing.T) *ONNXEncoder {
	t.Helper()
	enc, err := NewONNX(ONNXConfig{
		ModelPath:      testModelPath,
		VocabPath:      testVocabPath,
		ProjectionPath: testProjectionPath,
	})
	if err != nil {
		t.Fatalf("NewONNX() error: %v", err)
	}
	t.Cleanup(func() { enc.Close() })
	return enc
}

func TestONNXEncode(t *testing.T) {
	skipIfNoModel(t)
	enc := newTestONNX(t)

	if enc.Dim() <= 0 {
		t.Fatalf("expected positive Dim, got %d", enc.Dim())
	}

	texts := []string{
		"we need water and food urgently",
		"the storm destroyed our house",
	}
	vecs, err := enc.Encode(texts)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vecs))
	}
	for i, v := range vecs {
		if len(v) != enc.Dim() {
			t.Errorf("vector %d has length %d, want %d", i, len(v), enc.Dim())
		}
		allZero := true
		for _, x := range v {
			if x != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			t.Errorf("vector %d is all zeros", i)
		}
	}
}

func TestONNXEncodeDeterministic(t *testing.T) {
	skipIfNoModel(t)
	enc := newTestONNX(t)

	texts := []string{"people trapped under the collapsed building"}
	a, err := enc.Encode(texts)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	b, err := enc.Encode(texts)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	for j := range a[0] {
		if a[0][j] != b[0][j] {
			t.Fatalf("component %d differs between runs: %v vs %v", j, a[0][j], b[0][j])
		}
	}
}

func TestONNXBatchingAndProgress(t *testing.T) {
	skipIfNoModel(t)

	enc, err := NewONNX(ONNXConfig{
		ModelPath:      testModelPath,
		VocabPath:      testVocabPath,
		ProjectionPath: testProjectionPath,
		BatchSize:      2,
	})
	if err != nil {
		t.Fatalf("NewONNX() error: %v", err)
	}
	defer enc.Close()

	texts := []string{
		"send medical supplies",
		"roads are flooded",
		"shelter needed for families",
	}
	var progressCalls int
	enc.progress = func(done, total int) { progressCalls++ }

	vecs, err := enc.Encode(texts)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vecs))
	}
	// Batch size 2 over 3 texts means two batches.
	if progressCalls != 2 {
		t.Errorf("expected 2 progress callbacks, got %d", progressCalls)
	}
}
