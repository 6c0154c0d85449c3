package embed

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNX Runtime environment is process-wide; initialize it exactly once.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXConfig locates the model files for an ONNXEncoder.
type ONNXConfig struct {
	ModelPath      string // BERT-style ONNX model
	VocabPath      string // WordPiece vocab.txt
	ProjectionPath string // safetensors dense layer applied after pooling
	BatchSize      int    // texts per inference call; <=0 means 32
	Progress       Progress
}

// ONNXEncoder embeds text with a pretrained BERT-style model:
// WordPiece tokenize → ONNX inference → mask-weighted mean pooling →
// dense projection. The model is frozen; nothing here mutates after New.
type ONNXEncoder struct {
	session   *onnxSession
	wp        *wordPiece
	dense     *denseLayer
	batchSize int
	progress  Progress
}

// NewONNX loads the model, vocabulary, and projection weights and
// validates that their dimensions line up.
func NewONNX(cfg ONNXConfig) (*ONNXEncoder, error) {
	sess, err := newONNXSession(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	wp, err := loadWordPiece(cfg.VocabPath)
	if err != nil {
		sess.close()
		return nil, fmt.Errorf("embed: %w", err)
	}

	dense, err := loadDense(cfg.ProjectionPath)
	if err != nil {
		sess.close()
		return nil, fmt.Errorf("embed: %w", err)
	}
	if int(sess.hiddenDim) != dense.inDim {
		sess.close()
		return nil, fmt.Errorf("embed: model hidden dim %d != projection input dim %d",
			sess.hiddenDim, dense.inDim)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	return &ONNXEncoder{
		session:   sess,
		wp:        wp,
		dense:     dense,
		batchSize: batchSize,
		progress:  cfg.Progress,
	}, nil
}

// Dim returns the final vector length (after projection).
func (e *ONNXEncoder) Dim() int { return e.dense.outDim }

// Encode embeds texts in fixed-size batches, reporting progress after
// each batch when a Progress callback is configured.
func (e *ONNXEncoder) Encode(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.encodeBatch(texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
		if e.progress != nil {
			e.progress(end, len(texts))
		}
	}
	return out, nil
}

func (e *ONNXEncoder) encodeBatch(texts []string) ([][]float32, error) {
	batch := e.wp.encodeBatch(texts)

	hidden, err := e.session.infer(batch)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	pooled := meanPool(hidden, batch.attentionMask, batch.batchSize, batch.seqLen, e.session.hiddenDim)

	dim := e.session.hiddenDim
	results := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		results[i] = e.dense.apply(pooled[i*dim : (i+1)*dim])
	}
	return results, nil
}

// Close releases ONNX Runtime resources.
func (e *ONNXEncoder) Close() error {
	if e.session != nil {
		return e.session.close()
	}
	return nil
}

// onnxSession wraps a DynamicAdvancedSession for BERT-style models.
type onnxSession struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	hiddenDim  int64
}

// newONNXSession loads the ONNX model and validates its tensor layout.
// The ONNX Runtime shared library is expected alongside the model file.
func newONNXSession(modelPath string) (*onnxSession, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}

	inputNames, err := validateInputs(inputs)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 3 {
		return nil, fmt.Errorf("onnx: expected 3D output tensor, got %v", dims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	return &onnxSession{
		session:    session,
		inputNames: inputNames,
		outputName: outputs[0].Name,
		hiddenDim:  dims[2],
	}, nil
}

func validateInputs(inputs []ort.InputOutputInfo) ([]string, error) {
	names := make(map[string]bool, len(inputs))
	for _, inp := range inputs {
		names[inp.Name] = true
	}
	required := []string{"input_ids", "attention_mask", "token_type_ids"}
	for _, name := range required {
		if !names[name] {
			return nil, fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	return required, nil
}

// infer runs one inference call and returns the per-token hidden states
// as a flat [batchSize * seqLen * hiddenDim] slice.
func (s *onnxSession) infer(batch encodedBatch) ([]float32, error) {
	shape := ort.NewShape(batch.batchSize, batch.seqLen)

	tIDs, err := ort.NewTensor(shape, batch.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: create input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()

	tMask, err := ort.NewTensor(shape, batch.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("onnx: create attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()

	tTypes, err := ort.NewTensor(shape, batch.tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: create token_type_ids tensor: %w", err)
	}
	defer tTypes.Destroy()

	outShape := ort.NewShape(batch.batchSize, batch.seqLen, s.hiddenDim)
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.session.Run([]ort.Value{tIDs, tMask, tTypes}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	src := tOut.GetData()
	result := make([]float32, len(src))
	copy(result, src)
	return result, nil
}

func (s *onnxSession) close() error {
	return s.session.Destroy()
}

// meanPool computes attention-mask-weighted mean pooling over the
// sequence dimension. hidden is flat [batchSize*seqLen*dim], mask is flat
// [batchSize*seqLen]; the result is flat [batchSize*dim].
func meanPool(hidden []float32, mask []int64, batchSize, seqLen, dim int64) []float32 {
	out := make([]float32, batchSize*dim)

	for b := int64(0); b < batchSize; b++ {
		maskOff := b * seqLen
		hiddenOff := b * seqLen * dim
		outOff := b * dim

		var count float32
		for s := int64(0); s < seqLen; s++ {
			if mask[maskOff+s] == 1 {
				count++
			}
		}
		if count == 0 {
			continue
		}

		for s := int64(0); s < seqLen; s++ {
			if mask[maskOff+s] != 1 {
				continue
			}
			tokOff := hiddenOff + s*dim
			for d := int64(0); d < dim; d++ {
				out[outOff+d] += hidden[tokOff+d]
			}
		}

		inv := 1.0 / count
		for d := int64(0); d < dim; d++ {
			out[outOff+d] *= inv
		}
	}
	return out
}
