package triage

import (
	"fmt"

	"github.com/seaglass-ai/triage/internal/artifact"
	"github.com/seaglass-ai/triage/internal/embed"
	"github.com/seaglass-ai/triage/internal/pipeline"
)

// Classifier scores messages against the category set of a trained
// model. Safe for concurrent use.
type Classifier struct {
	pipe       *pipeline.Pipeline
	encoder    embed.Encoder
	categories []string
	threshold  float64
	modelID    string
}

// Load reads a model produced by triage-train and reattaches the
// embedding backend it was trained with. Models trained with the "onnx"
// encoder also need the encoder files (see WithEncoderDir).
func Load(path string, opts ...Option) (*Classifier, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	model, meta, err := artifact.Load(path)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}

	enc, err := newEncoder(model, o)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}

	pipe, err := model.Pipeline(enc)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("triage: %w", err)
	}

	return &Classifier{
		pipe:       pipe,
		encoder:    enc,
		categories: model.Categories,
		threshold:  o.threshold,
		modelID:    meta.ID,
	}, nil
}

func newEncoder(model *artifact.Model, o options) (embed.Encoder, error) {
	switch model.Encoder {
	case embed.KindHash:
		return embed.NewHash(model.EmbedDim), nil
	case embed.KindONNX:
		modelPath, vocabPath, projPath := resolveEncoderPaths(o)
		return embed.NewONNX(embed.ONNXConfig{
			ModelPath:      modelPath,
			VocabPath:      vocabPath,
			ProjectionPath: projPath,
			BatchSize:      o.batchSize,
		})
	default:
		return nil, fmt.Errorf("model trained with unsupported encoder %q", model.Encoder)
	}
}

// Categories returns the model's category names in score column order.
func (c *Classifier) Categories() []string {
	return append([]string(nil), c.categories...)
}

// ModelID returns the unique ID assigned when the model was saved.
func (c *Classifier) ModelID() string { return c.modelID }

// Scores returns the probability-like score per category for one
// message.
func (c *Classifier) Scores(message string) (map[string]float64, error) {
	rows, err := c.pipe.Scores([]string{message})
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}
	out := make(map[string]float64, len(c.categories))
	for i, name := range c.categories {
		out[name] = rows[0][i]
	}
	return out, nil
}

// Predict returns the categories whose score reaches the threshold, in
// model column order.
func (c *Classifier) Predict(message string) ([]string, error) {
	preds, err := c.PredictBatch([]string{message})
	if err != nil {
		return nil, err
	}
	return preds[0], nil
}

// PredictBatch classifies multiple messages in one pass through the
// encoder. More efficient than calling Predict in a loop.
func (c *Classifier) PredictBatch(messages []string) ([][]string, error) {
	rows, err := c.pipe.Scores(messages)
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}
	preds := make([][]string, len(rows))
	for i, row := range rows {
		for j, s := range row {
			if s >= c.threshold {
				preds[i] = append(preds[i], c.categories[j])
			}
		}
	}
	return preds, nil
}

// Close releases the embedding backend.
func (c *Classifier) Close() error {
	return c.encoder.Close()
}
