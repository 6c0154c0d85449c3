// Package artifact persists trained models. A model file is
// self-describing: an 8-byte little-endian header length, a JSON header
// naming the format, codec, and compression, then the compressed JSON
// payload. Writes are atomic — the file appears under its final name
// only after a fully successful write, so a failed save never leaves a
// partially written artifact behind.
package artifact

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/seaglass-ai/triage/internal/embed"
	"github.com/seaglass-ai/triage/internal/feature"
	"github.com/seaglass-ai/triage/internal/learn"
	"github.com/seaglass-ai/triage/internal/pipeline"
)

const (
	formatName    = "triage-model"
	formatVersion = 1
	codecName     = "json"
	compression   = "gzip"
)

// Meta is the artifact header: provenance and integrity hints, readable
// without decompressing the payload.
type Meta struct {
	Format      string     `json:"format"`
	Version     int        `json:"version"`
	Codec       string     `json:"codec"`
	Compression string     `json:"compression"`
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Algorithm   learn.Kind `json:"algorithm"`
	Categories  int        `json:"categories"`
}

// Model is the serializable bundle of everything fitted during training:
// the lexical vocabulary and IDF weights, the per-category learner
// states, the winning hyperparameter combination, and the category
// order. The semantic encoder itself is not stored — it is pretrained
// and reattached at load time; only its dimensionality is recorded for
// validation.
type Model struct {
	Algorithm  learn.Config         `json:"algorithm"`
	Categories []string             `json:"categories"`
	Lexical    feature.LexicalState `json:"lexical"`
	Encoder    embed.Kind           `json:"encoder"`
	EmbedDim   int                  `json:"embed_dim"`
	Learners   []learn.State        `json:"learners"`
}

// FromPipeline extracts the persistable state of a fitted pipeline.
// encoder names the embedding backend the pipeline was trained with, so
// loading can reattach the same kind.
func FromPipeline(p *pipeline.Pipeline, categories []string, encoder embed.Kind) (*Model, error) {
	clf := p.Classifier()
	if clf.NumCategories() != len(categories) {
		return nil, fmt.Errorf("artifact: %d fitted models for %d categories",
			clf.NumCategories(), len(categories))
	}
	return &Model{
		Algorithm:  clf.Config(),
		Categories: append([]string(nil), categories...),
		Lexical:    p.Lexical().State(),
		Encoder:    encoder,
		EmbedDim:   p.Dim() - p.Lexical().Dim(),
		Learners:   clf.States(),
	}, nil
}

// Pipeline reassembles a ready-to-predict pipeline, attaching the given
// frozen encoder. The encoder's dimensionality must match the one the
// model was trained with.
func (m *Model) Pipeline(enc embed.Encoder) (*pipeline.Pipeline, error) {
	if enc.Dim() != m.EmbedDim {
		return nil, fmt.Errorf("artifact: encoder dim %d != trained embed dim %d",
			enc.Dim(), m.EmbedDim)
	}
	lex, err := feature.NewLexicalFromState(m.Lexical)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	clf, err := learn.RestoreMultiLabel(m.Algorithm, m.Learners)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return pipeline.New(lex, feature.NewSemantic(enc), clf), nil
}

// Save writes the model atomically and returns the generated artifact
// metadata.
func Save(path string, m *Model) (*Meta, error) {
	meta := &Meta{
		Format:      formatName,
		Version:     formatVersion,
		Codec:       codecName,
		Compression: compression,
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Algorithm:   m.Algorithm.Kind,
		Categories:  len(m.Categories),
	}

	var buf bytes.Buffer
	if err := writeTo(&buf, meta, m); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".triage-model-*")
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("artifact: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("artifact: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("artifact: rename: %w", err)
	}
	return meta, nil
}

func writeTo(w io.Writer, meta *Meta, m *Model) error {
	headerJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("artifact: encode header: %w", err)
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerJSON)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}

	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(m); err != nil {
		zw.Close()
		return fmt.Errorf("artifact: encode payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("artifact: compress: %w", err)
	}
	return nil
}

// Load reads a model file and its metadata.
func Load(path string) (*Model, *Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: %w", err)
	}
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("artifact: file too small: %d bytes", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return nil, nil, fmt.Errorf("artifact: header length %d exceeds file size", headerLen)
	}

	var meta Meta
	if err := json.Unmarshal(data[8:8+headerLen], &meta); err != nil {
		return nil, nil, fmt.Errorf("artifact: parse header: %w", err)
	}
	if meta.Format != formatName {
		return nil, nil, fmt.Errorf("artifact: not a %s file (format %q)", formatName, meta.Format)
	}
	if meta.Version != formatVersion {
		return nil, nil, fmt.Errorf("artifact: unsupported version %d", meta.Version)
	}
	if meta.Codec != codecName || meta.Compression != compression {
		return nil, nil, fmt.Errorf("artifact: unsupported encoding %s+%s", meta.Codec, meta.Compression)
	}

	zr, err := gzip.NewReader(bytes.NewReader(data[8+headerLen:]))
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: decompress: %w", err)
	}

	var m Model
	if err := json.NewDecoder(zr).Decode(&m); err != nil {
		zr.Close()
		return nil, nil, fmt.Errorf("artifact: decode payload: %w", err)
	}
	// Decode stops at the end of the JSON value; read through the stream
	// so Close verifies the gzip CRC and size trailer. A truncated or
	// bit-flipped payload fails here instead of loading silently.
	if _, err := io.Copy(io.Discard, zr); err != nil {
		zr.Close()
		return nil, nil, fmt.Errorf("artifact: decompress: %w", err)
	}
	if err := zr.Close(); err != nil {
		return nil, nil, fmt.Errorf("artifact: decompress: %w", err)
	}
	if len(m.Learners) != len(m.Categories) {
		return nil, nil, fmt.Errorf("artifact: %d learner states for %d categories",
			len(m.Learners), len(m.Categories))
	}
	return &m, &meta, nil
}
