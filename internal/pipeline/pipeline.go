// Package pipeline wires the feature combiner and the multi-label
// classifier into one fit-able unit: the thing the search controller
// trains per fold and the trainer persists once fitted.
package pipeline

import (
	"fmt"

	"github.com/seaglass-ai/triage/internal/feature"
	"github.com/seaglass-ai/triage/internal/learn"
)

// Pipeline is the fitted (or fit-able) model: lexical + semantic feature
// union feeding one binary learner per category. The joint feature
// dimension is fixed once Fit completes; after that the pipeline is
// immutable and safe for concurrent Scores calls.
type Pipeline struct {
	lexical  *feature.Lexical
	semantic *feature.Semantic
	union    *feature.Union
	clf      *learn.MultiLabel
}

// New assembles an unfitted pipeline. Sub-extractor order is fixed here:
// the lexical block leads, the semantic block follows.
func New(lex *feature.Lexical, sem *feature.Semantic, clf *learn.MultiLabel) *Pipeline {
	return &Pipeline{
		lexical:  lex,
		semantic: sem,
		union:    feature.NewUnion(lex, sem),
		clf:      clf,
	}
}

// Fit fits the feature union on the messages, transforms them, and
// trains the classifier against the label matrix.
func (p *Pipeline) Fit(messages []string, labels [][]int) error {
	if len(messages) == 0 {
		return fmt.Errorf("pipeline: no training messages")
	}
	if len(messages) != len(labels) {
		return fmt.Errorf("pipeline: %d messages but %d label rows", len(messages), len(labels))
	}

	if err := p.union.Fit(messages); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	X, err := p.union.Transform(messages)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := p.clf.Fit(X, labels); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

// Scores transforms messages through the fitted union and returns the
// N x C score table.
func (p *Pipeline) Scores(messages []string) ([][]float64, error) {
	X, err := p.union.Transform(messages)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	scores, err := p.clf.Scores(X)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return scores, nil
}

// Dim returns the joint feature dimension (meaningful after Fit).
func (p *Pipeline) Dim() int { return p.union.Dim() }

// Lexical exposes the fitted lexical extractor for persistence.
func (p *Pipeline) Lexical() *feature.Lexical { return p.lexical }

// Classifier exposes the fitted multi-label classifier for persistence.
func (p *Pipeline) Classifier() *learn.MultiLabel { return p.clf }
