// Package feature builds joint feature vectors for messages by combining
// sparse lexical TF-IDF features with dense sentence embeddings.
//
// Every extractor follows the same two-phase contract: Fit learns state
// from the training corpus exactly once, Transform maps messages to
// vectors using that state. Messages handed to Transform must be a
// contiguous, order-stable sequence; row i of the output always
// corresponds to messages[i]. Fitted state is written once during Fit and
// never mutated afterwards, so concurrent Transform calls are safe.
package feature

// Extractor is the fit/transform capability shared by all feature
// extractors and the Union combiner.
type Extractor interface {
	// Fit learns extractor state from the training corpus. Extractors
	// without trainable state return nil without inspecting the corpus.
	Fit(corpus []string) error
	// Transform maps messages to one feature vector each. The vector
	// length equals Dim for every message.
	Transform(messages []string) ([][]float64, error)
	// Dim reports the output vector length. For fitted extractors it is
	// only meaningful after Fit.
	Dim() int
}
