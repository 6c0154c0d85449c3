// Package textnorm turns raw message text into normalized token sequences
// for lexical feature extraction. Normalization is deterministic and
// stateless, so it is safe to call concurrently for different messages.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball"
)

// URLToken replaces every URL-shaped substring so that URL content never
// enters the vocabulary.
const URLToken = "urlplaceholder"

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s]+`)
	wordPattern = regexp.MustCompile(`[a-z0-9]+`)
)

// Tokens normalizes a message into an ordered token sequence: URLs are
// masked with URLToken, the text is lowercased and split into word tokens,
// and each token is reduced to its stem. Empty or whitespace-only input
// yields an empty sequence.
func Tokens(message string) []string {
	masked := urlPattern.ReplaceAllString(message, " "+URLToken+" ")
	words := wordPattern.FindAllString(strings.ToLower(masked), -1)
	if len(words) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, stem(w))
	}
	return tokens
}

// stem reduces a word to its base form. The URL placeholder is kept
// verbatim so masked URLs stay recognizable downstream. Words the stemmer
// cannot handle pass through unchanged.
func stem(word string) string {
	if word == URLToken {
		return word
	}
	s, err := snowball.Stem(word, "english", false)
	if err != nil || s == "" {
		return word
	}
	return s
}
