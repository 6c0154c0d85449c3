package embed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSeqLen = 128

// wordPiece performs BERT-style WordPiece tokenization against a
// vocab.txt vocabulary where the line number (0-indexed) is the token ID.
type wordPiece struct {
	tokenToID map[string]int64
	size      int

	padID int64
	unkID int64
	clsID int64
	sepID int64
}

// encodedBatch holds token IDs for a batch of texts, padded to the longest
// sequence in the batch. Slices are flat [batchSize * seqLen].
type encodedBatch struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// loadWordPiece reads a vocab.txt file from disk.
func loadWordPiece(path string) (*wordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wordpiece: %w", err)
	}
	defer f.Close()
	return parseWordPiece(f)
}

// parseWordPiece builds the vocabulary from a token-per-line reader.
func parseWordPiece(r io.Reader) (*wordPiece, error) {
	tokenToID := make(map[string]int64, 32000)
	n := int64(0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokenToID[scanner.Text()] = n
		n++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wordpiece: read vocab: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("wordpiece: empty vocabulary")
	}

	wp := &wordPiece{tokenToID: tokenToID, size: int(n)}
	for _, s := range []struct {
		token string
		dest  *int64
	}{
		{"[PAD]", &wp.padID},
		{"[UNK]", &wp.unkID},
		{"[CLS]", &wp.clsID},
		{"[SEP]", &wp.sepID},
	} {
		id, ok := tokenToID[s.token]
		if !ok {
			return nil, fmt.Errorf("wordpiece: vocabulary missing special token %s", s.token)
		}
		*s.dest = id
	}
	return wp, nil
}

func (w *wordPiece) lookup(token string) int64 {
	if id, ok := w.tokenToID[token]; ok {
		return id
	}
	return w.unkID
}

// encode converts one text into [CLS] tokens... [SEP], truncated to
// maxSeqLen. Returned slices have the real (unpadded) length.
func (w *wordPiece) encode(text string) (ids, mask []int64) {
	tokens := w.subTokens(basicTokens(text))
	if len(tokens) > maxSeqLen-2 {
		tokens = tokens[:maxSeqLen-2]
	}

	n := len(tokens) + 2
	ids = make([]int64, n)
	mask = make([]int64, n)
	ids[0] = w.clsID
	for i, tok := range tokens {
		ids[i+1] = w.lookup(tok)
	}
	ids[n-1] = w.sepID
	for i := range mask {
		mask[i] = 1
	}
	return ids, mask
}

// encodeBatch encodes multiple texts into flat tensors padded to the
// longest sequence in the batch.
func (w *wordPiece) encodeBatch(texts []string) encodedBatch {
	if len(texts) == 0 {
		return encodedBatch{}
	}

	type seq struct {
		ids  []int64
		mask []int64
	}
	seqs := make([]seq, len(texts))
	maxLen := 0
	for i, text := range texts {
		ids, mask := w.encode(text)
		seqs[i] = seq{ids: ids, mask: mask}
		if len(ids) > maxLen {
			maxLen = len(ids)
		}
	}

	batchSize := int64(len(texts))
	seqLen := int64(maxLen)
	total := batchSize * seqLen

	batch := encodedBatch{
		inputIDs:      make([]int64, total),
		attentionMask: make([]int64, total),
		tokenTypeIDs:  make([]int64, total),
		batchSize:     batchSize,
		seqLen:        seqLen,
	}
	for i, s := range seqs {
		off := int64(i) * seqLen
		copy(batch.inputIDs[off:], s.ids)
		copy(batch.attentionMask[off:], s.mask)
		// Trailing positions stay 0: padID=0, mask=0, typeIDs=0.
	}
	return batch
}

// subTokens applies WordPiece decomposition to each basic token.
func (w *wordPiece) subTokens(tokens []string) []string {
	var result []string
	for _, token := range tokens {
		if token == "" {
			continue
		}
		result = append(result, w.decompose(token)...)
	}
	return result
}

// decompose splits a single token into the longest-prefix-match subwords
// from the vocabulary, with non-initial pieces prefixed "##".
func (w *wordPiece) decompose(token string) []string {
	runes := []rune(token)
	if len(runes) > 200 {
		return []string{"[UNK]"}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := w.tokenToID[sub]; ok {
				pieces = append(pieces, sub)
				found = true
				break
			}
			end--
		}
		if !found {
			return []string{"[UNK]"}
		}
		start = end
	}
	return pieces
}

// basicTokens applies BERT's basic tokenization: clean control characters,
// lowercase, strip accents, split on whitespace and punctuation.
func basicTokens(text string) []string {
	text = stripAccents(strings.ToLower(cleanText(text)))

	var tokens []string
	for _, word := range strings.Fields(text) {
		tokens = append(tokens, splitPunct(word)...)
	}
	return tokens
}

func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || (unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r') {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitPunct(word string) []string {
	var tokens []string
	var cur strings.Builder
	for _, r := range word {
		if isPunct(r) {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// isPunct matches BERT's punctuation definition: the ASCII symbol ranges
// plus Unicode punctuation categories.
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
