// Package dataset loads the labeled message table and produces
// order-stable train/held-out splits.
//
// The expected layout mirrors the disaster-response export: a CSV with a
// header row, a "message" column among the leading metadata columns, and
// a contiguous block of binary category-indicator columns starting at a
// fixed offset. Header names beyond the offset define the category names
// and their order; that order is authoritative for the whole run.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
)

// categoryOffset is the column index where the category-indicator block
// begins. Columns before it are message text and metadata.
const categoryOffset = 4

// messageColumn names the raw text column within the metadata block.
const messageColumn = "message"

// Dataset is an immutable labeled corpus: one message per row, one
// binary indicator per category column.
type Dataset struct {
	Messages   []string
	Labels     [][]int  // row-major, column c matches Categories[c]
	Categories []string // authoritative category order
}

// Load reads and validates a CSV training table. Any structural problem
// — missing file, missing message column, non-binary indicator, empty
// corpus, degenerate category column — is a fatal data error.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	if len(header) <= categoryOffset {
		return nil, fmt.Errorf("dataset: %d columns, need metadata plus at least one category column after offset %d",
			len(header), categoryOffset)
	}

	msgIdx := -1
	for i, name := range header[:categoryOffset] {
		if name == messageColumn {
			msgIdx = i
			break
		}
	}
	if msgIdx < 0 {
		return nil, fmt.Errorf("dataset: no %q column among the first %d columns", messageColumn, categoryOffset)
	}

	categories := append([]string(nil), header[categoryOffset:]...)

	var messages []string
	var labels [][]int
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		row := make([]int, len(categories))
		for c, raw := range record[categoryOffset:] {
			switch raw {
			case "0":
				row[c] = 0
			case "1":
				row[c] = 1
			default:
				return nil, fmt.Errorf("dataset: line %d, category %q: indicator %q is not binary",
					line, categories[c], raw)
			}
		}
		messages = append(messages, record[msgIdx])
		labels = append(labels, row)
	}

	d := &Dataset{Messages: messages, Labels: labels, Categories: categories}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.Messages) }

// validate rejects empty corpora and degenerate category columns
// (all-zero or all-one across the whole set, which makes the category
// untrainable). Training aborts entirely rather than dropping the
// column, since category ordering must stay consistent end to end.
func (d *Dataset) validate() error {
	if d.Len() == 0 {
		return fmt.Errorf("dataset: no training examples")
	}
	for c, name := range d.Categories {
		ones := 0
		for _, row := range d.Labels {
			ones += row[c]
		}
		if ones == 0 {
			return fmt.Errorf("dataset: category %q is all-zero and cannot be trained", name)
		}
		if ones == d.Len() {
			return fmt.Errorf("dataset: category %q is all-one and cannot be trained", name)
		}
	}
	return nil
}

// Split partitions the dataset into train and held-out subsets with a
// seeded shuffle. Both subsets preserve the original row order, keeping
// every downstream consumer's row alignment intact.
func (d *Dataset) Split(testFraction float64, seed int64) (train, test *Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("dataset: test fraction %g outside (0,1)", testFraction)
	}

	n := d.Len()
	nTest := int(math.Round(float64(n) * testFraction))
	if nTest == 0 || nTest == n {
		return nil, nil, fmt.Errorf("dataset: %d examples cannot be split with fraction %g", n, testFraction)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testIdx := append([]int(nil), perm[:nTest]...)
	trainIdx := append([]int(nil), perm[nTest:]...)
	sort.Ints(testIdx)
	sort.Ints(trainIdx)

	return d.subset(trainIdx), d.subset(testIdx), nil
}

func (d *Dataset) subset(idx []int) *Dataset {
	sub := &Dataset{
		Messages:   make([]string, len(idx)),
		Labels:     make([][]int, len(idx)),
		Categories: d.Categories,
	}
	for i, j := range idx {
		sub.Messages[i] = d.Messages[j]
		sub.Labels[i] = d.Labels[j]
	}
	return sub
}
