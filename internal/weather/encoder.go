package weather

import (
	"slices"
)

// CategoryEncoder one-hot encodes a categorical column. The vocabulary is
// fitted once from observed values and then applied unchanged, so later data
// produces the same indicator columns in the same order. Values outside the
// vocabulary encode as all zeros.
type CategoryEncoder struct {
	prefix   string
	fallback string
	vocab    []string
	fitted   bool
}

// NewCategoryEncoder returns an encoder producing columns named
// "<prefix>_<value>". Missing cells are replaced by fallback before fitting
// and encoding.
func NewCategoryEncoder(prefix, fallback string) *CategoryEncoder {
	return &CategoryEncoder{prefix: prefix, fallback: fallback}
}

// Fit derives the sorted set of distinct values.
func (e *CategoryEncoder) Fit(values []string) {
	seen := make(map[string]bool)
	e.vocab = e.vocab[:0]
	for _, v := range values {
		v = e.fill(v)
		if !seen[v] {
			seen[v] = true
			e.vocab = append(e.vocab, v)
		}
	}
	slices.Sort(e.vocab)
	e.fitted = true
}

func (e *CategoryEncoder) Fitted() bool { return e.fitted }

func (e *CategoryEncoder) Vocabulary() []string {
	return slices.Clone(e.vocab)
}

// Columns returns the indicator column names in vocabulary order.
func (e *CategoryEncoder) Columns() []string {
	names := make([]string, len(e.vocab))
	for i, v := range e.vocab {
		names[i] = e.prefix + "_" + v
	}
	return names
}

// Encode returns one indicator slice per vocabulary entry.
func (e *CategoryEncoder) Encode(values []string) [][]float64 {
	pos := make(map[string]int, len(e.vocab))
	for i, v := range e.vocab {
		pos[v] = i
	}
	out := make([][]float64, len(e.vocab))
	for i := range out {
		out[i] = make([]float64, len(values))
	}
	for r, v := range values {
		if i, ok := pos[e.fill(v)]; ok {
			out[i][r] = 1
		}
	}
	return out
}

func (e *CategoryEncoder) fill(v string) string {
	if v == "" {
		return e.fallback
	}
	return v
}
