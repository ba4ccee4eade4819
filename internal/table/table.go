// Package table holds the column-ordered, timestamp-indexed numeric table that
// every pipeline stage passes around. Missing values are NaN.
package table

import (
	"fmt"
	"math"
	"time"
)

// Kind describes how a column is typed when it is written out.
type Kind int

const (
	Float Kind = iota
	Int
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Bool:
		return "bool"
	default:
		return "float"
	}
}

// Numeric reports whether columns of this kind count as numeric features.
// Bool columns do not.
func (k Kind) Numeric() bool {
	return k == Float || k == Int
}

// Missing returns the missing-value sentinel.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// FromBool encodes a boolean as 1 or 0.
func FromBool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type Column struct {
	Name   string
	Kind   Kind
	Values []float64
}

// Table is a set of equally long columns aligned on Times. Column order is
// insertion order and is preserved by every operation.
type Table struct {
	Times []time.Time
	cols  []*Column
	index map[string]int
}

func New(times []time.Time) *Table {
	return &Table{Times: times, index: make(map[string]int)}
}

func (t *Table) Len() int { return len(t.Times) }

func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

func (t *Table) Columns() []*Column { return t.cols }

func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Values returns the values of the named column, or nil if it does not exist.
func (t *Table) Values(name string) []float64 {
	c, ok := t.Column(name)
	if !ok {
		return nil
	}
	return c.Values
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Set appends a column, or replaces it in place if one with the same name
// already exists.
func (t *Table) Set(name string, kind Kind, values []float64) error {
	if len(values) != len(t.Times) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.Times))
	}
	if i, ok := t.index[name]; ok {
		t.cols[i] = &Column{Name: name, Kind: kind, Values: values}
		return nil
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, &Column{Name: name, Kind: kind, Values: values})
	return nil
}

// MustSet is Set for callers that construct values from t.Len().
func (t *Table) MustSet(name string, kind Kind, values []float64) {
	if err := t.Set(name, kind, values); err != nil {
		panic(err)
	}
}

func (t *Table) Drop(name string) {
	i, ok := t.index[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.reindex()
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.Name] = i
	}
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows []int
	for i := range t.Times {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.take(rows)
}

func (t *Table) take(rows []int) *Table {
	times := make([]time.Time, len(rows))
	for j, i := range rows {
		times[j] = t.Times[i]
	}
	out := New(times)
	for _, c := range t.cols {
		vals := make([]float64, len(rows))
		for j, i := range rows {
			vals[j] = c.Values[i]
		}
		out.MustSet(c.Name, c.Kind, vals)
	}
	return out
}

// DropMissing returns the rows that carry no missing value in any column.
func (t *Table) DropMissing() *Table {
	return t.Filter(func(i int) bool {
		for _, c := range t.cols {
			if IsMissing(c.Values[i]) {
				return false
			}
		}
		return true
	})
}

// Between returns the rows with from <= time < to.
func (t *Table) Between(from, to time.Time) *Table {
	return t.Filter(func(i int) bool {
		ts := t.Times[i]
		return !ts.Before(from) && ts.Before(to)
	})
}

// Within returns the rows with from <= time <= to.
func (t *Table) Within(from, to time.Time) *Table {
	return t.Filter(func(i int) bool {
		ts := t.Times[i]
		return !ts.Before(from) && !ts.After(to)
	})
}

// Matrix returns the named columns as row-major feature vectors.
func (t *Table) Matrix(names []string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols[j] = c.Values
	}
	rows := make([][]float64, t.Len())
	for i := range rows {
		row := make([]float64, len(names))
		for j := range cols {
			row[j] = cols[j][i]
		}
		rows[i] = row
	}
	return rows, nil
}
