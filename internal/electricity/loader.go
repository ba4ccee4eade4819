// Package electricity loads hourly meter readings, one series per building.
package electricity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lox/buildcast/internal/table"
	"github.com/lox/buildcast/internal/workbook"
)

var ErrNoReadings = errors.New("electricity: no readings")

// Readings holds one column per building, in sheet column order.
type Readings struct {
	*table.Table
}

// Buildings returns building identifiers in sheet column order.
func (r *Readings) Buildings() []string {
	return r.Names()
}

// Range returns the earliest and latest reading timestamps.
func (r *Readings) Range() (time.Time, time.Time) {
	var lo, hi time.Time
	for i, ts := range r.Times {
		if i == 0 || ts.Before(lo) {
			lo = ts
		}
		if i == 0 || ts.After(hi) {
			hi = ts
		}
	}
	return lo, hi
}

// Load reads the electricity sheet. The first column holds timestamps; every
// other column is a building. Empty or non-numeric consumption cells become
// missing values. Rows without a timestamp are skipped, but a timestamp that
// cannot be parsed is an error.
func Load(sheet *workbook.Sheet, date1904 bool) (*Readings, error) {
	if len(sheet.Header) < 2 {
		return nil, fmt.Errorf("electricity sheet %q: need a timestamp column and at least one building", sheet.Name)
	}

	var times []time.Time
	var rows []int
	for r, row := range sheet.Rows {
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		ts, ok := workbook.ParseTime(cell, date1904)
		if !ok {
			return nil, fmt.Errorf("electricity sheet %q row %d: unparseable timestamp %q", sheet.Name, r+1, cell)
		}
		times = append(times, ts)
		rows = append(rows, r)
	}
	if len(times) == 0 {
		return nil, ErrNoReadings
	}

	t := table.New(times)
	for i, name := range uniqueNames(sheet.Header[1:]) {
		vals := make([]float64, len(rows))
		for j, r := range rows {
			v, ok := workbook.ParseNumber(sheet.Rows[r][i+1])
			if !ok {
				v = table.Missing()
			}
			vals[j] = v
		}
		if err := t.Set(name, table.Float, vals); err != nil {
			return nil, err
		}
	}
	return &Readings{Table: t}, nil
}

// uniqueNames suffixes repeated headers with .1, .2, ... and names blank
// headers "Unnamed: <n>" so every building stays a distinct column.
func uniqueNames(header []string) []string {
	seen := make(map[string]int)
	out := make([]string, len(header))
	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i+1)
		}
		name := h
		if n, ok := seen[h]; ok {
			name = h + "." + strconv.Itoa(n)
		}
		seen[h]++
		out[i] = name
	}
	return out
}
