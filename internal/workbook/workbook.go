// Package workbook reads the input spreadsheet: electricity readings, the
// weather archive and the building area table.
package workbook

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrSheetNotFound = errors.New("sheet not found")

// Sheet is one worksheet as a header row plus string cells. Every row is
// padded or truncated to the header width.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Index returns the position of the named header, or -1.
func (s *Sheet) Index(name string) int {
	return slices.Index(s.Header, name)
}

// Column returns the cells of column i, top to bottom.
func (s *Sheet) Column(i int) []string {
	out := make([]string, len(s.Rows))
	for r, row := range s.Rows {
		out[r] = row[i]
	}
	return out
}

type Workbook struct {
	f        *excelize.File
	date1904 bool
}

func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	wb := &Workbook{f: f}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

// Date1904 reports whether serial dates in this workbook count from 1904.
func (w *Workbook) Date1904() bool {
	return w.date1904
}

// Sheet reads the named sheet. skip physical rows are discarded before the
// header row. Cells are returned unformatted so that dates arrive as Excel
// serials and numbers keep full precision.
func (w *Workbook) Sheet(name string, skip int) (*Sheet, error) {
	if !slices.Contains(w.f.GetSheetList(), name) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	rows, err := w.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return newSheet(name, rows, skip)
}

func newSheet(name string, rows [][]string, skip int) (*Sheet, error) {
	if skip >= len(rows) {
		return nil, fmt.Errorf("sheet %q: no header row after skipping %d rows", name, skip)
	}
	rows = rows[skip:]

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	s := &Sheet{Name: name, Header: header}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		cells := make([]string, len(header))
		copy(cells, row)
		s.Rows = append(s.Rows, cells)
	}
	return s, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
