package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lox/buildcast/internal/table"
	"github.com/lox/buildcast/internal/workbook"
)

const timestampLayout = "2006-01-02 15:04:05"

// WriteFile writes a dataset as CSV with a header row.
func WriteFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func Write(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()

	header := make([]string, 0, len(cols)+1)
	header = append(header, ColTimestamp)
	header = append(header, t.Names()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for i, ts := range t.Times {
		record[0] = ts.Format(timestampLayout)
		for j, c := range cols {
			record[j+1] = formatValue(c.Kind, c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(kind table.Kind, v float64) string {
	switch {
	case table.IsMissing(v):
		return ""
	case kind == table.Bool:
		if v != 0 {
			return "True"
		}
		return "False"
	case kind == table.Int:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// ReadFile loads a dataset written by WriteFile. Column kinds are inferred:
// all True/False is bool, all integers is int, anything else numeric is float.
func ReadFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*table.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read dataset: empty file")
	}
	header, rows := records[0], records[1:]
	if len(header) == 0 || header[0] != ColTimestamp {
		return nil, fmt.Errorf("read dataset: first column must be %s", ColTimestamp)
	}

	times := make([]time.Time, len(rows))
	for i, row := range rows {
		ts, err := time.Parse(timestampLayout, row[0])
		if err != nil {
			var ok bool
			if ts, ok = workbook.ParseTime(row[0], false); !ok {
				return nil, fmt.Errorf("read dataset row %d: bad timestamp %q", i+1, row[0])
			}
		}
		times[i] = ts
	}

	t := table.New(times)
	for j, name := range header[1:] {
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[j+1]
		}
		kind, vals, err := parseColumn(cells)
		if err != nil {
			return nil, fmt.Errorf("read dataset column %q: %w", name, err)
		}
		if err := t.Set(name, kind, vals); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func parseColumn(cells []string) (table.Kind, []float64, error) {
	vals := make([]float64, len(cells))
	if len(cells) > 0 && allBool(cells) {
		for i, c := range cells {
			vals[i] = table.FromBool(c == "True")
		}
		return table.Bool, vals, nil
	}

	kind := table.Int
	for i, c := range cells {
		if c == "" {
			vals[i] = table.Missing()
			continue
		}
		if n, err := strconv.ParseInt(c, 10, 64); err == nil {
			vals[i] = float64(n)
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("row %d: %q is not numeric", i+1, c)
		}
		vals[i] = v
		kind = table.Float
	}
	return kind, vals, nil
}

func allBool(cells []string) bool {
	for _, c := range cells {
		if c != "True" && c != "False" {
			return false
		}
	}
	return true
}
