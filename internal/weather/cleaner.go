// Package weather turns a raw weather-archive export into an hourly, fully
// numeric table.
package weather

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/lox/buildcast/internal/table"
	"github.com/lox/buildcast/internal/workbook"
)

var (
	ErrNoTimeColumn  = errors.New("weather: no local time column")
	ErrMissingColumn = errors.New("weather: required column missing")
)

// Column names of the weather archive export.
const (
	ColTemp          = "T"
	ColPressureSea   = "P0"
	ColPressure      = "P"
	ColHumidity      = "U"
	ColWindSpeed     = "Ff"
	ColVisibility    = "VV"
	ColPresentWx     = "WW"
	ColCloudCover    = "c"
	ColWindDirection = "DD"
	ColDewPoint      = "Td_computed"

	timePrefix = "Local time"

	visibilityCapped = "10.0 and more"
)

const DefaultMaxMissingFraction = 0.9

// interpolated are filled before dew point is derived; T and U must exist.
var interpolated = []string{ColTemp, ColPressureSea, ColPressure, ColHumidity}

var timeJunk = strings.NewReplacer("\u200b", "", "\u00a0", "", "\n", "", "\r", "", "\t", "")

type Options struct {
	// TimeColumn is the exact timestamp header. When it is absent the first
	// header starting with "Local time" is used.
	TimeColumn string
	// Columns whose missing fraction reaches this are dropped.
	MaxMissingFraction float64
	Date1904           bool
}

// Stats describes what cleaning discarded.
type Stats struct {
	RawRows         int
	DroppedColumns  []string
	BadTimestamps   int
	NonNumeric      []string
	Hours           int
	OutOfRangeHours int
}

type Cleaner struct {
	opts     Options
	logger   *slog.Logger
	encoders []*CategoryEncoder
}

func NewCleaner(opts Options, logger *slog.Logger) *Cleaner {
	if opts.MaxMissingFraction <= 0 {
		opts.MaxMissingFraction = DefaultMaxMissingFraction
	}
	return &Cleaner{opts: opts, logger: logger}
}

// Encoders returns the category encoders fitted by the last Clean call.
func (c *Cleaner) Encoders() []*CategoryEncoder {
	return c.encoders
}

// rawColumn is one sheet column while cleaning. Numeric columns carry
// values; categorical ones keep their cells.
type rawColumn struct {
	name    string
	cells   []string
	values  []float64
	numeric bool
}

// Clean runs the full cleaning sequence and returns one row per hour within
// [from, to], inclusive.
func (c *Cleaner) Clean(sheet *workbook.Sheet, from, to time.Time) (*table.Table, Stats, error) {
	stats := Stats{RawRows: len(sheet.Rows)}

	timeName, err := c.timeColumn(sheet.Header)
	if err != nil {
		return nil, stats, err
	}

	cols := make([]*rawColumn, 0, len(sheet.Header))
	for i, name := range sheet.Header {
		cols = append(cols, &rawColumn{name: name, cells: sheet.Column(i)})
	}

	cols, stats.DroppedColumns = c.dropSparse(cols)
	if !hasColumn(cols, timeName) {
		return nil, stats, fmt.Errorf("%w: %q has no values", ErrNoTimeColumn, timeName)
	}

	var encoded []*rawColumn
	c.encoders = nil
	cols, encoded = c.encode(cols, encoded, ColPresentWx, "WW", "Clear")
	cols, encoded = c.encode(cols, encoded, ColCloudCover, "Cloud", "Clear")

	for _, name := range interpolated {
		col := findColumn(cols, name)
		if col == nil {
			if name == ColTemp || name == ColHumidity {
				return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, name)
			}
			c.logger.Warn("weather column not present, skipping interpolation", "column", name)
			continue
		}
		col.values = Interpolate(parseNumbers(col.cells))
		col.numeric = true
	}

	if vv := findColumn(cols, ColVisibility); vv != nil {
		cells := make([]string, len(vv.cells))
		for i, s := range vv.cells {
			if strings.TrimSpace(s) == visibilityCapped {
				s = "10"
			}
			cells[i] = s
		}
		vv.values = parseNumbers(cells)
		vv.numeric = true
	}

	temp := findColumn(cols, ColTemp).values
	rh := findColumn(cols, ColHumidity).values
	dew := make([]float64, len(temp))
	for i := range temp {
		dew[i] = DewPoint(temp[i], rh[i])
	}
	encoded = append(encoded, &rawColumn{name: ColDewPoint, values: dew, numeric: true})

	cols, encoded = c.encode(cols, encoded, ColWindDirection, "WindDir", "Unknown")

	times, valid := c.parseTimes(findColumn(cols, timeName).cells)
	for _, ok := range valid {
		if !ok {
			stats.BadTimestamps++
		}
	}

	var numeric []*rawColumn
	for _, col := range cols {
		if col.name == timeName {
			continue
		}
		if !col.numeric {
			vals, ok := numericColumn(col.cells)
			if !ok {
				stats.NonNumeric = append(stats.NonNumeric, col.name)
				continue
			}
			col.values = vals
		}
		numeric = append(numeric, col)
	}
	numeric = append(numeric, encoded...)

	hourly := resample(times, valid, numeric)
	stats.Hours = hourly.Len()
	restricted := hourly.Within(from, to)
	stats.OutOfRangeHours = hourly.Len() - restricted.Len()
	return restricted, stats, nil
}

func (c *Cleaner) timeColumn(header []string) (string, error) {
	if c.opts.TimeColumn != "" && slices.Contains(header, c.opts.TimeColumn) {
		return c.opts.TimeColumn, nil
	}
	for _, h := range header {
		if strings.HasPrefix(h, timePrefix) {
			return h, nil
		}
	}
	return "", ErrNoTimeColumn
}

func (c *Cleaner) dropSparse(cols []*rawColumn) ([]*rawColumn, []string) {
	var kept []*rawColumn
	var dropped []string
	for _, col := range cols {
		missing := 0
		for _, s := range col.cells {
			if s == "" {
				missing++
			}
		}
		n := len(col.cells)
		if n == 0 || missing == n || float64(missing)/float64(n) >= c.opts.MaxMissingFraction {
			dropped = append(dropped, col.name)
			continue
		}
		kept = append(kept, col)
	}
	return kept, dropped
}

// encode replaces a categorical column by its indicator columns, appended to
// encoded. A column already removed as sparse is skipped.
func (c *Cleaner) encode(cols, encoded []*rawColumn, name, prefix, fallback string) ([]*rawColumn, []*rawColumn) {
	col := findColumn(cols, name)
	if col == nil {
		c.logger.Warn("categorical weather column not present, skipping encoding", "column", name)
		return cols, encoded
	}
	enc := NewCategoryEncoder(prefix, fallback)
	enc.Fit(col.cells)
	c.encoders = append(c.encoders, enc)

	names := enc.Columns()
	for i, vals := range enc.Encode(col.cells) {
		encoded = append(encoded, &rawColumn{name: names[i], values: vals, numeric: true})
	}
	return removeColumn(cols, name), encoded
}

func (c *Cleaner) parseTimes(cells []string) ([]time.Time, []bool) {
	times := make([]time.Time, len(cells))
	valid := make([]bool, len(cells))
	for i, s := range cells {
		s = timeJunk.Replace(strings.TrimSpace(s))
		times[i], valid[i] = workbook.ParseDayFirst(s, c.opts.Date1904)
	}
	return times, valid
}

// resample floors each valid row to its hour and averages every column over
// the bucket, ignoring missing cells. Buckets come out in ascending order.
func resample(times []time.Time, valid []bool, cols []*rawColumn) *table.Table {
	type bucket struct {
		sums   []float64
		counts []int
	}
	buckets := make(map[int64]*bucket)
	var order []time.Time
	for r, ts := range times {
		if !valid[r] {
			continue
		}
		h := ts.Truncate(time.Hour)
		b, ok := buckets[h.Unix()]
		if !ok {
			b = &bucket{sums: make([]float64, len(cols)), counts: make([]int, len(cols))}
			buckets[h.Unix()] = b
			order = append(order, h)
		}
		for j, col := range cols {
			if v := col.values[r]; !table.IsMissing(v) {
				b.sums[j] += v
				b.counts[j]++
			}
		}
	}
	slices.SortFunc(order, func(a, b time.Time) int { return a.Compare(b) })

	out := table.New(order)
	for j, col := range cols {
		vals := make([]float64, len(order))
		for i, h := range order {
			b := buckets[h.Unix()]
			if b.counts[j] == 0 {
				vals[i] = table.Missing()
				continue
			}
			vals[i] = b.sums[j] / float64(b.counts[j])
		}
		out.MustSet(col.name, table.Float, vals)
	}
	return out
}

func parseNumbers(cells []string) []float64 {
	out := make([]float64, len(cells))
	for i, s := range cells {
		v, ok := workbook.ParseNumber(s)
		if !ok {
			v = table.Missing()
		}
		out[i] = v
	}
	return out
}

// numericColumn parses cells when every non-empty one is a number.
func numericColumn(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, s := range cells {
		if strings.TrimSpace(s) == "" {
			out[i] = table.Missing()
			continue
		}
		v, ok := workbook.ParseNumber(s)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func findColumn(cols []*rawColumn, name string) *rawColumn {
	for _, c := range cols {
		if c.name == name {
			return c
		}
	}
	return nil
}

func hasColumn(cols []*rawColumn, name string) bool {
	return findColumn(cols, name) != nil
}

func removeColumn(cols []*rawColumn, name string) []*rawColumn {
	return slices.DeleteFunc(cols, func(c *rawColumn) bool { return c.name == name })
}
