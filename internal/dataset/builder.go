// Package dataset joins one building's consumption with the hourly weather,
// derives the model features and persists the result as CSV.
package dataset

import (
	"strings"
	"time"

	"github.com/lox/buildcast/internal/table"
)

const fileSuffix = "_dataset.csv"

// Summary describes one built dataset.
type Summary struct {
	Building   string
	RowsJoined int
	RowsKept   int
	Area       float64
	First      time.Time
	Last       time.Time
}

// Builder produces building datasets against one cleaned weather table.
type Builder struct {
	weather *table.Table
	areas   AreaLookup
	rowOf   map[int64]int
}

func NewBuilder(weather *table.Table, areas AreaLookup) *Builder {
	rowOf := make(map[int64]int, weather.Len())
	for i, ts := range weather.Times {
		rowOf[ts.UnixNano()] = i
	}
	return &Builder{weather: weather, areas: areas, rowOf: rowOf}
}

// Join inner-joins the consumption series with the weather table on exact
// timestamp equality. Consumption row order is preserved and rows without a
// weather match are dropped.
func (b *Builder) Join(building string, times []time.Time, kwh []float64) *table.Table {
	var joined []time.Time
	var kwhOut []float64
	var wxRows []int
	for i, ts := range times {
		r, ok := b.rowOf[ts.UnixNano()]
		if !ok {
			continue
		}
		joined = append(joined, ts)
		kwhOut = append(kwhOut, kwh[i])
		wxRows = append(wxRows, r)
	}

	area := b.areas.Area(building)
	t := table.New(joined)
	t.MustSet(ColElectricity, table.Float, kwhOut)
	areas := make([]float64, len(joined))
	for i := range areas {
		areas[i] = area
	}
	t.MustSet(ColArea, table.Float, areas)

	for _, col := range b.weather.Columns() {
		vals := make([]float64, len(wxRows))
		for i, r := range wxRows {
			vals[i] = col.Values[r]
		}
		t.MustSet(col.Name, col.Kind, vals)
	}
	return t
}

// Build joins, derives features and drops every incomplete row.
//
// Lags are row shifts over the joined table. Where the join leaves hour gaps
// a lag points that many rows back rather than a fixed number of hours; the
// table is deliberately not reindexed onto a continuous hourly grid.
func (b *Builder) Build(building string, times []time.Time, kwh []float64) (*table.Table, Summary) {
	joined := b.Join(building, times, kwh)
	AddFeatures(joined)
	kept := joined.DropMissing()

	s := Summary{
		Building:   building,
		RowsJoined: joined.Len(),
		RowsKept:   kept.Len(),
		Area:       b.areas.Area(building),
	}
	if kept.Len() > 0 {
		s.First = kept.Times[0]
		s.Last = kept.Times[kept.Len()-1]
	}
	return kept, s
}

// FileName returns the dataset file name for a building, with path
// separators replaced.
func FileName(building string) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(building)
	return safe + fileSuffix
}

// BuildingFromFile recovers the (sanitized) building identifier from a
// dataset file name.
func BuildingFromFile(name string) (string, bool) {
	if !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	return strings.TrimSuffix(name, fileSuffix), true
}
