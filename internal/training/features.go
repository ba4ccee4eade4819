package training

import (
	"errors"

	"github.com/lox/buildcast/internal/dataset"
	"github.com/lox/buildcast/internal/table"
)

var ErrNoFeatures = errors.New("no numeric feature columns")

// Target is the predicted column.
const Target = dataset.ColElectricity

var excluded = map[string]bool{
	dataset.ColElectricity: true,
	dataset.ColArea:        true,
	dataset.ColHour:        true,
	dataset.ColDayOfWeek:   true,
	dataset.ColMonth:       true,
}

var calendarColumns = []string{dataset.ColHour, dataset.ColDayOfWeek, dataset.ColMonth}

// DeriveCalendar recomputes hour, day of week and month from the row
// timestamps, replacing whatever the dataset file carried.
func DeriveCalendar(ds *table.Table) {
	n := ds.Len()
	hour, dow, month := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, ts := range ds.Times {
		c := dataset.CalendarOf(ts)
		hour[i] = float64(c.Hour)
		dow[i] = float64(c.DayOfWeek)
		month[i] = float64(c.Month)
	}
	ds.MustSet(dataset.ColHour, table.Int, hour)
	ds.MustSet(dataset.ColDayOfWeek, table.Int, dow)
	ds.MustSet(dataset.ColMonth, table.Int, month)
}

// SelectFeatures returns every int or float column except the target, the
// area and the calendar columns, followed by hour, dayofweek and month.
func SelectFeatures(ds *table.Table) ([]string, error) {
	var names []string
	for _, c := range ds.Columns() {
		if c.Kind.Numeric() && !excluded[c.Name] {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoFeatures
	}
	return append(names, calendarColumns...), nil
}
