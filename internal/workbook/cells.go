package workbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Excel serials below this are not plausible meter or weather timestamps
// (1954-10-08); it keeps small plain numbers from being read as dates.
const minSerial = 20000

var dayFirstLayouts = []string{
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2.1.2006",
	"2/1/2006",
	"2006-01-02",
}

var monthFirstLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"1-2-06 15:04",
	"2006-01-02",
	"1/2/2006",
}

// ParseNumber parses a numeric cell. Empty and non-numeric cells report false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDayFirst parses a weather-archive timestamp such as "01.01.2023 00:00".
func ParseDayFirst(s string, date1904 bool) (time.Time, bool) {
	return parseTime(s, dayFirstLayouts, date1904)
}

// ParseTime parses a timestamp without a known format, trying ISO and
// month-first layouts.
func ParseTime(s string, date1904 bool) (time.Time, bool) {
	return parseTime(s, monthFirstLayouts, date1904)
}

func parseTime(s string, layouts []string, date1904 bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if v, ok := ParseNumber(s); ok {
		return serialToTime(v, date1904)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func serialToTime(v float64, date1904 bool) (time.Time, bool) {
	if v < minSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, date1904)
	if err != nil {
		return time.Time{}, false
	}
	// Serials carry float noise (44927.041666666664); snap to the second.
	return t.UTC().Round(time.Second), true
}
