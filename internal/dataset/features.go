package dataset

import (
	"math"

	"github.com/lox/buildcast/internal/table"
	"github.com/lox/buildcast/internal/weather"
)

// Column names of a building dataset.
const (
	ColTimestamp   = "Timestamp"
	ColElectricity = "Electricity_kWh"
	ColArea        = "Area_m2"

	ColProxyF        = "ProxyF"
	ColHour          = "hour"
	ColDayOfWeek     = "dayofweek"
	ColMonth         = "month"
	ColWeekOfYear    = "weekofyear"
	ColIsWeekend     = "is_weekend"
	ColHourSin       = "hour_sin"
	ColHourCos       = "hour_cos"
	ColMonthSin      = "month_sin"
	ColMonthCos      = "month_cos"
	ColLag1          = "lag_1"
	ColLag24         = "lag_24"
	ColLag168        = "lag_168"
	ColKWhPerM2      = "kWh_per_m2"
	ColHotDay        = "hot_day"
	ColColdDay       = "cold_day"
	ColTempRolling   = "temp_rolling_avg"
	ColTempDev       = "temp_dev"
	ColDiscomfortIdx = "discomfort_index"
)

const (
	proxyExponent = 0.8
	proxyBaseline = 295.0

	hotDayThreshold  = 25.0
	coldDayThreshold = 5.0

	rollingWindow = 24
)

// Lags are row shifts; on a gap-free hourly table they are 1 hour, 1 day
// and 1 week back.
var Lags = []struct {
	Name  string
	Shift int
}{
	{ColLag1, 1},
	{ColLag24, 24},
	{ColLag168, 168},
}

// WarmUpRows is the number of leading rows that cannot carry every lag.
const WarmUpRows = 168

// AddFeatures appends the derived feature columns to a joined table that
// already holds consumption, area and weather columns.
func AddFeatures(t *table.Table) {
	n := t.Len()
	kwh := t.Values(ColElectricity)
	area := t.Values(ColArea)
	temp := t.Values(weather.ColTemp)
	rh := t.Values(weather.ColHumidity)
	wind := t.Values(weather.ColWindSpeed)

	t.MustSet(ColProxyF, table.Float, mapIndex(n, func(i int) float64 {
		if wind == nil {
			return table.Missing()
		}
		return ProxyF(wind[i], temp[i])
	}))

	cal := make([]Calendar, n)
	for i, ts := range t.Times {
		cal[i] = CalendarOf(ts)
	}
	t.MustSet(ColHour, table.Int, mapIndex(n, func(i int) float64 { return float64(cal[i].Hour) }))
	t.MustSet(ColDayOfWeek, table.Int, mapIndex(n, func(i int) float64 { return float64(cal[i].DayOfWeek) }))
	t.MustSet(ColMonth, table.Int, mapIndex(n, func(i int) float64 { return float64(cal[i].Month) }))
	t.MustSet(ColWeekOfYear, table.Int, mapIndex(n, func(i int) float64 { return float64(cal[i].ISOWeek) }))
	t.MustSet(ColIsWeekend, table.Bool, mapIndex(n, func(i int) float64 { return table.FromBool(cal[i].Weekend()) }))

	t.MustSet(ColHourSin, table.Float, mapIndex(n, func(i int) float64 { return math.Sin(cyclic(cal[i].Hour, 24)) }))
	t.MustSet(ColHourCos, table.Float, mapIndex(n, func(i int) float64 { return math.Cos(cyclic(cal[i].Hour, 24)) }))
	t.MustSet(ColMonthSin, table.Float, mapIndex(n, func(i int) float64 { return math.Sin(cyclic(cal[i].Month, 12)) }))
	t.MustSet(ColMonthCos, table.Float, mapIndex(n, func(i int) float64 { return math.Cos(cyclic(cal[i].Month, 12)) }))

	for _, lag := range Lags {
		t.MustSet(lag.Name, table.Float, Shift(kwh, lag.Shift))
	}

	t.MustSet(ColKWhPerM2, table.Float, mapIndex(n, func(i int) float64 { return kwh[i] / area[i] }))
	t.MustSet(ColHotDay, table.Bool, mapIndex(n, func(i int) float64 { return table.FromBool(temp[i] > hotDayThreshold) }))
	t.MustSet(ColColdDay, table.Bool, mapIndex(n, func(i int) float64 { return table.FromBool(temp[i] < coldDayThreshold) }))

	rolling := RollingMean(temp, rollingWindow)
	t.MustSet(ColTempRolling, table.Float, rolling)
	t.MustSet(ColTempDev, table.Float, mapIndex(n, func(i int) float64 { return temp[i] - rolling[i] }))
	t.MustSet(ColDiscomfortIdx, table.Float, mapIndex(n, func(i int) float64 { return DiscomfortIndex(temp[i], rh[i]) }))
}

// ProxyF is a convective heat-loss proxy from wind speed and temperature.
func ProxyF(windSpeed, temp float64) float64 {
	return math.Pow(windSpeed, proxyExponent) * (proxyBaseline - temp)
}

// DiscomfortIndex is the empirical comfort index used as a feature. The
// constants are fixed and must not be retuned.
func DiscomfortIndex(temp, rh float64) float64 {
	return 0.5 * (temp + 61.0 + (temp-68.0)*1.2 + rh*0.094)
}

// Shift moves values down by n rows, filling the head with missing values.
func Shift(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i < n {
			out[i] = table.Missing()
			continue
		}
		out[i] = values[i-n]
	}
	return out
}

// RollingMean is the trailing mean over window rows. A row is missing until
// a full window of valid values is available.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i+1 < window {
			out[i] = table.Missing()
			continue
		}
		sum := 0.0
		for _, v := range values[i+1-window : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

func cyclic(v, period int) float64 {
	return 2 * math.Pi * float64(v) / float64(period)
}

func mapIndex(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}
