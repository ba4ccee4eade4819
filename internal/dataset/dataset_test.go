package dataset

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/buildcast/internal/table"
	"github.com/lox/buildcast/internal/weather"
	"github.com/lox/buildcast/internal/workbook"
)

var start = time.Date(2023, 3, 6, 0, 0, 0, 0, time.UTC) // a Monday

func hourly(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

// weatherTable builds n hourly rows, leaving out the given hour offsets.
func weatherTable(n int, skip ...int) *table.Table {
	skipped := make(map[int]bool)
	for _, s := range skip {
		skipped[s] = true
	}
	var times []time.Time
	var temp, rh, wind []float64
	for i := 0; i < n; i++ {
		if skipped[i] {
			continue
		}
		times = append(times, start.Add(time.Duration(i)*time.Hour))
		temp = append(temp, 10+float64(i%24))
		rh = append(rh, 70)
		wind = append(wind, 3)
	}
	t := table.New(times)
	t.MustSet(weather.ColTemp, table.Float, temp)
	t.MustSet(weather.ColHumidity, table.Float, rh)
	t.MustSet(weather.ColWindSpeed, table.Float, wind)
	return t
}

func consumption(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestCalendarOf(t *testing.T) {
	sunday := time.Date(2023, 1, 1, 23, 0, 0, 0, time.UTC)
	c := CalendarOf(sunday)
	assert.Equal(t, Calendar{Hour: 23, DayOfWeek: 6, Month: 1, ISOWeek: 52}, c)
	assert.True(t, c.Weekend())

	monday := CalendarOf(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, monday.DayOfWeek)
	assert.Equal(t, 1, monday.ISOWeek)
	assert.False(t, monday.Weekend())
}

func TestCyclicalHourIsContinuousAcrossMidnight(t *testing.T) {
	dist := func(a, b int) float64 {
		return math.Hypot(math.Sin(cyclic(a, 24))-math.Sin(cyclic(b, 24)), math.Cos(cyclic(a, 24))-math.Cos(cyclic(b, 24)))
	}
	assert.Less(t, dist(23, 0), 0.3)
	assert.InDelta(t, dist(0, 1), dist(23, 0), 1e-9)
	assert.Greater(t, dist(12, 0), 1.9)
}

func TestShiftAndRollingMean(t *testing.T) {
	vals := []float64{1, 2, 3, 4}

	lagged := Shift(vals, 2)
	assert.True(t, table.IsMissing(lagged[0]))
	assert.True(t, table.IsMissing(lagged[1]))
	assert.Equal(t, []float64{1, 2}, lagged[2:])

	rolled := RollingMean(vals, 3)
	assert.True(t, table.IsMissing(rolled[1]))
	assert.InDelta(t, 2.0, rolled[2], 1e-12)
	assert.InDelta(t, 3.0, rolled[3], 1e-12)

	withGap := RollingMean([]float64{1, math.NaN(), 3, 4, 5}, 2)
	assert.True(t, table.IsMissing(withGap[2]))
	assert.InDelta(t, 4.5, withGap[4], 1e-12)
}

func TestFormulas(t *testing.T) {
	assert.InDelta(t, math.Pow(3, 0.8)*285, ProxyF(3, 10), 1e-9)
	assert.InDelta(t, 0.5*(20+61+(20-68)*1.2+50*0.094), DiscomfortIndex(20, 50), 1e-12)
}

func TestJoinKeepsOnlyCommonHours(t *testing.T) {
	b := NewBuilder(weatherTable(48, 3, 7, 40), AreaLookup{"B1": 100})
	joined := b.Join("B1", hourly(50), consumption(50))

	assert.Equal(t, 45, joined.Len())
	assert.Equal(t, []string{ColElectricity, ColArea, weather.ColTemp, weather.ColHumidity, weather.ColWindSpeed}, joined.Names())
	for i, ts := range joined.Times {
		assert.Equal(t, float64(ts.Sub(start)/time.Hour), joined.Values(ColElectricity)[i])
	}
}

func TestLagMatchesValueOneDayEarlier(t *testing.T) {
	b := NewBuilder(weatherTable(200), AreaLookup{"B1": 100})
	joined := b.Join("B1", hourly(200), consumption(200))
	AddFeatures(joined)

	kwh := joined.Values(ColElectricity)
	lag24 := joined.Values(ColLag24)
	for i := 24; i < joined.Len(); i++ {
		assert.Equal(t, kwh[i-24], lag24[i])
	}
	assert.True(t, table.IsMissing(lag24[23]))
	assert.True(t, table.IsMissing(joined.Values(ColLag168)[167]))
	assert.False(t, table.IsMissing(joined.Values(ColLag168)[168]))
}

func TestBuildTwoWeekScenario(t *testing.T) {
	const hours = 14 * 24
	misses := []int{200, 250, 251, 300, 330}
	b := NewBuilder(weatherTable(hours, misses...), AreaLookup{"B1": 250})

	ds, summary := b.Build("B1", hourly(hours), consumption(hours))

	assert.Equal(t, hours-len(misses), summary.RowsJoined)
	assert.Equal(t, hours-len(misses)-WarmUpRows, ds.Len())
	assert.Equal(t, ds.Len(), summary.RowsKept)
	assert.Equal(t, 250.0, summary.Area)
	assert.True(t, ds.Times[0].Equal(summary.First))

	for _, c := range ds.Columns() {
		for i, v := range c.Values {
			require.False(t, table.IsMissing(v), "%s row %d", c.Name, i)
		}
	}

	kwh := ds.Values(ColElectricity)
	perM2 := ds.Values(ColKWhPerM2)
	for i := range kwh {
		assert.InDelta(t, kwh[i]/250, perM2[i], 1e-12)
	}
}

func TestBuildUnknownAreaDropsEverything(t *testing.T) {
	b := NewBuilder(weatherTable(300), AreaLookup{})
	ds, summary := b.Build("ghost", hourly(300), consumption(300))

	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, 300, summary.RowsJoined)
	assert.True(t, math.IsNaN(summary.Area))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "A_B_C_dataset.csv", FileName(`A/B\C`))

	id, ok := BuildingFromFile("A_B_dataset.csv")
	assert.True(t, ok)
	assert.Equal(t, "A_B", id)

	_, ok = BuildingFromFile("notes.txt")
	assert.False(t, ok)
}

func TestCSVRoundTripKeepsKinds(t *testing.T) {
	b := NewBuilder(weatherTable(200), AreaLookup{"B1": 100})
	ds, _ := b.Build("B1", hourly(200), consumption(200))
	require.Equal(t, 32, ds.Len())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ds))

	back, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, ds.Names(), back.Names())
	require.Equal(t, ds.Len(), back.Len())
	for i := range ds.Times {
		assert.True(t, ds.Times[i].Equal(back.Times[i]))
	}

	weekend, _ := back.Column(ColIsWeekend)
	assert.Equal(t, table.Bool, weekend.Kind)
	hour, _ := back.Column(ColHour)
	assert.Equal(t, table.Int, hour.Kind)
	assert.Equal(t, ds.Values(ColHourSin), back.Values(ColHourSin))
	assert.Equal(t, ds.Values(ColTempDev), back.Values(ColTempDev))
}

func TestWriteFileHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName("empty"))
	b := NewBuilder(weatherTable(10), AreaLookup{})
	ds, _ := b.Build("empty", hourly(10), consumption(10))

	require.NoError(t, WriteFile(path, ds))
	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, back.Len())
	assert.Equal(t, ds.Names(), back.Names())
}

func TestReadRejectsMalformed(t *testing.T) {
	_, err := Read(bytes.NewBufferString("when,value\n2023-01-01 00:00:00,1\n"))
	assert.Error(t, err)

	_, err = Read(bytes.NewBufferString("Timestamp,value\n2023-01-01 00:00:00,abc\n"))
	assert.Error(t, err)
}

func TestLoadAreas(t *testing.T) {
	sheet := &workbook.Sheet{
		Name:   "Areas",
		Header: []string{DefaultAreaIDColumn, DefaultAreaValueColumn},
		Rows: [][]string{
			{"B1", "120.5"},
			{"B1", "999"},
			{"B2", "unknown"},
			{"", "5"},
		},
	}
	areas, err := LoadAreas(sheet, DefaultAreaIDColumn, DefaultAreaValueColumn)
	require.NoError(t, err)

	assert.Equal(t, 120.5, areas.Area("B1"))
	assert.True(t, math.IsNaN(areas.Area("B2")))
	assert.True(t, math.IsNaN(areas.Area("B3")))
	assert.Len(t, areas, 2)

	_, err = LoadAreas(sheet, "id", DefaultAreaValueColumn)
	assert.Error(t, err)
}
