package training

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/buildcast/internal/dataset"
	"github.com/lox/buildcast/internal/table"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func at(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

// yearDataset covers 2023 every three hours. Consumption depends on the
// temperature and the hour of day; temperature cycles every 17 days so
// both windows see the same range.
func yearDataset() *table.Table {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var times []time.Time
	for ts := start; ts.Year() == 2023; ts = ts.Add(3 * time.Hour) {
		times = append(times, ts)
	}
	n := len(times)
	kwh, area, temp, weekend := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, ts := range times {
		day := float64(ts.YearDay())
		temp[i] = 8 + 12*math.Sin(2*math.Pi*day/17)
		load := 20.0
		if ts.Hour() >= 9 && ts.Hour() <= 18 {
			load = 45
		}
		kwh[i] = load + 1.5*math.Abs(temp[i]-18)
		area[i] = 500
		weekend[i] = table.FromBool(dataset.CalendarOf(ts).Weekend())
	}
	ds := table.New(times)
	ds.MustSet(dataset.ColElectricity, table.Float, kwh)
	ds.MustSet(dataset.ColArea, table.Float, area)
	ds.MustSet("T", table.Float, temp)
	ds.MustSet(dataset.ColIsWeekend, table.Bool, weekend)
	return ds
}

func TestSplitDefaultWindows(t *testing.T) {
	times := []time.Time{
		at("2022-12-31 23:00:00"),
		at("2023-01-01 00:00:00"),
		at("2023-06-30 23:00:00"),
		at("2023-07-01 00:00:00"),
		at("2023-12-31 23:00:00"),
		at("2024-01-01 00:00:00"),
	}
	ds := table.New(times)
	ds.MustSet("v", table.Float, []float64{0, 1, 2, 3, 4, 5})

	train, valid, err := DefaultSplitter().Split(ds)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, train.Values("v"))
	assert.Equal(t, []float64{3, 4}, valid.Values("v"))
}

func TestSplitEmptyWindow(t *testing.T) {
	ds := table.New([]time.Time{at("2023-02-01 00:00:00")})
	ds.MustSet("v", table.Float, []float64{1})

	_, _, err := DefaultSplitter().Split(ds)
	assert.ErrorIs(t, err, ErrEmptySplit)
}

func TestSelectFeatures(t *testing.T) {
	ds := table.New([]time.Time{at("2023-03-05 14:00:00")})
	ds.MustSet(dataset.ColElectricity, table.Float, []float64{1})
	ds.MustSet(dataset.ColArea, table.Float, []float64{100})
	ds.MustSet("T", table.Float, []float64{4})
	ds.MustSet(dataset.ColHour, table.Int, []float64{99})
	ds.MustSet(dataset.ColIsWeekend, table.Bool, []float64{1})
	ds.MustSet(dataset.ColLag1, table.Float, []float64{2})

	DeriveCalendar(ds)
	assert.Equal(t, []float64{14}, ds.Values(dataset.ColHour))
	assert.Equal(t, []float64{6}, ds.Values(dataset.ColDayOfWeek))
	assert.Equal(t, []float64{3}, ds.Values(dataset.ColMonth))

	names, err := SelectFeatures(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"T", dataset.ColLag1, dataset.ColHour, dataset.ColDayOfWeek, dataset.ColMonth}, names)
}

func TestSelectFeaturesNone(t *testing.T) {
	ds := table.New([]time.Time{at("2023-03-05 14:00:00")})
	ds.MustSet(dataset.ColElectricity, table.Float, []float64{1})
	ds.MustSet(dataset.ColIsWeekend, table.Bool, []float64{1})
	DeriveCalendar(ds)

	_, err := SelectFeatures(ds)
	assert.ErrorIs(t, err, ErrNoFeatures)
}

func TestEvaluate(t *testing.T) {
	m := Evaluate([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 5})
	assert.InDelta(t, 0.25, m.MSE, 1e-12)
	assert.InDelta(t, 0.25, m.MAE, 1e-12)
	assert.InDelta(t, 0.8, m.R2, 1e-12)
	assert.InDelta(t, 6.25, m.MAPE, 1e-12)
}

func TestEvaluateConstantActual(t *testing.T) {
	assert.Equal(t, 1.0, Evaluate([]float64{3, 3}, []float64{3, 3}).R2)
	assert.Equal(t, 0.0, Evaluate([]float64{3, 3}, []float64{2, 4}).R2)
}

func TestTolerantMAPE(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
		want      float64
	}{
		{"skips small actuals", []float64{0, 0.05, 2}, []float64{1, 1, 1}, 50},
		{"threshold is exclusive", []float64{0.1, -4}, []float64{5, -2}, 50},
		{"no qualifying rows", []float64{0, 0.1, -0.1}, []float64{1, 1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TolerantMAPE(tt.actual, tt.predicted), 1e-12)
		})
	}
}

type meanModel struct{ mean float64 }

func (m *meanModel) Fit(X [][]float64, y []float64) error {
	for _, v := range y {
		m.mean += v
	}
	m.mean /= float64(len(y))
	return nil
}

func (m *meanModel) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

func TestTrainerWithStubModel(t *testing.T) {
	trainer := NewTrainer(DefaultSplitter(), func() Regressor { return &meanModel{} }, quietLogger())
	res, err := trainer.Train("B1", yearDataset())
	require.NoError(t, err)

	assert.Equal(t, "B1", res.Building)
	assert.Equal(t, []string{"T", dataset.ColHour, dataset.ColDayOfWeek, dataset.ColMonth}, res.Features)
	assert.Equal(t, 181*8, res.TrainRows)
	assert.Equal(t, 184*8, res.ValidationRows)
	assert.Len(t, res.Predicted, res.ValidationRows)
	assert.Len(t, res.Times, res.ValidationRows)
	assert.True(t, res.Times[0].Equal(at("2023-07-01 00:00:00")))
	assert.Less(t, res.Metrics.R2, 0.1)
}

func TestTrainerWithBoostedTrees(t *testing.T) {
	trainer := NewTrainer(DefaultSplitter(), nil, quietLogger())
	res, err := trainer.Train("B1", yearDataset())
	require.NoError(t, err)

	assert.Greater(t, res.Metrics.R2, 0.9)
	assert.Less(t, res.Metrics.MAPE, 10.0)
}

func TestTrainerSkipsEmptySplit(t *testing.T) {
	ds := yearDataset().Between(at("2023-01-01 00:00:00"), at("2023-07-01 00:00:00"))
	_, err := NewTrainer(DefaultSplitter(), nil, quietLogger()).Train("B1", ds)
	assert.ErrorIs(t, err, ErrEmptySplit)
}

func TestReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultReportName)
	rows := []ReportRow{
		{Building: "0042", Metrics: Metrics{MSE: 1.23456, MAE: 0.98766, R2: 0.987654, MAPE: 12.3449}},
		{Building: "B7", Metrics: Metrics{MSE: 10, MAE: 2.5, R2: -0.00001, MAPE: 0}},
	}
	require.NoError(t, WriteReport(path, rows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Building,MSE,MAE,R2,MAPE (%)", lines[0])
	assert.Equal(t, "0042,1.23,0.99,0.9877,12.34", lines[1])
	assert.Equal(t, "B7,10,2.5,0,0", lines[2])

	back, err := ReadReport(path)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "0042", back[0].Building)
	assert.Equal(t, 0.9877, back[0].R2)
	assert.Equal(t, 2.5, back[1].MAE)
}

func TestReportHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultReportName)
	require.NoError(t, WriteReport(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Building,MSE,MAE,R2,MAPE (%)", strings.TrimSpace(string(raw)))
}
