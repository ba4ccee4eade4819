package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Buildings.WithLabelValues("train", "ok").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Buildings.WithLabelValues("train", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Buildings.WithLabelValues("train", "ok")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.DatasetRows.WithLabelValues("joined").Add(331)
	m.DatasetRows.WithLabelValues("kept").Add(163)
	m.WeatherRowsDropped.WithLabelValues("bad_timestamp").Inc()
	m.FitDuration.Observe(0.3)
	m.LastRun.Set(1700000000)

	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, m.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `buildcast_dataset_rows_total{stage="joined"} 331`)
	assert.Contains(t, text, `buildcast_weather_rows_dropped_total{reason="bad_timestamp"} 1`)
	assert.Contains(t, text, "buildcast_building_fit_seconds_count 1")
	assert.Contains(t, text, "buildcast_last_run_timestamp_seconds 1.7e+09")
}
