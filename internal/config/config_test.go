package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().ValidateInput())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no output dir", func(c *Config) { c.OutputDir = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"blank sheet", func(c *Config) { c.WeatherSheet = " " }},
		{"negative skip", func(c *Config) { c.AreaSkip = -1 }},
		{"empty training window", func(c *Config) { c.TrainTo = c.TrainFrom }},
		{"overlap", func(c *Config) { c.TrainTo = c.ValidationFrom.Add(time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateInput(t *testing.T) {
	c := Default()
	c.InputPath = ""
	assert.NoError(t, c.Validate())
	assert.Error(t, c.ValidateInput())
}

func TestPaths(t *testing.T) {
	c := Default()
	c.OutputDir = "out"
	assert.Equal(t, filepath.Join("out", "building_datasets"), c.DatasetDir())
	assert.Equal(t, filepath.Join("out", "prediction_plots"), c.PlotDir())
	assert.Equal(t, filepath.Join("out", "building_xgboost_performance.csv"), c.ReportPath())
	assert.Equal(t, filepath.Join("out", "history.db"), c.HistoryPath())
	assert.Equal(t, filepath.Join("out", "metrics.prom"), c.MetricsPath())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
