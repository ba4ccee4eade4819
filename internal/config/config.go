// Package config holds the settings of one pipeline invocation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/buildcast/internal/dataset"
	"github.com/lox/buildcast/internal/metrics"
	"github.com/lox/buildcast/internal/store"
	"github.com/lox/buildcast/internal/training"
)

// Config is populated from command-line flags; nothing is read from the
// environment.
type Config struct {
	InputPath string
	OutputDir string
	LogLevel  string

	ElectricitySheet string
	ElectricitySkip  int
	WeatherSheet     string
	WeatherSkip      int
	AreaSheet        string
	AreaSkip         int
	AreaIDColumn     string
	AreaValueColumn  string
	// WeatherTimeColumn overrides detection of the "Local time ..." header.
	WeatherTimeColumn string

	TrainFrom      time.Time
	TrainTo        time.Time
	ValidationFrom time.Time
	ValidationTo   time.Time

	ReportName string
}

// Default returns the layout of the Buildings_el.xlsx export and the 2023
// half-year split.
func Default() Config {
	return Config{
		InputPath: "Buildings_el.xlsx",
		OutputDir: ".",
		LogLevel:  "info",

		ElectricitySheet: "Electricity kWh",
		ElectricitySkip:  1,
		WeatherSheet:     "Weather archive",
		WeatherSkip:      2,
		AreaSheet:        "Areas",
		AreaSkip:         0,
		AreaIDColumn:     dataset.DefaultAreaIDColumn,
		AreaValueColumn:  dataset.DefaultAreaValueColumn,

		TrainFrom:      time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		TrainTo:        time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		ValidationFrom: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		ValidationTo:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),

		ReportName: training.DefaultReportName,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for name, v := range map[string]string{
		"electricity sheet": c.ElectricitySheet,
		"weather sheet":     c.WeatherSheet,
		"area sheet":        c.AreaSheet,
		"area id column":    c.AreaIDColumn,
		"area value column": c.AreaValueColumn,
		"report name":       c.ReportName,
	} {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	if c.ElectricitySkip < 0 || c.WeatherSkip < 0 || c.AreaSkip < 0 {
		errs = append(errs, errors.New("sheet skip counts must not be negative"))
	}
	if !c.TrainFrom.Before(c.TrainTo) {
		errs = append(errs, fmt.Errorf("training window [%s, %s) is empty", c.TrainFrom, c.TrainTo))
	}
	if !c.ValidationFrom.Before(c.ValidationTo) {
		errs = append(errs, fmt.Errorf("validation window [%s, %s) is empty", c.ValidationFrom, c.ValidationTo))
	}
	if c.TrainTo.After(c.ValidationFrom) {
		errs = append(errs, errors.New("training and validation windows overlap"))
	}
	return errors.Join(errs...)
}

// ValidateInput additionally requires an input workbook.
func (c Config) ValidateInput() error {
	if c.InputPath == "" {
		return errors.Join(errors.New("input workbook is required"), c.Validate())
	}
	return c.Validate()
}

func (c Config) DatasetDir() string { return filepath.Join(c.OutputDir, "building_datasets") }
func (c Config) PlotDir() string { return filepath.Join(c.OutputDir, "prediction_plots") }
func (c Config) ReportPath() string { return filepath.Join(c.OutputDir, c.ReportName) }
func (c Config) HistoryPath() string { return filepath.Join(c.OutputDir, store.DefaultFileName) }
func (c Config) MetricsPath() string { return filepath.Join(c.OutputDir, metrics.DefaultFileName) }

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
