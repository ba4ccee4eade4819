package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultFileName is the textfile written into the output directory.
const DefaultFileName = "metrics.prom"

// Metrics is owned by one run. It registers with a private registry so
// several runs (and tests) can coexist in a process.
type Metrics struct {
	registry *prometheus.Registry

	WeatherRowsDropped    *prometheus.CounterVec // labels: reason={bad_timestamp,out_of_range}
	WeatherColumnsDropped prometheus.Counter
	DatasetRows           *prometheus.CounterVec // labels: stage={joined,kept}
	Buildings             *prometheus.CounterVec // labels: stage, outcome={ok,skipped}
	FitDuration           prometheus.Histogram
	LastRun               prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WeatherRowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "buildcast",
				Name:      "weather_rows_dropped_total",
				Help:      "Weather rows dropped during cleaning",
			},
			[]string{"reason"},
		),
		WeatherColumnsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "buildcast",
				Name:      "weather_columns_dropped_total",
				Help:      "Weather columns dropped for being mostly empty",
			},
		),
		DatasetRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "buildcast",
				Name:      "dataset_rows_total",
				Help:      "Building dataset rows after the weather join and after dropping incomplete rows",
			},
			[]string{"stage"},
		),
		Buildings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "buildcast",
				Name:      "buildings_total",
				Help:      "Buildings processed per stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		FitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "buildcast",
				Name:      "building_fit_seconds",
				Help:      "Time to fit and score one building model",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		LastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "buildcast",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last stage finished",
			},
		),
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes every metric in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
