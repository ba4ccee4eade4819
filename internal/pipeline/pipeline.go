// Package pipeline runs the preprocess and train stages over a workbook and
// an output directory, isolating failures per building.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"

	"github.com/lox/buildcast/internal/config"
	"github.com/lox/buildcast/internal/metrics"
	"github.com/lox/buildcast/internal/models"
	"github.com/lox/buildcast/internal/store"
	"github.com/lox/buildcast/internal/training"
)

type Pipeline struct {
	cfg      config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	store    *store.Store
	clock    clockwork.Clock
	newModel training.RegressorFactory
}

type Option func(*Pipeline)

// WithStore records runs and per-building results in the history database.
func WithStore(s *store.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithRegressor replaces the default gradient-boosted model.
func WithRegressor(f training.RegressorFactory) Option {
	return func(p *Pipeline) { p.newModel = f }
}

func New(cfg config.Config, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		clock:    clockwork.NewRealClock(),
		newModel: training.DefaultRegressor,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Outcome summarises one stage. Err aggregates the per-building failures
// that were skipped; it never includes a fatal error.
type Outcome struct {
	Processed []string
	Skipped   []string
	Err       error
}

func (o *Outcome) skip(building string, err error) {
	o.Skipped = append(o.Skipped, building)
	o.Err = multierror.Append(o.Err, err)
}

// beginRun records the start of a stage. History failures are logged only.
func (p *Pipeline) beginRun(ctx context.Context, stage models.Stage) *models.Run {
	run := &models.Run{
		Stage:     stage,
		StartedAt: p.clock.Now(),
		OutputDir: p.cfg.OutputDir,
	}
	if stage == models.StagePreprocess {
		run.InputPath = p.cfg.InputPath
	}
	if p.store == nil {
		return run
	}
	if err := p.store.StartRun(ctx, run); err != nil {
		p.logger.Warn("failed to record run start", "stage", stage, "error", err)
	}
	return run
}

func (p *Pipeline) endRun(ctx context.Context, run *models.Run, out *Outcome, fatal error) {
	now := p.clock.Now()
	run.FinishedAt = sql.NullTime{Time: now.UTC(), Valid: true}
	run.Status = models.RunSucceeded
	if out != nil {
		run.Processed = len(out.Processed)
		run.Skipped = len(out.Skipped)
	}
	if fatal != nil {
		run.Status = models.RunFailed
		run.ErrorMessage = sql.NullString{String: fatal.Error(), Valid: true}
	}
	p.metrics.LastRun.Set(float64(now.Unix()))

	if p.store != nil && run.ID != 0 {
		if err := p.store.FinishRun(ctx, run); err != nil {
			p.logger.Warn("failed to record run finish", "stage", run.Stage, "error", err)
		}
	}
	if out != nil && out.Err != nil {
		p.logger.Warn("some buildings were skipped",
			"stage", run.Stage,
			"skipped", len(out.Skipped),
			"error", out.Err,
		)
	}
}

// Run executes preprocess followed by train.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, *Outcome, error) {
	pre, err := p.Preprocess(ctx)
	if err != nil {
		return pre, nil, err
	}
	tr, err := p.Train(ctx)
	return pre, tr, err
}

// WriteMetrics writes the run's metrics textfile into the output directory.
func (p *Pipeline) WriteMetrics() error {
	if err := p.metrics.WriteTextfile(p.cfg.MetricsPath()); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
