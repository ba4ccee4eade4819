package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lox/buildcast/internal/chart"
	"github.com/lox/buildcast/internal/dataset"
	"github.com/lox/buildcast/internal/models"
	"github.com/lox/buildcast/internal/training"
)

// Train fits one model per dataset file in directory order, renders its
// validation chart and writes the performance report once at the end.
func (p *Pipeline) Train(ctx context.Context) (out *Outcome, err error) {
	out = &Outcome{}
	run := p.beginRun(ctx, models.StageTrain)
	defer func() { p.endRun(ctx, run, out, err) }()

	entries, err := os.ReadDir(p.cfg.DatasetDir())
	if err != nil {
		return out, fmt.Errorf("list datasets: %w", err)
	}
	if err := os.MkdirAll(p.cfg.PlotDir(), 0755); err != nil {
		return out, fmt.Errorf("create plot dir: %w", err)
	}

	splitter := training.Splitter{
		Train:      training.Window{From: p.cfg.TrainFrom, To: p.cfg.TrainTo},
		Validation: training.Window{From: p.cfg.ValidationFrom, To: p.cfg.ValidationTo},
	}
	trainer := training.NewTrainer(splitter, p.newModel, p.logger)

	var rows []training.ReportRow
	for _, e := range entries {
		building, ok := dataset.BuildingFromFile(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res, err := p.trainOne(trainer, building, filepath.Join(p.cfg.DatasetDir(), e.Name()))
		if err != nil {
			p.metrics.Buildings.WithLabelValues(string(models.StageTrain), "skipped").Inc()
			out.skip(building, fmt.Errorf("building %s: %w", building, err))
			if errors.Is(err, training.ErrEmptySplit) {
				p.logger.Warn("skipping building", "building", building, "error", err)
			} else {
				p.logger.Error("failed to train building", "building", building, "error", err)
			}
			continue
		}

		p.metrics.Buildings.WithLabelValues(string(models.StageTrain), "ok").Inc()
		out.Processed = append(out.Processed, building)
		rows = append(rows, training.ReportRow{Building: building, Metrics: res.Metrics})
		p.recordPerformance(ctx, run, res)
	}

	if err := training.WriteReport(p.cfg.ReportPath(), rows); err != nil {
		return out, err
	}
	p.logger.Info("wrote performance report", "path", p.cfg.ReportPath(), "buildings", len(rows))
	return out, nil
}

func (p *Pipeline) trainOne(trainer *training.Trainer, building, path string) (*training.Result, error) {
	ds, err := dataset.ReadFile(path)
	if err != nil {
		return nil, err
	}

	started := p.clock.Now()
	res, err := trainer.Train(building, ds)
	if err != nil {
		return nil, err
	}
	p.metrics.FitDuration.Observe(p.clock.Since(started).Seconds())

	plot := chart.Plot{
		Title:     chart.Title(building),
		Times:     res.Times,
		Actual:    res.Actual,
		Predicted: res.Predicted,
	}
	if err := chart.WriteFile(filepath.Join(p.cfg.PlotDir(), chart.FileName(building)), plot); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return res, nil
}

func (p *Pipeline) recordPerformance(ctx context.Context, run *models.Run, res *training.Result) {
	if p.store == nil || run.ID == 0 {
		return
	}
	rec := models.PerformanceRecord{
		RunID:          run.ID,
		Building:       res.Building,
		MSE:            res.Metrics.MSE,
		MAE:            res.Metrics.MAE,
		R2:             res.Metrics.R2,
		MAPE:           res.Metrics.MAPE,
		TrainRows:      res.TrainRows,
		ValidationRows: res.ValidationRows,
	}
	if err := p.store.RecordPerformance(ctx, rec); err != nil {
		p.logger.Warn("failed to record performance", "building", res.Building, "error", err)
	}
}
