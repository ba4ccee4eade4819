package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lox/buildcast/internal/dataset"
	"github.com/lox/buildcast/internal/electricity"
	"github.com/lox/buildcast/internal/models"
	"github.com/lox/buildcast/internal/weather"
	"github.com/lox/buildcast/internal/workbook"
)

// inputs are the three sheets every preprocess run needs.
type inputs struct {
	readings *electricity.Readings
	weather  *workbook.Sheet
	areas    dataset.AreaLookup
	date1904 bool
}

func (p *Pipeline) readInputs() (*inputs, error) {
	wb, err := workbook.Open(p.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	elSheet, err := wb.Sheet(p.cfg.ElectricitySheet, p.cfg.ElectricitySkip)
	if err != nil {
		return nil, err
	}
	wxSheet, err := wb.Sheet(p.cfg.WeatherSheet, p.cfg.WeatherSkip)
	if err != nil {
		return nil, err
	}
	areaSheet, err := wb.Sheet(p.cfg.AreaSheet, p.cfg.AreaSkip)
	if err != nil {
		return nil, err
	}

	readings, err := electricity.Load(elSheet, wb.Date1904())
	if err != nil {
		return nil, err
	}
	areas, err := dataset.LoadAreas(areaSheet, p.cfg.AreaIDColumn, p.cfg.AreaValueColumn)
	if err != nil {
		return nil, err
	}
	return &inputs{readings: readings, weather: wxSheet, areas: areas, date1904: wb.Date1904()}, nil
}

// Preprocess cleans the weather once, then builds and writes one dataset per
// building column. Only unreadable input or an unwritable output directory
// fail the stage.
func (p *Pipeline) Preprocess(ctx context.Context) (out *Outcome, err error) {
	out = &Outcome{}
	run := p.beginRun(ctx, models.StagePreprocess)
	defer func() { p.endRun(ctx, run, out, err) }()

	in, err := p.readInputs()
	if err != nil {
		return out, fmt.Errorf("read input: %w", err)
	}

	from, to := in.readings.Range()
	cleaner := weather.NewCleaner(weather.Options{
		TimeColumn: p.cfg.WeatherTimeColumn,
		Date1904:   in.date1904,
	}, p.logger)
	wx, stats, err := cleaner.Clean(in.weather, from, to)
	if err != nil {
		return out, fmt.Errorf("clean weather: %w", err)
	}
	p.metrics.WeatherRowsDropped.WithLabelValues("bad_timestamp").Add(float64(stats.BadTimestamps))
	p.metrics.WeatherRowsDropped.WithLabelValues("out_of_range").Add(float64(stats.OutOfRangeHours))
	p.metrics.WeatherColumnsDropped.Add(float64(len(stats.DroppedColumns)))
	p.logger.Info("cleaned weather",
		"raw_rows", stats.RawRows,
		"hours", wx.Len(),
		"columns", len(wx.Names()),
		"dropped_columns", stats.DroppedColumns,
	)

	dir := p.cfg.DatasetDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return out, fmt.Errorf("create dataset dir: %w", err)
	}

	builder := dataset.NewBuilder(wx, in.areas)
	for _, building := range in.readings.Buildings() {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		ds, summary := builder.Build(building, in.readings.Times, in.readings.Values(building))
		path := filepath.Join(dir, dataset.FileName(building))
		if err := dataset.WriteFile(path, ds); err != nil {
			p.metrics.Buildings.WithLabelValues(string(models.StagePreprocess), "skipped").Inc()
			out.skip(building, fmt.Errorf("building %s: %w", building, err))
			p.logger.Error("failed to write dataset", "building", building, "error", err)
			continue
		}

		p.metrics.DatasetRows.WithLabelValues("joined").Add(float64(summary.RowsJoined))
		p.metrics.DatasetRows.WithLabelValues("kept").Add(float64(summary.RowsKept))
		p.metrics.Buildings.WithLabelValues(string(models.StagePreprocess), "ok").Inc()
		out.Processed = append(out.Processed, building)
		p.logger.Info("wrote dataset",
			"building", building,
			"rows", summary.RowsKept,
			"joined", summary.RowsJoined,
			"path", path,
		)
		p.recordDataset(ctx, run, summary)
	}
	return out, nil
}

func (p *Pipeline) recordDataset(ctx context.Context, run *models.Run, s dataset.Summary) {
	if p.store == nil || run.ID == 0 {
		return
	}
	d := models.DatasetSummary{
		RunID:      run.ID,
		Building:   s.Building,
		RowsJoined: s.RowsJoined,
		RowsKept:   s.RowsKept,
		Area:       nullFloat(s.Area),
	}
	if s.RowsKept > 0 {
		d.FirstTimestamp = sql.NullTime{Time: s.First, Valid: true}
		d.LastTimestamp = sql.NullTime{Time: s.Last, Valid: true}
	}
	if err := p.store.RecordDataset(ctx, d); err != nil {
		p.logger.Warn("failed to record dataset summary", "building", s.Building, "error", err)
	}
}
