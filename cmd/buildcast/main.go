package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/lox/buildcast/internal/config"
	"github.com/lox/buildcast/internal/metrics"
	"github.com/lox/buildcast/internal/pipeline"
	"github.com/lox/buildcast/internal/store"
)

type Globals struct {
	Out      string `help:"Output directory for datasets, plots, report, history and metrics." default:"." type:"path"`
	LogLevel string `help:"Log level." default:"info" enum:"debug,info,warn,error"`
}

type PreprocessCmd struct {
	Input string `help:"Buildings workbook (.xlsx)." default:"Buildings_el.xlsx" type:"existingfile"`
}

type TrainCmd struct{}

type RunCmd struct {
	Input string `help:"Buildings workbook (.xlsx)." default:"Buildings_el.xlsx" type:"existingfile"`
}

type CLI struct {
	Globals

	Preprocess PreprocessCmd `cmd:"" help:"Clean weather and readings and write one dataset per building."`
	Train      TrainCmd      `cmd:"" help:"Train and evaluate one model per building dataset."`
	Run        RunCmd        `cmd:"" help:"Preprocess, then train."`
}

func (c *PreprocessCmd) Run(g *Globals) error {
	return execute(g, c.Input, func(ctx context.Context, p *pipeline.Pipeline) error {
		_, err := p.Preprocess(ctx)
		return err
	})
}

func (c *TrainCmd) Run(g *Globals) error {
	return execute(g, "", func(ctx context.Context, p *pipeline.Pipeline) error {
		_, err := p.Train(ctx)
		return err
	})
}

func (c *RunCmd) Run(g *Globals) error {
	return execute(g, c.Input, func(ctx context.Context, p *pipeline.Pipeline) error {
		_, _, err := p.Run(ctx)
		return err
	})
}

// execute wires logging, history and metrics around one pipeline stage.
// Per-building failures are logged by the pipeline and do not fail the
// command.
func execute(g *Globals, input string, stage func(context.Context, *pipeline.Pipeline) error) error {
	cfg := config.Default()
	cfg.OutputDir = g.Out
	cfg.LogLevel = g.LogLevel
	cfg.InputPath = input
	validate := cfg.Validate
	if input != "" {
		validate = cfg.ValidateInput
	}
	if err := validate(); err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	opts := []pipeline.Option{}
	db, err := store.Open(cfg.HistoryPath())
	if err == nil {
		defer db.Close()
		st := store.New(db, logger)
		if err := st.Migrate(); err != nil {
			logger.Warn("run history disabled", "error", err)
		} else {
			opts = append(opts, pipeline.WithStore(st))
		}
	} else {
		logger.Warn("run history disabled", "error", err)
	}

	m := metrics.New()
	p := pipeline.New(cfg, logger, m, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stageErr := stage(ctx, p)
	if err := p.WriteMetrics(); err != nil {
		logger.Warn("failed to write metrics", "error", err)
	}
	return stageErr
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("buildcast"),
		kong.Description("Per-building electricity consumption forecasting."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
