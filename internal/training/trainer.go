// Package training fits and evaluates one regression model per building
// dataset.
package training

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lox/buildcast/internal/gbm"
	"github.com/lox/buildcast/internal/table"
)

// Regressor is a model that can be fit on a feature matrix and then predict.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// RegressorFactory returns a fresh, unfitted model.
type RegressorFactory func() Regressor

// DefaultRegressor is a gradient-boosted tree ensemble with default params.
func DefaultRegressor() Regressor {
	return gbm.New(gbm.DefaultParams())
}

// Result is one building's validation outcome.
type Result struct {
	Building       string
	Features       []string
	TrainRows      int
	ValidationRows int
	Times          []time.Time
	Actual         []float64
	Predicted      []float64
	Metrics        Metrics
}

type Trainer struct {
	splitter Splitter
	newModel RegressorFactory
	logger   *slog.Logger
}

func NewTrainer(splitter Splitter, newModel RegressorFactory, logger *slog.Logger) *Trainer {
	if newModel == nil {
		newModel = DefaultRegressor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{splitter: splitter, newModel: newModel, logger: logger}
}

// Train re-derives calendar columns, splits by time, fits a fresh model on
// the training window and scores it on the validation window.
func (t *Trainer) Train(building string, ds *table.Table) (*Result, error) {
	if !ds.Has(Target) {
		return nil, fmt.Errorf("%s: no %s column", building, Target)
	}
	DeriveCalendar(ds)
	features, err := SelectFeatures(ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", building, err)
	}

	train, valid, err := t.splitter.Split(ds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", building, err)
	}

	xTrain, err := train.Matrix(features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", building, err)
	}
	xValid, err := valid.Matrix(features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", building, err)
	}

	model := t.newModel()
	if err := model.Fit(xTrain, train.Values(Target)); err != nil {
		return nil, fmt.Errorf("%s: fit: %w", building, err)
	}
	pred, err := model.Predict(xValid)
	if err != nil {
		return nil, fmt.Errorf("%s: predict: %w", building, err)
	}

	actual := valid.Values(Target)
	m := Evaluate(actual, pred)
	t.logger.Info("trained building model",
		"building", building,
		"features", len(features),
		"train_rows", train.Len(),
		"validation_rows", valid.Len(),
		"mse", m.MSE,
		"r2", m.R2,
	)

	return &Result{
		Building:       building,
		Features:       features,
		TrainRows:      train.Len(),
		ValidationRows: valid.Len(),
		Times:          valid.Times,
		Actual:         actual,
		Predicted:      pred,
		Metrics:        m,
	}, nil
}
