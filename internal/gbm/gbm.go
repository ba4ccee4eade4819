// Package gbm implements gradient-boosted regression trees with histogram
// split finding and a squared-error objective.
package gbm

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrNotFitted     = errors.New("gbm: model not fitted")
	ErrShapeMismatch = errors.New("gbm: shape mismatch")
	ErrNoRows        = errors.New("gbm: no training rows")
)

// minGain is the smallest loss reduction worth a split.
const minGain = 1e-6

type Params struct {
	NumTrees       int
	MaxDepth       int
	LearningRate   float64
	Lambda         float64
	MinChildWeight float64
	MaxBins        int
	Seed           uint64
}

// DefaultParams: 100 trees of depth 6, learning rate 0.1, seed 42.
func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		MaxDepth:       6,
		LearningRate:   0.1,
		Lambda:         1,
		MinChildWeight: 1,
		MaxBins:        256,
		Seed:           42,
	}
}

func (p Params) Validate() error {
	switch {
	case p.NumTrees < 1:
		return fmt.Errorf("gbm: NumTrees must be positive, got %d", p.NumTrees)
	case p.MaxDepth < 1:
		return fmt.Errorf("gbm: MaxDepth must be positive, got %d", p.MaxDepth)
	case p.LearningRate <= 0:
		return fmt.Errorf("gbm: LearningRate must be positive, got %g", p.LearningRate)
	case p.Lambda < 0:
		return fmt.Errorf("gbm: Lambda must not be negative, got %g", p.Lambda)
	case p.MaxBins < 2 || p.MaxBins > 65535:
		return fmt.Errorf("gbm: MaxBins must be in [2, 65535], got %d", p.MaxBins)
	}
	return nil
}

type Regressor struct {
	params    Params
	base      float64
	trees     []tree
	nFeatures int
}

func New(p Params) *Regressor {
	return &Regressor{params: p}
}

// NumTrees reports how many trees the fitted ensemble holds.
func (r *Regressor) NumTrees() int { return len(r.trees) }

// Fit trains the ensemble on row-major features X and targets y.
func (r *Regressor) Fit(X [][]float64, y []float64) error {
	if err := r.params.Validate(); err != nil {
		return err
	}
	if len(X) == 0 {
		return ErrNoRows
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}
	nf := len(X[0])
	for i, row := range X {
		if len(row) != nf {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), nf)
		}
	}

	b := newBinned(X, r.params.MaxBins)
	rng := rand.New(rand.NewPCG(r.params.Seed, r.params.Seed))
	g := &grower{
		params: r.params,
		binned: b,
		order:  rng.Perm(nf),
		grad:   make([]float64, len(y)),
		hess:   make([]float64, len(y)),
	}

	r.base = stat.Mean(y, nil)
	r.nFeatures = nf
	r.trees = r.trees[:0]

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = r.base
	}
	rows := make([]int, len(y))
	for i := range rows {
		rows[i] = i
	}

	for range r.params.NumTrees {
		for i := range y {
			g.grad[i] = pred[i] - y[i]
			g.hess[i] = 1
		}
		t := g.grow(rows)
		for i, row := range X {
			pred[i] += t.predict(row)
		}
		r.trees = append(r.trees, t)
	}
	return nil
}

func (r *Regressor) Predict(X [][]float64) ([]float64, error) {
	if r.trees == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != r.nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), r.nFeatures)
		}
		v := r.base
		for _, t := range r.trees {
			v += t.predict(row)
		}
		out[i] = v
	}
	return out, nil
}

// binned is the quantized training matrix, column-major.
type binned struct {
	edges [][]float64
	bins  [][]uint16
}

func newBinned(X [][]float64, maxBins int) *binned {
	nf := len(X[0])
	b := &binned{edges: make([][]float64, nf), bins: make([][]uint16, nf)}
	col := make([]float64, len(X))
	for f := 0; f < nf; f++ {
		for i, row := range X {
			col[i] = row[f]
		}
		edges := binEdges(col, maxBins)
		bins := make([]uint16, len(X))
		for i, v := range col {
			bins[i] = uint16(binOf(edges, v))
		}
		b.edges[f] = edges
		b.bins[f] = bins
	}
	return b
}
