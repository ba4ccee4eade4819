package training

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// mapeFloor excludes near-zero actuals from the percentage error.
const mapeFloor = 0.1

type Metrics struct {
	MSE  float64
	MAE  float64
	R2   float64
	MAPE float64
}

// Evaluate scores predictions against actual values of equal length.
func Evaluate(actual, predicted []float64) Metrics {
	var se, ae float64
	for i, y := range actual {
		d := y - predicted[i]
		se += d * d
		ae += math.Abs(d)
	}
	n := float64(len(actual))
	return Metrics{
		MSE:  se / n,
		MAE:  ae / n,
		R2:   rSquared(actual, predicted, se),
		MAPE: TolerantMAPE(actual, predicted),
	}
}

// rSquared falls back to 1 for a perfect fit and 0 otherwise when the
// actual values have no variance.
func rSquared(actual, predicted []float64, se float64) float64 {
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if !math.IsNaN(r2) && !math.IsInf(r2, 0) {
		return r2
	}
	if se == 0 {
		return 1
	}
	return 0
}

// TolerantMAPE is the mean absolute percentage error over rows whose actual
// value exceeds 0.1 in magnitude. It is 0 when no row qualifies.
func TolerantMAPE(actual, predicted []float64) float64 {
	var sum float64
	var n int
	for i, y := range actual {
		if math.Abs(y) <= mapeFloor {
			continue
		}
		sum += math.Abs((y - predicted[i]) / y)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 100
}
