package gbm

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// binEdges returns ascending split candidates for one feature. With few
// distinct values every value is an edge; otherwise edges are empirical
// quantiles. The last edge is always the maximum so every training value
// falls into a bin.
func binEdges(values []float64, maxBins int) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	distinct := slices.Compact(slices.Clone(sorted))
	if len(distinct) <= maxBins {
		return distinct
	}

	edges := make([]float64, 0, maxBins)
	for i := 1; i < maxBins; i++ {
		q := stat.Quantile(float64(i)/float64(maxBins), stat.Empirical, sorted, nil)
		if len(edges) == 0 || q > edges[len(edges)-1] {
			edges = append(edges, q)
		}
	}
	if top := sorted[len(sorted)-1]; edges[len(edges)-1] < top {
		edges = append(edges, top)
	}
	return edges
}

// binOf returns the index of the first edge >= v.
func binOf(edges []float64, v float64) int {
	return sort.SearchFloat64s(edges, v)
}
