package a2c

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ExplainedVariance measures how well the value predictions explain the
// empirical returns:
//
//	1 - Var(returns - values) / Var(returns)
//
// 1 is a perfect fit, 0 means the critic is no better than a constant,
// negative means it is worse. Returns NaN when the returns have zero
// variance, so callers can tell "undefined" from "bad".
func ExplainedVariance(values, returns []float32) float64 {
	if len(values) != len(returns) || len(returns) < 2 {
		return math.NaN()
	}

	y := make([]float64, len(returns))
	resid := make([]float64, len(returns))
	for i := range returns {
		y[i] = float64(returns[i])
		resid[i] = float64(returns[i]) - float64(values[i])
	}

	varY := stat.Variance(y, nil)
	if varY == 0 {
		return math.NaN()
	}
	return 1 - stat.Variance(resid, nil)/varY
}

// normalizeAdvantages standardizes a copy of the advantages to zero mean
// and unit variance. The 1e-8 floor keeps constant batches finite.
func normalizeAdvantages(adv []float32) []float32 {
	x := make([]float64, len(adv))
	for i, v := range adv {
		x[i] = float64(v)
	}
	mean, std := stat.MeanStdDev(x, nil)
	if len(adv) < 2 || math.IsNaN(std) {
		std = 0
	}

	out := make([]float32, len(adv))
	for i, v := range adv {
		out[i] = float32((float64(v) - mean) / (std + 1e-8))
	}
	return out
}
