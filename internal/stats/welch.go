// Package stats implements the two-sample significance test used to score
// assay records against their cross-target background.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInsufficientSamples is returned when a sample is too small for the
	// sample variance to be defined.
	ErrInsufficientSamples = errors.New("insufficient samples")
	// ErrUndefined is returned when the statistic cannot be computed, for
	// example when both samples have zero variance.
	ErrUndefined = errors.New("statistic undefined")
)

// TTestResult is the outcome of a two-sample t-test.
type TTestResult struct {
	T  float64
	DF float64
	P  float64
}

// WelchTTest performs a two-sided two-sample t-test without assuming equal
// variances. Each sample needs at least two observations.
func WelchTTest(a, b []float64) (TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TTestResult{}, ErrInsufficientSamples
	}

	na, nb := float64(len(a)), float64(len(b))
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)

	seA := varA / na
	seB := varB / nb
	se := seA + seB
	if se <= 0 || math.IsNaN(se) {
		return TTestResult{}, ErrUndefined
	}

	t := (meanA - meanB) / math.Sqrt(se)
	df := se * se / (seA*seA/(na-1) + seB*seB/(nb-1))
	if math.IsNaN(t) || math.IsNaN(df) || df <= 0 {
		return TTestResult{}, ErrUndefined
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	if p > 1 {
		p = 1
	}
	return TTestResult{T: t, DF: df, P: p}, nil
}

// PopStdDev returns the population (ddof=0) standard deviation of x.
// It returns 0 for fewer than two observations.
func PopStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	return math.Sqrt(variance)
}
