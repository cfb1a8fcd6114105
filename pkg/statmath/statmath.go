// Package statmath provides the numeric primitives used by the aggregation
// engine: mean, population standard deviation and z-score outlier counting.
package statmath

import (
	"errors"
	"math"
)

// ErrEmptyInput is returned by Mean when called with no values.
var ErrEmptyInput = errors.New("statmath: empty input")

// DefaultZScoreThreshold is the number of standard deviations beyond which
// a value is counted as an outlier.
const DefaultZScoreThreshold = 2.0

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// PopulationStdDev returns the population standard deviation of values,
// i.e. sqrt(sum((x-mean)^2)/n) with divisor n, not n-1. Sequences of
// length 0 or 1 have no variance and yield 0.
func PopulationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, _ := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// ZScoreOutliers counts the values whose absolute deviation from the mean
// exceeds threshold times the population standard deviation. A zero
// standard deviation (constant or near-empty series) flags nothing since
// the comparison is strictly greater-than.
func ZScoreOutliers(values []float64, threshold float64) int {
	if len(values) == 0 {
		return 0
	}
	mean, _ := Mean(values)
	std := PopulationStdDev(values)

	count := 0
	for _, v := range values {
		if math.Abs(v-mean) > threshold*std {
			count++
		}
	}
	return count
}
