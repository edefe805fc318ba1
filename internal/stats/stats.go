// Package stats provides the robust dispersion measures used by the
// detection pipeline: median, median absolute deviation, interquartile
// range, and coefficient of variation.
//
// Interval math operates on float64 day gaps; amount math operates on
// decimal values to avoid accumulating float error in monetary output.
package stats

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Median returns the median of the values. It returns 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// MAD returns the median absolute deviation of the values around the given
// center. MAD is less sensitive to outliers than standard deviation.
func MAD(values []float64, center float64) float64 {
	if len(values) == 0 {
		return 0
	}

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - center)
	}

	return Median(deviations)
}

// MeanStdDev returns the mean and sample standard deviation of the values.
// The standard deviation is 0 for fewer than two values.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return mean, math.Sqrt(sumSq / float64(len(values)-1))
}

// CoefficientOfVariation returns stddev/mean, or 0 when the mean is zero.
func CoefficientOfVariation(values []float64) float64 {
	mean, stdDev := MeanStdDev(values)
	if mean == 0 {
		return 0
	}
	return stdDev / mean
}

// IQR returns the interquartile range (Q3 - Q1) of the values using linear
// interpolation between adjacent ranks.
func IQR(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return quantile(sorted, 0.75) - quantile(sorted, 0.25)
}

// quantile computes the q-quantile of pre-sorted values
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))

	if lower == upper {
		return sorted[lower]
	}

	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// MedianDecimal returns the median of the decimal values. It returns zero
// for an empty slice.
func MedianDecimal(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
	}
	return sorted[mid]
}

// MADDecimal returns the median absolute deviation of the decimal values
// around the given center.
func MADDecimal(values []decimal.Decimal, center decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	deviations := make([]decimal.Decimal, len(values))
	for i, v := range values {
		deviations[i] = v.Sub(center).Abs()
	}

	return MedianDecimal(deviations)
}

// StdDevDecimal returns the sample standard deviation of the decimal values
// as a float64. Monetary output keeps the median and MAD in decimal form;
// the standard deviation is reported only as a dispersion indicator.
func StdDevDecimal(values []decimal.Decimal) float64 {
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = v.InexactFloat64()
	}

	_, stdDev := MeanStdDev(floats)
	return stdDev
}
