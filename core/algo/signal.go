// Package algo has the pure numeric routines applied to voltage series.
package algo

import (
	"slices"

	"github.com/huangsam/ecgscope/schema"
)

// MovingAverage smooths a series with a centered window of windowSize samples.
// The window is clamped at both ends of the series, so edge samples average
// over fewer neighbors. A series no longer than windowSize is returned as is.
func MovingAverage(series schema.VoltageSeries, windowSize int) schema.VoltageSeries {
	n := len(series)
	if n <= windowSize || windowSize <= 1 {
		return series
	}

	half := windowSize / 2
	out := make(schema.VoltageSeries, n)
	for i := range series {
		lo := max(0, i-half)
		hi := min(n-1, i+half)
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += series[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// Normalize linearly maps a series onto [targetMin, targetMax].
// A flat or empty series maps to all zeros of the same length.
func Normalize(series schema.VoltageSeries, targetMin, targetMax float64) schema.VoltageSeries {
	out := make(schema.VoltageSeries, len(series))
	if len(series) == 0 {
		return out
	}

	lo, hi := slices.Min(series), slices.Max(series)
	if lo == hi {
		return out
	}

	span := hi - lo
	targetSpan := targetMax - targetMin
	for i, v := range series {
		out[i] = targetMin + (v-lo)/span*targetSpan
	}
	return out
}

// Derivative computes first differences. The first element is always 0.
// A series with fewer than two samples yields an empty result.
func Derivative(series schema.VoltageSeries) schema.VoltageSeries {
	if len(series) <= 1 {
		return schema.VoltageSeries{}
	}

	out := make(schema.VoltageSeries, len(series))
	for i := 1; i < len(series); i++ {
		out[i] = series[i] - series[i-1]
	}
	return out
}
