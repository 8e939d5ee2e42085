package outwriter

import (
	"slices"
	"strings"

	"github.com/huangsam/ecgscope/schema"
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders a series as a row of block characters at most width wide.
// Longer series are reduced by averaging consecutive buckets.
func Sparkline(series schema.VoltageSeries, width int) string {
	if len(series) == 0 || width <= 0 {
		return ""
	}

	points := series
	if len(series) > width {
		points = make(schema.VoltageSeries, width)
		for i := range width {
			lo := i * len(series) / width
			hi := (i + 1) * len(series) / width
			sum := 0.0
			for _, v := range series[lo:hi] {
				sum += v
			}
			points[i] = sum / float64(hi-lo)
		}
	}

	lo, hi := slices.Min(points), slices.Max(points)
	var b strings.Builder
	for _, v := range points {
		idx := len(sparkTicks) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkTicks)-1))
		}
		b.WriteRune(sparkTicks[idx])
	}
	return b.String()
}
