package algo

import "github.com/huangsam/ecgscope/schema"

// Downsample keeps every stride-th sample from the first maxSamples samples.
// The cap applies to the input cursor, so the output holds at most
// ceil(min(maxSamples, len(series)) / stride) values.
func Downsample(series schema.VoltageSeries, maxSamples, stride int) schema.VoltageSeries {
	if stride < 1 {
		stride = 1
	}
	limit := min(len(series), maxSamples)
	if limit <= 0 {
		return schema.VoltageSeries{}
	}

	out := make(schema.VoltageSeries, 0, (limit+stride-1)/stride)
	for i := 0; i < limit; i += stride {
		out = append(out, series[i])
	}
	return out
}
