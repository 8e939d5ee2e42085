package algo

import "github.com/huangsam/ecgscope/schema"

// AnalyzeIntervals converts consecutive peak positions into RR intervals in
// milliseconds and their mean. It returns nil when fewer than two peaks exist
// or the sampling rate is not positive.
//
// Peaks are expected to be strictly increasing and within the bounds of the
// series they came from. This is not validated: out-of-order peaks produce
// zero or negative intervals.
func AnalyzeIntervals(peaks schema.PeakIndexList, samplingRate float64) *schema.IntervalStatistic {
	if len(peaks) < 2 || samplingRate <= 0 {
		return nil
	}

	intervals := make([]float64, len(peaks)-1)
	total := 0.0
	for i := 1; i < len(peaks); i++ {
		ms := float64(peaks[i]-peaks[i-1]) / samplingRate * 1000
		intervals[i-1] = ms
		total += ms
	}

	return &schema.IntervalStatistic{
		IntervalsMs: intervals,
		MeanMs:      total / float64(len(intervals)),
	}
}
