package detector

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// ThresholdDetector finds R-peaks as the local maximum after each rising
// crossing of factor * (max - min) + min, ignoring crossings inside the
// refractory period of the previous peak.
type ThresholdDetector struct {
	factor       float64
	refractoryMs float64
}

var _ contract.PeakDetector = &ThresholdDetector{} // Compile-time check

// NewThresholdDetector creates a threshold detector.
func NewThresholdDetector(factor, refractoryMs float64) *ThresholdDetector {
	return &ThresholdDetector{factor: factor, refractoryMs: refractoryMs}
}

// Detect implements the PeakDetector interface. The algorithm selector is ignored.
func (d *ThresholdDetector) Detect(ctx context.Context, series schema.VoltageSeries, samplingRate float64, _ schema.DetectorAlgorithm) (schema.PeakIndexList, error) {
	peaks := schema.PeakIndexList{}
	if len(series) < 2 || samplingRate <= 0 {
		return peaks, nil
	}

	lo, hi := slices.Min(series), slices.Max(series)
	if lo == hi {
		return peaks, nil
	}
	threshold := lo + d.factor*(hi-lo)
	refractory := int(d.refractoryMs / 1000 * samplingRate)

	last := -refractory - 1
	for i := 1; i < len(series); i++ {
		if i%4096 == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", contract.ErrDetection, ctx.Err())
		}
		if series[i-1] >= threshold || series[i] < threshold {
			continue
		}
		// Walk to the top of this excursion
		peak := i
		for j := i + 1; j < len(series) && series[j] >= threshold; j++ {
			if series[j] > series[peak] {
				peak = j
			}
		}
		if peak-last <= refractory {
			continue
		}
		peaks = append(peaks, peak)
		last = peak
	}
	return peaks, nil
}
