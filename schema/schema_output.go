package schema

// EnrichedResult adds presentation data to a PipelineResult.
type EnrichedResult struct {
	Label string  `json:"label"`
	BPM   float64 `json:"bpm"`
	PipelineResult
}

// GetPlainLabel returns a plain text label describing how complete a result is.
func GetPlainLabel(r PipelineResult) string {
	switch {
	case len(r.Series) == 0:
		return "No data"
	case r.Partial:
		return "Partial"
	default:
		return "Complete"
	}
}

// EnrichResults adds label and heart rate to a list of pipeline results.
func EnrichResults(results []PipelineResult) []EnrichedResult {
	output := make([]EnrichedResult, len(results))
	for i, r := range results {
		output[i] = EnrichedResult{
			Label:          GetPlainLabel(r),
			BPM:            r.Interval.HeartRateBPM(),
			PipelineResult: r,
		}
	}
	return output
}
