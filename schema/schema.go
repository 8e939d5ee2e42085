// Package schema has models, enums and constants for all parts of ecgscope.
package schema

import "time"

// VoltageSeries is an ordered sequence of voltage samples in acquisition order.
// Index i corresponds to time i / SamplingRate seconds from the start of the recording.
type VoltageSeries []float64

// PeakIndexList holds sample indices of detected R-peaks. Produced only by a peak detector.
type PeakIndexList []int

// Recording identifies a single-lead ECG recording that can be streamed.
// SamplingRate of zero means the configured rate applies.
type Recording struct {
	ID           string    `json:"id" yaml:"id"`
	Source       string    `json:"source,omitempty" yaml:"source,omitempty"`
	SamplingRate float64   `json:"sampling_rate,omitempty" yaml:"sampling_rate,omitempty"`
	StartTime    time.Time `json:"start_time,omitzero" yaml:"start_time,omitempty"`
}

// IntervalStatistic is the per-beat RR intervals in milliseconds and their arithmetic mean.
type IntervalStatistic struct {
	IntervalsMs []float64 `json:"intervals_ms"`
	MeanMs      float64   `json:"mean_ms"`
}

// HeartRateBPM converts the mean interval to beats per minute.
func (s *IntervalStatistic) HeartRateBPM() float64 {
	if s == nil || s.MeanMs <= 0 {
		return 0
	}
	return 60000 / s.MeanMs
}

// PipelineResult is what a single pipeline run publishes.
type PipelineResult struct {
	RecordingID  string             `json:"recording_id"`
	Profile      Profile            `json:"profile"`
	Series       VoltageSeries      `json:"series"`
	Peaks        PeakIndexList      `json:"peaks,omitempty"`
	Interval     *IntervalStatistic `json:"interval,omitempty"` // nil when fewer than two peaks
	SamplingRate float64            `json:"sampling_rate"`
	RawSamples   int                `json:"raw_samples"` // Samples accumulated before conditioning
	Partial      bool               `json:"partial"`     // Stream failed after delivering some samples
	Warning      string             `json:"warning,omitempty"`
	CompletedAt  time.Time          `json:"completed_at"`
}

// DurationSeconds is the duration covered by the accumulated samples.
func (r PipelineResult) DurationSeconds() float64 {
	if r.SamplingRate <= 0 {
		return 0
	}
	return float64(r.RawSamples) / r.SamplingRate
}

// RunOutcome pairs a recording with the result or failure of its pipeline run.
type RunOutcome struct {
	Recording Recording
	Result    PipelineResult
	Err       error
}

// Failed reports whether the run ended without a result.
func (o RunOutcome) Failed() bool { return o.Err != nil }
