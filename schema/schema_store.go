package schema

import "time"

// RunRecord represents a row from the ecg_pipeline_runs table.
type RunRecord struct {
	RunID         int64
	RecordingID   string
	Profile       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	RawSamples    int32
	OutputSamples int32
	PeakCount     int32
	MeanRRMs      *float64
	Partial       bool
	Status        string
	ErrorMessage  *string
	ConfigParams  *string
}

// PreviewRecord represents a row from the ecg_previews table.
type PreviewRecord struct {
	RecordingID string
	Series      VoltageSeries
	Version     int
	UpdatedAt   time.Time
}

// Run status values stored in the run table.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)
