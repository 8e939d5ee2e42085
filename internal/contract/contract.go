// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/ecgscope/schema"
)

// Stream is a live device stream for one recording.
// Events are delivered in acquisition order. A closed channel means the
// stream finished without an explicit completion event.
type Stream interface {
	Events() <-chan schema.StreamEvent
}

// StreamOpener opens device streams by recording ID.
// This allows the pipeline to be tested without a real device or broker.
type StreamOpener interface {
	// Open starts streaming the recording. Samples flow until completion, failure or ctx is done.
	// The producer blocks on a full channel, so callers that stop reading early
	// must cancel ctx to let it exit.
	Open(ctx context.Context, rec schema.Recording) (Stream, error)

	// List returns the recordings this opener knows about, newest first.
	List(ctx context.Context) ([]schema.Recording, error)
}

// PeakDetector locates R-peaks in a conditioned series.
type PeakDetector interface {
	Detect(ctx context.Context, series schema.VoltageSeries, samplingRate float64, algorithm schema.DetectorAlgorithm) (schema.PeakIndexList, error)
}

// Publisher delivers a finished PipelineResult to the presentation layer.
type Publisher interface {
	Publish(ctx context.Context, result schema.PipelineResult) error
}

// CommandRunner executes an external program with stdin and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// StoreManager defines the interface for managing persistence stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetPreviewStore() PreviewStore
	GetRunStore() RunStore
}

// PreviewStore persists the latest preview series per recording.
type PreviewStore interface {
	Get(recordingID string) ([]byte, int, int64, error)
	Set(recordingID string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.PreviewStatus, error)
	Close() error
}

// RunStore defines the interface for tracking pipeline runs.
type RunStore interface {
	// BeginRun creates a new run row and returns its unique ID
	BeginRun(recordingID string, profile schema.Profile, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, result schema.PipelineResult) error

	// FailRun marks the run as failed with the error message
	FailRun(runID int64, endTime time.Time, runErr error) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves every tracked run ordered by run ID
	GetAllRuns() ([]schema.RunRecord, error)

	// Close closes the underlying connection
	Close() error
}
