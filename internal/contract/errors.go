package contract

import (
	"errors"
	"fmt"

	"github.com/huangsam/ecgscope/schema"
)

// ErrorClass represents the classification of errors for handling purposes.
type ErrorClass int

const (
	// ErrorTransient represents failures of an external collaborator that may succeed on retry.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration.
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors.
	ErrorFatal
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard pipeline errors.
var (
	ErrStream        = errors.New("device stream failed")
	ErrNoData        = errors.New("no data available")
	ErrDetection     = errors.New("peak detection failed")
	ErrPublish       = errors.New("publication failed")
	ErrUnknownSource = errors.New("unknown recording")
)

// RunError records which stage of a pipeline run failed for which recording.
type RunError struct {
	RecordingID string
	Profile     schema.Profile
	Stage       schema.Stage
	Err         error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s run for %q failed while %s: %v", e.Profile, e.RecordingID, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Class classifies the underlying failure.
func (e *RunError) Class() ErrorClass {
	return Classify(e.Err)
}

// Classify maps a pipeline error to its handling class.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrStream), errors.Is(err, ErrDetection), errors.Is(err, ErrPublish):
		return ErrorTransient
	case errors.Is(err, ErrUnknownSource):
		return ErrorInvalid
	default:
		return ErrorFatal
	}
}

// IsNoData reports whether a run failed because no samples were ever collected.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
