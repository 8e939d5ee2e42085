// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteTrace prints a full-trace result using the configured output format.
func (ow *OutWriter) WriteTrace(result schema.PipelineResult, cfg *contract.Config, duration time.Duration) error {
	return WriteTraceResult(result, cfg, duration)
}

// WritePreviews prints preview outcomes using the configured output format.
func (ow *OutWriter) WritePreviews(outcomes []schema.RunOutcome, cfg *contract.Config, duration time.Duration) error {
	return WritePreviewResults(outcomes, cfg, duration)
}
