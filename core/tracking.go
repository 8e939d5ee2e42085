package core

import (
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// beginRun records the start of a run when tracking is configured.
// Tracking failures only warn; they never fail the run.
func (p *Pipeline) beginRun(rec schema.Recording, profile schema.Profile, start time.Time) int64 {
	if p.Runs == nil {
		return 0
	}
	configParams := map[string]any{
		"algorithm":       string(p.Algorithm),
		"sampling_rate":   p.rateFor(rec),
		"preview_samples": p.PreviewSamples,
	}
	runID, err := p.Runs.BeginRun(rec.ID, profile, start, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	return runID
}

// finishRun records the outcome of a tracked run.
func (p *Pipeline) finishRun(runID int64, result schema.PipelineResult, runErr error) {
	if p.Runs == nil || runID <= 0 {
		return
	}
	end := time.Now()
	var err error
	if runErr != nil {
		err = p.Runs.FailRun(runID, end, runErr)
	} else {
		err = p.Runs.EndRun(runID, end, result)
	}
	if err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
