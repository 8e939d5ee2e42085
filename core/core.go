// Package core has core logic for accumulating, conditioning and analyzing ECG streams.
package core

import (
	"context"
	"os"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/outwriter"
	"github.com/huangsam/ecgscope/internal/publish"
	"github.com/huangsam/ecgscope/schema"
)

// ExecutorFunc defines the function signature for executing different pipeline modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteTrace runs the full-trace profile for one recording and prints the result.
// It serves as the main entry point for the 'trace' command.
func ExecuteTrace(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, duration, err := GetTraceResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteTrace(result, cfg, duration)
}

// ExecutePreviews runs the preview profile for every resolved recording and prints the outcomes.
// It serves as the main entry point for the 'preview' command.
func ExecutePreviews(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	outcomes, duration, err := GetPreviewResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePreviews(outcomes, cfg, duration)
}

// GetTraceResult runs the full-trace profile and returns the result without printing it.
// The first resolved recording is traced; with no IDs that is the newest one listed.
func GetTraceResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.PipelineResult, time.Duration, error) {
	return getTraceResult(ctx, cfg, mgr, nil)
}

func getTraceResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, obs Observer, extra ...contract.Publisher) (schema.PipelineResult, time.Duration, error) {
	start := time.Now()
	s, err := openSession(cfg)
	if err != nil {
		return schema.PipelineResult{}, 0, err
	}
	defer s.Close()

	recs, err := s.recordings(ctx)
	if err != nil {
		return schema.PipelineResult{}, 0, err
	}
	rec := recs[0]
	if !shouldSuppressHeader(ctx) {
		outwriter.LogTraceHeader(os.Stderr, cfg, rec)
	}

	p, err := s.pipeline(mgr, obs, s.publishers(mgr, extra...))
	if err != nil {
		return schema.PipelineResult{}, 0, err
	}
	result, err := p.TraceOne(ctx, rec, s.opener)
	return result, time.Since(start), err
}

// GetPreviewResults runs previews for every resolved recording and returns the
// outcomes in recording order. Individual failures are reported per outcome.
func GetPreviewResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.RunOutcome, time.Duration, error) {
	return getPreviewResults(ctx, cfg, mgr, nil, publish.NewPreviewBoard())
}

func getPreviewResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, obs Observer, extra ...contract.Publisher) ([]schema.RunOutcome, time.Duration, error) {
	start := time.Now()
	s, err := openSession(cfg)
	if err != nil {
		return nil, 0, err
	}
	defer s.Close()

	recs, err := s.recordings(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogPreviewHeader(os.Stderr, cfg, len(recs))
	}

	p, err := s.pipeline(mgr, obs, s.publishers(mgr, extra...))
	if err != nil {
		return nil, 0, err
	}
	outcomes := p.RunPreviews(ctx, recs, s.opener, cfg.Workers)
	return outcomes, time.Since(start), nil
}

// ListRecordings returns the recordings a command would run, without running them.
func ListRecordings(ctx context.Context, cfg *contract.Config) ([]schema.Recording, error) {
	s, err := openSession(cfg)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.recordings(ctx)
}
