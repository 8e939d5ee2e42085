package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/ecgscope/core/agg"
	"github.com/huangsam/ecgscope/core/algo"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// Observer is notified as runs move through the pipeline stages.
type Observer interface {
	OnStage(recordingID string, profile schema.Profile, stage schema.Stage)
	OnRunDone(profile schema.Profile, result schema.PipelineResult, err error, elapsed time.Duration)
}

// sampleCounter is implemented by observers that count samples while they arrive.
type sampleCounter interface {
	SampleCollector() *agg.Collector
}

// Pipeline runs the collect, condition, detect, analyze and publish stages
// for a single recording. A Pipeline holds no per-run state and may be
// shared by concurrent runs.
type Pipeline struct {
	Detector       contract.PeakDetector
	Publisher      contract.Publisher
	Observer       Observer          // Optional
	Runs           contract.RunStore // Optional run tracking
	Algorithm      schema.DetectorAlgorithm
	SamplingRate   float64
	PreviewSamples int
	FullChain      algo.Transform
	PreviewChain   algo.Transform
}

// NewPipeline builds a pipeline from the validated config.
func NewPipeline(cfg *contract.Config, detector contract.PeakDetector, publisher contract.Publisher) (*Pipeline, error) {
	params := transformParams(cfg)
	full, err := algo.BuildChain(cfg.FullTransforms, params)
	if err != nil {
		return nil, err
	}
	preview, err := algo.BuildChain([]schema.TransformName{schema.DownsampleTransform}, params)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Detector:       detector,
		Publisher:      publisher,
		Algorithm:      cfg.Detector,
		SamplingRate:   cfg.SamplingRate,
		PreviewSamples: cfg.PreviewSamples,
		FullChain:      full,
		PreviewChain:   preview,
	}, nil
}

// transformParams maps the config onto conditioning tunables.
func transformParams(cfg *contract.Config) algo.TransformParams {
	return algo.TransformParams{
		WindowSize:     cfg.WindowSize,
		NormalizeMin:   cfg.NormalizeMin,
		NormalizeMax:   cfg.NormalizeMax,
		PreviewSamples: cfg.PreviewSamples,
		PreviewStride:  cfg.PreviewStride,
	}
}

// RunFull accumulates the whole recording, conditions it, detects peaks once
// and computes RR intervals before publishing.
func (p *Pipeline) RunFull(ctx context.Context, rec schema.Recording, stream contract.Stream) (schema.PipelineResult, error) {
	return p.run(ctx, rec, stream, schema.FullProfile)
}

// RunPreview accumulates at most PreviewSamples samples, downsamples them and
// publishes without detection or interval analysis.
// It stops reading at the cap; cancel the stream's ctx afterwards.
func (p *Pipeline) RunPreview(ctx context.Context, rec schema.Recording, stream contract.Stream) (schema.PipelineResult, error) {
	return p.run(ctx, rec, stream, schema.PreviewProfile)
}

func (p *Pipeline) run(ctx context.Context, rec schema.Recording, stream contract.Stream, profile schema.Profile) (result schema.PipelineResult, err error) {
	start := time.Now()
	rate := p.rateFor(rec)
	runID := p.beginRun(rec, profile, start)

	defer func() {
		p.finishRun(runID, result, err)
		if p.Observer != nil {
			p.Observer.OnRunDone(profile, result, err, time.Since(start))
		}
	}()

	// --- Collecting ---
	p.enter(rec.ID, profile, schema.StageCollecting)
	stopAfter := 0
	if profile == schema.PreviewProfile {
		stopAfter = p.PreviewSamples
	}
	var collector *agg.Collector
	if sc, ok := p.Observer.(sampleCounter); ok {
		collector = sc.SampleCollector()
	}
	raw, streamErr := agg.AccumulateInto(ctx, stream, stopAfter, collector)
	if streamErr != nil && len(raw) == 0 {
		return schema.PipelineResult{}, p.fail(rec.ID, profile, schema.StageCollecting, fmt.Errorf("%w: %w", contract.ErrNoData, streamErr))
	}

	result = schema.PipelineResult{
		RecordingID:  rec.ID,
		Profile:      profile,
		SamplingRate: rate,
		RawSamples:   len(raw),
	}
	if streamErr != nil {
		result.Partial = true
		result.Warning = streamErr.Error()
	}

	// --- Conditioning ---
	p.enter(rec.ID, profile, schema.StageConditioning)
	chain := p.FullChain
	if profile == schema.PreviewProfile {
		chain = p.PreviewChain
	}
	if chain == nil {
		chain = algo.Chain()
	}
	result.Series = chain(raw)

	if profile == schema.FullProfile {
		// --- Detecting ---
		p.enter(rec.ID, profile, schema.StageDetecting)
		peaks, detectErr := p.Detector.Detect(ctx, result.Series, rate, p.Algorithm)
		if detectErr != nil {
			if !errors.Is(detectErr, contract.ErrDetection) {
				detectErr = fmt.Errorf("%w: %w", contract.ErrDetection, detectErr)
			}
			return schema.PipelineResult{}, p.fail(rec.ID, profile, schema.StageDetecting, detectErr)
		}
		result.Peaks = peaks

		// --- Analyzing ---
		p.enter(rec.ID, profile, schema.StageAnalyzing)
		result.Interval = algo.AnalyzeIntervals(peaks, rate)
	}

	// --- Publishing ---
	p.enter(rec.ID, profile, schema.StagePublishing)
	result.CompletedAt = time.Now()
	if p.Publisher != nil {
		if pubErr := p.Publisher.Publish(ctx, result); pubErr != nil {
			return schema.PipelineResult{}, p.fail(rec.ID, profile, schema.StagePublishing, fmt.Errorf("%w: %w", contract.ErrPublish, pubErr))
		}
	}
	return result, nil
}

func (p *Pipeline) rateFor(rec schema.Recording) float64 {
	if rec.SamplingRate > 0 {
		return rec.SamplingRate
	}
	if p.SamplingRate > 0 {
		return p.SamplingRate
	}
	return schema.DefaultSamplingRate
}

func (p *Pipeline) enter(recordingID string, profile schema.Profile, stage schema.Stage) {
	if p.Observer != nil {
		p.Observer.OnStage(recordingID, profile, stage)
	}
}

func (p *Pipeline) fail(recordingID string, profile schema.Profile, stage schema.Stage, err error) error {
	p.enter(recordingID, profile, schema.StageFailed)
	return &contract.RunError{RecordingID: recordingID, Profile: profile, Stage: stage, Err: err}
}

// abort fails a run whose stream could not be opened. The run is still tracked
// so failed opens show up in the run history.
func (p *Pipeline) abort(rec schema.Recording, profile schema.Profile, err error) error {
	start := time.Now()
	runID := p.beginRun(rec, profile, start)
	runErr := p.fail(rec.ID, profile, schema.StageCollecting, err)
	p.finishRun(runID, schema.PipelineResult{}, runErr)
	if p.Observer != nil {
		p.Observer.OnRunDone(profile, schema.PipelineResult{RecordingID: rec.ID, Profile: profile}, runErr, 0)
	}
	return runErr
}
