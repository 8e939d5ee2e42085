package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/ecgscope/core/agg"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/stream"
	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pipelineConfig() *contract.Config {
	return &contract.Config{
		SamplingRate:   schema.DefaultSamplingRate,
		WindowSize:     schema.DefaultWindowSize,
		NormalizeMin:   schema.DefaultNormalizeMin,
		NormalizeMax:   schema.DefaultNormalizeMax,
		PreviewSamples: schema.DefaultPreviewSamples,
		PreviewStride:  schema.DefaultPreviewStride,
		FullTransforms: schema.DefaultFullTransforms,
		Detector:       schema.ThresholdAlgorithm,
		Workers:        2,
	}
}

func constant(n int, v float64) schema.VoltageSeries {
	s := make(schema.VoltageSeries, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func newTestPipeline(t *testing.T, det contract.PeakDetector, pub contract.Publisher) *Pipeline {
	t.Helper()
	p, err := NewPipeline(pipelineConfig(), det, pub)
	require.NoError(t, err)
	return p
}

// stageRecorder captures observer callbacks.
type stageRecorder struct {
	mu      sync.Mutex
	stages  []schema.Stage
	done    []error
	samples agg.Collector
}

func (r *stageRecorder) SampleCollector() *agg.Collector { return &r.samples }

func (r *stageRecorder) OnStage(_ string, _ schema.Profile, stage schema.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *stageRecorder) OnRunDone(_ schema.Profile, _ schema.PipelineResult, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, err)
}

func TestRunFull(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	det.On("Detect", mock.Anything, mock.AnythingOfType("schema.VoltageSeries"), 512.0, schema.ThresholdAlgorithm).
		Return(schema.PeakIndexList{100, 612, 1124}, nil)
	pub.On("Publish", mock.Anything, mock.AnythingOfType("schema.PipelineResult")).Return(nil)

	obs := &stageRecorder{}
	p := newTestPipeline(t, det, pub)
	p.Observer = obs

	rec := schema.Recording{ID: "r1"}
	result, err := p.RunFull(context.Background(), rec, stream.NewSeriesStream(constant(2000, 0.5), nil))
	require.NoError(t, err)

	assert.Equal(t, "r1", result.RecordingID)
	assert.Equal(t, schema.FullProfile, result.Profile)
	assert.Equal(t, 2000, result.RawSamples)
	assert.Len(t, result.Series, 2000)
	assert.InDelta(t, 0.5, result.Series[1000], 1e-12)
	assert.False(t, result.Partial)
	require.NotNil(t, result.Interval)
	assert.Equal(t, []float64{1000, 1000}, result.Interval.IntervalsMs)
	assert.InDelta(t, 1000.0, result.Interval.MeanMs, 1e-9)
	assert.False(t, result.CompletedAt.IsZero())

	assert.Equal(t, []schema.Stage{
		schema.StageCollecting,
		schema.StageConditioning,
		schema.StageDetecting,
		schema.StageAnalyzing,
		schema.StagePublishing,
	}, obs.stages)
	assert.Equal(t, []error{nil}, obs.done)
	assert.Equal(t, int64(2000), obs.samples.Count())

	det.AssertNumberOfCalls(t, "Detect", 1)
	pub.AssertExpectations(t)
}

func TestRunFullSmoothsBeforeDetection(t *testing.T) {
	raw := schema.VoltageSeries{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	smoothed := schema.VoltageSeries{2, 2.5, 3, 4, 5, 6, 7, 8, 8.5, 9}

	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	det.On("Detect", mock.Anything, smoothed, 512.0, schema.ThresholdAlgorithm).
		Return(schema.PeakIndexList{2, 7}, nil)
	pub.On("Publish", mock.Anything, mock.AnythingOfType("schema.PipelineResult")).Return(nil)

	p := newTestPipeline(t, det, pub)
	result, err := p.RunFull(context.Background(), schema.Recording{ID: "ramp"}, stream.NewSeriesStream(raw, nil))
	require.NoError(t, err)

	assert.Equal(t, 10, result.RawSamples)
	assert.Equal(t, 2.0, result.Series[0])
	assert.Equal(t, 9.0, result.Series[9])
	assert.Equal(t, smoothed, result.Series)
	require.NotNil(t, result.Interval)
	assert.InDelta(t, 9.765625, result.Interval.MeanMs, 1e-9)
	det.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRunFullSinglePeak(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	det.On("Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(schema.PeakIndexList{40}, nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	p := newTestPipeline(t, det, pub)
	result, err := p.RunFull(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(100, 1), nil))
	require.NoError(t, err)
	assert.Equal(t, schema.PeakIndexList{40}, result.Peaks)
	assert.Nil(t, result.Interval)
}

func TestRunPreview(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(r schema.PipelineResult) bool {
		return r.Profile == schema.PreviewProfile && len(r.Series) == 384
	})).Return(nil)

	p := newTestPipeline(t, det, pub)
	result, err := p.RunPreview(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(2000, 0.25), nil))
	require.NoError(t, err)

	assert.Equal(t, 1536, result.RawSamples)
	assert.Len(t, result.Series, 384)
	assert.Empty(t, result.Peaks)
	assert.Nil(t, result.Interval)
	det.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	pub.AssertExpectations(t)
}

func TestRunPreviewShortRecording(t *testing.T) {
	pub := &contract.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	p := newTestPipeline(t, &contract.MockPeakDetector{}, pub)
	result, err := p.RunPreview(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(10, 1), nil))
	require.NoError(t, err)
	assert.Equal(t, 10, result.RawSamples)
	assert.Len(t, result.Series, 3) // indices 0, 4, 8
}

func TestRunPartialStream(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	det.On("Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(schema.PeakIndexList{}, nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(r schema.PipelineResult) bool { return r.Partial })).Return(nil)

	p := newTestPipeline(t, det, pub)
	result, err := p.RunFull(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(100, 1), errors.New("link lost")))
	require.NoError(t, err)

	assert.True(t, result.Partial)
	assert.Equal(t, 100, result.RawSamples)
	assert.Contains(t, result.Warning, "link lost")
	pub.AssertExpectations(t)
}

func TestRunNoData(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	obs := &stageRecorder{}

	p := newTestPipeline(t, det, pub)
	p.Observer = obs

	_, err := p.RunFull(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(nil, errors.New("device offline")))
	require.Error(t, err)

	var runErr *contract.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, schema.StageCollecting, runErr.Stage)
	assert.Equal(t, "r1", runErr.RecordingID)
	assert.ErrorIs(t, err, contract.ErrNoData)
	assert.ErrorIs(t, err, contract.ErrStream)
	assert.True(t, contract.IsNoData(err))

	assert.Equal(t, schema.StageFailed, obs.stages[len(obs.stages)-1])
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	det.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunEmptyCompletedStream(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	det.On("Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(schema.PeakIndexList{}, nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	p := newTestPipeline(t, det, pub)
	result, err := p.RunFull(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, result.Series)
	assert.Equal(t, "No data", schema.GetPlainLabel(result))
}

func TestRunDetectionFailure(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	det.On("Detect", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	p := newTestPipeline(t, det, pub)
	_, err := p.RunFull(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(50, 1), nil))
	require.Error(t, err)

	var runErr *contract.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, schema.StageDetecting, runErr.Stage)
	assert.ErrorIs(t, err, contract.ErrDetection)
	assert.Equal(t, contract.ErrorTransient, runErr.Class())
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRunPublishFailure(t *testing.T) {
	pub := &contract.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("board closed"))

	p := newTestPipeline(t, &contract.MockPeakDetector{}, pub)
	_, err := p.RunPreview(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(50, 1), nil))
	require.Error(t, err)

	var runErr *contract.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, schema.StagePublishing, runErr.Stage)
	assert.ErrorIs(t, err, contract.ErrPublish)
}

func TestRunUsesRecordingRate(t *testing.T) {
	det := &contract.MockPeakDetector{}
	pub := &contract.MockPublisher{}
	det.On("Detect", mock.Anything, mock.Anything, 250.0, mock.Anything).Return(schema.PeakIndexList{0, 250}, nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	p := newTestPipeline(t, det, pub)
	rec := schema.Recording{ID: "r1", SamplingRate: 250}
	result, err := p.RunFull(context.Background(), rec, stream.NewSeriesStream(constant(300, 1), nil))
	require.NoError(t, err)
	assert.InDelta(t, 250.0, result.SamplingRate, 1e-12)
	assert.InDelta(t, 1000.0, result.Interval.MeanMs, 1e-9)
}

func TestNewPipelineUnknownTransform(t *testing.T) {
	cfg := pipelineConfig()
	cfg.FullTransforms = []schema.TransformName{"sharpen"}
	_, err := NewPipeline(cfg, &contract.MockPeakDetector{}, &contract.MockPublisher{})
	assert.Error(t, err)
}

func TestRunPreviews(t *testing.T) {
	pub := &contract.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	opener := &contract.MockStreamOpener{}

	recs := []schema.Recording{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	opener.On("Open", mock.Anything, recs[0]).Return(stream.NewSeriesStream(constant(40, 1), nil), nil)
	opener.On("Open", mock.Anything, recs[1]).Return(nil, errors.New("no such device"))
	opener.On("Open", mock.Anything, recs[2]).Return(stream.NewSeriesStream(nil, errors.New("offline")), nil)
	opener.On("Open", mock.Anything, recs[3]).Return(stream.NewSeriesStream(constant(8, 1), nil), nil)

	obs := &stageRecorder{}
	p := newTestPipeline(t, &contract.MockPeakDetector{}, pub)
	p.Observer = obs

	outcomes := p.RunPreviews(context.Background(), recs, opener, 3)
	require.Len(t, outcomes, 4)

	for i, o := range outcomes {
		assert.Equal(t, recs[i].ID, o.Recording.ID)
	}
	assert.False(t, outcomes[0].Failed())
	assert.Len(t, outcomes[0].Result.Series, 10)
	assert.True(t, outcomes[1].Failed())
	assert.True(t, outcomes[2].Failed())
	assert.True(t, contract.IsNoData(outcomes[2].Err))
	assert.False(t, outcomes[3].Failed())

	assert.Len(t, obs.done, 4)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestTraceOneOpenFailure(t *testing.T) {
	opener := &contract.MockStreamOpener{}
	rec := schema.Recording{ID: "missing"}
	opener.On("Open", mock.Anything, rec).Return(nil, contract.ErrUnknownSource)

	p := newTestPipeline(t, &contract.MockPeakDetector{}, &contract.MockPublisher{})
	_, err := p.TraceOne(context.Background(), rec, opener)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrUnknownSource)
	assert.Equal(t, contract.ErrorInvalid, contract.Classify(err))
}

// capturingOpener remembers the ctx and stream of the last Open.
type capturingOpener struct {
	contract.StreamOpener
	ctx    context.Context
	stream contract.Stream
}

func (o *capturingOpener) Open(ctx context.Context, rec schema.Recording) (contract.Stream, error) {
	s, err := o.StreamOpener.Open(ctx, rec)
	o.ctx, o.stream = ctx, s
	return s, err
}

func TestPreviewReleasesStreamAtCap(t *testing.T) {
	pub := &contract.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	p := newTestPipeline(t, &contract.MockPeakDetector{}, pub)

	// Far more samples than the preview cap plus the channel buffer
	sim := &stream.SimOpener{Duration: time.Minute, HeartRate: 72, SamplingRate: schema.DefaultSamplingRate}
	opener := &capturingOpener{StreamOpener: sim}

	outcome := p.previewOne(context.Background(), schema.Recording{ID: "long"}, opener)
	require.NoError(t, outcome.Err)
	assert.Len(t, outcome.Result.Series, schema.DefaultPreviewSamples/schema.DefaultPreviewStride)

	require.Error(t, opener.ctx.Err())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range opener.stream.Events() {
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream producer did not stop after the run")
	}
}
