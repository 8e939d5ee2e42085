package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/stream"
	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunTrackingSuccess(t *testing.T) {
	pub := &contract.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	runs := &contract.MockRunStore{}
	runs.On("BeginRun", "r1", schema.PreviewProfile, mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(7), nil)
	runs.On("EndRun", int64(7), mock.AnythingOfType("time.Time"), mock.MatchedBy(func(r schema.PipelineResult) bool {
		return r.RecordingID == "r1" && r.RawSamples == 20
	})).Return(nil)

	p := newTestPipeline(t, &contract.MockPeakDetector{}, pub)
	p.Runs = runs

	_, err := p.RunPreview(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(20, 1), nil))
	require.NoError(t, err)
	runs.AssertExpectations(t)
	runs.AssertNotCalled(t, "FailRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunTrackingFailure(t *testing.T) {
	runs := &contract.MockRunStore{}
	runs.On("BeginRun", "r1", schema.FullProfile, mock.Anything, mock.Anything).Return(int64(3), nil)
	runs.On("FailRun", int64(3), mock.Anything, mock.MatchedBy(func(err error) bool {
		return errors.Is(err, contract.ErrNoData)
	})).Return(nil)

	p := newTestPipeline(t, &contract.MockPeakDetector{}, &contract.MockPublisher{})
	p.Runs = runs

	_, err := p.RunFull(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(nil, errors.New("offline")))
	require.Error(t, err)
	runs.AssertExpectations(t)
}

func TestRunTrackingBeginErrorDoesNotFailRun(t *testing.T) {
	pub := &contract.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	runs := &contract.MockRunStore{}
	runs.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db locked"))

	p := newTestPipeline(t, &contract.MockPeakDetector{}, pub)
	p.Runs = runs

	result, err := p.RunPreview(context.Background(), schema.Recording{ID: "r1"}, stream.NewSeriesStream(constant(5, 1), nil))
	require.NoError(t, err)
	assert.Equal(t, 5, result.RawSamples)
	runs.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunTrackingOpenFailure(t *testing.T) {
	rec := schema.Recording{ID: "gone"}
	opener := &contract.MockStreamOpener{}
	opener.On("Open", mock.Anything, rec).Return(nil, contract.ErrUnknownSource)
	runs := &contract.MockRunStore{}
	runs.On("BeginRun", "gone", schema.FullProfile, mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(9), nil)
	runs.On("FailRun", int64(9), mock.AnythingOfType("time.Time"), mock.MatchedBy(func(err error) bool {
		return errors.Is(err, contract.ErrUnknownSource)
	})).Return(nil)

	p := newTestPipeline(t, &contract.MockPeakDetector{}, &contract.MockPublisher{})
	p.Runs = runs

	_, err := p.TraceOne(context.Background(), rec, opener)
	require.ErrorIs(t, err, contract.ErrUnknownSource)
	runs.AssertExpectations(t)
}
