package iocache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRunStore(t *testing.T) *RunStoreImpl {
	t.Helper()
	store, err := NewRunStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun("rec", schema.FullProfile, time.Now(), nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)
	assert.NoError(t, store.EndRun(1, time.Now(), schema.PipelineResult{}))
	assert.NoError(t, store.FailRun(1, time.Now(), errors.New("boom")))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestRunStore_SQLite(t *testing.T) {
	store := newSQLiteRunStore(t)

	start := time.Now().Add(-2 * time.Second)
	fullID, err := store.BeginRun("rec-a", schema.FullProfile, start, map[string]any{"algorithm": "threshold"})
	require.NoError(t, err)
	assert.Greater(t, fullID, int64(0))

	previewID, err := store.BeginRun("rec-b", schema.PreviewProfile, start.Add(time.Second), nil)
	require.NoError(t, err)
	assert.Greater(t, previewID, fullID)

	failedID, err := store.BeginRun("rec-c", schema.FullProfile, start.Add(time.Second), nil)
	require.NoError(t, err)

	result := schema.PipelineResult{
		RecordingID: "rec-a",
		Profile:     schema.FullProfile,
		Series:      make(schema.VoltageSeries, 1024),
		Peaks:       schema.PeakIndexList{100, 500, 900},
		Interval:    &schema.IntervalStatistic{IntervalsMs: []float64{781.25, 781.25}, MeanMs: 781.25},
		RawSamples:  1024,
	}
	require.NoError(t, store.EndRun(fullID, start.Add(1500*time.Millisecond), result))
	require.NoError(t, store.EndRun(previewID, start.Add(2*time.Second), schema.PipelineResult{
		RecordingID: "rec-b", Profile: schema.PreviewProfile, Series: make(schema.VoltageSeries, 10), RawSamples: 40, Partial: true,
	}))
	require.NoError(t, store.FailRun(failedID, start.Add(2*time.Second), errors.New("stream: lead off")))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)

	full := runs[0]
	assert.Equal(t, "rec-a", full.RecordingID)
	assert.Equal(t, "full", full.Profile)
	assert.Equal(t, schema.RunStatusCompleted, full.Status)
	assert.WithinDuration(t, start, full.StartTime, time.Millisecond)
	require.NotNil(t, full.EndTime)
	require.NotNil(t, full.RunDurationMs)
	assert.Equal(t, int32(1500), *full.RunDurationMs)
	assert.Equal(t, int32(1024), full.RawSamples)
	assert.Equal(t, int32(1024), full.OutputSamples)
	assert.Equal(t, int32(3), full.PeakCount)
	require.NotNil(t, full.MeanRRMs)
	assert.InDelta(t, 781.25, *full.MeanRRMs, 1e-9)
	require.NotNil(t, full.ConfigParams)
	assert.JSONEq(t, `{"algorithm":"threshold"}`, *full.ConfigParams)
	assert.Nil(t, full.ErrorMessage)

	preview := runs[1]
	assert.Equal(t, schema.RunStatusPartial, preview.Status)
	assert.True(t, preview.Partial)
	assert.Nil(t, preview.MeanRRMs)
	assert.Equal(t, int32(10), preview.OutputSamples)

	failed := runs[2]
	assert.Equal(t, schema.RunStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "stream: lead off", *failed.ErrorMessage)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, 1, status.FailedRuns)
	assert.Equal(t, failedID, status.LastRunID)
	assert.Equal(t, int64(1064), status.TotalSamples)
	assert.Equal(t, int64(3), status.TableSizes[runsTable])
	assert.WithinDuration(t, start, status.OldestRunTime, time.Millisecond)
}

func TestRunStore_InFlightRun(t *testing.T) {
	store := newSQLiteRunStore(t)

	_, err := store.BeginRun("rec", schema.PreviewProfile, time.Now(), nil)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, schema.RunStatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].RunDurationMs)
}

func TestRunStore_EndUnknownRun(t *testing.T) {
	store := newSQLiteRunStore(t)
	err := store.EndRun(999, time.Now(), schema.PipelineResult{})
	assert.ErrorContains(t, err, "failed to get start_time for run 999")
}
