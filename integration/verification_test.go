//go:build integration

// Package integration contains end-to-end tests of the ecgscope binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type traceOutput struct {
	RecordingID string  `json:"recording_id"`
	Label       string  `json:"label"`
	BPM         float64 `json:"bpm"`
	Peaks       []int   `json:"peaks"`
	Partial     bool    `json:"partial"`
	RawSamples  int     `json:"raw_samples"`
	Interval    *struct {
		IntervalsMs []float64 `json:"intervals_ms"`
		MeanMs      float64   `json:"mean_ms"`
	} `json:"interval"`
}

// writeSpikeRecording writes a flat recording with a spike every period samples.
func writeSpikeRecording(t *testing.T, dir, id string, n, period int) {
	t.Helper()
	var sb strings.Builder
	for i := range n {
		v := 0.0
		if i%period == 100 {
			v = 1.0
		}
		fmt.Fprintf(&sb, "%g\n", v)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".csv"), []byte(sb.String()), 0o644))
}

func baseEnv(dir string) []string {
	return []string{
		"ECGSCOPE_DATA_DIR=" + dir,
		"ECGSCOPE_PREVIEW_BACKEND=none",
		"ECGSCOPE_RUN_BACKEND=none",
		"ECGSCOPE_COLOR=no",
	}
}

// TestTraceFileVerification traces a synthetic recording and checks the RR
// intervals against the spike spacing.
func TestTraceFileVerification(t *testing.T) {
	dir := t.TempDir()
	writeSpikeRecording(t, dir, "steady", 3000, 512)

	out, err := runCommand(t, dir, baseEnv(dir), "trace", "steady", "--output", "json", "--sampling-rate", "512")
	require.NoError(t, err)

	var res traceOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "steady", res.RecordingID)
	assert.Equal(t, 3000, res.RawSamples)
	assert.False(t, res.Partial)
	require.NotNil(t, res.Interval)
	for _, rr := range res.Interval.IntervalsMs {
		assert.InDelta(t, 1000, rr, 1)
	}
	assert.InDelta(t, 60, res.BPM, 0.1)
}

// TestTraceSimulatedHeartRate checks that traced simulator output recovers
// the configured heart rate within the per-recording jitter.
func TestTraceSimulatedHeartRate(t *testing.T) {
	dir := t.TempDir()
	env := append(baseEnv(dir), "ECGSCOPE_SOURCE=sim")

	out, err := runCommand(t, dir, env, "trace", "sim-a", "--output", "json", "--sim-duration", "20s", "--sim-noise", "0")
	require.NoError(t, err)

	var res traceOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Complete", res.Label)
	assert.InDelta(t, 72, res.BPM, 6)
}

// TestPreviewCSVVerification checks the preview CSV carries one row per recording.
func TestPreviewCSVVerification(t *testing.T) {
	dir := t.TempDir()
	writeSpikeRecording(t, dir, "a", 2048, 512)
	writeSpikeRecording(t, dir, "b", 600, 512)

	out, err := runCommand(t, dir, baseEnv(dir), "preview", "a", "b", "--output", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "recording_id,"))
	assert.True(t, strings.HasPrefix(lines[1], "a,"))
	assert.True(t, strings.HasPrefix(lines[2], "b,"))
}

// TestUnknownRecordingFails checks the exit status for a missing recording.
func TestUnknownRecordingFails(t *testing.T) {
	dir := t.TempDir()
	_, err := runCommand(t, dir, baseEnv(dir), "trace", "missing")
	assert.Error(t, err)
}
