package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() schema.PipelineResult {
	return schema.PipelineResult{
		RecordingID:  "rec-1",
		Profile:      schema.FullProfile,
		Series:       schema.VoltageSeries{0.1, 0.9, 0.2, 0.1, 0.8, 0.2},
		Peaks:        schema.PeakIndexList{1, 4},
		Interval:     &schema.IntervalStatistic{IntervalsMs: []float64{750}, MeanMs: 750},
		SamplingRate: 4,
		RawSamples:   6,
	}
}

func testConfig() *contract.Config {
	return &contract.Config{
		Output:         schema.TextOut,
		Width:          80,
		Precision:      3,
		Workers:        2,
		RunBackend:     schema.NoneBackend,
		PreviewBackend: schema.NoneBackend,
	}
}

func TestWriteTraceTable(t *testing.T) {
	cfg := testConfig()
	cfg.Detail = true
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	r := sampleTrace()
	r.Partial = true
	r.Warning = "device disconnected"

	var buf bytes.Buffer
	err := writeTraceTable(&buf, r, cfg, fmtFloat, intFmt, 2*time.Second)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "rec-1")
	assert.Contains(t, out, "750.0")
	assert.Contains(t, out, "80.0") // BPM
	assert.Contains(t, out, "Partial")
	assert.Contains(t, out, "Trace: ")
	assert.Contains(t, out, "0.250") // first peak at sample 1 of 4 Hz
	assert.Contains(t, out, "Warning: stream ended early: device disconnected")
	assert.Contains(t, out, "over 1.5s of signal at 4 Hz. Run backend: none")
}

func TestWriteTraceTableNoInterval(t *testing.T) {
	cfg := testConfig()
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	r := sampleTrace()
	r.Peaks = nil
	r.Interval = nil

	var buf bytes.Buffer
	require.NoError(t, writeTraceTable(&buf, r, cfg, fmtFloat, intFmt, time.Second))

	out := buf.String()
	assert.Contains(t, out, "Complete")
	assert.NotContains(t, out, "Warning")
}

func TestWriteTraceCSV(t *testing.T) {
	fmtFloat, _ := createFormatters(2)

	var buf bytes.Buffer
	require.NoError(t, writeTraceCSV(&buf, sampleTrace(), fmtFloat))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7) // header + 6 samples

	assert.Equal(t, []string{"recording_id", "sample_index", "time_s", "voltage", "is_peak"}, records[0])
	assert.Equal(t, []string{"rec-1", "1", "0.250000", "0.90", "true"}, records[2])
	assert.Equal(t, "false", records[3][4])
}

func TestWriteTraceResultFormats(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = schema.JSONOut
		cfg.OutputFile = filepath.Join(dir, "trace.json")
		require.NoError(t, WriteTraceResult(sampleTrace(), cfg, time.Second))

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "rec-1", got["recording_id"])
		assert.Equal(t, "Complete", got["label"])
		assert.InDelta(t, 80.0, got["bpm"], 1e-9)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = schema.CSVOut
		cfg.OutputFile = filepath.Join(dir, "trace.csv")
		require.NoError(t, WriteTraceResult(sampleTrace(), cfg, time.Second))

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 7)
	})

	t.Run("parquet", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = schema.ParquetOut
		cfg.OutputFile = filepath.Join(dir, "trace.parquet")
		require.NoError(t, WriteTraceResult(sampleTrace(), cfg, time.Second))

		info, err := os.Stat(cfg.OutputFile)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	})

	t.Run("text", func(t *testing.T) {
		cfg := testConfig()
		cfg.OutputFile = filepath.Join(dir, "trace.txt")
		require.NoError(t, WriteTraceResult(sampleTrace(), cfg, time.Second))

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Trace completed in")
	})
}

func TestSampleTime(t *testing.T) {
	assert.InDelta(t, 0.5, sampleTime(256, 512), 1e-12)
	assert.Zero(t, sampleTime(10, 0))
}
