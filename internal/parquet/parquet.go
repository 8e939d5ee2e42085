// Package parquet provides row types and writers for exporting pipeline data
// to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/huangsam/ecgscope/schema"
	"github.com/parquet-go/parquet-go"
)

// PipelineRun represents a single tracked pipeline run.
// This struct maps to the ecg_pipeline_runs database table.
type PipelineRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RecordingID identifies the processed recording
	RecordingID string `parquet:"recording_id,snappy,dict"`

	// Profile is either full or preview
	Profile string `parquet:"profile,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run finished (nullable while the run is in flight)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the wall-clock duration in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	RawSamples    int32 `parquet:"raw_samples,snappy"`
	OutputSamples int32 `parquet:"output_samples,snappy"`
	PeakCount     int32 `parquet:"peak_count,snappy"`

	// MeanRRMs is the mean RR interval (nullable when fewer than two peaks)
	MeanRRMs *float64 `parquet:"mean_rr_ms,optional,snappy"`

	Partial bool   `parquet:"partial,snappy"`
	Status  string `parquet:"status,snappy,dict"`

	// ErrorMessage is set for failed runs
	ErrorMessage *string `parquet:"error_message,optional,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// SeriesSample is one sample of a published series, in long format.
type SeriesSample struct {
	RecordingID string  `parquet:"recording_id,snappy,dict"`
	Profile     string  `parquet:"profile,snappy,dict"`
	SampleIndex int32   `parquet:"sample_index,snappy"`
	Voltage     float64 `parquet:"voltage,snappy"`

	// IsPeak marks samples the detector reported as R-peaks
	IsPeak bool `parquet:"is_peak,snappy"`
}

// writeRows writes rows to a new Parquet file at outputPath.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WritePipelineRunsParquet writes run rows to a Parquet file.
func WritePipelineRunsParquet(data []PipelineRun, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteSeriesSamplesParquet writes series rows to a Parquet file.
func WriteSeriesSamplesParquet(data []SeriesSample, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to PipelineRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []PipelineRun {
	result := make([]PipelineRun, len(records))
	for i, record := range records {
		result[i] = PipelineRun{
			RunID:         record.RunID,
			RecordingID:   record.RecordingID,
			Profile:       record.Profile,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			RawSamples:    record.RawSamples,
			OutputSamples: record.OutputSamples,
			PeakCount:     record.PeakCount,
			MeanRRMs:      record.MeanRRMs,
			Partial:       record.Partial,
			Status:        record.Status,
			ErrorMessage:  record.ErrorMessage,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertPipelineResults flattens result series into one row per sample.
func ConvertPipelineResults(results []schema.PipelineResult) []SeriesSample {
	total := 0
	for _, r := range results {
		total += len(r.Series)
	}
	rows := make([]SeriesSample, 0, total)
	for _, r := range results {
		peaks := slices.Clone(r.Peaks)
		slices.Sort(peaks)
		for i, v := range r.Series {
			_, isPeak := slices.BinarySearch(peaks, i)
			rows = append(rows, SeriesSample{
				RecordingID: r.RecordingID,
				Profile:     string(r.Profile),
				SampleIndex: int32(i),
				Voltage:     v,
				IsPeak:      isPeak,
			})
		}
	}
	return rows
}
