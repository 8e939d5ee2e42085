package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/parquet"
	"github.com/huangsam/ecgscope/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteTraceResult outputs a full-trace result, dispatching based on the output format configured.
func WriteTraceResult(result schema.PipelineResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, schema.EnrichResults([]schema.PipelineResult{result})[0])
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTraceCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeSeriesParquet(parquet.ConvertPipelineResults([]schema.PipelineResult{result}), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTraceTable(w, result, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
}

// writeTraceTable writes the summary table, a sparkline and optionally the RR intervals.
func writeTraceTable(w io.Writer, r schema.PipelineResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	label := schema.GetPlainLabel(r)
	if cfg.UseColors {
		label = contract.GetColorLabel(r)
	}

	meanRR, bpm := "-", "-"
	if r.Interval != nil {
		meanRR = fmt.Sprintf("%.1f", r.Interval.MeanMs)
		bpm = fmt.Sprintf("%.1f", r.Interval.HeartRateBPM())
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Recording", "Samples", "Raw", "Peaks", "Mean RR (ms)", "BPM", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	row := []string{
		r.RecordingID,
		fmt.Sprintf(intFmt, len(r.Series)),
		fmt.Sprintf(intFmt, r.RawSamples),
		fmt.Sprintf(intFmt, len(r.Peaks)),
		meanRR,
		bpm,
		label,
	}
	if err := table.Append(row); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Trace: %s\n", Sparkline(r.Series, getTraceSparklineWidth(cfg))); err != nil {
		return err
	}

	if cfg.Detail && r.Interval != nil {
		if err := writeIntervalTable(w, r, fmtFloat); err != nil {
			return err
		}
	}

	if r.Warning != "" {
		if _, err := fmt.Fprintf(w, "Warning: stream ended early: %s\n", r.Warning); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Trace completed in %v over %.1fs of signal at %.0f Hz. Run backend: %s\n",
		duration, r.DurationSeconds(), r.SamplingRate, cfg.RunBackend)
	return err
}

// writeIntervalTable lists each RR interval with the peaks that bound it.
func writeIntervalTable(w io.Writer, r schema.PipelineResult, fmtFloat func(float64) string) error {
	peaks := r.Peaks
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "From", "To", "At (s)", "RR (ms)"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, rr := range r.Interval.IntervalsMs {
		if i+1 >= len(peaks) {
			break
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(peaks[i]),
			strconv.Itoa(peaks[i+1]),
			fmtFloat(sampleTime(peaks[i], r.SamplingRate)),
			fmt.Sprintf("%.1f", rr),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeTraceCSV writes one row per conditioned sample.
func writeTraceCSV(w io.Writer, r schema.PipelineResult, fmtFloat func(float64) string) error {
	header := []string{"recording_id", "sample_index", "time_s", "voltage", "is_peak"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		peaks := make(map[int]struct{}, len(r.Peaks))
		for _, p := range r.Peaks {
			peaks[p] = struct{}{}
		}
		for i, v := range r.Series {
			_, isPeak := peaks[i]
			rec := []string{
				r.RecordingID,
				strconv.Itoa(i),
				strconv.FormatFloat(sampleTime(i, r.SamplingRate), 'f', 6, 64),
				fmtFloat(v),
				strconv.FormatBool(isPeak),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// sampleTime converts a sample index to seconds from the start of the series.
func sampleTime(index int, samplingRate float64) float64 {
	if samplingRate <= 0 {
		return 0
	}
	return float64(index) / samplingRate
}
