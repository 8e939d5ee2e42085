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

// maxRecordingWidth is the widest recording ID shown in tables. UUIDs fit.
const maxRecordingWidth = 36

// WritePreviewResults outputs preview outcomes, dispatching based on the output format configured.
func WritePreviewResults(outcomes []schema.RunOutcome, cfg *contract.Config, duration time.Duration) error {
	_, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePreviewJSON(w, outcomes)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePreviewCSV(w, outcomes)
		}, "Wrote CSV")
	case schema.ParquetOut:
		var results []schema.PipelineResult
		for _, o := range outcomes {
			if !o.Failed() {
				results = append(results, o.Result)
			}
		}
		return writeSeriesParquet(parquet.ConvertPipelineResults(results), cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePreviewTable(w, outcomes, cfg, intFmt, duration)
		}, "Wrote table")
	}
}

// writePreviewTable writes one row per recording with a sparkline of its preview.
func writePreviewTable(w io.Writer, outcomes []schema.RunOutcome, cfg *contract.Config, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"#", "Recording", "Samples", "Label"}
	if cfg.Detail {
		headers = append(headers, "Raw", "Warning")
	}
	headers = append(headers, "Preview")
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	width := getPreviewSparklineWidth(cfg)
	failed := 0
	var data [][]string
	for i, o := range outcomes {
		preview := Sparkline(o.Result.Series, width)
		if o.Failed() {
			failed++
			preview = contract.TruncateID(o.Err.Error(), width)
		}
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncateID(o.Recording.ID, maxRecordingWidth),
			fmt.Sprintf(intFmt, len(o.Result.Series)),
			contract.GetOutcomeLabel(o, cfg.UseColors),
		}
		if cfg.Detail {
			row = append(row, fmt.Sprintf(intFmt, o.Result.RawSamples), o.Result.Warning)
		}
		row = append(row, preview)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d previews (%d failed)\n", len(outcomes), failed); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Previews completed in %v with %d workers. Preview backend: %s\n", duration, cfg.Workers, cfg.PreviewBackend)
	return err
}

// writePreviewCSV writes one summary row per recording.
func writePreviewCSV(w io.Writer, outcomes []schema.RunOutcome) error {
	header := []string{"recording_id", "label", "raw_samples", "output_samples", "warning", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, o := range outcomes {
			errMsg := ""
			if o.Failed() {
				errMsg = o.Err.Error()
			}
			rec := []string{
				o.Recording.ID,
				contract.GetOutcomeLabel(o, false),
				strconv.Itoa(o.Result.RawSamples),
				strconv.Itoa(len(o.Result.Series)),
				o.Result.Warning,
				errMsg,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writePreviewJSON writes outcomes with their labels and any error text.
func writePreviewJSON(w io.Writer, outcomes []schema.RunOutcome) error {
	type JSONPreview struct {
		RecordingID string                 `json:"recording_id"`
		Label       string                 `json:"label"`
		Error       string                 `json:"error,omitempty"`
		Result      *schema.PipelineResult `json:"result,omitempty"`
	}

	output := make([]JSONPreview, len(outcomes))
	for i, o := range outcomes {
		output[i] = JSONPreview{
			RecordingID: o.Recording.ID,
			Label:       contract.GetOutcomeLabel(o, false),
		}
		if o.Failed() {
			output[i].Error = o.Err.Error()
			continue
		}
		result := o.Result
		output[i].Result = &result
	}
	return writeJSON(w, output)
}
