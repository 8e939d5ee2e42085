package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/parquet"
)

// ExecuteRunExport exports every tracked run to <outputFile>.pipeline_runs.parquet.
func ExecuteRunExport(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d (failed: %d)\n", status.TotalRuns, status.FailedRuns)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve pipeline runs: %w", err)
	}

	runsFile := outputFile + ".pipeline_runs.parquet"
	rows := parquet.ConvertRunRecords(runs)
	if err := parquet.WritePipelineRunsParquet(rows, runsFile); err != nil {
		return fmt.Errorf("failed to write pipeline runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d pipeline runs to: %s\n", len(rows), runsFile)
	return nil
}
