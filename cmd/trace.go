package cmd

import (
	"github.com/huangsam/ecgscope/core"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/spf13/cobra"
)

// traceCmd runs the full-trace pipeline on one recording.
var traceCmd = &cobra.Command{
	Use:   "trace [recording-id]",
	Short: "Analyze one recording: smooth, detect R-peaks and compute RR intervals.",
	Long: `Accumulate an entire recording from its device stream, condition it and
locate R-peaks, then report the RR intervals and their mean.

If the stream fails midway the samples already received are still analyzed and
the result is labeled Partial. A stream that fails before delivering any sample
reports no data.

Without a recording ID the newest recording from the source is traced.

Examples:
  # Trace a recording stored as ./data/rec-42.csv
  ecgscope trace rec-42 --data-dir ./data

  # Show each RR interval
  ecgscope trace rec-42 --detail

  # Use an external NeuroKit-based detector
  ecgscope trace rec-42 --detector neurokit --detector-command ./detect_peaks.py

  # Trace a simulated recording that drops out after 2 seconds
  ecgscope trace demo --source sim --sim-fail-after 1024

  # Export the conditioned trace with peak markers
  ecgscope trace rec-42 --output csv --output-file rec-42-trace.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrace(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot trace recording", err)
		}
	},
}
