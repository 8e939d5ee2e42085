package cmd

import (
	"github.com/huangsam/ecgscope/core"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/spf13/cobra"
)

// previewCmd computes previews for many recordings concurrently.
var previewCmd = &cobra.Command{
	Use:   "preview [recording-id...]",
	Short: "Show quick downsampled previews of many recordings.",
	Long: `Read only the first seconds of each recording and render a downsampled
sparkline, running recordings concurrently.

A preview stops reading once --preview-samples samples arrived (3 seconds at
512 Hz by default) and keeps every --preview-stride-th sample. No peak
detection is done. Previews are persisted in the preview store so they can be
served later without touching the devices again.

Without recording IDs every recording the source lists is previewed, newest first.

Examples:
  # Preview every recording in ./data
  ecgscope preview --data-dir ./data

  # Preview two recordings with 8 workers
  ecgscope preview rec-1,rec-2 --workers 8

  # Preview recordings listed in a manifest streaming over NATS
  ecgscope preview --source nats --manifest recordings.yaml

  # Export previews for a notebook
  ecgscope preview --output parquet --output-file previews.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePreviews(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot preview recordings", err)
		}
	},
}
