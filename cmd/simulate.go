package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/ecgscope/core"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/spf13/cobra"
)

// simulateCmd streams synthetic recordings onto NATS.
var simulateCmd = &cobra.Command{
	Use:   "simulate [recording-id...]",
	Short: "Stream synthetic ECG recordings onto NATS in real time.",
	Long: `Generate synthetic single-lead ECG signals and publish them on NATS at the
sampling rate, in the format the nats source consumes. Useful for trying the
pipeline without a device.

Without recording IDs a few random IDs are generated and printed.

Examples:
  # Stream two 30 second recordings
  ecgscope simulate rec-1 rec-2 --sim-duration 30s

  # In another terminal, preview them as they arrive
  ecgscope preview rec-1 rec-2 --source nats

  # Inject a dropout after 5 seconds to exercise partial results
  ecgscope simulate flaky --sim-fail-after 2560`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := core.ExecuteSimulate(ctx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot simulate recordings", err)
		}
	},
}
