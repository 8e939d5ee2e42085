package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/ecgscope/core"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/spf13/cobra"
)

// serveCmd exposes the pipeline over HTTP and websockets.
var serveCmd = &cobra.Command{
	Use:   "serve [recording-id...]",
	Short: "Serve previews, traces and metrics over HTTP.",
	Long: `Start an HTTP server that computes previews on startup and traces on demand.

Endpoints:
  GET  /previews      Latest preview series by recording ID
  POST /previews      Recompute previews
  GET  /trace/{id}    Run the full trace for one recording
  GET  /metrics       Prometheus metrics of pipeline runs
  GET  /healthz       Liveness check
  /ws                 Websocket receiving every published result as JSON

Examples:
  # Serve simulated recordings
  ecgscope serve --source sim

  # Serve NATS device streams and forward results to NATS as well
  ecgscope serve --source nats --manifest recordings.yaml --publish-nats`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := core.ExecuteServe(ctx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot serve", err)
		}
	},
}
