package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// headerIcon returns the emoji prefix when emojis are enabled.
func headerIcon(cfg *contract.Config, icon string) string {
	if cfg.UseEmojis {
		return icon + " "
	}
	return ""
}

// LogTraceHeader prints a concise, 2-line header before a full trace.
func LogTraceHeader(w io.Writer, cfg *contract.Config, rec schema.Recording) {
	rate := rec.SamplingRate
	if rate <= 0 {
		rate = cfg.SamplingRate
	}
	_, _ = fmt.Fprintf(w, "%sRecording: %s (Source: %s)\n", headerIcon(cfg, "🫀"), rec.ID, cfg.Source)
	_, _ = fmt.Fprintf(w, "%sDetector: %s at %.0f Hz, window %d\n", headerIcon(cfg, "📈"), cfg.Detector, rate, cfg.WindowSize)
}

// LogPreviewHeader prints a header before a batch of previews.
func LogPreviewHeader(w io.Writer, cfg *contract.Config, count int) {
	_, _ = fmt.Fprintf(w, "%sPreviews: %d recordings (Source: %s)\n", headerIcon(cfg, "🫀"), count, cfg.Source)
	_, _ = fmt.Fprintf(w, "%sWindow: first %d samples, every %d kept\n", headerIcon(cfg, "🔍"), cfg.PreviewSamples, cfg.PreviewStride)
}
