package outwriter

import (
	"os"

	"github.com/huangsam/ecgscope/internal/contract"
	"golang.org/x/term"
)

// Sparkline width bounds.
const (
	minSparklineWidth = 10
	maxSparklineWidth = 160
)

// getTerminalWidth returns the configured width override or the detected terminal width.
func getTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getTraceSparklineWidth returns the width of the full-trace sparkline.
func getTraceSparklineWidth(cfg *contract.Config) int {
	return clampWidth(getTerminalWidth(cfg) - len("Trace: "))
}

// getPreviewSparklineWidth returns the width of the preview column in the
// previews table, leaving room for the other columns.
func getPreviewSparklineWidth(cfg *contract.Config) int {
	baseWidth := 60 // Index + Recording + Samples + Label with borders/padding
	if cfg.Detail {
		baseWidth += 30 // Raw + Warning
	}
	return clampWidth(getTerminalWidth(cfg) - baseWidth)
}

func clampWidth(available int) int {
	return min(max(available, minSparklineWidth), maxSparklineWidth)
}
