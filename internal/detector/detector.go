// Package detector has R-peak detectors used by the full-trace pipeline.
package detector

import (
	"fmt"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// New returns the detector selected by the config.
func New(cfg *contract.Config, runner contract.CommandRunner) (contract.PeakDetector, error) {
	switch cfg.Detector {
	case schema.NeuroKitAlgorithm:
		return NewExecDetector(runner, cfg.DetectorCommand, cfg.DetectorTimeout), nil
	case schema.ThresholdAlgorithm:
		return NewThresholdDetector(cfg.ThresholdFactor, cfg.RefractoryMs), nil
	default:
		return nil, fmt.Errorf("unsupported detector %q", cfg.Detector)
	}
}
