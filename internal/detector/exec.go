package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// ExecRequest is written as JSON to the detector command's stdin.
type ExecRequest struct {
	Samples      []float64 `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"`
	Method       string    `json:"method"`
}

// ExecDetector delegates peak detection to an external program. The program
// reads an ExecRequest from stdin and prints a JSON array of peak indices.
type ExecDetector struct {
	runner  contract.CommandRunner
	command []string
	timeout time.Duration
}

var _ contract.PeakDetector = &ExecDetector{} // Compile-time check

// NewExecDetector creates a detector that runs command, split on whitespace.
func NewExecDetector(runner contract.CommandRunner, command string, timeout time.Duration) *ExecDetector {
	return &ExecDetector{runner: runner, command: strings.Fields(command), timeout: timeout}
}

// Detect implements the PeakDetector interface.
func (d *ExecDetector) Detect(ctx context.Context, series schema.VoltageSeries, samplingRate float64, algorithm schema.DetectorAlgorithm) (schema.PeakIndexList, error) {
	if len(d.command) == 0 {
		return nil, fmt.Errorf("%w: no detector command configured", contract.ErrDetection)
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := json.Marshal(ExecRequest{Samples: series, SamplingRate: samplingRate, Method: string(algorithm)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrDetection, err)
	}

	out, err := d.runner.Run(ctx, req, d.command[0], d.command[1:]...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrDetection, err)
	}

	var peaks schema.PeakIndexList
	if err := json.Unmarshal(out, &peaks); err != nil {
		return nil, fmt.Errorf("%w: invalid detector output: %w", contract.ErrDetection, err)
	}
	for _, p := range peaks {
		if p < 0 || p >= len(series) {
			return nil, fmt.Errorf("%w: peak index %d out of range [0, %d)", contract.ErrDetection, p, len(series))
		}
	}
	if peaks == nil {
		peaks = schema.PeakIndexList{}
	}
	return peaks, nil
}
