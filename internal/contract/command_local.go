package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// LocalCommandRunner implements the CommandRunner interface by executing
// programs installed on the machine.
type LocalCommandRunner struct{}

var _ CommandRunner = &LocalCommandRunner{} // Compile-time check

// NewLocalCommandRunner creates a new instance of the local command runner.
func NewLocalCommandRunner() *LocalCommandRunner {
	return &LocalCommandRunner{}
}

// Run executes a command, feeding stdin, and returns its stdout.
func (c *LocalCommandRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("command %q exited with code %d: %s", name, exitErr.ExitCode(), stderr)
	} else if err != nil {
		return nil, fmt.Errorf("command %q failed: %w. Ensure it is installed and available on your PATH", name, err)
	}
	return out, nil
}
