// Package runner models one external tool call as a typed request and
// result. The cleansing strategies never shell out directly; they build an
// Invocation and hand it to a Runner, which keeps the strategies uniform and
// lets tests substitute a fake.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single tool invocation. The headless office
// renderer is the one deliberate exception and carries its own budget.
const DefaultTimeout = 10 * time.Second

// Invocation describes one external command run against a filesystem path.
type Invocation struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// Result carries what the tool produced: combined stdout+stderr and the
// exit code.
type Result struct {
	Output   []byte
	ExitCode int
}

// ToolError reports a tool that exited nonzero. Output is included because
// the tools in use report diagnostics on stdout/stderr rather than through
// exit codes alone.
type ToolError struct {
	Tool     string
	ExitCode int
	Output   []byte
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, bytes.TrimSpace(e.Output))
}

// Runner executes tool invocations.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs invocations as subprocesses.
type ExecRunner struct{}

// Run executes the invocation with a bounded timeout. A nonzero exit yields
// a *ToolError; a timeout surfaces as a wrapped context.DeadlineExceeded.
func (ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	output, err := cmd.CombinedOutput()

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return Result{Output: output}, fmt.Errorf("%s timed out after %s: %w", inv.Path, timeout, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Output: output, ExitCode: exitErr.ExitCode()},
				&ToolError{Tool: inv.Path, ExitCode: exitErr.ExitCode(), Output: output}
		}
		return Result{Output: output}, fmt.Errorf("failed to run %s: %w", inv.Path, err)
	}
	return Result{Output: output}, nil
}
