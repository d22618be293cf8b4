// Package launcher starts the external tools fridacode drives: the
// instrumentation REPL, frida-kill and the Python backend driver.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Result is the captured outcome of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes a command to completion. A non-zero exit is reported in
// Result.ExitCode, not as an error; err is reserved for commands that could
// not be started or were cancelled.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) (*Result, error)
	// Stream copies stdout to w while the command runs. It returns once the
	// command exits or ctx is done; a non-zero exit is an *ExitError.
	Stream(ctx context.Context, name string, args []string, w io.Writer) error
}

// ExitError reports a streamed command that exited non-zero.
type ExitError struct {
	Name     string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.ExitCode, e.Stderr)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner { return &ExecRunner{} }

func (r *ExecRunner) Run(ctx context.Context, name string, args []string, stdin []byte) (*Result, error) {
	return r.RunIn(ctx, "", name, args, stdin)
}

// RunIn is Run with the working directory set to dir. An empty dir inherits
// ours.
func (r *ExecRunner) RunIn(ctx context.Context, dir, name string, args []string, stdin []byte) (*Result, error) {
	bin, argv := Platformize(name, args)
	cmd := exec.CommandContext(ctx, bin, argv...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", name, err)
	}
	return res, nil
}

func (r *ExecRunner) Stream(ctx context.Context, name string, args []string, w io.Writer) error {
	bin, argv := Platformize(name, args)
	cmd := exec.CommandContext(ctx, bin, argv...)

	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Name: name, ExitCode: exitErr.ExitCode(), Stderr: string(bytes.TrimSpace(stderr.Bytes()))}
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Platformize wraps an invocation in cmd.exe on Windows so that tools
// installed as .cmd shims resolve.
func Platformize(bin string, args []string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd.exe", append([]string{"/c", bin}, args...)
	}
	return bin, args
}
