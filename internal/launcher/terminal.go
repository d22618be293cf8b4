package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/user/fridacode/internal/types"
)

// Terminal runs the instrumentation tool attached to the user's terminal.
// Nothing supervises the session once it is started.
type Terminal struct {
	tool   string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	nextID atomic.Int64
}

// NewTerminal creates a Terminal running tool on the process's own stdio.
func NewTerminal(tool string) *Terminal {
	return &Terminal{tool: tool, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

func (t *Terminal) Tool() string { return t.tool }

// Title names a session the way the REPL window is labelled.
func (t *Terminal) Title(args types.SessionArgs) string {
	device, ok := args.Value("--device")
	if !ok {
		device, _ = args.Value("-H")
	}
	runtime, _ := args.Value("--runtime")
	return fmt.Sprintf("Frida REPL %s %s #%d", runtime, device, t.nextID.Add(1))
}

// Launch runs the tool with args until it exits. SIGINT and SIGTERM are
// forwarded to the child.
func (t *Terminal) Launch(ctx context.Context, args types.SessionArgs) error {
	bin, argv := Platformize(t.tool, args)
	cmd := exec.CommandContext(ctx, bin, argv...)
	cmd.Stdin = t.stdin
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", t.tool, err)
	}
	slog.Info("session started", "title", t.Title(args), "pid", cmd.Process.Pid)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				slog.Debug("forwarding signal", "signal", sig)
				if err := cmd.Process.Signal(sig); err != nil {
					slog.Error("forward signal failed", "signal", sig, "error", err)
				}
			case <-done:
				return
			}
		}
	}()

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			slog.Info("session exited", "tool", t.tool, "exit_code", exitErr.ExitCode())
			return nil
		}
		return fmt.Errorf("wait %s: %w", t.tool, err)
	}
	slog.Info("session exited", "tool", t.tool, "exit_code", 0)
	return nil
}
