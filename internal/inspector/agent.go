package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/user/fridacode/internal/launcher"
	"github.com/user/fridacode/internal/types"
)

// AgentTarget selects what the driver attaches its agent to: a running pid,
// or an app identifier that is spawned for the call.
type AgentTarget struct {
	PID int
	App string
}

// ParseAgentTarget reads a positive integer as a pid and anything else as an
// app identifier.
func ParseAgentTarget(s string) (AgentTarget, error) {
	if s == "" {
		return AgentTarget{}, &types.PreconditionError{Op: "agent", Reason: "empty target"}
	}
	if pid, err := strconv.Atoi(s); err == nil {
		if pid <= 0 {
			return AgentTarget{}, &types.PreconditionError{Op: "agent", Reason: fmt.Sprintf("invalid pid %d", pid)}
		}
		return AgentTarget{PID: pid}, nil
	}
	return AgentTarget{App: s}, nil
}

func (t AgentTarget) String() string {
	if t.PID > 0 {
		return strconv.Itoa(t.PID)
	}
	return t.App
}

func (t AgentTarget) flags(deviceID string) []string {
	if t.PID > 0 {
		return []string{"--device", deviceID, "--pid", strconv.Itoa(t.PID)}
	}
	return []string{"--device", deviceID, "--app", t.App}
}

// FSMethods are the filesystem operations the agent exports.
var FSMethods = []string{"cp", "mkdir", "rm", "ls", "mv", "stat"}

// RPC invokes an exported agent method and returns its JSON result. Calls
// have side effects on the target, so they are never coalesced.
func (b *Backend) RPC(ctx context.Context, deviceID string, target AgentTarget, method string, args []string) (json.RawMessage, error) {
	if method == "" {
		return nil, &types.PreconditionError{Op: "rpc", Reason: "missing method"}
	}
	params := append([]string{"rpc"}, target.flags(deviceID)...)
	params = append(params, method)
	params = append(params, args...)
	return b.agentCall(ctx, "rpc", target, params)
}

// FS runs one of FSMethods against the target's filesystem.
func (b *Backend) FS(ctx context.Context, deviceID string, target AgentTarget, method string, args []string) (json.RawMessage, error) {
	if !slices.Contains(FSMethods, method) {
		return nil, &types.PreconditionError{Op: "fs", Reason: fmt.Sprintf("unknown method %q, want one of %v", method, FSMethods)}
	}
	params := append([]string{"fs"}, target.flags(deviceID)...)
	params = append(params, method)
	params = append(params, args...)
	return b.agentCall(ctx, "fs", target, params)
}

func (b *Backend) agentCall(ctx context.Context, op string, target AgentTarget, params []string) (json.RawMessage, error) {
	out, err := b.driver(ctx, op, target.String(), nil, params...)
	if err != nil {
		return nil, err
	}
	if !json.Valid(out) {
		return nil, &types.TransportError{Op: op, Err: fmt.Errorf("malformed response: %q", out)}
	}
	return json.RawMessage(out), nil
}

// Syslog copies the target's log lines to w until ctx is done or the driver
// exits. Cancellation is the normal way to stop and is not an error.
func (b *Backend) Syslog(ctx context.Context, deviceID string, target AgentTarget, w io.Writer) error {
	args := append([]string{b.cfg.Driver, "syslog"}, target.flags(deviceID)...)
	slog.Debug("backend stream", "op", "syslog", "target", target.String())

	err := b.runner.Stream(ctx, b.cfg.Python, args, w)
	if ctx.Err() != nil {
		return nil
	}
	var exitErr *launcher.ExitError
	if errors.As(err, &exitErr) {
		if isNotFound(exitErr.Stderr) {
			return &types.NotFoundError{Kind: "process", ID: target.String(), Err: errors.New(exitErr.Stderr)}
		}
		return &types.TransportError{Op: "syslog", ExitCode: exitErr.ExitCode, Stderr: exitErr.Stderr}
	}
	if err != nil {
		return &types.TransportError{Op: "syslog", Err: err}
	}
	return nil
}
