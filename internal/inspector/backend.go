// Package inspector talks to the device enumeration backend: a Python driver
// printing JSON on stdout, plus the frida and frida-kill command-line tools.
// Calls are never retried; failures surface as typed errors.
package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/user/fridacode/internal/config"
	"github.com/user/fridacode/internal/launcher"
	"github.com/user/fridacode/internal/types"
)

// Config locates the backend driver and the tools.
type Config struct {
	Python          string
	Driver          string
	Tool            string
	KillTool        string
	EnableRemote    bool
	RemoteAddresses []string
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Python:          cfg.Python,
		Driver:          cfg.DriverPath,
		Tool:            cfg.Tool,
		KillTool:        cfg.KillTool,
		EnableRemote:    cfg.Device.EnableRemote,
		RemoteAddresses: cfg.Device.RemoteAddresses,
	}
}

// Backend implements types.Inspector. Identical listing requests in flight
// at the same time share one driver invocation.
type Backend struct {
	cfg    Config
	runner launcher.Runner
	group  singleflight.Group
}

func New(cfg Config, runner launcher.Runner) *Backend {
	return &Backend{cfg: cfg, runner: runner}
}

func (b *Backend) Devices(ctx context.Context) ([]types.Device, error) {
	var devices []types.Device
	params := append([]string{"devices"}, b.cfg.RemoteAddresses...)
	if err := b.query(ctx, "devices", "", &devices, params...); err != nil {
		return nil, err
	}
	return devices, nil
}

func (b *Backend) Apps(ctx context.Context, deviceID string) ([]types.App, error) {
	var apps []types.App
	if err := b.query(ctx, "apps", deviceID, &apps, "apps", deviceID); err != nil {
		return nil, err
	}
	return apps, nil
}

func (b *Backend) Processes(ctx context.Context, deviceID string) ([]types.Process, error) {
	var ps []types.Process
	if err := b.query(ctx, "ps", deviceID, &ps, "ps", deviceID); err != nil {
		return nil, err
	}
	return ps, nil
}

func (b *Backend) DeviceType(ctx context.Context, deviceID string) (types.DeviceType, error) {
	var t string
	if err := b.query(ctx, "type", deviceID, &t, "type", deviceID); err != nil {
		return "", err
	}
	return types.DeviceType(t), nil
}

// Classes returns the qualified names of the classes loaded in pid.
func (b *Backend) Classes(ctx context.Context, deviceID string, pid int) ([]string, error) {
	var names []string
	id := strconv.Itoa(pid)
	if err := b.query(ctx, "classes", id, &names, "classes", deviceID, id); err != nil {
		return nil, err
	}
	return names, nil
}

// Launch spawns bundle without a REPL and returns the new pid, which the tool
// prints on the second line of its output.
func (b *Backend) Launch(ctx context.Context, deviceID, bundle string, args types.SessionArgs) (int, error) {
	argv := types.SessionArgs{"-f", bundle}
	argv = append(argv, types.DeviceFlags(types.ParseDevice(deviceID), b.cfg.EnableRemote)...)
	argv = append(argv, "--no-pause", "-q", "-e", "Process.id")
	argv = append(argv, args...)

	out, err := b.exec(ctx, "launch", bundle, b.cfg.Tool, argv, nil)
	if err != nil {
		return 0, err
	}
	lines := strings.Split(string(out), "\n")
	if len(lines) <= 2 {
		return 0, &types.TransportError{Op: "launch", Err: fmt.Errorf("unknown output: %q", out)}
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[1]))
	if err != nil {
		return 0, &types.TransportError{Op: "launch", Err: fmt.Errorf("parse pid: %w", err)}
	}
	return pid, nil
}

// Terminate sends one kill request for pid on dev.
func (b *Backend) Terminate(ctx context.Context, dev types.Device, pid int) error {
	argv := types.KillArgs(dev, pid, b.cfg.EnableRemote)
	_, err := b.exec(ctx, "terminate", strconv.Itoa(pid), b.cfg.KillTool, argv, nil)
	return err
}

// Download reads a file from the target's filesystem through the agent.
func (b *Backend) Download(ctx context.Context, deviceID string, pid int, path string) ([]byte, error) {
	return b.driver(ctx, "download", strconv.Itoa(pid), nil,
		"download", path, "--device", deviceID, "--pid", strconv.Itoa(pid))
}

// Upload writes data to path on the target's filesystem.
func (b *Backend) Upload(ctx context.Context, deviceID string, pid int, path string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := b.driver(ctx, "upload", strconv.Itoa(pid), data,
		"upload", path, "--device", deviceID, "--pid", strconv.Itoa(pid))
	return err
}

// query runs a driver command, coalescing concurrent identical requests, and
// decodes its JSON output into out. The shared call is detached from any one
// caller's cancellation; each caller stops waiting when its own ctx is done.
func (b *Backend) query(ctx context.Context, op, id string, out any, params ...string) error {
	key := strings.Join(params, "\x00")
	ch := b.group.DoChan(key, func() (any, error) {
		return b.driver(context.WithoutCancel(ctx), op, id, nil, params...)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Shared {
		slog.Debug("backend call shared", "op", op)
	}
	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		return &types.TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

func (b *Backend) driver(ctx context.Context, op, id string, stdin []byte, params ...string) ([]byte, error) {
	args := append([]string{b.cfg.Driver}, params...)
	return b.exec(ctx, op, id, b.cfg.Python, args, stdin)
}

func (b *Backend) exec(ctx context.Context, op, id, bin string, args []string, stdin []byte) ([]byte, error) {
	slog.Debug("backend exec", "op", op, "cmd", bin+" "+strings.Join(args, " "))

	res, err := b.runner.Run(ctx, bin, args, stdin)
	if err != nil {
		return nil, &types.TransportError{Op: op, Err: err}
	}
	if res.ExitCode != 0 {
		stderr := string(bytes.TrimSpace(res.Stderr))
		if isNotFound(stderr) {
			return nil, &types.NotFoundError{Kind: notFoundKind(op), ID: id, Err: fmt.Errorf("%s", stderr)}
		}
		return nil, &types.TransportError{Op: op, ExitCode: res.ExitCode, Stderr: stderr}
	}
	return res.Stdout, nil
}

var notFoundMarkers = []string{
	"unable to find",
	"not found",
	"no such process",
	"process not found",
	"device is gone",
	"unable to connect",
}

func isNotFound(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, m := range notFoundMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func notFoundKind(op string) string {
	switch op {
	case "apps", "ps", "type":
		return "device"
	case "launch":
		return "app"
	default:
		return "process"
	}
}

var _ types.Inspector = (*Backend)(nil)
