package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/user/fridacode/internal/types"
)

// Launcher hands an argument vector to the instrumentation tool.
type Launcher interface {
	Launch(ctx context.Context, args types.SessionArgs) error
	Tool() string
}

// Manager runs operations end to end: build the vector, remember it, record
// it in the history and hand it to the launcher.
type Manager struct {
	builder   *Builder
	store     *Store
	inspector types.Inspector
	launcher  Launcher
	history   types.HistoryStore
}

// NewManager wires a Manager. history may be nil.
func NewManager(builder *Builder, store *Store, inspector types.Inspector, launcher Launcher, history types.HistoryStore) *Manager {
	return &Manager{
		builder:   builder,
		store:     store,
		inspector: inspector,
		launcher:  launcher,
		history:   history,
	}
}

// Start runs spawn, spawn-suspended, attach or resume-last.
func (m *Manager) Start(ctx context.Context, op Operation, target Target) (types.SessionArgs, error) {
	if op == OpKill {
		return nil, fmt.Errorf("use Kill to terminate a target")
	}

	args, err := m.builder.BuildArgs(ctx, op, target)
	if err != nil {
		return nil, err
	}
	m.store.Remember(args)

	if m.history != nil {
		rec := &types.SessionRecord{
			ID:        types.NewSessionID(),
			Operation: string(op),
			DeviceID:  deviceID(target, args),
			Target:    targetLabel(op, target),
			Tool:      m.launcher.Tool(),
			Args:      args,
			At:        time.Now(),
		}
		if err := m.history.Append(ctx, rec); err != nil {
			slog.Warn("failed to record session", "error", err)
		}
	}

	slog.Info("launching session", "operation", string(op), "tool", m.launcher.Tool(), "args", args.String())
	if err := m.launcher.Launch(ctx, args); err != nil {
		return args, fmt.Errorf("%s: %w", op, err)
	}
	return args, nil
}

// Kill sends one terminate request for target. A target without a pid is
// refused before the backend is contacted.
func (m *Manager) Kill(ctx context.Context, target Target) error {
	args, err := m.builder.BuildArgs(ctx, OpKill, target)
	if err != nil {
		return err
	}
	slog.Info("terminating target", "args", args.String())
	return m.inspector.Terminate(ctx, target.Device, target.PID)
}

// Last exposes the remembered vector.
func (m *Manager) Last() types.SessionArgs {
	return m.store.Last()
}

// deviceID falls back to the vector's own device flag for replays, which
// carry no target.
func deviceID(t Target, args types.SessionArgs) string {
	if t.Device.ID != "" {
		return t.Device.ID
	}
	if id, ok := args.Value("--device"); ok {
		return id
	}
	if host, ok := args.Value("-H"); ok {
		return "remote@" + host
	}
	return ""
}

func targetLabel(op Operation, t Target) string {
	switch op {
	case OpSpawn, OpSpawnSuspended:
		return t.Bundle
	case OpResumeLast:
		return ""
	}
	return strconv.Itoa(t.PID)
}
