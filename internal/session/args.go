// Package session builds instrumentation tool invocations for spawning,
// attaching to, killing and replaying sessions against a target.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/user/fridacode/internal/artifact"
	"github.com/user/fridacode/internal/config"
	"github.com/user/fridacode/internal/types"
)

type Operation string

const (
	OpSpawn          Operation = "spawn"
	OpSpawnSuspended Operation = "spawn-suspended"
	OpAttach         Operation = "attach"
	OpKill           Operation = "kill"
	OpResumeLast     Operation = "resume-last"
)

// Target is the app or process an operation acts on. Bundle is required to
// spawn, PID to attach or kill.
type Target struct {
	Device types.Device
	Bundle string
	PID    int
}

// Options is the slice of configuration the builder reads.
type Options struct {
	Runtime          string
	EnableRemote     bool
	Log              bool
	SaveScriptAndLog bool
	SaveDirectory    string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Runtime:          cfg.Runtime,
		EnableRemote:     cfg.Device.EnableRemote,
		Log:              cfg.Output.Log,
		SaveScriptAndLog: cfg.Output.SaveScriptAndLog,
		SaveDirectory:    cfg.Output.SaveDirectory,
	}
}

// Builder assembles argument vectors. It reads the last vector from store for
// resume-last but never writes it.
type Builder struct {
	opts    Options
	namer   *artifact.Namer
	chooser types.ScriptChooser
	store   *Store
}

// NewBuilder creates a Builder. A nil chooser never loads a script.
func NewBuilder(opts Options, namer *artifact.Namer, chooser types.ScriptChooser, store *Store) *Builder {
	return &Builder{opts: opts, namer: namer, chooser: chooser, store: store}
}

// BuildArgs returns the argument vector for op against target. Missing
// optional inputs are omitted; a missing bundle or pid is a
// *types.PreconditionError.
func (b *Builder) BuildArgs(ctx context.Context, op Operation, target Target) (types.SessionArgs, error) {
	switch op {
	case OpSpawn, OpSpawnSuspended:
		if target.Bundle == "" {
			return nil, &types.PreconditionError{Op: string(op), Reason: "bundle identifier is required"}
		}
		args := types.SessionArgs{"-f", target.Bundle}
		if op == OpSpawn {
			args = append(args, "--no-pause")
		}
		return b.sessionArgs(ctx, args, target, target.Bundle)

	case OpAttach:
		if target.PID == 0 {
			return nil, &types.PreconditionError{Op: string(op), Reason: "target must be running before attaching to it"}
		}
		pid := strconv.Itoa(target.PID)
		return b.sessionArgs(ctx, types.SessionArgs{pid}, target, pid)

	case OpKill:
		if target.PID == 0 {
			return nil, &types.PreconditionError{Op: string(op), Reason: "target is not running"}
		}
		return types.KillArgs(target.Device, target.PID, b.opts.EnableRemote), nil

	case OpResumeLast:
		last := b.store.Last()
		if len(last) == 0 {
			return nil, &types.PreconditionError{Op: string(op), Reason: "no configuration to run yet"}
		}
		return Rewrite(last, b.namer)
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}

func (b *Builder) sessionArgs(ctx context.Context, args types.SessionArgs, target Target, label string) (types.SessionArgs, error) {
	script, err := b.script(ctx)
	if err != nil {
		return nil, err
	}
	if script != "" {
		args = append(args, "-l", script)
	}

	args = append(args, types.DeviceFlags(target.Device, b.opts.EnableRemote)...)

	output, err := b.output(script, deviceName(target.Device), label)
	if err != nil {
		return nil, err
	}
	args = append(args, output...)

	if b.opts.Runtime != "" {
		args = append(args, "--runtime", b.opts.Runtime)
	}
	return args, nil
}

func (b *Builder) script(ctx context.Context) (string, error) {
	if b.chooser == nil {
		return "", nil
	}
	choice, path, err := b.chooser.Choose(ctx)
	if err != nil {
		return "", fmt.Errorf("choose script: %w", err)
	}
	if choice == types.ScriptSkip {
		return "", nil
	}
	slog.Debug("script selected", "choice", choice.String(), "path", path)
	return path, nil
}

// output returns the -o pair. With save-script-and-log the log goes into a
// fresh save/<ts> directory next to a copy of the script.
func (b *Builder) output(script, device, label string) (types.SessionArgs, error) {
	if !b.opts.Log || b.opts.SaveDirectory == "" {
		return nil, nil
	}

	ts := b.namer.Timestamp()
	name := artifact.LogFileNameAt(script, device, label, ts)

	if b.opts.SaveScriptAndLog && script != "" {
		dir := artifact.SaveDirectoryAt(b.opts.SaveDirectory, ts)
		if err := artifact.EnsureDir(dir); err != nil {
			return nil, err
		}
		if _, err := artifact.CopyScript(script, dir); err != nil {
			return nil, err
		}
		return types.SessionArgs{"-o", filepath.Join(dir, name)}, nil
	}
	return types.SessionArgs{"-o", filepath.Join(b.opts.SaveDirectory, name)}, nil
}

func deviceName(d types.Device) string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}
