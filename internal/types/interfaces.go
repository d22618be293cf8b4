package types

import (
	"context"
)

// Inspector is the boundary to the device enumeration backend and the
// instrumentation tool. Implementations do not retry.
type Inspector interface {
	Devices(ctx context.Context) ([]Device, error)
	Apps(ctx context.Context, deviceID string) ([]App, error)
	Processes(ctx context.Context, deviceID string) ([]Process, error)
	DeviceType(ctx context.Context, deviceID string) (DeviceType, error)
	Classes(ctx context.Context, deviceID string, pid int) ([]string, error)
	Launch(ctx context.Context, deviceID, bundle string, args SessionArgs) (int, error)
	Terminate(ctx context.Context, dev Device, pid int) error
	Download(ctx context.Context, deviceID string, pid int, path string) ([]byte, error)
	Upload(ctx context.Context, deviceID string, pid int, path string, data []byte) error
}

// HistoryStore records launched sessions.
type HistoryStore interface {
	Append(ctx context.Context, rec *SessionRecord) error
	Tail(ctx context.Context, limit int) ([]*SessionRecord, error)
	Count(ctx context.Context) (int64, error)
}

// ScriptChoice is the answer to "load a script into this session?".
type ScriptChoice int

const (
	ScriptSkip ScriptChoice = iota
	ScriptFile
	ScriptEditor
)

func (c ScriptChoice) String() string {
	switch c {
	case ScriptFile:
		return "file"
	case ScriptEditor:
		return "editor"
	default:
		return "skip"
	}
}

// ScriptChooser asks the user which script, if any, to inject.
type ScriptChooser interface {
	Choose(ctx context.Context) (ScriptChoice, string, error)
}
