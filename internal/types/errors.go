package types

import (
	"errors"
	"fmt"
)

// TransportError reports a backend or tool invocation that exited non-zero
// or produced output that could not be parsed.
type TransportError struct {
	Op       string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s: transport error", e.Op)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError reports a device, app or process that vanished between
// listing and action.
type NotFoundError struct {
	Kind string
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// PreconditionError is returned before any external call when a required
// identity is missing.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// FilesystemError wraps a directory creation or file copy failure.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// ValidationError rejects a malformed qualified name.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid qualified name %q: %s", e.Name, e.Reason)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
