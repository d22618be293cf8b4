package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_Stdout(t *testing.T) {
	r := NewExecRunner()
	res, err := r.Run(context.Background(), "sh", []string{"-c", "echo hello"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(res.Stdout)) != "hello" {
		t.Errorf("expected 'hello', got %q", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", res.ExitCode)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	r := NewExecRunner()
	res, err := r.Run(context.Background(), "sh", []string{"-c", "echo boom >&2; exit 3"}, nil)
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", res.ExitCode)
	}
	if !strings.Contains(string(res.Stderr), "boom") {
		t.Errorf("expected stderr captured, got %q", res.Stderr)
	}
}

func TestExecRunner_Stdin(t *testing.T) {
	r := NewExecRunner()
	res, err := r.Run(context.Background(), "cat", nil, []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Stdout) != "payload" {
		t.Errorf("expected stdin echoed, got %q", res.Stdout)
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewExecRunner()
	if _, err := r.Run(context.Background(), "fridacode-no-such-binary", nil, nil); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestExecRunner_Cancelled(t *testing.T) {
	r := NewExecRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, "sleep", []string{"10"}, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("cancellation took too long: %v", time.Since(start))
	}
}

func TestExecRunner_RunInDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewExecRunner()
	res, err := r.RunIn(context.Background(), dir, "pwd", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(string(res.Stdout)))
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("expected cwd %s, got %s", want, got)
	}
	if cwd, _ := os.Getwd(); cwd == dir {
		t.Error("RunIn changed our own working directory")
	}
}

func TestExecRunner_Stream(t *testing.T) {
	r := NewExecRunner()
	var out bytes.Buffer
	if err := r.Stream(context.Background(), "sh", []string{"-c", "echo one; echo two"}, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "one\ntwo\n" {
		t.Errorf("unexpected stream output %q", out.String())
	}
}

func TestExecRunner_StreamExitError(t *testing.T) {
	r := NewExecRunner()
	err := r.Stream(context.Background(), "sh", []string{"-c", "echo partial; echo gone >&2; exit 2"}, &bytes.Buffer{})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.ExitCode != 2 || exitErr.Stderr != "gone" {
		t.Errorf("unexpected exit error %+v", exitErr)
	}
}

func TestExecRunner_StreamCancelled(t *testing.T) {
	r := NewExecRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := r.Stream(ctx, "sleep", []string{"10"}, &bytes.Buffer{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
