// Package agent builds instrumentation agents written as node packages.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/user/fridacode/internal/launcher"
	"github.com/user/fridacode/internal/types"
)

// Runner runs a command in a working directory. launcher.ExecRunner
// satisfies it.
type Runner interface {
	RunIn(ctx context.Context, dir, name string, args []string, stdin []byte) (*launcher.Result, error)
}

// Compiler installs and builds the package an agent script belongs to.
type Compiler struct {
	runner Runner
	npm    string
}

func NewCompiler(runner Runner, npm string) *Compiler {
	if npm == "" {
		npm = "npm"
	}
	return &Compiler{runner: runner, npm: npm}
}

// FindPackageDir returns the directory holding package.json for script: the
// script's own directory, else its parent.
func FindPackageDir(script string) (string, error) {
	abs, err := filepath.Abs(script)
	if err != nil {
		return "", &types.FilesystemError{Op: "resolve", Path: script, Err: err}
	}
	dir := filepath.Dir(abs)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	for _, candidate := range []string{dir, filepath.Dir(dir)} {
		_, err := os.Stat(filepath.Join(candidate, "package.json"))
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", &types.FilesystemError{Op: "stat", Path: candidate, Err: err}
		}
	}
	return "", &types.PreconditionError{Op: "compile", Reason: fmt.Sprintf("%s is not in a node package: missing package.json", script)}
}

// Compile runs "npm install" in the script's package directory, which
// triggers the package's own build step. It returns that directory.
func (c *Compiler) Compile(ctx context.Context, script string) (string, error) {
	dir, err := FindPackageDir(script)
	if err != nil {
		return "", err
	}
	slog.Info("compiling agent", "dir", dir)

	res, err := c.runner.RunIn(ctx, dir, c.npm, []string{"install"}, nil)
	if err != nil {
		return dir, &types.TransportError{Op: "compile", Err: err}
	}
	if res.ExitCode != 0 {
		return dir, &types.TransportError{Op: "compile", ExitCode: res.ExitCode, Stderr: string(bytes.TrimSpace(res.Stderr))}
	}
	return dir, nil
}
