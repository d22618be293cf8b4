// Package artifact derives the timestamped names of session logs and of the
// directories scripts are saved into next to them.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/fridacode/internal/types"
)

// TimestampLayout renders YYYYMMDDHHmmss.
const TimestampLayout = "20060102150405"

// SaveDirName is the directory under the save root holding per-session
// script copies.
const SaveDirName = "save"

// Namer computes artifact names against a clock.
type Namer struct {
	now func() time.Time
}

func New() *Namer {
	return &Namer{now: time.Now}
}

// NewWithClock creates a Namer reading time from now.
func NewWithClock(now func() time.Time) *Namer {
	return &Namer{now: now}
}

// Timestamp returns the current time at one-second resolution.
func (n *Namer) Timestamp() string {
	return n.now().Format(TimestampLayout)
}

// LogFileName returns {scriptBase_}_{device}_{target}_{timestamp}.log.
func (n *Namer) LogFileName(scriptPath, deviceName, targetLabel string) string {
	return LogFileNameAt(scriptPath, deviceName, targetLabel, n.Timestamp())
}

// LogFileNameAt is LogFileName with an explicit timestamp.
func LogFileNameAt(scriptPath, deviceName, targetLabel, ts string) string {
	return fmt.Sprintf("%s_%s_%s_%s.log", scriptPrefix(scriptPath), deviceName, targetLabel, ts)
}

func scriptPrefix(scriptPath string) string {
	if scriptPath == "" {
		return ""
	}
	base := filepath.Base(scriptPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_"
}

// SaveDirectoryFor returns baseDir/save/{timestamp}.
func (n *Namer) SaveDirectoryFor(baseDir string) string {
	return SaveDirectoryAt(baseDir, n.Timestamp())
}

func SaveDirectoryAt(baseDir, ts string) string {
	return filepath.Join(baseDir, SaveDirName, ts)
}

// IsTimestamp reports whether s has the shape produced by Timestamp.
func IsTimestamp(s string) bool {
	if len(s) != len(TimestampLayout) {
		return false
	}
	_, err := time.Parse(TimestampLayout, s)
	return err == nil
}

// EnsureDir creates dir and its parents. An existing directory is not an
// error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.FilesystemError{Op: "create directory", Path: dir, Err: err}
	}
	return nil
}

// CopyScript copies scriptPath into dir under its own file name and returns
// the destination path.
func CopyScript(scriptPath, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(scriptPath))

	src, err := os.Open(scriptPath)
	if err != nil {
		return "", &types.FilesystemError{Op: "open script", Path: scriptPath, Err: err}
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &types.FilesystemError{Op: "create script copy", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", &types.FilesystemError{Op: "copy script", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return "", &types.FilesystemError{Op: "close script copy", Path: dst, Err: err}
	}
	return dst, nil
}
