package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/user/fridacode/internal/launcher"
	"github.com/user/fridacode/internal/types"
)

// PromptChooser asks on the console whether to load a script. "editor"
// opens a new script file in $EDITOR and loads whatever was saved.
type PromptChooser struct {
	scanner   *bufio.Scanner
	out       io.Writer
	editor    string
	scriptDir string
}

// NewPromptChooser reads answers from scanner. New editor scripts are
// created under scriptDir.
func NewPromptChooser(scanner *bufio.Scanner, out io.Writer, editor, scriptDir string) *PromptChooser {
	if editor == "" {
		editor = "vi"
	}
	return &PromptChooser{scanner: scanner, out: out, editor: editor, scriptDir: scriptDir}
}

func (c *PromptChooser) Choose(ctx context.Context) (types.ScriptChoice, string, error) {
	answer := prompt(c.scanner, c.out, "Load a script? (skip/file/editor)", "skip")
	switch strings.ToLower(answer) {
	case "s", "skip":
		return types.ScriptSkip, "", nil
	case "f", "file":
		path := prompt(c.scanner, c.out, "Script path", "")
		if path == "" {
			return types.ScriptSkip, "", nil
		}
		if _, err := os.Stat(path); err != nil {
			return types.ScriptSkip, "", fmt.Errorf("script %s: %w", path, err)
		}
		return types.ScriptFile, path, nil
	case "e", "editor":
		path, err := c.edit(ctx)
		if err != nil {
			return types.ScriptSkip, "", err
		}
		return types.ScriptEditor, path, nil
	}
	return types.ScriptSkip, "", fmt.Errorf("unknown answer %q", answer)
}

func (c *PromptChooser) edit(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.scriptDir, 0o755); err != nil {
		return "", &types.FilesystemError{Op: "mkdir", Path: c.scriptDir, Err: err}
	}
	f, err := os.CreateTemp(c.scriptDir, "script-*.js")
	if err != nil {
		return "", &types.FilesystemError{Op: "create", Path: c.scriptDir, Err: err}
	}
	path := f.Name()
	f.Close()

	bin, args := launcher.Platformize(c.editor, []string{path})
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = c.out
	cmd.Stderr = c.out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", c.editor, err)
	}
	return path, nil
}

// prompt prints label (with its default) and returns the trimmed answer, or
// the default when the answer is empty or input is exhausted.
func prompt(scanner *bufio.Scanner, out io.Writer, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
