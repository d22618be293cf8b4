package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/user/fridacode/internal/artifact"
	"github.com/user/fridacode/internal/explorer"
	"github.com/user/fridacode/internal/namespace"
	"github.com/user/fridacode/internal/session"
	"github.com/user/fridacode/internal/types"
)

// Deps are the collaborators a console drives.
type Deps struct {
	Inspector types.Inspector
	Launcher  session.Launcher
	History   types.HistoryStore
	Options   session.Options
	Namer     *artifact.Namer
	Editor    string
	ScriptDir string
}

type Console struct {
	scanner  *bufio.Scanner
	out      io.Writer
	store    *session.Store
	manager  *session.Manager
	explorer *explorer.Provider
	// trees holds the last class enumeration per device/pid; expansion reads
	// it and only "classes --refresh" enumerates again.
	trees    map[string]*namespace.TreeIndex
	deps     Deps
	registry *Registry
}

// New creates a console reading commands from in. Script prompts share the
// same input.
func New(in io.Reader, out io.Writer, deps Deps) *Console {
	scanner := bufio.NewScanner(in)
	store := session.NewStore()
	chooser := NewPromptChooser(scanner, out, deps.Editor, deps.ScriptDir)
	builder := session.NewBuilder(deps.Options, deps.Namer, chooser, store)

	c := &Console{
		scanner:  scanner,
		out:      out,
		store:    store,
		manager:  session.NewManager(builder, store, deps.Inspector, deps.Launcher, deps.History),
		explorer: explorer.NewProvider(deps.Inspector, explorer.ModeProcesses),
		trees:    make(map[string]*namespace.TreeIndex),
		deps:     deps,
		registry: NewRegistry(),
	}
	c.registerCommands()
	return c
}

// Registry exposes the registered commands.
func (c *Console) Registry() *Registry { return c.registry }

// Run reads and executes commands until "quit", end of input or ctx is done.
// Command errors are printed and the loop continues.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "fridacode console. Type 'help' for commands.")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "fridacode> ")
		if !c.scanner.Scan() {
			fmt.Fprintln(c.out)
			return c.scanner.Err()
		}
		fields := strings.Fields(c.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]
		if name == "quit" || name == "exit" {
			return nil
		}
		c.Exec(ctx, name, args)
	}
}

// Exec runs one command and prints its result.
func (c *Console) Exec(ctx context.Context, name string, args []string) {
	cmd, ok := c.registry.Get(name)
	if !ok {
		fmt.Fprintf(c.out, "unknown command %q, type 'help'\n", name)
		return
	}
	out, err := cmd.Execute(ctx, args)
	if err != nil {
		var ue *usageError
		if !errors.As(err, &ue) {
			slog.Debug("console command failed", "command", name, "error", err)
		}
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	if out != "" {
		fmt.Fprint(c.out, out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Fprintln(c.out)
		}
	}
}
