package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/user/fridacode/internal/explorer"
	"github.com/user/fridacode/internal/inspector"
	"github.com/user/fridacode/internal/namespace"
	"github.com/user/fridacode/internal/session"
	"github.com/user/fridacode/internal/types"
)

func (c *Console) registerCommands() {
	for _, cmd := range []*command{
		{name: "help", usage: "help", description: "List commands", run: c.help},
		{name: "devices", usage: "devices", description: "List devices", run: c.devices},
		{name: "apps", usage: "apps <device>", description: "List installed apps", minArgs: 1, run: c.apps},
		{name: "ps", usage: "ps <device>", description: "List running processes", minArgs: 1, run: c.ps},
		{name: "classes", usage: "classes <device> <pid> [package] [--refresh]", description: "Browse loaded classes", minArgs: 2, run: c.classes},
		{name: "spawn", usage: "spawn <device> <bundle>", description: "Spawn an app and open a REPL", minArgs: 2, run: c.spawn(session.OpSpawn)},
		{name: "spawn-suspended", usage: "spawn-suspended <device> <bundle>", description: "Spawn an app paused at startup", minArgs: 2, run: c.spawn(session.OpSpawnSuspended)},
		{name: "attach", usage: "attach <device> <pid>", description: "Attach a REPL to a running process", minArgs: 2, run: c.attach},
		{name: "kill", usage: "kill <device> <pid>", description: "Terminate a process", minArgs: 2, run: c.kill},
		{name: "last", usage: "last", description: "Run the last session again", run: c.last},
		{name: "show", usage: "show", description: "Print the last session arguments", run: c.show},
		{name: "clear", usage: "clear", description: "Forget the last session", run: c.clear},
	} {
		c.registry.Register(cmd)
	}
}

func (c *Console) help(context.Context, []string) (string, error) {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, cmd := range c.registry.All() {
		fmt.Fprintf(w, "  %s\t%s\n", cmd.Usage(), cmd.Description())
	}
	fmt.Fprintf(w, "  quit\tLeave the console\n")
	w.Flush()
	return b.String(), nil
}

func (c *Console) devices(ctx context.Context, _ []string) (string, error) {
	devices, err := c.deps.Inspector.Devices(ctx)
	if err != nil {
		return "", err
	}
	return table("ID\tNAME\tTYPE", len(devices), func(i int) string {
		d := devices[i]
		return fmt.Sprintf("%s\t%s\t%s", d.ID, d.Name, d.Type)
	}), nil
}

func (c *Console) apps(ctx context.Context, args []string) (string, error) {
	apps, err := c.deps.Inspector.Apps(ctx, args[0])
	if err != nil {
		return "", err
	}
	return table("PID\tNAME\tIDENTIFIER", len(apps), func(i int) string {
		a := apps[i]
		return fmt.Sprintf("%s\t%s\t%s", pidColumn(a.PID), a.Name, a.Identifier)
	}), nil
}

func (c *Console) ps(ctx context.Context, args []string) (string, error) {
	ps, err := c.deps.Inspector.Processes(ctx, args[0])
	if err != nil {
		return "", err
	}
	return table("PID\tNAME", len(ps), func(i int) string {
		return fmt.Sprintf("%d\t%s", ps[i].PID, ps[i].Name)
	}), nil
}

func (c *Console) classes(ctx context.Context, args []string) (string, error) {
	refresh := false
	var rest []string
	for _, a := range args {
		if a == "--refresh" {
			refresh = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) < 2 {
		return "", &usageError{usage: "classes <device> <pid> [package] [--refresh]"}
	}
	pid, err := parsePID(rest[1])
	if err != nil {
		return "", err
	}
	dev := types.ParseDevice(rest[0])
	proc := types.Process{PID: pid}

	key := treeKey(dev.ID, pid)
	idx, ok := c.trees[key]
	if !ok || refresh {
		idx, err = c.explorer.Namespace(ctx, dev, proc)
		if err != nil {
			return "", err
		}
		c.trees[key] = idx
	}

	items := explorer.NamespaceItems(dev, proc, idx, idx.Roots())
	if len(rest) > 2 {
		n, ok := idx.Lookup(rest[2])
		if !ok {
			return "", fmt.Errorf("no package %s in process %d", rest[2], pid)
		}
		parent := explorer.NamespaceItems(dev, proc, idx, []*namespace.Node{n})[0]
		if items, err = c.explorer.Children(ctx, parent); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%-8s %s\n", it.Kind, it.Description())
	}
	return b.String(), nil
}

func treeKey(deviceID string, pid int) string {
	return deviceID + "/" + strconv.Itoa(pid)
}

func (c *Console) spawn(op session.Operation) func(context.Context, []string) (string, error) {
	return func(ctx context.Context, args []string) (string, error) {
		dev, err := inspector.ResolveDevice(ctx, c.deps.Inspector, args[0])
		if err != nil {
			return "", err
		}
		_, err = c.manager.Start(ctx, op, session.Target{Device: dev, Bundle: args[1]})
		return "", err
	}
}

func (c *Console) attach(ctx context.Context, args []string) (string, error) {
	target, err := c.processTarget(ctx, args)
	if err != nil {
		return "", err
	}
	_, err = c.manager.Start(ctx, session.OpAttach, target)
	return "", err
}

func (c *Console) kill(ctx context.Context, args []string) (string, error) {
	target, err := c.processTarget(ctx, args)
	if err != nil {
		return "", err
	}
	if err := c.manager.Kill(ctx, target); err != nil {
		return "", err
	}
	delete(c.trees, treeKey(target.Device.ID, target.PID))
	return fmt.Sprintf("terminated %d", target.PID), nil
}

func (c *Console) last(ctx context.Context, _ []string) (string, error) {
	_, err := c.manager.Start(ctx, session.OpResumeLast, session.Target{})
	return "", err
}

func (c *Console) show(context.Context, []string) (string, error) {
	last := c.store.Last()
	if len(last) == 0 {
		return "no configuration to run yet", nil
	}
	return c.deps.Launcher.Tool() + " " + last.String(), nil
}

func (c *Console) clear(context.Context, []string) (string, error) {
	c.store.Clear()
	return "last session forgotten", nil
}

func (c *Console) processTarget(ctx context.Context, args []string) (session.Target, error) {
	pid, err := parsePID(args[1])
	if err != nil {
		return session.Target{}, err
	}
	dev, err := inspector.ResolveDevice(ctx, c.deps.Inspector, args[0])
	if err != nil {
		return session.Target{}, err
	}
	return session.Target{Device: dev, PID: pid}, nil
}

func parsePID(s string) (int, error) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid < 0 {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	return pid, nil
}

func pidColumn(pid int) string {
	if pid == 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

func table(header string, n int, row func(i int) string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	for i := 0; i < n; i++ {
		fmt.Fprintln(w, row(i))
	}
	w.Flush()
	return b.String()
}
