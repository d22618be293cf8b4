package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/fridacode/internal/inspector"
	"github.com/user/fridacode/internal/namespace"
	"github.com/user/fridacode/internal/scheduler"
	"github.com/user/fridacode/internal/types"
)

// watchFromConfig is the --watch value used when the flag is given bare.
const watchFromConfig = "config"

var (
	devicesWithApps bool
	watchSchedule   string
	classesPath     string
	classesDepth    int
)

func init() {
	rootCmd.AddCommand(devicesCmd, appsCmd, psCmd, classesCmd)

	devicesCmd.Flags().BoolVar(&devicesWithApps, "apps", false, "also list the apps installed on every device")

	for _, c := range []*cobra.Command{appsCmd, psCmd} {
		c.Flags().StringVar(&watchSchedule, "watch", "", "re-list on a cron schedule (bare flag uses watch_schedule)")
		c.Flags().Lookup("watch").NoOptDefVal = watchFromConfig
	}

	classesCmd.Flags().StringVar(&classesPath, "path", "", "only show the subtree under this package")
	classesCmd.Flags().IntVar(&classesDepth, "depth", 0, "maximum depth to print (0 for all)")
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		backend := newBackend(cfg)
		devices, err := backend.Devices(ctx)
		if err != nil {
			return fmt.Errorf("list devices: %w", err)
		}
		if !devicesWithApps {
			return printDevices(os.Stdout, devices)
		}

		apps := make([][]types.App, len(devices))
		errs := make([]error, len(devices))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, d := range devices {
			g.Go(func() error {
				// A device that cannot list apps is reported, not fatal.
				apps[i], errs[i] = backend.Apps(gctx, d.ID)
				return nil
			})
		}
		g.Wait()

		for i, d := range devices {
			fmt.Fprintf(os.Stdout, "%s (%s, %s)\n", d.Name, d.ID, d.Type)
			if errs[i] != nil {
				fmt.Fprintf(os.Stdout, "  %v\n\n", errs[i])
				continue
			}
			var buf strings.Builder
			if err := printApps(&buf, apps[i]); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, indentLines(buf.String()))
		}
		return nil
	},
}

var appsCmd = &cobra.Command{
	Use:   "apps <device>",
	Short: "List the apps installed on a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListing(args[0], func(ctx context.Context, b *inspector.Backend) error {
			apps, err := b.Apps(ctx, args[0])
			if err != nil {
				return fmt.Errorf("list apps: %w", err)
			}
			return printApps(os.Stdout, apps)
		})
	},
}

var psCmd = &cobra.Command{
	Use:   "ps <device>",
	Short: "List the processes running on a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListing(args[0], func(ctx context.Context, b *inspector.Backend) error {
			ps, err := b.Processes(ctx, args[0])
			if err != nil {
				return fmt.Errorf("list processes: %w", err)
			}
			return printProcesses(os.Stdout, ps)
		})
	},
}

// runListing runs list once, or on a schedule until interrupted when --watch
// is set.
func runListing(name string, list func(ctx context.Context, b *inspector.Backend) error) error {
	cfg := loadConfig()
	setupLogging(cfg)
	ctx, cancel := signalContext()
	defer cancel()

	backend := newBackend(cfg)
	if watchSchedule == "" {
		return list(ctx, backend)
	}

	schedule := watchSchedule
	if schedule == watchFromConfig {
		schedule = cfg.WatchSchedule
	}
	if err := scheduler.Validate(schedule); err != nil {
		return err
	}

	refresh := func(ctx context.Context) error {
		fmt.Fprintf(os.Stdout, "\n-- %s %s --\n", name, time.Now().Format("15:04:05"))
		return list(ctx, backend)
	}
	if err := refresh(ctx); err != nil {
		return err
	}

	r := scheduler.New(ctx)
	if err := r.Add(name, schedule, refresh); err != nil {
		return err
	}
	r.Start()
	<-ctx.Done()
	r.Stop()
	return nil
}

var classesCmd = &cobra.Command{
	Use:   "classes <device> <pid>",
	Short: "Show the classes loaded in a process as a package tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		pid, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid pid %q", args[1])
		}

		names, err := newBackend(cfg).Classes(ctx, args[0], pid)
		if err != nil {
			return fmt.Errorf("list classes: %w", err)
		}
		idx, err := namespace.Build(names)
		if err != nil {
			return err
		}

		roots := idx.Roots()
		if classesPath != "" {
			n, ok := idx.Lookup(classesPath)
			if !ok {
				return fmt.Errorf("no package %s in process %d", classesPath, pid)
			}
			roots = []*namespace.Node{n}
		}
		printTree(os.Stdout, roots, classesDepth)
		return nil
	},
}

var (
	packageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	classStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func printTree(w io.Writer, roots []*namespace.Node, depth int) {
	namespace.Walk(roots, depth, func(n *namespace.Node, d int) {
		pad := strings.Repeat("  ", d)
		switch n.Kind {
		case namespace.KindPackage:
			fmt.Fprintf(w, "%s%s %s\n", pad, packageStyle.Render(n.Name+"/"), faintStyle.Render(strconv.Itoa(len(n.Children))))
		case namespace.KindClass:
			fmt.Fprintf(w, "%s%s\n", pad, classStyle.Render(n.Name))
		}
	})
}

func printDevices(out io.Writer, devices []types.Device) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, d.Type)
	}
	return w.Flush()
}

func printApps(out io.Writer, apps []types.App) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tIDENTIFIER")
	for _, a := range apps {
		pid := "-"
		if a.Running() {
			pid = strconv.Itoa(a.PID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", pid, a.Name, a.Identifier)
	}
	return w.Flush()
}

func printProcesses(out io.Writer, ps []types.Process) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME")
	for _, p := range ps {
		fmt.Fprintf(w, "%d\t%s\n", p.PID, p.Name)
	}
	return w.Flush()
}

func indentLines(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
