package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/fridacode/internal/inspector"
	"github.com/user/fridacode/internal/session"
	"github.com/user/fridacode/internal/state"
	"github.com/user/fridacode/internal/types"
)

var (
	spawnSuspended bool
	scriptPath     string
	historyLimit   int
)

func init() {
	rootCmd.AddCommand(spawnCmd, attachCmd, killCmd, launchCmd, historyCmd)

	spawnCmd.Flags().BoolVar(&spawnSuspended, "suspended", false, "leave the app paused at startup")
	for _, c := range []*cobra.Command{spawnCmd, attachCmd} {
		c.Flags().StringVarP(&scriptPath, "script", "l", "", "script to load into the session")
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of sessions to show (0 for all)")
}

var spawnCmd = &cobra.Command{
	Use:   "spawn <device> <bundle>",
	Short: "Spawn an app and open a REPL on it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		op := session.OpSpawn
		if spawnSuspended {
			op = session.OpSpawnSuspended
		}
		return startSession(op, args[0], func(dev types.Device) (session.Target, error) {
			return session.Target{Device: dev, Bundle: args[1]}, nil
		})
	},
}

var attachCmd = &cobra.Command{
	Use:   "attach <device> <pid>",
	Short: "Attach a REPL to a running process",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return startSession(session.OpAttach, args[0], func(dev types.Device) (session.Target, error) {
			pid, err := strconv.Atoi(args[1])
			if err != nil {
				return session.Target{}, fmt.Errorf("invalid pid %q", args[1])
			}
			return session.Target{Device: dev, PID: pid}, nil
		})
	},
}

// startSession resolves the device and runs op with the REPL on this
// terminal until it exits.
func startSession(op session.Operation, deviceID string, target func(types.Device) (session.Target, error)) error {
	cfg := loadConfig()
	setupLogging(cfg)

	lookupCtx, cancel := signalContext()
	backend := newBackend(cfg)
	dev, err := inspector.ResolveDevice(lookupCtx, backend, deviceID)
	cancel()
	if err != nil {
		return err
	}
	t, err := target(dev)
	if err != nil {
		return err
	}

	m := newManager(cfg, backend, session.StaticChooser{Path: scriptPath})
	_, err = m.Start(context.Background(), op, t)
	return err
}

var killCmd = &cobra.Command{
	Use:   "kill <device> <pid>",
	Short: "Terminate a process",
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
		backend := newBackend(cfg)
		dev, err := inspector.ResolveDevice(ctx, backend, args[0])
		if err != nil {
			return err
		}
		m := newManager(cfg, backend, session.StaticChooser{})
		if err := m.Kill(ctx, session.Target{Device: dev, PID: pid}); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Terminated %d on %s.\n", pid, dev.Name)
		return nil
	},
}

var launchCmd = &cobra.Command{
	Use:   "launch <device> <bundle> [-- tool args...]",
	Short: "Spawn an app without a REPL and print its pid",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		pid, err := newBackend(cfg).Launch(ctx, args[0], args[1], types.SessionArgs(args[2:]))
		if err != nil {
			return fmt.Errorf("launch %s: %w", args[1], err)
		}
		fmt.Fprintln(os.Stdout, pid)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously launched sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		history := state.NewHistoryStore(cfg.DataDir)

		ctx := context.Background()
		records, err := history.Tail(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tWHEN\tOPERATION\tDEVICE\tTARGET\tCOMMAND")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s %s\n",
				r.Seq,
				r.At.Format("2006-01-02 15:04:05"),
				r.Operation,
				r.DeviceID,
				r.Target,
				r.Tool,
				r.Args.String(),
			)
		}
		return w.Flush()
	},
}
