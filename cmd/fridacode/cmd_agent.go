package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/fridacode/internal/agent"
	"github.com/user/fridacode/internal/inspector"
	"github.com/user/fridacode/internal/launcher"
)

func init() {
	rootCmd.AddCommand(compileCmd, syslogCmd, rpcCmd, fsCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile <script>",
	Short: "Install and build the node package an agent script belongs to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		dir, err := agent.NewCompiler(launcher.NewExecRunner(), cfg.Npm).Compile(ctx, args[0])
		if err != nil {
			if dir != "" {
				return fmt.Errorf("could not compile the agent at %s: %w", dir, err)
			}
			return err
		}
		fmt.Fprintf(os.Stderr, "Compiled %s.\n", dir)
		return nil
	},
}

var syslogCmd = &cobra.Command{
	Use:   "syslog <device> <pid|bundle>",
	Short: "Stream the target's system log until interrupted",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		target, err := inspector.ParseAgentTarget(args[1])
		if err != nil {
			return err
		}
		return newBackend(cfg).Syslog(ctx, args[0], target, os.Stdout)
	},
}

var rpcCmd = &cobra.Command{
	Use:   "rpc <device> <pid|bundle> <method> [args...]",
	Short: "Call an exported agent method and print its JSON result",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		target, err := inspector.ParseAgentTarget(args[1])
		if err != nil {
			return err
		}
		out, err := newBackend(cfg).RPC(ctx, args[0], target, args[2], args[3:])
		if err != nil {
			return fmt.Errorf("rpc %s: %w", args[2], err)
		}
		return printJSON(os.Stdout, out)
	},
}

var fsCmd = &cobra.Command{
	Use:       "fs <device> <pid|bundle> <cp|mkdir|rm|ls|mv|stat> [args...]",
	Short:     "Run a filesystem operation inside the target",
	Args:      cobra.MinimumNArgs(3),
	ValidArgs: inspector.FSMethods,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		target, err := inspector.ParseAgentTarget(args[1])
		if err != nil {
			return err
		}
		out, err := newBackend(cfg).FS(ctx, args[0], target, args[2], args[3:])
		if err != nil {
			return fmt.Errorf("fs %s: %w", args[2], err)
		}
		return printJSON(os.Stdout, out)
	},
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
