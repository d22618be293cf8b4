package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/fridacode/internal/artifact"
	"github.com/user/fridacode/internal/config"
	"github.com/user/fridacode/internal/inspector"
	"github.com/user/fridacode/internal/launcher"
	"github.com/user/fridacode/internal/session"
	"github.com/user/fridacode/internal/state"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "fridacode",
	Short:         "Browse devices and drive Frida sessions from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".fridacode", "config.json"), "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// signalContext is cancelled on SIGINT/SIGTERM. Session commands do not use
// it: the REPL receives those signals itself.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newBackend(cfg *config.Config) *inspector.Backend {
	return inspector.New(inspector.ConfigFrom(cfg), launcher.NewExecRunner())
}

// newManager wires a one-shot manager. Its store lives only as long as the
// command, so resume-last is only meaningful inside the console.
func newManager(cfg *config.Config, backend *inspector.Backend, chooser session.StaticChooser) *session.Manager {
	store := session.NewStore()
	builder := session.NewBuilder(session.OptionsFromConfig(cfg), artifact.New(), chooser, store)
	return session.NewManager(builder, store, backend, launcher.NewTerminal(cfg.Tool), state.NewHistoryStore(cfg.DataDir))
}
