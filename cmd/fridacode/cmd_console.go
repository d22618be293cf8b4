package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/fridacode/internal/artifact"
	"github.com/user/fridacode/internal/console"
	"github.com/user/fridacode/internal/launcher"
	"github.com/user/fridacode/internal/session"
	"github.com/user/fridacode/internal/state"
)

func init() {
	rootCmd.AddCommand(consoleCmd)
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive shell that remembers the last session for replay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		c := console.New(os.Stdin, os.Stdout, console.Deps{
			Inspector: newBackend(cfg),
			Launcher:  launcher.NewTerminal(cfg.Tool),
			History:   state.NewHistoryStore(cfg.DataDir),
			Options:   session.OptionsFromConfig(cfg),
			Namer:     artifact.New(),
			Editor:    os.Getenv("EDITOR"),
			ScriptDir: filepath.Join(cfg.DataDir, "scripts"),
		})
		return c.Run(context.Background())
	},
}
