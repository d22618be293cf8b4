package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var outputPath string

func init() {
	rootCmd.AddCommand(downloadCmd, uploadCmd)
	downloadCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to this file instead of stdout")
}

var downloadCmd = &cobra.Command{
	Use:   "download <device> <pid> <remote-path>",
	Short: "Copy a file out of the target process's filesystem",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		pid, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid pid %q", args[1])
		}
		data, err := newBackend(cfg).Download(ctx, args[0], pid, args[2])
		if err != nil {
			return fmt.Errorf("download %s: %w", args[2], err)
		}
		if outputPath == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(outputPath, data, 0o644)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <device> <pid> <remote-path> [local-file]",
	Short: "Copy a local file (or stdin) into the target process's filesystem",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)
		ctx, cancel := signalContext()
		defer cancel()

		pid, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid pid %q", args[1])
		}
		var data []byte
		if len(args) == 4 {
			data, err = os.ReadFile(args[3])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if err := newBackend(cfg).Upload(ctx, args[0], pid, args[2], data); err != nil {
			return fmt.Errorf("upload %s: %w", args[2], err)
		}
		fmt.Fprintf(os.Stderr, "Uploaded %d bytes to %s.\n", len(data), args[2])
		return nil
	},
}
