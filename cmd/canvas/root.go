package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotoshake/imagecanvas-sub005/cmd/canvas/commands"
	"github.com/rotoshake/imagecanvas-sub005/logger"
)

var rootCmd = &cobra.Command{
	Use:   "canvas",
	Short: "canvas-engine - real-time collaborative canvas command-line driver",
	Long: `canvas-engine drives the collaborative canvas engine: local alignment
demos and a client that stays in sync with a collaboration server.

Available commands:
  demo     - Run a local alignment demo against an in-memory canvas
  connect  - Connect to a collaboration server and stay in sync
  version  - Show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(false); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "verbosity count (-v, -vv, -vvv); accepted but not read: logging is always at info level")

	rootCmd.AddCommand(commands.DemoCmd)
	rootCmd.AddCommand(commands.ConnectCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
