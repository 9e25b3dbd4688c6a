package cli

import (
	"time"

	"github.com/spf13/cobra"

	"market-watcher/internal/app"
)

var (
	runInterval time.Duration
	runOnce     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live dashboard (Ctrl+C opens the manager menu)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context(), app.RunOptions{
			Interval: runInterval,
			Once:     runOnce,
		})
	},
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Refresh interval (defaults to config)")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Render a single frame and exit")
}
