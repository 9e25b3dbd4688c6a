package cli

import (
	"github.com/spf13/cobra"

	"market-watcher/internal/scheduler"
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Inspect or edit the persisted watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print tracked assets, favorites and timeframe",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListWatchlist(cmd.OutOrStdout())
	},
}

func symbolCommand(use, short string, op scheduler.Op) *cobra.Command {
	return &cobra.Command{
		Use:   use + " SYMBOL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getApp().EditWatchlist(cmd.OutOrStdout(), op, args[0])
		},
	}
}

var watchlistTimeframeCmd = &cobra.Command{
	Use:   "timeframe",
	Short: "Advance the range timeframe (DAY, WEEK, MONTH)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().EditWatchlist(cmd.OutOrStdout(), scheduler.OpCycleTimeframe, "")
	},
}

func init() {
	watchlistCmd.AddCommand(watchlistListCmd)
	watchlistCmd.AddCommand(symbolCommand("add", "Track a symbol", scheduler.OpAdd))
	watchlistCmd.AddCommand(symbolCommand("remove", "Stop tracking a symbol", scheduler.OpRemove))
	watchlistCmd.AddCommand(symbolCommand("favorite", "Toggle a symbol's favorite flag", scheduler.OpToggleFavorite))
	watchlistCmd.AddCommand(watchlistTimeframeCmd)
}
