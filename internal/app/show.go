package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"market-watcher/internal/storage"
)

// Show prints recently recorded snapshots.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show snapshots")
	}
	defer closeStore()

	snapshots, err := store.ListRecentSnapshots(ctx, opts.Symbol, opts.Limit)
	if err != nil {
		return err
	}
	return writeSnapshotTable(os.Stdout, snapshots)
}

func writeSnapshotTable(w io.Writer, snapshots []storage.Snapshot) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(w, "no snapshots found")
		return err
	}

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Cycle (UTC)\tSymbol\tClass\tPrice\tChange%\tLow\tHigh\tRSI\tTimeframe\tFlags")

	for _, snap := range snapshots {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			snap.CycleTS.UTC().Format(time.RFC3339),
			snap.Symbol,
			snap.AssetClass,
			formatDecimal(snap.Price, 2),
			formatDecimal(snap.ChangePct, 2),
			formatDecimal(snap.RangeLow, 2),
			formatDecimal(snap.RangeHigh, 2),
			formatDecimal(snap.RSI, 1),
			snap.Timeframe,
			flags(snap),
		)
	}

	return writer.Flush()
}

func flags(snap storage.Snapshot) string {
	switch {
	case snap.Degraded && snap.Favorite:
		return "fav,degraded"
	case snap.Degraded:
		return "degraded"
	case snap.Favorite:
		return "fav"
	default:
		return ""
	}
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
