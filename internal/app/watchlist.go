package app

import (
	"fmt"
	"io"
	"strings"

	"market-watcher/internal/scheduler"
	"market-watcher/internal/watchlist"
)

// ListWatchlist prints the persisted watchlist.
func (a *App) ListWatchlist(w io.Writer) error {
	wl, cfg, err := a.loadWatchlist()
	if err != nil {
		return err
	}
	return writeWatchlist(w, wl.Path(), cfg)
}

// EditWatchlist applies one Manager operation outside a dashboard session
// and persists the result.
func (a *App) EditWatchlist(w io.Writer, op scheduler.Op, symbol string) error {
	wl, cfg, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	msg := scheduler.Apply(cfg, op, symbol)
	if err := wl.Save(cfg); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	a.Logger.Info().Str("op", op.Label(cfg)).Str("symbol", watchlist.NormalizeSymbol(symbol)).Msg(msg)

	_, err = fmt.Fprintln(w, msg)
	return err
}

func writeWatchlist(w io.Writer, path string, cfg *watchlist.Config) error {
	favorites := cfg.FavoriteSet()
	var b strings.Builder
	fmt.Fprintf(&b, "watchlist: %s\n", path)
	fmt.Fprintf(&b, "timeframe: %s\n", cfg.Timeframe)
	for _, sym := range cfg.Assets {
		mark := " "
		if _, ok := favorites[sym]; ok {
			mark = "★"
		}
		fmt.Fprintf(&b, "  %s %s\n", mark, sym)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
