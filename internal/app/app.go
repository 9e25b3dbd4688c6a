package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"market-watcher/internal/config"
	"market-watcher/internal/fetcher"
	"market-watcher/internal/render"
	"market-watcher/internal/scheduler"
	"market-watcher/internal/service"
	"market-watcher/internal/storage"
	"market-watcher/internal/watchlist"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() fetcher.Source {
	return fetcher.NewYahoo(fetcher.YahooOptions{
		BaseURL:      a.Config.Fetcher.BaseURL,
		Timeout:      a.Config.Fetcher.RequestTimeout,
		UserAgent:    a.Config.Fetcher.UserAgent,
		HistoryRange: a.Config.Fetcher.HistoryRange,
		CookieURL:    a.Config.Fetcher.CookieURL,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, store.Close, nil
}

func (a *App) watchlistStore() *watchlist.Store {
	return watchlist.NewStore(a.Config.Watchlist.Path, a.Logger)
}

// loadWatchlist reads the persisted watchlist. A corrupt file yields the
// defaults and is left untouched until the next mutation.
func (a *App) loadWatchlist() (*watchlist.Store, *watchlist.Config, error) {
	store := a.watchlistStore()
	cfg, err := store.Load()
	if errors.Is(err, watchlist.ErrCorrupt) {
		a.Logger.Warn().Err(err).Str("path", store.Path()).Msg("watchlist unreadable; using defaults")
		return store, cfg, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// RunOptions configure the dashboard session.
type RunOptions struct {
	// Interval overrides scheduler.interval when positive.
	Interval time.Duration
	// Once draws a single frame and exits.
	Once bool
}

// Run executes the interactive dashboard until the operator exits.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	wl, cfg, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	var snapshots storage.SnapshotStore
	if store == nil {
		a.Logger.Info().Msg("database.dsn not configured; snapshot recording disabled")
	} else {
		snapshots = store
		defer closeStore()
	}

	interval := a.Config.Scheduler.Interval
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	svc := service.New(a.newSource(), snapshots, service.Options{
		RSIPeriod:    a.Config.Indicator.RSIPeriod,
		Workers:      a.Config.Fetcher.Workers,
		CycleTimeout: a.Config.Scheduler.CycleTimeout,
	}, a.Logger)

	term := render.NewTerminal(os.Stdout, render.Options{
		BarWidth:  a.Config.UI.BarWidth,
		RSIPeriod: a.Config.Indicator.RSIPeriod,
		NoColor:   a.Config.UI.NoColor,
		Inline:    opts.Once,
	})

	sched := scheduler.New(scheduler.Options{
		Interval:    interval,
		Step:        a.Config.Scheduler.Step,
		ResumeDelay: a.Config.Scheduler.ResumeDelay,
	}, cfg, svc, term, wl, scheduler.NewLinePrompter(os.Stdin, os.Stdout), interrupts, a.Logger)

	if opts.Once {
		err = sched.RunOnce(ctx)
	} else {
		a.Logger.Info().Dur("interval", interval).Int("assets", len(cfg.Assets)).Msg("starting dashboard")
		err = sched.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("dashboard terminated with error")
		return err
	}

	a.Logger.Info().Msg("dashboard stopped")
	return nil
}

// ExportOptions hold parameters for exporting recorded snapshots.
type ExportOptions struct {
	Symbol    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Symbol string
	Limit  int
}
