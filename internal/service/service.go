package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"market-watcher/internal/fetcher"
	"market-watcher/internal/indicator"
	"market-watcher/internal/quote"
	"market-watcher/internal/storage"
	"market-watcher/internal/watchlist"
)

const defaultCycleTimeout = 60 * time.Second

// Options tune a refresh cycle.
type Options struct {
	RSIPeriod    int
	Workers      int
	CycleTimeout time.Duration
}

// Service aggregates the watchlist into a sorted view model and optionally
// records every cycle.
type Service struct {
	quotes  fetcher.QuoteFetcher
	history fetcher.HistoryFetcher
	store   storage.SnapshotStore
	logger  zerolog.Logger
	opts    Options
	now     func() time.Time
}

// New constructs the aggregation service. store may be nil.
func New(source fetcher.Source, store storage.SnapshotStore, opts Options, logger zerolog.Logger) *Service {
	if opts.RSIPeriod <= 0 {
		opts.RSIPeriod = indicator.DefaultRSIPeriod
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = defaultCycleTimeout
	}

	return &Service{
		quotes:  source,
		history: source,
		store:   store,
		logger:  logger.With().Str("component", "service").Logger(),
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate fetches every tracked symbol and returns one record per symbol,
// favorites first. Fetch failures become degraded rows; nothing is returned
// as an error. cfg is only read.
func (s *Service) Aggregate(ctx context.Context, cfg *watchlist.Config) quote.ViewModel {
	started := s.now()
	vm := quote.ViewModel{Timeframe: cfg.Timeframe, UpdatedAt: started}
	if len(cfg.Assets) == 0 {
		return vm
	}

	cycleCtx, cancel := context.WithTimeout(ctx, s.opts.CycleTimeout)
	defer cancel()

	samples := s.collect(cycleCtx, cfg.Assets)

	favorites := cfg.FavoriteSet()
	normOpts := quote.Options{RSIPeriod: s.opts.RSIPeriod, Timeframe: cfg.Timeframe}
	records := make([]quote.AssetRecord, len(samples))
	for i, sample := range samples {
		if sample.Err != nil {
			s.logger.Warn().Err(sample.Err).Str("symbol", sample.Symbol).Msg("symbol fetch failed; showing degraded row")
		}
		records[i] = quote.Normalize(sample, favorites, normOpts)
	}
	quote.SortRecords(records)
	vm.Records = records

	s.logger.Info().
		Int("records", len(records)).
		Int("degraded", vm.Degraded()).
		Str("timeframe", cfg.Timeframe.String()).
		Dur("elapsed", s.now().Sub(started)).
		Msg("cycle aggregated")

	if ctx.Err() == nil {
		s.record(ctx, vm)
	}
	return vm
}

// collect issues one batched quote request, then fetches histories with at
// most Workers in flight. Results are index-addressed so the output does not
// depend on completion order.
func (s *Service) collect(ctx context.Context, symbols []string) []quote.Sample {
	samples := make([]quote.Sample, len(symbols))
	for i, sym := range symbols {
		samples[i].Symbol = sym
	}

	quotes, err := s.quotes.FetchQuotes(ctx, symbols)
	if err != nil {
		for i := range samples {
			samples[i].Err = err
		}
		return samples
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, sym := range symbols {
		res, ok := quotes[sym]
		switch {
		case !ok:
			samples[i].Err = fmt.Errorf("%s: %w", sym, fetcher.ErrSymbolNotFound)
			continue
		case res.Err != nil:
			samples[i].Err = res.Err
			continue
		}
		samples[i].Quote = res.Quote

		g.Go(func() error {
			bars, err := s.history.FetchHistory(ctx, sym)
			samples[i].Bars, samples[i].Err = bars, err
			return nil
		})
	}
	_ = g.Wait()

	return samples
}

func (s *Service) record(ctx context.Context, vm quote.ViewModel) {
	if s.store == nil || len(vm.Records) == 0 {
		return
	}
	if err := s.store.InsertSnapshots(ctx, Snapshots(vm)); err != nil {
		s.logger.Error().Err(err).Time("cycle", vm.UpdatedAt).Msg("failed to record snapshots")
	}
}

// Snapshots converts a view model into storage rows.
func Snapshots(vm quote.ViewModel) []storage.Snapshot {
	out := make([]storage.Snapshot, len(vm.Records))
	for i, r := range vm.Records {
		out[i] = storage.Snapshot{
			CycleTS:    vm.UpdatedAt,
			Symbol:     r.Symbol,
			AssetClass: r.Class.String(),
			Price:      decimal.NewFromFloat(r.Price),
			ChangePct:  decimal.NewFromFloat(r.ChangePct).Round(4),
			RangeHigh:  decimal.NewFromFloat(r.RangeHigh),
			RangeLow:   decimal.NewFromFloat(r.RangeLow),
			RSI:        decimal.NewFromFloat(r.RSI).Round(4),
			Favorite:   r.IsFavorite,
			Timeframe:  vm.Timeframe.String(),
			Degraded:   r.Degraded,
		}
	}
	return out
}
