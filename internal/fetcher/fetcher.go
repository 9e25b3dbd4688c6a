package fetcher

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSymbolNotFound is returned for symbols the data source does not know.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoData indicates a response without usable samples.
	ErrNoData = errors.New("no data returned")
	// ErrUnauthorized indicates the session cookie or crumb was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// Quote is the live snapshot of a single instrument.
type Quote struct {
	Last      float64
	PrevClose float64
	DayHigh   float64
	DayLow    float64
}

// QuoteResult carries a quote or the error that prevented fetching it.
type QuoteResult struct {
	Quote Quote
	Err   error
}

// Bar is one daily OHLC sample without the open.
type Bar struct {
	Time  time.Time
	High  float64
	Low   float64
	Close float64
}

// QuoteFetcher retrieves live quotes for many symbols in one round trip.
// A returned error means the whole batch failed; per-symbol failures are
// reported through QuoteResult.Err.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]QuoteResult, error)
}

// HistoryFetcher retrieves the recent daily bars of a symbol, oldest first.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, symbol string) ([]Bar, error)
}

// Source combines both capabilities.
type Source interface {
	QuoteFetcher
	HistoryFetcher
}
