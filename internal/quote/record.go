package quote

import (
	"market-watcher/internal/fetcher"
	"market-watcher/internal/indicator"
	"market-watcher/internal/watchlist"
)

const (
	overboughtRSI = 70.0
	oversoldRSI   = 30.0
	neutralRSI    = 50.0
)

// Signal is the RSI reading bucket shown in the dashboard.
type Signal string

const (
	Overbought Signal = "OVERBOUGHT"
	Oversold   Signal = "OVERSOLD"
	Neutral    Signal = "NEUTRAL"
)

// SignalFor maps an RSI value to a Signal.
func SignalFor(rsi float64) Signal {
	switch {
	case rsi >= overboughtRSI:
		return Overbought
	case rsi <= oversoldRSI:
		return Oversold
	default:
		return Neutral
	}
}

// AssetRecord is one row of the dashboard.
type AssetRecord struct {
	Symbol     string
	Class      AssetClass
	Price      float64
	ChangePct  float64
	RangeHigh  float64
	RangeLow   float64
	RSI        float64
	IsFavorite bool
	Degraded   bool
}

// Signal returns the RSI bucket of the record.
func (r AssetRecord) Signal() Signal {
	return SignalFor(r.RSI)
}

// Sample is the raw outcome of fetching one symbol. Err is set when either
// the quote or the history could not be obtained.
type Sample struct {
	Symbol string
	Quote  fetcher.Quote
	Bars   []fetcher.Bar
	Err    error
}

// Options tune derived indicators.
type Options struct {
	RSIPeriod int
	Timeframe watchlist.Timeframe
}

// Normalize turns a fetched sample into a dashboard record. Failed samples
// produce a degraded record with neutral values instead of an error.
func Normalize(s Sample, favorites map[string]struct{}, opts Options) AssetRecord {
	_, fav := favorites[s.Symbol]
	if s.Err != nil {
		return AssetRecord{
			Symbol:     s.Symbol,
			Class:      Unknown,
			RSI:        neutralRSI,
			IsFavorite: fav,
			Degraded:   true,
		}
	}

	high, low := SelectRange(opts.Timeframe, s.Quote, s.Bars)

	return AssetRecord{
		Symbol:     s.Symbol,
		Class:      Classify(s.Symbol),
		Price:      s.Quote.Last,
		ChangePct:  ChangePct(s.Quote.Last, s.Quote.PrevClose),
		RangeHigh:  high,
		RangeLow:   low,
		RSI:        indicator.RSI(closes(s.Bars), opts.RSIPeriod),
		IsFavorite: fav,
	}
}

// ChangePct is the percentage move from prevClose, or 0 when prevClose is 0.
func ChangePct(last, prevClose float64) float64 {
	if prevClose == 0 {
		return 0
	}
	return (last - prevClose) / prevClose * 100
}

func closes(bars []fetcher.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
