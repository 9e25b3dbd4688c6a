package quote

import (
	"market-watcher/internal/fetcher"
	"market-watcher/internal/watchlist"
)

const weekBars = 5

// SelectRange picks the high/low pair for the timeframe column.
//
// DAY uses the live day range. WEEK uses the last five bars (fewer when the
// history is shorter) and MONTH the whole history window. Without any bars
// the day range is used for every timeframe.
func SelectRange(tf watchlist.Timeframe, q fetcher.Quote, bars []fetcher.Bar) (high, low float64) {
	if tf == watchlist.Day || len(bars) == 0 {
		return q.DayHigh, q.DayLow
	}

	window := bars
	if tf == watchlist.Week && len(bars) > weekBars {
		window = bars[len(bars)-weekBars:]
	}

	high, low = window[0].High, window[0].Low
	for _, b := range window[1:] {
		high = max(high, b.High)
		low = min(low, b.Low)
	}
	return high, low
}
