package quote

import (
	"sort"
	"strings"
	"time"

	"market-watcher/internal/watchlist"
)

// ViewModel is the ordered set of rows produced by one refresh cycle.
// It is rebuilt every cycle and must not be mutated after hand-off.
type ViewModel struct {
	Records   []AssetRecord
	Timeframe watchlist.Timeframe
	UpdatedAt time.Time
}

// Degraded counts rows whose fetch failed.
func (v ViewModel) Degraded() int {
	n := 0
	for _, r := range v.Records {
		if r.Degraded {
			n++
		}
	}
	return n
}

// Symbols lists row symbols in display order.
func (v ViewModel) Symbols() []string {
	out := make([]string, len(v.Records))
	for i, r := range v.Records {
		out[i] = r.Symbol
	}
	return out
}

// SortRecords orders favorites first, then symbols ascending ignoring case.
// Ties keep their input order.
func SortRecords(records []AssetRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		return strings.ToUpper(a.Symbol) < strings.ToUpper(b.Symbol)
	})
}
