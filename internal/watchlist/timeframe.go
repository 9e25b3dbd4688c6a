package watchlist

import (
	"fmt"
	"strings"
)

// Timeframe selects the window used for the high/low range column.
type Timeframe string

const (
	Day   Timeframe = "DAY"
	Week  Timeframe = "WEEK"
	Month Timeframe = "MONTH"
)

var timeframeCycle = []Timeframe{Day, Week, Month}

// ParseTimeframe accepts DAY, WEEK or MONTH in any case.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	for _, candidate := range timeframeCycle {
		if tf == candidate {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Next returns the following timeframe in the DAY -> WEEK -> MONTH -> DAY cycle.
// Unknown values restart the cycle at DAY.
func (t Timeframe) Next() Timeframe {
	for i, candidate := range timeframeCycle {
		if t == candidate {
			return timeframeCycle[(i+1)%len(timeframeCycle)]
		}
	}
	return Day
}

func (t Timeframe) String() string {
	return string(t)
}
