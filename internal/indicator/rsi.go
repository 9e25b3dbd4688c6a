package indicator

// DefaultRSIPeriod is the lookback used by the dashboard's RSI column.
const DefaultRSIPeriod = 14

const (
	neutralRSI = 50.0
	maxRSI     = 100.0
)

// RSI computes the relative strength index of closes.
//
// Gains and losses across the whole window are summed and divided by period.
// Series shorter than period+1 return the neutral value 50.
func RSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(closes) < period+1 {
		return neutralRSI
	}

	var gains, losses float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		switch {
		case delta > 0:
			gains += delta
		case delta < 0:
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return maxRSI
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
