package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one dashboard row persisted for a refresh cycle.
type Snapshot struct {
	CycleTS    time.Time
	Symbol     string
	AssetClass string
	Price      decimal.Decimal
	ChangePct  decimal.Decimal
	RangeHigh  decimal.Decimal
	RangeLow   decimal.Decimal
	RSI        decimal.Decimal
	Favorite   bool
	Timeframe  string
	Degraded   bool
	CreatedAt  time.Time
}
