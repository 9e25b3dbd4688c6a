package watchlist

import (
	"slices"
	"strings"
)

var (
	defaultAssets    = []string{"BTC-USD", "ETH-USD", "NVDA", "TSLA", "AAPL", "EURUSD=X"}
	defaultFavorites = []string{"BTC-USD"}
)

const defaultTimeframe = Day

// Config is the operator's tracked instrument set.
type Config struct {
	Assets    []string  `mapstructure:"assets" json:"assets" validate:"dive,required"`
	Favorites []string  `mapstructure:"favorites" json:"favorites" validate:"dive,required"`
	Timeframe Timeframe `mapstructure:"timeframe" json:"timeframe" validate:"oneof=DAY WEEK MONTH"`
}

// Default returns a fresh copy of the built-in watchlist.
func Default() *Config {
	return &Config{
		Assets:    slices.Clone(defaultAssets),
		Favorites: slices.Clone(defaultFavorites),
		Timeframe: defaultTimeframe,
	}
}

// Clone returns a deep copy safe to hand to a concurrent reader.
func (c *Config) Clone() *Config {
	return &Config{
		Assets:    slices.Clone(c.Assets),
		Favorites: slices.Clone(c.Favorites),
		Timeframe: c.Timeframe,
	}
}

// NormalizeSymbol trims and upper-cases operator input.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Tracks reports whether symbol is in the asset list.
func (c *Config) Tracks(symbol string) bool {
	return slices.Contains(c.Assets, symbol)
}

// IsFavorite reports whether symbol is marked as a favorite.
func (c *Config) IsFavorite(symbol string) bool {
	return slices.Contains(c.Favorites, symbol)
}

// FavoriteSet returns favorites as a lookup set.
func (c *Config) FavoriteSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Favorites))
	for _, f := range c.Favorites {
		set[f] = struct{}{}
	}
	return set
}

// Add appends symbol unless it is empty or already tracked.
func (c *Config) Add(symbol string) bool {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" || c.Tracks(symbol) {
		return false
	}
	c.Assets = append(c.Assets, symbol)
	return true
}

// Remove drops symbol from assets and favorites. Absent symbols are a no-op.
func (c *Config) Remove(symbol string) bool {
	symbol = NormalizeSymbol(symbol)
	idx := slices.Index(c.Assets, symbol)
	if idx < 0 {
		return false
	}
	c.Assets = slices.Delete(c.Assets, idx, idx+1)
	if i := slices.Index(c.Favorites, symbol); i >= 0 {
		c.Favorites = slices.Delete(c.Favorites, i, i+1)
	}
	return true
}

// ToggleFavorite flips the favorite flag of a tracked symbol and reports the
// new state. Untracked symbols are ignored; ok is false in that case.
func (c *Config) ToggleFavorite(symbol string) (favorite, ok bool) {
	symbol = NormalizeSymbol(symbol)
	if !c.Tracks(symbol) {
		return false, false
	}
	if i := slices.Index(c.Favorites, symbol); i >= 0 {
		c.Favorites = slices.Delete(c.Favorites, i, i+1)
		return false, true
	}
	c.Favorites = append(c.Favorites, symbol)
	return true, true
}

// CycleTimeframe advances the timeframe and returns the new value.
func (c *Config) CycleTimeframe() Timeframe {
	c.Timeframe = c.Timeframe.Next()
	return c.Timeframe
}

// sanitize de-duplicates assets, keeps only tracked favorites and resets an
// unknown timeframe.
func (c *Config) sanitize() {
	c.Assets = dedupe(c.Assets)
	favorites := dedupe(c.Favorites)
	c.Favorites = favorites[:0]
	for _, f := range favorites {
		if c.Tracks(f) {
			c.Favorites = append(c.Favorites, f)
		}
	}
	if tf, err := ParseTimeframe(string(c.Timeframe)); err == nil {
		c.Timeframe = tf
	} else {
		c.Timeframe = defaultTimeframe
	}
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
