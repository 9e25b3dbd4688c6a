package quote

import "strings"

// AssetClass is derived from the textual form of a ticker.
type AssetClass int

const (
	Unknown AssetClass = iota
	Crypto
	Forex
	Equity
)

var (
	cryptoMarkers = []string{"-USD", "-EUR"}
	forexMarker   = "=X"
)

// Classify inspects symbol syntax only. Crypto pairs are matched before forex.
func Classify(symbol string) AssetClass {
	s := strings.ToUpper(symbol)
	for _, m := range cryptoMarkers {
		if strings.Contains(s, m) {
			return Crypto
		}
	}
	if strings.Contains(s, forexMarker) {
		return Forex
	}
	return Equity
}

func (c AssetClass) String() string {
	switch c {
	case Crypto:
		return "crypto"
	case Forex:
		return "forex"
	case Equity:
		return "equity"
	default:
		return "unknown"
	}
}

// Icon is the glyph shown next to the ticker.
func (c AssetClass) Icon() string {
	switch c {
	case Crypto:
		return "🪙"
	case Forex:
		return "💱"
	case Equity:
		return "🏢"
	default:
		return "?"
	}
}
