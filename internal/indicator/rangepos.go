package indicator

import "math"

// Zone classifies a slot of a range bar relative to the current price marker.
type Zone int

const (
	ZoneFlat Zone = iota
	ZoneBelow
	ZoneCurrent
	ZoneAbove
)

// Position locates a price inside a low/high range, quantised to Width slots.
type Position struct {
	Width int
	Index int
	Flat  bool
}

// Below returns the number of slots left of the marker.
func (p Position) Below() int {
	if p.Flat {
		return 0
	}
	return p.Index
}

// Above returns the number of slots right of the marker.
func (p Position) Above() int {
	if p.Flat {
		return 0
	}
	return p.Width - p.Index - 1
}

// Zone reports which part of the bar slot i belongs to.
func (p Position) Zone(i int) Zone {
	switch {
	case p.Flat:
		return ZoneFlat
	case i < p.Index:
		return ZoneBelow
	case i == p.Index:
		return ZoneCurrent
	default:
		return ZoneAbove
	}
}

// RangePosition maps current onto [low, high] using resolution slots.
// Equal bounds yield a flat position with no marker.
func RangePosition(low, high, current float64, resolution int) Position {
	if resolution < 1 {
		resolution = 1
	}
	if high == low {
		return Position{Width: resolution, Flat: true}
	}

	pos := (current - low) / (high - low)
	pos = math.Max(0, math.Min(1, pos))

	idx := int(math.Round(pos * float64(resolution-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > resolution-1 {
		idx = resolution - 1
	}
	return Position{Width: resolution, Index: idx}
}
