package scheduler

import (
	"fmt"

	"market-watcher/internal/watchlist"
)

// Op is a Manager-mode operation.
type Op int

const (
	OpAdd Op = iota + 1
	OpRemove
	OpToggleFavorite
	OpCycleTimeframe
	OpResume
	OpExit
)

// menu lists operations in display order with their input keys.
var menu = []struct {
	key string
	op  Op
}{
	{"1", OpAdd},
	{"2", OpRemove},
	{"3", OpToggleFavorite},
	{"4", OpCycleTimeframe},
	{"5", OpResume},
	{"0", OpExit},
}

// ParseOp maps a menu key to its operation. Empty input resumes monitoring.
func ParseOp(key string) (Op, bool) {
	if key == "" {
		return OpResume, true
	}
	for _, item := range menu {
		if item.key == key {
			return item.op, true
		}
	}
	return 0, false
}

// Label is the menu text for op.
func (op Op) Label(cfg *watchlist.Config) string {
	switch op {
	case OpAdd:
		return "Add Asset"
	case OpRemove:
		return "Remove Asset"
	case OpToggleFavorite:
		return "Toggle Favorite (★)"
	case OpCycleTimeframe:
		return fmt.Sprintf("Switch Timeframe (Current: %s)", cfg.Timeframe)
	case OpResume:
		return "Resume Monitoring"
	case OpExit:
		return "Exit"
	default:
		return "unknown"
	}
}

// SymbolPrompt returns the question asked before op, or "" when op takes no symbol.
func (op Op) SymbolPrompt() string {
	switch op {
	case OpAdd:
		return "Enter Symbol (e.g. NVDA, BTC-USD)"
	case OpRemove:
		return "Enter Symbol to remove"
	case OpToggleFavorite:
		return "Enter Symbol to Toggle Favorite"
	default:
		return ""
	}
}

// Apply performs op on cfg and returns a message for the operator.
func Apply(cfg *watchlist.Config, op Op, symbol string) string {
	symbol = watchlist.NormalizeSymbol(symbol)
	if op.SymbolPrompt() != "" && symbol == "" {
		return "No symbol entered."
	}

	switch op {
	case OpAdd:
		if cfg.Add(symbol) {
			return fmt.Sprintf("Added %s!", symbol)
		}
		return fmt.Sprintf("%s is already tracked.", symbol)
	case OpRemove:
		if cfg.Remove(symbol) {
			return fmt.Sprintf("Removed %s!", symbol)
		}
		return fmt.Sprintf("%s is not tracked.", symbol)
	case OpToggleFavorite:
		fav, ok := cfg.ToggleFavorite(symbol)
		switch {
		case !ok:
			return fmt.Sprintf("%s is not tracked.", symbol)
		case fav:
			return fmt.Sprintf("Added %s to favorites!", symbol)
		default:
			return fmt.Sprintf("Removed %s from favorites.", symbol)
		}
	case OpCycleTimeframe:
		return fmt.Sprintf("Timeframe switched to %s!", cfg.CycleTimeframe())
	case OpResume:
		return "Resuming dashboard..."
	case OpExit:
		return "Exiting..."
	default:
		return "Unknown option."
	}
}
