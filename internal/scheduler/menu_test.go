package scheduler

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"market-watcher/internal/watchlist"
)

func TestParseOp(t *testing.T) {
	cases := map[string]Op{
		"1": OpAdd, "2": OpRemove, "3": OpToggleFavorite,
		"4": OpCycleTimeframe, "5": OpResume, "0": OpExit, "": OpResume,
	}
	for key, want := range cases {
		got, ok := ParseOp(key)
		if !ok || got != want {
			t.Errorf("ParseOp(%q) = %v,%v want %v", key, got, ok, want)
		}
	}
	if _, ok := ParseOp("9"); ok {
		t.Error("unknown key must be rejected")
	}
}

func TestApplyAddRemoveAdd(t *testing.T) {
	cfg := watchlist.Default()
	Apply(cfg, OpAdd, "pltr")
	Apply(cfg, OpAdd, "PLTR")
	Apply(cfg, OpRemove, "pltr")
	Apply(cfg, OpAdd, "Pltr")

	count := 0
	for _, a := range cfg.Assets {
		if a == "PLTR" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one PLTR, got %d", count)
	}
}

func TestApplyCycleTimeframeThreeTimes(t *testing.T) {
	cfg := watchlist.Default()
	for i := 0; i < 3; i++ {
		Apply(cfg, OpCycleTimeframe, "")
	}
	if cfg.Timeframe != watchlist.Day {
		t.Fatalf("expected DAY, got %s", cfg.Timeframe)
	}
}

func TestApplyToggleUntracked(t *testing.T) {
	cfg := watchlist.Default()
	before := slices.Clone(cfg.Favorites)
	msg := Apply(cfg, OpToggleFavorite, "GME")
	if !slices.Equal(before, cfg.Favorites) {
		t.Fatalf("favorites changed: %v", cfg.Favorites)
	}
	if !strings.Contains(msg, "not tracked") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestApplyEmptySymbol(t *testing.T) {
	cfg := watchlist.Default()
	before := slices.Clone(cfg.Assets)
	if msg := Apply(cfg, OpAdd, "  "); msg != "No symbol entered." {
		t.Fatalf("unexpected message %q", msg)
	}
	if !slices.Equal(before, cfg.Assets) {
		t.Fatal("empty input must not change assets")
	}
}

func TestLinePrompterChoose(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("9\n\n1\n nvda \n"), &out)
	cfg := watchlist.Default()

	op, err := p.Choose(cfg)
	if err != nil || op != OpResume {
		t.Fatalf("invalid then empty should resume, got %v %v", op, err)
	}
	if !strings.Contains(out.String(), "Please select one of the available options") {
		t.Fatalf("invalid choice should be reported: %s", out.String())
	}
	if !strings.Contains(out.String(), "Switch Timeframe (Current: DAY)") {
		t.Fatalf("menu should show current timeframe: %s", out.String())
	}

	op, err = p.Choose(cfg)
	if err != nil || op != OpAdd {
		t.Fatalf("expected add, got %v %v", op, err)
	}
	sym, err := p.Symbol(op.SymbolPrompt())
	if err != nil || sym != "nvda" {
		t.Fatalf("expected trimmed symbol, got %q %v", sym, err)
	}

	if _, err := p.Choose(cfg); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestLinePrompterLastLineWithoutNewline(t *testing.T) {
	p := NewLinePrompter(strings.NewReader("0"), io.Discard)
	op, err := p.Choose(watchlist.Default())
	if err != nil || op != OpExit {
		t.Fatalf("expected exit, got %v %v", op, err)
	}
}
