package watchlist

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rs/zerolog"
)

func TestAddIsIdempotent(t *testing.T) {
	cfg := &Config{Timeframe: Day}
	if !cfg.Add("msft") {
		t.Fatal("first add should succeed")
	}
	if cfg.Add(" MSFT ") {
		t.Fatal("second add must be rejected")
	}
	cfg.Remove("MSFT")
	cfg.Add("MSFT")
	count := 0
	for _, a := range cfg.Assets {
		if a == "MSFT" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one MSFT, got %d (%v)", count, cfg.Assets)
	}
}

func TestAddIgnoresEmpty(t *testing.T) {
	cfg := &Config{}
	if cfg.Add("   ") {
		t.Fatal("empty symbol must not be added")
	}
	if len(cfg.Assets) != 0 {
		t.Fatalf("unexpected assets %v", cfg.Assets)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	cfg := Default()
	before := slices.Clone(cfg.Assets)
	if cfg.Remove("DOGE-USD") {
		t.Fatal("removing an absent symbol should report false")
	}
	if !slices.Equal(before, cfg.Assets) {
		t.Fatalf("assets changed: %v", cfg.Assets)
	}
}

func TestRemoveDropsFavorite(t *testing.T) {
	cfg := Default()
	cfg.Remove("btc-usd")
	if cfg.Tracks("BTC-USD") || cfg.IsFavorite("BTC-USD") {
		t.Fatalf("BTC-USD should be gone: %+v", cfg)
	}
}

func TestToggleFavorite(t *testing.T) {
	cfg := Default()
	fav, ok := cfg.ToggleFavorite("nvda")
	if !ok || !fav || !cfg.IsFavorite("NVDA") {
		t.Fatalf("NVDA should become favorite: %v", cfg.Favorites)
	}
	fav, ok = cfg.ToggleFavorite("NVDA")
	if !ok || fav || cfg.IsFavorite("NVDA") {
		t.Fatalf("NVDA should be unfavorited: %v", cfg.Favorites)
	}
}

func TestToggleFavoriteUntracked(t *testing.T) {
	cfg := Default()
	before := slices.Clone(cfg.Favorites)
	if _, ok := cfg.ToggleFavorite("GME"); ok {
		t.Fatal("untracked symbol must be ignored")
	}
	if !slices.Equal(before, cfg.Favorites) {
		t.Fatalf("favorites changed: %v", cfg.Favorites)
	}
}

func TestCycleTimeframe(t *testing.T) {
	cfg := &Config{Timeframe: Day}
	want := []Timeframe{Week, Month, Day}
	for i, w := range want {
		if got := cfg.CycleTimeframe(); got != w {
			t.Fatalf("step %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cfg.Add("AMD")
	cfg.ToggleFavorite("AMD")
	if cp.Tracks("AMD") || cp.IsFavorite("AMD") {
		t.Fatal("clone must not observe later mutations")
	}
}

func TestStoreMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_config.json")
	store := NewStore(path, zerolog.Nop())

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(cfg.Assets, defaultAssets) || cfg.Timeframe != Day {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults should be written: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_config.json")
	store := NewStore(path, zerolog.Nop())

	cfg := &Config{Assets: []string{"AAPL", "SOL-USD"}, Favorites: []string{"SOL-USD"}, Timeframe: Month}
	if err := store.Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(loaded.Assets, cfg.Assets) || !slices.Equal(loaded.Favorites, cfg.Favorites) || loaded.Timeframe != Month {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestStoreFillsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_config.json")
	if err := os.WriteFile(path, []byte(`{"assets":["AAPL","BTC-USD"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewStore(path, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(cfg.Assets, []string{"AAPL", "BTC-USD"}) {
		t.Fatalf("assets should come from file: %v", cfg.Assets)
	}
	if !slices.Equal(cfg.Favorites, []string{"BTC-USD"}) {
		t.Fatalf("favorites should default: %v", cfg.Favorites)
	}
	if cfg.Timeframe != Day {
		t.Fatalf("timeframe should default to DAY, got %s", cfg.Timeframe)
	}
}

func TestStoreDeduplicatesOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_config.json")
	doc := `{"assets":["AAPL","aapl","TSLA","AAPL"],"favorites":["TSLA","GME"],"timeframe":"week"}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewStore(path, zerolog.Nop()).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(cfg.Assets, []string{"AAPL", "TSLA"}) {
		t.Fatalf("expected de-duplicated assets, got %v", cfg.Assets)
	}
	if !slices.Equal(cfg.Favorites, []string{"TSLA"}) {
		t.Fatalf("untracked favorites should be dropped, got %v", cfg.Favorites)
	}
	if cfg.Timeframe != Week {
		t.Fatalf("expected WEEK, got %s", cfg.Timeframe)
	}
}

func TestStoreCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_config.json")
	corrupt := []byte(`{"assets": [`)
	if err := os.WriteFile(path, corrupt, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewStore(path, zerolog.Nop()).Load()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if cfg == nil || !slices.Equal(cfg.Assets, defaultAssets) {
		t.Fatalf("expected in-memory defaults, got %+v", cfg)
	}
	onDisk, _ := os.ReadFile(path)
	if string(onDisk) != string(corrupt) {
		t.Fatal("corrupt file must not be rewritten on load")
	}
}
