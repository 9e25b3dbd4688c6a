package watchlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ErrCorrupt marks a watchlist file that exists but could not be decoded.
var ErrCorrupt = errors.New("watchlist: corrupt document")

// Store reads and writes the persisted watchlist document.
type Store struct {
	path     string
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewStore binds a Store to a JSON document on disk.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:     path,
		validate: validator.New(),
		logger:   logger.With().Str("component", "watchlist_store").Str("path", path).Logger(),
	}
}

// Path returns the location of the document.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted watchlist with missing keys filled from defaults.
//
// The returned config is never nil. A missing file is created with defaults.
// A corrupt file yields defaults together with an error wrapping ErrCorrupt;
// the file itself is left untouched until the next Save.
func (s *Store) Load() (*Config, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := s.Save(cfg); err != nil {
			return cfg, err
		}
		s.logger.Info().Msg("watchlist not found; wrote defaults")
		return cfg, nil
	}

	v := newViper()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if err := s.validate.Struct(&cfg); err != nil {
		s.logger.Warn().Err(err).Msg("watchlist failed validation; sanitizing")
	}
	before := len(cfg.Assets)
	cfg.sanitize()
	if dropped := before - len(cfg.Assets); dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("removed duplicate or empty symbols")
	}

	return &cfg, nil
}

// Save writes cfg to disk, replacing the previous document.
func (s *Store) Save(cfg *Config) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watchlist dir: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("assets", nonNil(cfg.Assets))
	v.Set("favorites", nonNil(cfg.Favorites))
	v.Set("timeframe", cfg.Timeframe.String())

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	s.logger.Debug().Int("assets", len(cfg.Assets)).Str("timeframe", cfg.Timeframe.String()).Msg("watchlist saved")
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("assets", defaultAssets)
	v.SetDefault("favorites", defaultFavorites)
	v.SetDefault("timeframe", defaultTimeframe.String())
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
