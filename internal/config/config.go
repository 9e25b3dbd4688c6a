package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"market-watcher/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	UI        UIConfig        `mapstructure:"ui"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. An empty DSN disables
// snapshot history.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs refresh cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Step         time.Duration `mapstructure:"step"`
	CycleTimeout time.Duration `mapstructure:"cycle_timeout"`
	ResumeDelay  time.Duration `mapstructure:"resume_delay"`
}

// FetcherConfig covers the market data source.
type FetcherConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	HistoryRange   string        `mapstructure:"history_range"`
	CookieURL      string        `mapstructure:"cookie_url"`
	Workers        int           `mapstructure:"workers"`
}

// IndicatorConfig tunes derived indicators.
type IndicatorConfig struct {
	RSIPeriod int `mapstructure:"rsi_period"`
}

// UIConfig sets dashboard presentation.
type UIConfig struct {
	BarWidth int  `mapstructure:"bar_width"`
	NoColor  bool `mapstructure:"no_color"`
}

// WatchlistConfig locates the persisted watchlist document.
type WatchlistConfig struct {
	Path string `mapstructure:"path"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "marketwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "market_watcher.log")

	v.SetDefault("scheduler.interval", "300s")
	v.SetDefault("scheduler.step", "1s")
	v.SetDefault("scheduler.cycle_timeout", "60s")
	v.SetDefault("scheduler.resume_delay", "2s")

	v.SetDefault("fetcher.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("fetcher.request_timeout", "10s")
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (marketwatch)")
	v.SetDefault("fetcher.history_range", "1mo")
	v.SetDefault("fetcher.cookie_url", "https://fc.yahoo.com")
	v.SetDefault("fetcher.workers", 4)

	v.SetDefault("indicator.rsi_period", 14)

	v.SetDefault("ui.bar_width", 15)
	v.SetDefault("ui.no_color", false)

	v.SetDefault("watchlist.path", "market_config.json")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Scheduler.Step <= 0 {
		return fmt.Errorf("scheduler.step must be greater than zero")
	}
	if c.Scheduler.Step > c.Scheduler.Interval {
		return fmt.Errorf("scheduler.step cannot exceed scheduler.interval")
	}
	if c.Scheduler.CycleTimeout <= 0 {
		return fmt.Errorf("scheduler.cycle_timeout must be greater than zero")
	}
	if c.Scheduler.ResumeDelay < 0 {
		return fmt.Errorf("scheduler.resume_delay cannot be negative")
	}
	if c.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be greater than zero")
	}
	if c.Fetcher.Workers <= 0 {
		return fmt.Errorf("fetcher.workers must be greater than zero")
	}
	if c.Indicator.RSIPeriod <= 0 {
		return fmt.Errorf("indicator.rsi_period must be greater than zero")
	}
	if c.UI.BarWidth <= 0 {
		return fmt.Errorf("ui.bar_width must be greater than zero")
	}
	if strings.TrimSpace(c.Watchlist.Path) == "" {
		return fmt.Errorf("watchlist.path is required")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
