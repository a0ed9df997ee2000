package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SymbolAttrs holds the static attributes configured for one watchlist
// symbol. Exchange is mandatory; everything else rides along into the
// symbol's coverage document untouched.
type SymbolAttrs struct {
	Exchange string            `yaml:"exchange"`
	Extra    map[string]string `yaml:",inline"`
}

// ExchangeCalendar configures trading sessions for one exchange.
type ExchangeCalendar struct {
	Holidays []string `yaml:"holidays"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Storage     struct {
		Root    string `yaml:"root"`
		Backend string `yaml:"backend"` // file | clickhouse
	} `yaml:"storage"`
	Watchlist map[string]map[string]SymbolAttrs `yaml:"watchlist"`
	Provider  struct {
		BaseURL          string        `yaml:"base_url"`
		RetentionDays    int           `yaml:"retention_days"`
		SpanDays         int           `yaml:"span_days"`
		SafetyMarginDays int           `yaml:"safety_margin_days"`
		RequestsPerSec   float64       `yaml:"requests_per_sec"`
		Burst            int           `yaml:"burst"`
		Timeout          time.Duration `yaml:"timeout"`
	} `yaml:"provider"`
	Calendar struct {
		Exchanges map[string]ExchangeCalendar `yaml:"exchanges"`
	} `yaml:"calendar"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Scheduler struct {
		RollInterval time.Duration `yaml:"roll_interval"`
	} `yaml:"scheduler"`
	Events struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"events"`
	Cache struct {
		Backend string        `yaml:"backend"` // memory | redis | layered
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	ClickHouse struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Database string `yaml:"database"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"clickhouse"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STORAGE_ROOT"); v != "" {
		c.Storage.Root = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Provider.RetentionDays == 0 {
		c.Provider.RetentionDays = 30
	}
	if c.Provider.SpanDays == 0 {
		c.Provider.SpanDays = 7
	}
	if c.Provider.SafetyMarginDays == 0 {
		c.Provider.SafetyMarginDays = 2
	}
	if c.Provider.RequestsPerSec == 0 {
		c.Provider.RequestsPerSec = 0.5
	}
	if c.Provider.Burst == 0 {
		c.Provider.Burst = 1
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 15 * time.Second
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "snowroll.ingestion"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Storage.Root == "" {
		return fmt.Errorf("storage.root is required")
	}
	if c.Storage.Backend != "file" && c.Storage.Backend != "clickhouse" {
		return fmt.Errorf("storage.backend must be 'file' or 'clickhouse', got '%s'", c.Storage.Backend)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist cannot be empty")
	}
	for category, symbols := range c.Watchlist {
		if len(symbols) == 0 {
			return fmt.Errorf("watchlist category '%s' has no symbols", category)
		}
		for symbol, attrs := range symbols {
			if attrs.Exchange == "" {
				return fmt.Errorf("watchlist symbol '%s/%s' is missing an exchange", category, symbol)
			}
		}
	}
	if c.Provider.SpanDays > c.Provider.RetentionDays {
		return fmt.Errorf("provider.span_days cannot exceed provider.retention_days")
	}
	if c.Provider.SafetyMarginDays >= c.Provider.RetentionDays {
		return fmt.Errorf("provider.safety_margin_days must be below provider.retention_days")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required when events are enabled")
	}
	if c.Storage.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse backend")
	}
	return nil
}

// BackfillWindows derives how many provider windows a full backfill walks:
// enough fixed-span requests to cover the retention window minus the safety
// margin.
func (c *Config) BackfillWindows() int {
	usable := c.Provider.RetentionDays - c.Provider.SafetyMarginDays
	return (usable + c.Provider.SpanDays - 1) / c.Provider.SpanDays
}

// Category returns the watchlist category a symbol belongs to, if any.
func (c *Config) Category(symbol string) (string, bool) {
	for category, symbols := range c.Watchlist {
		if _, ok := symbols[symbol]; ok {
			return category, true
		}
	}
	return "", false
}

// Symbols returns every watchlist symbol mapped to its category.
func (c *Config) Symbols() map[string]string {
	out := make(map[string]string)
	for category, symbols := range c.Watchlist {
		for symbol := range symbols {
			out[symbol] = category
		}
	}
	return out
}
