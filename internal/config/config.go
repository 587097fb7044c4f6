package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"BrokerageReport/internal/collector"
)

const (
	DefaultTimezone  = "Asia/Almaty"
	DefaultDailyCron = "0 0 9 * * *"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		URL           string `yaml:"url"`
		Table         string `yaml:"table"`
		DateColumn    string `yaml:"date_column"`
		IssuedColumn  string `yaml:"issued_column"`
		IncomeColumn  string `yaml:"income_column"`
		ProductColumn string `yaml:"product_column"`
		ProductValue  string `yaml:"product_value"`
	} `yaml:"database"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"schedule"`
	Delivery struct {
		Retries         int `yaml:"retries"`
		MinDelaySeconds int `yaml:"min_delay_seconds"`
		MaxDelaySeconds int `yaml:"max_delay_seconds"`
	} `yaml:"delivery"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`

	location *time.Location
}

// envBindings maps environment variables onto config fields.
// The first nine are required.
func (c *Config) envBindings() []struct {
	name     string
	field    *string
	required bool
} {
	return []struct {
		name     string
		field    *string
		required bool
	}{
		{"BOT_TOKEN", &c.Telegram.BotToken, true},
		{"CHAT_ID", &c.Telegram.ChatID, true},
		{"DB_URL", &c.Database.URL, true},
		{"DB_TABLE", &c.Database.Table, true},
		{"DB_DATE_COLUMN", &c.Database.DateColumn, true},
		{"DB_ISSUED_COLUMN", &c.Database.IssuedColumn, true},
		{"DB_INCOME_COLUMN", &c.Database.IncomeColumn, true},
		{"DB_PRODUCT_COLUMN", &c.Database.ProductColumn, true},
		{"DB_PRODUCT_VALUE", &c.Database.ProductValue, true},
		{"BOT_TIMEZONE", &c.Schedule.Timezone, false},
		{"CRON_DAILY", &c.Schedule.DailyCron, false},
		{"HTTPS_PROXY", &c.Proxy, false},
		{"LOG_LEVEL", &c.Logging.Level, false},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	for _, b := range cfg.envBindings() {
		if v := os.Getenv(b.name); v != "" {
			*b.field = v
		}
	}
	if v := os.Getenv("SEND_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse SEND_RETRIES: %w", err)
		}
		cfg.Delivery.Retries = n
	}

	// Defaults
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = DefaultTimezone
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = DefaultDailyCron
	}
	if cfg.Delivery.Retries == 0 {
		cfg.Delivery.Retries = 3
	}
	if cfg.Delivery.MinDelaySeconds == 0 {
		cfg.Delivery.MinDelaySeconds = 60
	}
	if cfg.Delivery.MaxDelaySeconds == 0 {
		cfg.Delivery.MaxDelaySeconds = 120
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and that every SQL identifier is safe.
// All missing settings are reported at once.
func (c *Config) Validate() error {
	var missing []string
	for _, b := range c.envBindings() {
		if b.required && *b.field == "" {
			missing = append(missing, b.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	if err := c.TableSpec().Validate(); err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}
	c.location = loc

	var errs []error
	if c.Delivery.Retries < 1 {
		errs = append(errs, errors.New("delivery.retries must be at least 1"))
	}
	if c.Delivery.MinDelaySeconds < 0 || c.Delivery.MaxDelaySeconds < c.Delivery.MinDelaySeconds {
		errs = append(errs, errors.New("delivery delays must satisfy 0 <= min_delay_seconds <= max_delay_seconds"))
	}
	return errors.Join(errs...)
}

// Location returns the report timezone. Only valid after Validate.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// TableSpec returns the aggregate query settings.
func (c *Config) TableSpec() collector.TableSpec {
	return collector.TableSpec{
		Table:         c.Database.Table,
		DateColumn:    c.Database.DateColumn,
		IssuedColumn:  c.Database.IssuedColumn,
		IncomeColumn:  c.Database.IncomeColumn,
		ProductColumn: c.Database.ProductColumn,
		ProductValue:  c.Database.ProductValue,
	}
}

// RetryDelays returns the configured pause bounds between delivery attempts.
func (c *Config) RetryDelays() (time.Duration, time.Duration) {
	return time.Duration(c.Delivery.MinDelaySeconds) * time.Second,
		time.Duration(c.Delivery.MaxDelaySeconds) * time.Second
}
