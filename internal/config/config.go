package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all process configuration. It is built once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Notion    NotionConfig
	Bank      BankConfig
	Secondary SecondaryConfig
	Sync      SyncConfig
	Log       LogConfig
	Server    ServerConfig
}

// NotionConfig holds the document store settings
type NotionConfig struct {
	Token            string        `env:"NOTION_TOKEN" env-required:"true"`
	DatabaseID       string        `env:"DATABASE_ID" env-required:"true"`
	APIVersion       string        `env:"NOTION_API_VERSION" env-default:"2022-06-28"`
	BaseURL          string        `env:"NOTION_BASE_URL" env-default:"https://api.notion.com/v1"`
	CurrencyProperty string        `env:"CURRENCY_PROPERTY" env-default:"ID_money"`
	RateProperty     string        `env:"RATE_PROPERTY" env-default:"Money_rate"`
	Timeout          time.Duration `env:"HTTP_TIMEOUT" env-default:"30s"`
}

// BankConfig holds the primary rate provider settings
type BankConfig struct {
	BaseURL string        `env:"BANK_BASE_URL" env-default:"https://belarusbank.by"`
	City    string        `env:"BANK_CITY" env-default:"Минск"`
	Quote   string        `env:"BANK_QUOTE" env-default:"in"`
	Timeout time.Duration `env:"BANK_TIMEOUT" env-default:"15s"`
}

// SecondaryConfig holds the cross-rate provider and fallback settings
type SecondaryConfig struct {
	Enabled          bool          `env:"SECONDARY_ENABLED" env-default:"true"`
	BaseURL          string        `env:"SECONDARY_BASE_URL" env-default:"https://open.er-api.com"`
	USDReferenceRate float64       `env:"USD_REFERENCE_RATE" env-default:"0"`
	Timeout          time.Duration `env:"SECONDARY_TIMEOUT" env-default:"15s"`
	StaticEnabled    bool          `env:"STATIC_RATES_ENABLED" env-default:"true"`
}

// SyncConfig holds scheduling and batching settings
type SyncConfig struct {
	UpdateFrequency int           `env:"UPDATE_FREQUENCY" env-default:"2"`
	Schedule        string        `env:"SYNC_SCHEDULE"`
	ErrorCooldown   time.Duration `env:"ERROR_COOLDOWN" env-default:"5m"`
	WriteDelay      time.Duration `env:"WRITE_DELAY" env-default:"100ms"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Pretty bool   `env:"LOG_PRETTY" env-default:"false"`
}

// ServerConfig holds the status API and journal settings
type ServerConfig struct {
	Addr    string `env:"STATUS_ADDR" env-default:":8080"`
	DataDir string `env:"DATA_DIR" env-default:"./data"`
}

// Load loads configuration from the environment, reading a .env file first
// when one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cleanenv cannot enforce
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return errors.New("NOTION_TOKEN is not set")
	}
	if c.Notion.DatabaseID == "" {
		return errors.New("DATABASE_ID is not set")
	}
	if c.Sync.UpdateFrequency <= 0 && c.Sync.Schedule == "" {
		return fmt.Errorf("UPDATE_FREQUENCY must be positive, got %d", c.Sync.UpdateFrequency)
	}
	if c.Bank.Quote != "in" && c.Bank.Quote != "out" {
		return fmt.Errorf("BANK_QUOTE must be \"in\" or \"out\", got %q", c.Bank.Quote)
	}
	if c.Secondary.USDReferenceRate < 0 {
		return fmt.Errorf("USD_REFERENCE_RATE must not be negative, got %f", c.Secondary.USDReferenceRate)
	}
	return nil
}

// Interval returns the pause between sync cycles
func (c *SyncConfig) Interval() time.Duration {
	return time.Duration(c.UpdateFrequency) * time.Hour
}
