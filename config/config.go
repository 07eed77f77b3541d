// Package config reads folio's settings from the environment.
//
// A .env file in the working directory is loaded first when present, then
// FOLIO_* variables are read with defaults. Command-line flags may override
// the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Quote source kinds.
const (
	SourceDelimited = "delimited"
	SourceJSON      = "json"
)

// DefaultDelimitedURL is the quote endpoint of the delimited source; codes are
// appended comma separated.
const DefaultDelimitedURL = "https://hq.sinajs.cn/list="

// Config holds folio's configuration.
type Config struct {
	Ledger   string // path of the ledger, .jsonl or .db/.sqlite
	Currency string // currency of all prices, for display

	QuoteSource    string        // SourceDelimited or SourceJSON
	QuoteURL       string        // endpoint; for SourceJSON a template containing {code}
	QuotePricePath string        // jsonpath of the price, SourceJSON only
	QuoteNamePath  string        // jsonpath of the name, SourceJSON only, optional
	QuoteTTL       time.Duration // how long a quote is reused
	QuoteRate      float64       // max quote requests per second
	Poll           string        // cron schedule of the watch poller

	Listen   string // address of the HTTP server
	Model    string // LLM model of the advisor
	APIKey   string // LLM API key
	LogLevel string
}

// Load reads configuration from the environment, after loading .env if it
// exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Ledger:         getEnv("FOLIO_LEDGER", "trades.jsonl"),
		Currency:       strings.ToUpper(getEnv("FOLIO_CURRENCY", "CNY")),
		QuoteSource:    strings.ToLower(getEnv("FOLIO_QUOTE_SOURCE", SourceDelimited)),
		QuoteURL:       getEnv("FOLIO_QUOTE_URL", ""),
		QuotePricePath: getEnv("FOLIO_QUOTE_PRICE_PATH", ""),
		QuoteNamePath:  getEnv("FOLIO_QUOTE_NAME_PATH", ""),
		QuoteTTL:       getEnvAsDuration("FOLIO_QUOTE_TTL", 15*time.Second),
		QuoteRate:      getEnvAsFloat("FOLIO_QUOTE_RATE", 5),
		Poll:           getEnv("FOLIO_POLL", "@every 30s"),
		Listen:         getEnv("FOLIO_LISTEN", "localhost:8080"),
		Model:          getEnv("FOLIO_MODEL", "gemini-2.5-flash"),
		APIKey:         getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		LogLevel:       getEnv("FOLIO_LOG_LEVEL", "info"),
	}
	if cfg.QuoteSource == SourceDelimited && cfg.QuoteURL == "" {
		cfg.QuoteURL = DefaultDelimitedURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Ledger == "" {
		errs = append(errs, errors.New("FOLIO_LEDGER is required"))
	}
	switch c.QuoteSource {
	case SourceDelimited:
	case SourceJSON:
		if !strings.Contains(c.QuoteURL, "{code}") {
			errs = append(errs, fmt.Errorf("FOLIO_QUOTE_URL must contain {code} for the %s source, got %q", SourceJSON, c.QuoteURL))
		}
		if c.QuotePricePath == "" {
			errs = append(errs, fmt.Errorf("FOLIO_QUOTE_PRICE_PATH is required for the %s source", SourceJSON))
		}
	default:
		errs = append(errs, fmt.Errorf("FOLIO_QUOTE_SOURCE must be %q or %q, got %q", SourceDelimited, SourceJSON, c.QuoteSource))
	}
	if c.QuoteTTL < 0 {
		errs = append(errs, fmt.Errorf("FOLIO_QUOTE_TTL must not be negative, got %v", c.QuoteTTL))
	}
	if c.QuoteRate <= 0 {
		errs = append(errs, fmt.Errorf("FOLIO_QUOTE_RATE must be positive, got %v", c.QuoteRate))
	}
	if _, err := cron.ParseStandard(c.Poll); err != nil {
		errs = append(errs, fmt.Errorf("FOLIO_POLL is not a valid schedule: %w", err))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}
