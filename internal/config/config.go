package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string

	// Rate sources
	CentralBankURL    string
	OpenExchangeURL   string
	OpenExchangeAppID string
	RefreshInterval   time.Duration

	// Batch import
	ImportChunkSize   int
	ImportSkipLimit   int
	ImportConcurrency int
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kopilka.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kopilka"),

		CentralBankURL:    getEnv("CENTRAL_BANK_URL", "https://www.cbr.ru/currency_base/daily/"),
		OpenExchangeURL:   getEnv("OPEN_EXCHANGE_URL", "https://openexchangerates.org/api/latest.json"),
		OpenExchangeAppID: getEnv("OPEN_EXCHANGE_APP_ID", ""),
		RefreshInterval:   getEnvDuration("RATE_REFRESH_INTERVAL", 24*time.Hour),

		ImportChunkSize:   getEnvInt("IMPORT_CHUNK_SIZE", 100),
		ImportSkipLimit:   getEnvInt("IMPORT_SKIP_LIMIT", 10),
		ImportConcurrency: getEnvInt("IMPORT_CONCURRENCY", 4),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite configuration
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate rate source configuration
	for name, raw := range map[string]string{
		"central bank URL":  c.CentralBankURL,
		"open exchange URL": c.OpenExchangeURL,
	} {
		if raw == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", name))
			continue
		}
		if parsedURL, err := url.Parse(raw); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, raw, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid %s scheme '%s': must be 'http' or 'https'", name, parsedURL.Scheme))
		}
	}

	if c.RefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate refresh interval %v: must be at least 1 minute", c.RefreshInterval))
	} else if c.RefreshInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rate refresh interval %v: must be at most 7 days", c.RefreshInterval))
	}

	// Validate import configuration
	if c.ImportChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid import chunk size %d: must be at least 1", c.ImportChunkSize))
	} else if c.ImportChunkSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid import chunk size %d: must be at most 10000", c.ImportChunkSize))
	}

	if c.ImportSkipLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid import skip limit %d: must not be negative", c.ImportSkipLimit))
	}

	if c.ImportConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid import concurrency %d: must be at least 1", c.ImportConcurrency))
	} else if c.ImportConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid import concurrency %d: must be at most 64", c.ImportConcurrency))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
