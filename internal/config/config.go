// Package config provides configuration management for merchant-insights jobs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported report output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Config holds everything a job run needs: input locations, report
// destinations, and runtime knobs.
type Config struct {
	// TransactionsPath is the Parquet file holding raw transactions.
	TransactionsPath string `json:"transactions_path" yaml:"transactions_path"`
	// MerchantsPath is the CSV file holding the merchant dimension.
	MerchantsPath string `json:"merchants_path" yaml:"merchants_path"`

	// OutputDir is the directory report files are written under.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Format is the report file format: csv or parquet.
	Format string `json:"format" yaml:"format"`

	// Catalog configures the optional database-backed report sink.
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Workers is the analysis worker pool size (0 = auto-detect).
	Workers int `json:"workers" yaml:"workers"`
	// Verbose enables debug-level logging.
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// CatalogConfig configures the database catalog report sink.
type CatalogConfig struct {
	// Enabled turns the catalog sink on; the file sink is used otherwise.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// DSN is the PostgreSQL connection string.
	DSN string `json:"dsn" yaml:"dsn"`
	// Schema is the database schema report tables live in.
	Schema string `json:"schema" yaml:"schema"`
}

// NewConfig creates a configuration with default values.
func NewConfig() Config {
	return Config{
		OutputDir: "reports",
		Format:    FormatCSV,
		Catalog: CatalogConfig{
			Schema: "public",
		},
	}
}

// Validate checks the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.TransactionsPath == "" {
		return fmt.Errorf("transactions_path must be set")
	}
	if c.MerchantsPath == "" {
		return fmt.Errorf("merchants_path must be set")
	}
	if c.Format != FormatCSV && c.Format != FormatParquet {
		return fmt.Errorf("format must be %q or %q, got %q", FormatCSV, FormatParquet, c.Format)
	}
	if c.Catalog.Enabled && c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn must be set when the catalog sink is enabled")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// WithDefaults fills zero-valued fields with their defaults.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()
	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if c.Format == "" {
		c.Format = defaults.Format
	}
	if c.Catalog.Schema == "" {
		c.Catalog.Schema = defaults.Catalog.Schema
	}
	return c
}

// LoadFromFile loads configuration from a JSON or YAML file, selected by
// extension, and applies defaults to unset fields.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing JSON config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing YAML config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", filepath.Ext(filename))
	}

	return cfg.WithDefaults(), nil
}

// LoadFromEnv overlays MERCHANT_-prefixed environment variables onto the
// given configuration.
func LoadFromEnv(cfg Config) Config {
	if val := os.Getenv("MERCHANT_TRANSACTIONS_PATH"); val != "" {
		cfg.TransactionsPath = val
	}
	if val := os.Getenv("MERCHANT_MERCHANTS_PATH"); val != "" {
		cfg.MerchantsPath = val
	}
	if val := os.Getenv("MERCHANT_OUTPUT_DIR"); val != "" {
		cfg.OutputDir = val
	}
	if val := os.Getenv("MERCHANT_FORMAT"); val != "" {
		cfg.Format = val
	}
	if val := os.Getenv("MERCHANT_CATALOG_ENABLED"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			cfg.Catalog.Enabled = parsed
		}
	}
	if val := os.Getenv("MERCHANT_CATALOG_DSN"); val != "" {
		cfg.Catalog.DSN = val
	}
	if val := os.Getenv("MERCHANT_CATALOG_SCHEMA"); val != "" {
		cfg.Catalog.Schema = val
	}
	if val := os.Getenv("MERCHANT_WORKERS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			cfg.Workers = parsed
		}
	}
	if val := os.Getenv("MERCHANT_VERBOSE"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			cfg.Verbose = parsed
		}
	}
	return cfg
}
