package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/stockcast/internal/sales"
)

const (
	EnvIngestionInputDir     = "STOCKCAST_INGESTION_INPUT_DIR"
	EnvIngestionProcessedDir = "STOCKCAST_INGESTION_PROCESSED_DIR"
	EnvIngestionFailedDir    = "STOCKCAST_INGESTION_FAILED_DIR"
	EnvIngestionSheet        = "STOCKCAST_INGESTION_SHEET"
	EnvIngestionWorkers      = "STOCKCAST_INGESTION_WORKERS"
)

// IngestionConfig holds batch sweep directories and concurrency.
type IngestionConfig struct {
	InputDir     string `toml:"input_dir"`
	ProcessedDir string `toml:"processed_dir"`
	FailedDir    string `toml:"failed_dir"`
	Sheet        string `toml:"sheet"`
	Workers      int    `toml:"workers"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *IngestionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.Validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *IngestionConfig) Merge(overlay *IngestionConfig) {
	if overlay.InputDir != "" {
		c.InputDir = overlay.InputDir
	}
	if overlay.ProcessedDir != "" {
		c.ProcessedDir = overlay.ProcessedDir
	}
	if overlay.FailedDir != "" {
		c.FailedDir = overlay.FailedDir
	}
	if overlay.Sheet != "" {
		c.Sheet = overlay.Sheet
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

func (c *IngestionConfig) loadDefaults() {
	if c.InputDir == "" {
		c.InputDir = "data/input"
	}
	if c.ProcessedDir == "" {
		c.ProcessedDir = "data/processed"
	}
	if c.FailedDir == "" {
		c.FailedDir = "data/failed"
	}
	if c.Sheet == "" {
		c.Sheet = sales.DetailSheet
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

func (c *IngestionConfig) loadEnv() {
	if v := os.Getenv(EnvIngestionInputDir); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv(EnvIngestionProcessedDir); v != "" {
		c.ProcessedDir = v
	}
	if v := os.Getenv(EnvIngestionFailedDir); v != "" {
		c.FailedDir = v
	}
	if v := os.Getenv(EnvIngestionSheet); v != "" {
		c.Sheet = v
	}
	if v := os.Getenv(EnvIngestionWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

// Validate checks worker count and directory separation.
func (c *IngestionConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.InputDir == c.ProcessedDir || c.InputDir == c.FailedDir {
		return fmt.Errorf("input_dir must differ from processed_dir and failed_dir")
	}
	return nil
}
