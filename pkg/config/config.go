// Package config loads engine tuning parameters from the environment. These
// knobs configure execution (worker count, index structure, batching, round
// cap) but are not part of the computational semantics: any valid setting
// yields the same output deltas.
package config

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/l7mp/dflow/pkg/zset"
)

// Config validation errors.
var (
	ErrInvalidWorkerCount = errors.New("worker_count must be positive")
	ErrInvalidBatchSize   = errors.New("batch_size must be positive")
	ErrInvalidIndexKind   = errors.New("index_kind must be 'hash' or 'dense'")
	ErrInvalidMaxRounds   = errors.New("max_rounds must be non-negative")
	ErrInvalidBudget      = errors.New("retained_entry_budget must be non-negative")
	ErrInvalidLogFormat   = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel    = errors.New("log_level must be debug, info, warn, or error")
)

// Config holds the engine tuning parameters.
type Config struct {
	// WorkerCount is the number of workers sharing the key space in
	// sharded operators.
	WorkerCount int `envconfig:"WORKER_COUNT" default:"1"`
	// BatchSize is the preferred number of delta entries admitted per
	// logical timestep by batch-building front ends.
	BatchSize int `envconfig:"BATCH_SIZE" default:"1024"`
	// IndexKind selects the default key index structure: "hash" for
	// arbitrary keys, "dense" when keys are small dense integers.
	IndexKind string `envconfig:"INDEX_KIND" default:"hash"`
	// MaxRounds caps fixed-point iteration; 0 disables the cap.
	MaxRounds int `envconfig:"MAX_ROUNDS" default:"65536"`
	// RetainedEntryBudget is the retained-history size above which the
	// engine signals memory pressure; 0 disables the check.
	RetainedEntryBudget int `envconfig:"RETAINED_ENTRY_BUDGET" default:"0"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads the configuration from the environment under the given prefix,
// loading a .env file first when one is present.
func Load(prefix string) (*Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return ErrInvalidWorkerCount
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.IndexKind != "hash" && c.IndexKind != "dense" {
		return ErrInvalidIndexKind
	}
	if c.MaxRounds < 0 {
		return ErrInvalidMaxRounds
	}
	if c.RetainedEntryBudget < 0 {
		return ErrInvalidBudget
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// Index returns the configured index kind.
func (c *Config) Index() zset.IndexKind {
	if c.IndexKind == "dense" {
		return zset.DenseIndexKind
	}
	return zset.HashIndexKind
}
