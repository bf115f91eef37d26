// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and the environment on top of New.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory snapshot queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=0"`

	// Store picks the snapshot backend.
	Store string `koanf:"store" validate:"oneof=memory sqlite"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path" validate:"required_if=Store sqlite"`

	// StrictSnapshots rejects non-integral schema values instead of dropping them.
	StrictSnapshots bool `koanf:"strict_snapshots"`

	// Locale drives number formatting in tracker and plugin views.
	Locale string `koanf:"locale" validate:"required,bcp47_language_tag"`

	// PluginManifest is an optional YAML plugin-hub manifest.
	PluginManifest string `koanf:"plugin_manifest"`

	// DefaultRangeDays is the tracker window when no start is given.
	DefaultRangeDays int `koanf:"default_range_days" validate:"gte=1,lte=3650"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       100_000,
		Store:            StoreMemory,
		SQLitePath:       "xptrack.db",
		StrictSnapshots:  false,
		Locale:           "en",
		PluginManifest:   "",
		DefaultRangeDays: 7,
	}
}
