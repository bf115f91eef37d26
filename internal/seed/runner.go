package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/okian/xptrack/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run generates, submits and verifies one batch of histories.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("seed")

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("accounts", cfg.Accounts),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.checkHealth(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	histories := Generate(cfg)
	for _, h := range histories {
		stats.Generated.Add(int64(len(h.Snapshots)))
	}

	if err := c.submit(ctx, cfg, histories, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}
	if err := c.verify(ctx, cfg, histories, stats); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveHistories(cfg.OutputFile, histories); err != nil {
			log.Warn(ctx, "failed to save histories", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Accounts <= 0 {
		cfg.Accounts = DefaultAccounts
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
}

type savedSnapshot struct {
	Account  string         `json:"account"`
	Snapshot map[string]any `json:"snapshot"`
}

// saveHistories writes every submission body as a JSON array.
func saveHistories(filename string, histories []History) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	var out []savedSnapshot
	for _, h := range histories {
		for _, s := range h.Snapshots {
			out = append(out, savedSnapshot{Account: h.Account, Snapshot: Record(s)})
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal histories: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Accepted.Load()) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int64("generated", stats.Generated.Load()),
		logger.Int64("accepted", stats.Accepted.Load()),
		logger.Int64("duplicate", stats.Duplicate.Load()),
		logger.Int64("throttled", stats.Throttled.Load()),
		logger.Int64("failed", stats.Failed.Load()),
		logger.Int64("verified", stats.Verified.Load()),
		logger.Int64("mismatched", stats.Mismatched.Load()),
		logger.Duration("duration", stats.Duration),
		logger.Float64("snapshotsPerSecond", perSecond),
	)
}
