package repository

import "time"

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*sqliteConfig)

type sqliteConfig struct {
	busyTimeout time.Duration
	journalMode string
}

func defaultSQLiteConfig() sqliteConfig {
	return sqliteConfig{
		busyTimeout: 5 * time.Second,
		journalMode: "WAL",
	}
}

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(c *sqliteConfig) {
		if d > 0 {
			c.busyTimeout = d
		}
	}
}

// WithJournalMode overrides the SQLite journal mode, e.g. "MEMORY" for tests.
func WithJournalMode(mode string) SQLiteOption {
	return func(c *sqliteConfig) {
		if mode != "" {
			c.journalMode = mode
		}
	}
}
