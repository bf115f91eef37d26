// Package seed generates synthetic snapshot histories, submits them to a
// running xptrack service and checks the tracker views it serves.
package seed

import (
	"sync/atomic"
	"time"
)

// Defaults used by the seed command.
const (
	DefaultAccounts = 50
	DefaultDays     = 14
	DefaultTimeout  = 30 * time.Second
	DefaultSettle   = 10 * time.Second

	submitRetries  = 5
	retryBackoff   = 50 * time.Millisecond
	pollInterval   = 100 * time.Millisecond
	accountIDChars = 8
)

// Config holds seed run parameters.
type Config struct {
	BaseURL    string
	Accounts   int
	Days       int
	Start      time.Time
	Workers    int
	Timeout    time.Duration
	Settle     time.Duration
	Seed       uint64
	OutputFile string
	Verbose    bool
}

// Stats tracks a run. Counters are updated concurrently.
type Stats struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Generated  atomic.Int64
	Accepted   atomic.Int64
	Duplicate  atomic.Int64
	Throttled  atomic.Int64
	Failed     atomic.Int64
	Verified   atomic.Int64
	Mismatched atomic.Int64
}
