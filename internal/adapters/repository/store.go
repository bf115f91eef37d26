// Package repository stores account snapshots and serves them by date range.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/xptrack/internal/domain/model"
)

// Store provides read/write access to snapshot history.
type Store interface {
	// Save inserts s, replacing any snapshot with the same account and date.
	Save(ctx context.Context, s model.Snapshot) error

	// Range returns the account's snapshots with start <= date <= end in
	// ascending date order. A zero start or end leaves that side open.
	// Returns ErrNotFound if the account has no snapshots at all.
	Range(ctx context.Context, account string, start, end time.Time) ([]model.Snapshot, error)

	// Accounts lists known accounts in normalized form, sorted.
	Accounts(ctx context.Context) ([]string, error)

	// Count returns the number of stored snapshots.
	Count(ctx context.Context) int

	Close() error
}

func validateSnapshot(s model.Snapshot) error {
	if model.NormalizeAccount(s.Account) == "" {
		return fmt.Errorf("%w: account is required", ErrInvalidSnapshot)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidSnapshot)
	}
	return nil
}

func validateRange(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange,
			end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	}
	return nil
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}
