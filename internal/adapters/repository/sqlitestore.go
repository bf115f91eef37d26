package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/xptrack/internal/adapters/repository/migrations"
	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore persists snapshots in a single SQLite table keyed by
// normalized account and date.
type SQLiteStore struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// OpenSQLite opens path and applies embedded migrations.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cfg := defaultSQLiteConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := filepath.Clean(path) + fmt.Sprintf("?_pragma=journal_mode(%s)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.journalMode, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.Count(ctx)
	return s, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, snap model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreWriteLatency(metrics.SinceMs(start)) }()

	fields := snap.Fields
	if fields == nil {
		fields = map[string]int64{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (account_key, account, taken_at, id, fields, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (account_key, taken_at) DO UPDATE SET
		   account = excluded.account,
		   id = excluded.id,
		   fields = excluded.fields,
		   stored_at = excluded.stored_at`,
		model.NormalizeAccount(snap.Account),
		strings.TrimSpace(snap.Account),
		toMillis(snap.Date),
		snap.ID,
		string(encoded),
		toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", s.mapErr(err))
	}
	return nil
}

// Range implements Store.
func (s *SQLiteStore) Range(ctx context.Context, account string, start, end time.Time) ([]model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	began := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(metrics.SinceMs(began)) }()

	key := model.NormalizeAccount(account)
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !start.IsZero() {
		lo = toMillis(start)
	}
	if !end.IsZero() {
		hi = toMillis(end)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT account, taken_at, id, fields FROM snapshots
		 WHERE account_key = ? AND taken_at >= ? AND taken_at <= ?
		 ORDER BY taken_at ASC`,
		key, lo, hi,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", s.mapErr(err))
	}
	defer rows.Close()

	out := make([]model.Snapshot, 0)
	for rows.Next() {
		var (
			snap    model.Snapshot
			takenAt int64
			fields  string
		)
		if err := rows.Scan(&snap.Account, &takenAt, &snap.ID, &fields); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Date = fromMillis(takenAt)
		snap.Fields = map[string]int64{}
		if err := json.Unmarshal([]byte(fields), &snap.Fields); err != nil {
			return nil, fmt.Errorf("decode fields for %s: %w", snap.ID, err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	if len(out) == 0 {
		known, err := s.accountExists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, ErrNotFound
		}
	}
	return out, nil
}

func (s *SQLiteStore) accountExists(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM snapshots WHERE account_key = ? LIMIT 1`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup account: %w", s.mapErr(err))
	}
	return true, nil
}

// Accounts implements Store.
func (s *SQLiteStore) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT account_key FROM snapshots ORDER BY account_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", s.mapErr(err))
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

// Count implements Store and refreshes the store size gauge. Errors count
// as zero.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0
	}
	metrics.UpdateStoreRecords(n)
	return n
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) mapErr(err error) error {
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
