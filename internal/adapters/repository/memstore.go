package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/pkg/metrics"
)

// MemoryStore keeps each account's history as a date-sorted slice.
//
// Snapshots are copied on the way in and out, so callers never share a
// Fields map with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string][]model.Snapshot
	total    int
	closed   bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string][]model.Snapshot)}
}

func cloneSnapshot(s model.Snapshot) model.Snapshot {
	s.Fields = maps.Clone(s.Fields)
	if s.Fields == nil {
		s.Fields = map[string]int64{}
	}
	s.Date = model.TruncateDate(s.Date)
	return s
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, s model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSnapshot(s); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordStoreWriteLatency(metrics.SinceMs(start)) }()

	key := model.NormalizeAccount(s.Account)
	s = cloneSnapshot(s)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	history := m.accounts[key]
	i := sort.Search(len(history), func(i int) bool { return !history[i].Date.Before(s.Date) })
	switch {
	case i < len(history) && history[i].Date.Equal(s.Date):
		history[i] = s
	default:
		history = append(history, model.Snapshot{})
		copy(history[i+1:], history[i:])
		history[i] = s
		m.total++
	}
	m.accounts[key] = history
	metrics.UpdateStoreRecords(m.total)
	return nil
}

// Range implements Store.
func (m *MemoryStore) Range(ctx context.Context, account string, start, end time.Time) ([]model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	began := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(metrics.SinceMs(began)) }()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	history, ok := m.accounts[model.NormalizeAccount(account)]
	if !ok {
		return nil, ErrNotFound
	}
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(history), func(i int) bool { return !history[i].Date.Before(start) })
	}
	out := make([]model.Snapshot, 0, len(history)-lo)
	for _, s := range history[lo:] {
		if !inRange(s.Date, start, end) {
			break
		}
		out = append(out, cloneSnapshot(s))
	}
	return out, nil
}

// Accounts implements Store.
func (m *MemoryStore) Accounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.accounts))
	for k := range m.accounts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// Close implements Store. Later calls fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
