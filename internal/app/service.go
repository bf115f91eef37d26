// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	snapshotqueue "github.com/okian/xptrack/internal/adapters/mq/queue"
	workerpool "github.com/okian/xptrack/internal/adapters/mq/worker"
	"github.com/okian/xptrack/internal/adapters/repository"
	"github.com/okian/xptrack/internal/domain/chart"
	"github.com/okian/xptrack/internal/domain/dedupe"
	"github.com/okian/xptrack/internal/domain/delta"
	"github.com/okian/xptrack/internal/domain/format"
	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/internal/domain/plugin"
	"github.com/okian/xptrack/internal/domain/tracker"
	"github.com/okian/xptrack/pkg/logger"
	"github.com/okian/xptrack/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000
	defaultRangeDays  = 7
	stopTimeout       = 30 * time.Second
)

// Service implements the API dependencies for the experience tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *snapshotqueue.InMemoryQueue
	pool    *workerpool.Pool
	hub     *plugin.Hub
	fmt     *format.Formatter
	palette chart.Palette

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	rangeDays   int
	now         func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the snapshot queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache. Zero keeps it
// unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the snapshot store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPluginHub sets the plugin catalog.
func WithPluginHub(hub *plugin.Hub) Option {
	return func(s *Service) {
		if hub != nil {
			s.hub = hub
		}
	}
}

// WithFormatter sets the number formatter used by tracker views.
func WithFormatter(f *format.Formatter) Option {
	return func(s *Service) {
		if f != nil {
			s.fmt = f
		}
	}
}

// WithPalette overrides the chart palette.
func WithPalette(p chart.Palette) Option {
	return func(s *Service) {
		if len(p) > 0 {
			s.palette = p
		}
	}
}

// WithDefaultRangeDays sets the tracker window used when a request gives no
// start.
func WithDefaultRangeDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.rangeDays = days
		}
	}
}

// WithClock replaces time.Now for window defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		rangeDays:   defaultRangeDays,
		palette:     chart.DefaultPalette,
		fmt:         format.Default(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting tracker service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.hub == nil {
		hub, err := plugin.NewHub(s.fmt, nil)
		if err != nil {
			return fmt.Errorf("empty plugin hub: %w", err)
		}
		s.hub = hub
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = snapshotqueue.NewInMemoryQueue(snapshotqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store,
		workerpool.WithPoolLogger(s.logger.Named("pool")),
		workerpool.WithPoolFailureHook(s.onSaveFailure),
	)
	// Workers outlive the start context; Stop drains them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "tracker service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("plugins", s.hub.Len()),
	)

	return nil
}

// onSaveFailure forgets the snapshot's dedupe key so a resubmission is not
// swallowed as a duplicate.
func (s *Service) onSaveFailure(snap model.Snapshot, err error) {
	ctx := context.Background()
	s.deduper.Unrecord(ctx, snap.DedupeKey())
	s.logger.Warn(ctx, "snapshot dropped after save failure",
		logger.String("account", snap.Account),
		logger.Time("date", snap.Date),
		logger.Error(err),
	)
}

// Stop drains the queue into the store and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping tracker service...")

	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var firstErr error
	if err := s.pool.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("drain workers: %w", err)
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close store: %w", err)
	}

	s.started = false
	s.logger.Info(ctx, "tracker service stopped")
	return firstErr
}

// SeenAndRecord reports whether key was already recorded, recording it if not.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	if d := s.dedupe(); d != nil {
		return d.SeenAndRecord(ctx, key)
	}
	return false
}

// Unrecord removes key so the snapshot can be retried.
func (s *Service) Unrecord(ctx context.Context, key string) {
	if d := s.dedupe(); d != nil {
		d.Unrecord(ctx, key)
	}
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if d := s.dedupe(); d != nil {
		return d.Size()
	}
	return 0
}

func (s *Service) dedupe() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

// Enqueue submits a snapshot for asynchronous storage. It returns false when
// the service is stopped or the queue is full.
func (s *Service) Enqueue(ctx context.Context, snap model.Snapshot) bool {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started {
		return false
	}

	if err := q.TryEnqueue(ctx, snap); err != nil {
		s.logger.Debug(ctx, "snapshot not enqueued",
			logger.String("account", snap.Account),
			logger.Error(err),
		)
		return false
	}
	return true
}

// Track loads the account's snapshots in [start, end] and builds the tracker
// view. A zero end means now; a zero start means the default window before end.
func (s *Service) Track(ctx context.Context, account string, start, end time.Time) (tracker.View, error) {
	account = strings.TrimSpace(account)
	if end.IsZero() {
		end = s.now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -s.rangeDays)
	}

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return tracker.View{}, fmt.Errorf("track %s: %w", account, repository.ErrClosed)
	}

	began := time.Now()
	snaps, err := store.Range(ctx, account, start, end)
	if err != nil {
		return tracker.View{}, fmt.Errorf("track %s: %w", account, err)
	}
	if len(snaps) == 0 {
		return tracker.View{}, fmt.Errorf("track %s: %w", account, repository.ErrEmptyRange)
	}

	res := delta.Compute(snaps)
	metrics.RecordAggregation(len(snaps), metrics.SinceMs(began))

	// Show the name as it was last submitted.
	name := snaps[len(snaps)-1].Account
	return tracker.Build(s.fmt, s.palette, name, start, end, res), nil
}

// PluginCards lists plugin-hub cards, optionally for one author.
func (s *Service) PluginCards(author string, installed map[string]bool) []plugin.Card {
	s.mu.RLock()
	hub := s.hub
	s.mu.RUnlock()
	if hub == nil {
		return nil
	}
	return hub.Cards(author, installed)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["storedSnapshots"] = s.store.Count(ctx)
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()
		stats["plugins"] = s.hub.Len()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	stats["goroutines"] = goroutines
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(goroutines)

	return stats
}
