package worker

import (
	"github.com/okian/xptrack/internal/domain/model"
	"github.com/okian/xptrack/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithFailureHook is called with every snapshot the worker failed to save.
func WithFailureHook(fn func(model.Snapshot, error)) Option {
	return func(w *InMemoryWorker) {
		w.onFailure = fn
	}
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolFailureHook installs a failure hook on every worker in the pool.
func WithPoolFailureHook(fn func(model.Snapshot, error)) PoolOption {
	return func(p *Pool) {
		p.onFailure = fn
	}
}

// WithPoolLogger sets the pool logger. Workers derive named children from it.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
