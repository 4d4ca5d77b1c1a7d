package worker

import (
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jzx17/pinpool/pkg/types"
)

// Array owns a fixed set of workers with dense IDs [0, Size()). It is
// created, started and stopped as a unit: a failure part-way through
// NewArray or Run leaves nothing live behind.
type Array struct {
	workers []*Worker
	logger  *zap.Logger
}

// NewArray creates size stopped workers sharing config
func NewArray(size int, config *Config) (*Array, error) {
	if size <= 0 {
		return nil, types.Errorf(types.ErrInvalidArgument, "worker array size must be positive, got %d", size)
	}
	cfg := config.withDefaults()

	a := &Array{
		workers: make([]*Worker, 0, size),
		logger:  cfg.Logger.Named("array"),
	}
	for id := 0; id < size; id++ {
		w, err := New(id, cfg)
		if err != nil {
			a.destroyFrom(len(a.workers) - 1)
			return nil, err
		}
		a.workers = append(a.workers, w)
	}
	return a, nil
}

// Run starts every worker with callback. If worker k fails to start,
// workers [0, k) are stopped in reverse order and the error is returned.
func (a *Array) Run(callback Callback) error {
	for k, w := range a.workers {
		if err := w.Run(callback); err != nil {
			a.logger.Warn("rolling back worker array start",
				zap.Int("failed_worker", k), zap.Error(err))
			for i := k - 1; i >= 0; i-- {
				if stopErr := a.workers[i].Stop(); stopErr != nil {
					a.logger.Error("rollback stop failed", zap.Int("worker_id", i), zap.Error(stopErr))
				}
			}
			return err
		}
	}
	a.logger.Debug("worker array started", zap.Int("size", len(a.workers)))
	return nil
}

// Stop stops every worker concurrently. Individual failures are logged and
// do not keep the other workers running; the joined errors are returned.
func (a *Array) Stop() error {
	var g errgroup.Group
	errs := make([]error, len(a.workers))
	for i, w := range a.workers {
		g.Go(func() error {
			errs[i] = w.Stop()
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			a.logger.Error("worker stop failed", zap.Int("worker_id", i), zap.Error(err))
		}
	}
	return errors.Join(errs...)
}

// Destroy stops and releases every worker
func (a *Array) Destroy() error {
	err := a.Stop()
	a.destroyFrom(len(a.workers) - 1)
	return err
}

// destroyFrom destroys workers [0, last] in reverse order
func (a *Array) destroyFrom(last int) {
	for i := last; i >= 0; i-- {
		if err := a.workers[i].Destroy(); err != nil {
			a.logger.Error("worker destroy failed", zap.Int("worker_id", i), zap.Error(err))
		}
	}
}

// Get returns the worker with the given ID
func (a *Array) Get(id int) (*Worker, error) {
	if id < 0 {
		return nil, types.Errorf(types.ErrInvalidArgument, "worker id must not be negative, got %d", id)
	}
	if id >= len(a.workers) {
		return nil, types.Errorf(types.ErrOverflow, "worker id %d out of range [0, %d)", id, len(a.workers))
	}
	return a.workers[id], nil
}

// Size returns the number of workers
func (a *Array) Size() int {
	return len(a.workers)
}

// Stats returns a snapshot of every worker's statistics
func (a *Array) Stats() []WorkerStats {
	stats := make([]WorkerStats, len(a.workers))
	for i, w := range a.workers {
		stats[i] = w.Stats()
	}
	return stats
}
