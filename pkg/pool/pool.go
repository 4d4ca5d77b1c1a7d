package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jzx17/pinpool/internal/syncx"
	"github.com/jzx17/pinpool/pkg/affinity"
	"github.com/jzx17/pinpool/pkg/monitor"
	"github.com/jzx17/pinpool/pkg/types"
	"github.com/jzx17/pinpool/pkg/worker"
)

// Config defines configuration for a pool
type Config struct {
	// Workers is the number of pinned workers
	Workers int

	// Name labels the pool's metrics (optional)
	Name string

	// Affinity maps worker IDs to CPUs; nil leaves workers unpinned
	Affinity affinity.Strategy

	// Pinner binds a worker thread to its CPU (optional, defaults to affinity.Pin)
	Pinner affinity.Pinner

	// Clock for task timing (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle events (optional, defaults to a no-op logger)
	Logger *zap.Logger

	// ErrorHandler receives recovered task panics
	ErrorHandler types.ErrorHandler

	// Registerer enables Prometheus metrics when set
	Registerer prometheus.Registerer
}

// DefaultConfig returns default configuration: one worker per CPU, worker i
// pinned to CPU i mod the online CPU count
func DefaultConfig() *Config {
	return &Config{
		Workers:  runtime.NumCPU(),
		Affinity: affinity.Modulo(),
		Clock:    types.NewRealClock(),
		Logger:   zap.NewNop(),
	}
}

const (
	stateCreated int32 = iota
	stateRunning
	stateStopped
)

// Pool runs submitted tasks on a fixed set of CPU-pinned workers.
//
// A free worker receives a submitted task directly; otherwise the task is
// queued and the next worker to become Ready takes it. Workers pick up
// queued work themselves through their state callback, so no dispatcher
// goroutine exists.
type Pool struct {
	config *Config
	logger *zap.Logger

	tasks   *monitor.TaskMonitor
	free    *monitor.WorkerMonitor
	workers *worker.Array

	// dispatch serializes "take a free worker or queue the task" against
	// "take a queued task or register as free". Lock order is worker lock,
	// then dispatch, then a monitor lock; Submit never takes a worker lock
	// while holding dispatch.
	dispatch syncx.Mutex

	state     atomic.Int32
	lifecycle sync.Mutex
	stopWatch func() bool
	destroyed bool

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	busyNanos atomic.Int64

	metrics *metrics
}

// New creates a pool. Its workers are created but not started.
func New(config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Workers <= 0 {
		return nil, types.Errorf(types.ErrInvalidArgument, "worker count must be positive, got %d", config.Workers)
	}

	cfg := *config
	if cfg.Clock == nil {
		cfg.Clock = types.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	free, err := monitor.NewWorkerMonitor(cfg.Workers)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		config: &cfg,
		logger: cfg.Logger.Named("pool"),
		tasks:  monitor.NewTaskMonitor(),
		free:   free,
	}

	workers, err := worker.NewArray(cfg.Workers, &worker.Config{
		Affinity:     cfg.Affinity,
		Pinner:       cfg.Pinner,
		Clock:        cfg.Clock,
		Logger:       cfg.Logger,
		ErrorHandler: p.handlePanic,
	})
	if err != nil {
		return nil, err
	}
	p.workers = workers

	var labels prometheus.Labels
	if cfg.Name != "" {
		labels = prometheus.Labels{"pool": cfg.Name}
	}
	p.metrics, err = newMetrics(cfg.Registerer, labels,
		func() float64 { return float64(p.free.Len()) },
		func() float64 { return float64(p.tasks.Len()) },
	)
	if err != nil {
		_ = workers.Destroy()
		return nil, err
	}

	return p, nil
}

// NewWithWorkers creates a pool of n workers with the default configuration
func NewWithWorkers(n int) (*Pool, error) {
	config := DefaultConfig()
	config.Workers = n
	return New(config)
}

// Start launches every worker. Tasks submitted earlier are picked up as the
// workers become ready. Cancelling ctx stops the pool. A concurrent Stop
// waits for Start to finish and then stops every worker.
func (p *Pool) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if !p.state.CompareAndSwap(stateCreated, stateRunning) {
		if p.state.Load() == stateRunning {
			return types.ErrPoolRunning
		}
		return types.ErrPoolStopped
	}

	if err := p.workers.Run(p.onStateChange); err != nil {
		p.state.Store(stateStopped)
		p.signalStopped()
		p.logger.Error("pool failed to start", zap.Error(err))
		return err
	}

	p.stopWatch = context.AfterFunc(ctx, func() {
		p.logger.Debug("context done, stopping pool", zap.Error(ctx.Err()))
		_ = p.Stop()
	})

	p.logger.Info("pool started", zap.Int("workers", p.workers.Size()))
	return nil
}

// Submit hands task to a free worker, or queues it when every worker is
// busy. A task submitted before Start waits in the queue.
func (p *Pool) Submit(task types.Task) error {
	if err := types.ValidateTask(task); err != nil {
		return err
	}

	p.dispatch.Lock()
	if p.state.Load() == stateStopped {
		p.dispatch.Unlock()
		return types.ErrPoolStopped
	}
	id, err := p.free.GetItem()
	if err != nil {
		if !types.IsUnderflow(err) {
			p.dispatch.Unlock()
			return err
		}
		err = p.tasks.AddItem(task)
		p.dispatch.Unlock()
		if err != nil {
			return err
		}
		p.submitted.Add(1)
		p.metrics.taskSubmitted(pathQueued)
		return nil
	}
	p.dispatch.Unlock()

	if err := p.assign(id, task); err != nil {
		p.releaseWorker(id)
		return err
	}
	p.submitted.Add(1)
	p.metrics.taskSubmitted(pathDirect)
	return nil
}

// assign gives task to the free worker id and waits for it to be taken
func (p *Pool) assign(id int, task types.Task) error {
	w, err := p.workers.Get(id)
	if err != nil {
		return err
	}
	return w.AssignTask(task)
}

// releaseWorker puts id back in the free list after a failed assignment
func (p *Pool) releaseWorker(id int) {
	p.dispatch.Lock()
	defer p.dispatch.Unlock()

	if err := p.free.AddItem(id); err != nil {
		p.logger.Error("could not return worker to the free list",
			zap.Int("worker_id", id), zap.Error(err))
	}
}

// onStateChange runs on each worker's thread with that worker's lock held
func (p *Pool) onStateChange(c worker.Control) {
	switch c.State() {
	case worker.StateReady:
		p.dispatch.Lock()
		defer p.dispatch.Unlock()

		task, err := p.tasks.GetItem()
		if err == nil {
			if err := c.AssignTaskAsync(task); err != nil {
				p.logger.Error("dropping queued task", zap.Int("worker_id", c.ID()), zap.Error(err))
			}
			return
		}
		if err := p.free.AddItem(c.ID()); err != nil {
			// More free entries than workers: the free list invariant is broken
			p.logger.Error("free worker list overflow", zap.Int("worker_id", c.ID()), zap.Error(err))
		}

	case worker.StateDone:
		d := c.LastTaskDuration()
		p.completed.Add(1)
		p.busyNanos.Add(int64(d))
		p.metrics.taskCompleted(d)

		if err := c.FinishTaskAsync(); err != nil {
			p.logger.Error("could not recycle worker", zap.Int("worker_id", c.ID()), zap.Error(err))
		}
	}
}

// handlePanic counts a recovered task panic and forwards it
func (p *Pool) handlePanic(err error) error {
	p.panicked.Add(1)
	p.metrics.taskPanicked()

	if p.config.ErrorHandler != nil {
		return p.config.ErrorHandler(err)
	}
	return nil
}

// WaitAll blocks until no task is queued and every worker is free. It
// returns ErrMonitorAborted if the pool is stopped while waiting.
func (p *Pool) WaitAll() error {
	if err := p.tasks.WaitUntilDrained(); err != nil {
		return err
	}
	return p.free.WaitUntilFull()
}

// Stop stops every worker after its current task and releases WaitAll
// callers. Queued tasks are not run. Stopping twice is a no-op.
func (p *Pool) Stop() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.state.Swap(stateStopped) == stateStopped {
		return nil
	}
	if p.stopWatch != nil {
		p.stopWatch()
	}

	p.signalStopped()
	err := p.workers.Stop()

	p.logger.Info("pool stopped",
		zap.Int64("submitted", p.submitted.Load()),
		zap.Int64("completed", p.completed.Load()),
		zap.Int("abandoned", p.tasks.Len()))
	return err
}

// signalStopped aborts both monitors under dispatch, so a Submit that saw
// the pool running has queued its task before waiters are released
func (p *Pool) signalStopped() {
	p.dispatch.Lock()
	defer p.dispatch.Unlock()

	p.tasks.SignalError()
	p.free.SignalError()
}

// Destroy stops the pool and releases its workers, queues and metrics
func (p *Pool) Destroy() error {
	err := p.Stop()

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	if p.destroyed {
		return err
	}
	p.destroyed = true

	err = errors.Join(err, p.workers.Destroy())
	p.tasks.Close()
	p.free.Close()
	p.metrics.unregister()
	return err
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.workers.Size()
}

// Stats gets pool statistics
func (p *Pool) Stats() types.PoolStats {
	completed := p.completed.Load()

	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(p.busyNanos.Load() / completed)
	}

	return types.PoolStats{
		PoolSize:             p.workers.Size(),
		FreeWorkers:          p.free.Len(),
		PendingTasks:         p.tasks.Len(),
		Submitted:            p.submitted.Load(),
		Completed:            completed,
		Panicked:             p.panicked.Load(),
		AverageExecutionTime: avg,
	}
}

// WorkerStats gets statistics for every worker
func (p *Pool) WorkerStats() []worker.WorkerStats {
	return p.workers.Stats()
}
