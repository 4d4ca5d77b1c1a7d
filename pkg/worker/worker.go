package worker

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jzx17/pinpool/internal/syncx"
	"github.com/jzx17/pinpool/pkg/affinity"
	"github.com/jzx17/pinpool/pkg/types"
)

// Config defines configuration shared by the workers of a pool
type Config struct {
	// Affinity maps worker IDs to CPUs; nil disables pinning
	Affinity affinity.Strategy

	// Pinner binds the worker thread to its CPU (defaults to affinity.Pin)
	Pinner affinity.Pinner

	// Clock for task timing (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle events (optional, defaults to a no-op logger)
	Logger *zap.Logger

	// ErrorHandler receives recovered task panics
	ErrorHandler types.ErrorHandler
}

// DefaultConfig returns default configuration: one worker per online CPU slot
func DefaultConfig() *Config {
	return &Config{
		Affinity: affinity.Modulo(),
		Pinner:   affinity.Pin,
		Clock:    types.NewRealClock(),
		Logger:   zap.NewNop(),
	}
}

// withDefaults returns a copy of c with every optional field filled in
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	cfg := *c
	if cfg.Pinner == nil {
		cfg.Pinner = affinity.Pin
	}
	if cfg.Clock == nil {
		cfg.Clock = types.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &cfg
}

// Callback is invoked on the worker's own thread once per loop iteration,
// before the worker acts on its current state. It runs with the worker lock
// held: it may use the Control it receives but must not call the blocking
// methods of the same Worker.
type Callback func(c Control)

// Control is the view of a worker handed to its Callback. It is only valid
// for the duration of that call.
type Control struct {
	w     *Worker
	state State
}

// ID returns the worker ID
func (c Control) ID() int {
	return c.w.id
}

// State returns the state the callback was invoked for
func (c Control) State() State {
	return c.state
}

// AssignTaskAsync hands task to the worker without waiting for it to start
func (c Control) AssignTaskAsync(task types.Task) error {
	return c.w.assignLocked(task)
}

// FinishTaskAsync acknowledges a Done worker so it returns to Ready
func (c Control) FinishTaskAsync() error {
	return c.w.finishLocked()
}

// LastTaskDuration returns how long the most recent task ran
func (c Control) LastTaskDuration() time.Duration {
	return c.w.lastDuration
}

// commands are the pending requests the control loop consumes
type commands struct {
	start bool
	reset bool
	stop  bool
}

// Worker owns one OS thread, optionally pinned to a CPU, and executes at
// most one task at a time under a small state machine:
//
//	Started -> Ready -> Busy -> Done -> Ready -> ... ; any -> Stopped
//
// Only the worker's thread changes the state. Other goroutines post
// commands under the worker lock and wait on its condition variable.
type Worker struct {
	id     int
	cpu    int
	pinned bool
	config *Config
	logger *zap.Logger

	mu    syncx.Mutex
	cond  *sync.Cond
	state stateCell
	cmd   commands
	task  types.Task

	// finished counts acknowledged tasks; waiters use it to notice a
	// Done -> Ready round trip that leaves the state unchanged
	finished uint64

	// done is closed when the current thread exits
	done chan struct{}

	// statistics, guarded by mu
	executed     int64
	panics       int64
	busyTime     time.Duration
	lastDuration time.Duration
	lastTaskTime time.Time
}

// New creates a stopped worker. Its CPU is resolved from config.Affinity now
// and never changes.
func New(id int, config *Config) (*Worker, error) {
	if id < 0 {
		return nil, types.Errorf(types.ErrInvalidArgument, "worker id must not be negative, got %d", id)
	}
	cfg := config.withDefaults()

	cpu, pinned, err := affinity.Resolve(cfg.Affinity, id)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		id:     id,
		cpu:    cpu,
		pinned: pinned,
		config: cfg,
		logger: cfg.Logger.Named("worker").With(zap.Int("worker_id", id)),
		state:  stateCell{current: StateStopped},
		done:   make(chan struct{}),
	}
	close(w.done)
	w.cond = sync.NewCond(&w.mu)
	return w, nil
}

// ID returns the worker ID
func (w *Worker) ID() int {
	return w.id
}

// CPU returns the CPU the worker is pinned to and whether pinning is enabled
func (w *Worker) CPU() (int, bool) {
	return w.cpu, w.pinned
}

// State returns the current worker state
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.get()
}

// Run launches the worker thread with an optional state callback. It
// returns once the thread is pinned and in Started, or with the pinning
// error if the thread could not be set up.
func (w *Worker) Run(callback Callback) error {
	w.mu.Lock()
	if st := w.state.get(); st != StateStopped {
		w.mu.Unlock()
		return types.Errorf(types.ErrWrongState, "worker %d is %s, want stopped", w.id, st)
	}
	w.cmd = commands{}
	w.task = nil
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	started := make(chan error, 1)
	go w.loop(callback, started, done)

	if err := <-started; err != nil {
		<-done
		w.logger.Warn("worker failed to start", zap.Int("cpu", w.cpu), zap.Error(err))
		return types.NewPoolError("run", err).WithContext("worker_id", w.id)
	}

	w.logger.Debug("worker started", zap.Int("cpu", w.cpu), zap.Bool("pinned", w.pinned))
	return nil
}

// AssignTask hands task to a Ready worker and blocks until the worker has
// observed the assignment. A worker still in Started is waited for first.
func (w *Worker) AssignTask(task types.Task) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := types.ValidateTask(task); err != nil {
		return err
	}
	for w.state.get() == StateStarted {
		w.cond.Wait()
	}

	if err := w.assignLocked(task); err != nil {
		return err
	}
	w.cond.Broadcast()
	w.waitForChangeLocked()

	// Stopped straight out of Ready: the task never ran
	if w.state.get() == StateStopped && w.task != nil {
		w.task = nil
		return types.Errorf(types.ErrWorkerStopped, "worker %d stopped before taking its task", w.id)
	}
	return nil
}

// AssignTaskAsync hands task to a Ready worker and returns immediately
func (w *Worker) AssignTaskAsync(task types.Task) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.assignLocked(task); err != nil {
		return err
	}
	w.cond.Broadcast()
	return nil
}

// WaitTask blocks while the worker's task is pending or running and
// succeeds if the worker then reports Done
func (w *Worker) WaitTask() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		st := w.state.get()
		if st == StateBusy || (st == StateReady && w.cmd.start) {
			w.cond.Wait()
			continue
		}
		if st != StateDone {
			return types.Errorf(types.ErrWrongState, "worker %d is %s, want done", w.id, st)
		}
		return nil
	}
}

// FinishTask acknowledges a Done worker and blocks until it leaves Done
func (w *Worker) FinishTask() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.finishLocked(); err != nil {
		return err
	}
	w.cond.Broadcast()
	w.waitForChangeLocked()
	return nil
}

// FinishTaskAsync acknowledges a Done worker and returns immediately
func (w *Worker) FinishTaskAsync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.finishLocked(); err != nil {
		return err
	}
	w.cond.Broadcast()
	return nil
}

// Stop asks the thread to exit, waits until it reaches Stopped and joins
// it. A running task is never interrupted: the thread stops after it.
// Stopping a stopped worker is a no-op.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.state.get() == StateStopped {
		w.mu.Unlock()
		return nil
	}

	w.cmd.stop = true
	w.cond.Broadcast()
	for w.state.get() != StateStopped {
		w.cond.Wait()
	}
	done := w.done
	w.mu.Unlock()

	<-done
	w.logger.Debug("worker joined")
	return nil
}

// Destroy stops the worker and drops any task reference it still holds
func (w *Worker) Destroy() error {
	if err := w.Stop(); err != nil {
		return err
	}
	w.mu.Lock()
	w.task = nil
	w.mu.Unlock()
	return nil
}

// assignLocked validates and records task; caller holds w.mu
func (w *Worker) assignLocked(task types.Task) error {
	if err := types.ValidateTask(task); err != nil {
		return err
	}
	if st := w.state.get(); st != StateReady {
		return types.Errorf(types.ErrWrongState, "worker %d is %s, want ready", w.id, st)
	}
	if w.cmd.start {
		return types.Errorf(types.ErrWrongState, "worker %d already has a task assigned", w.id)
	}

	w.task = task
	w.cmd.start = true
	w.cmd.reset = false
	return nil
}

// finishLocked acknowledges the finished task; caller holds w.mu
func (w *Worker) finishLocked() error {
	if st := w.state.get(); st != StateDone {
		return types.Errorf(types.ErrWrongState, "worker %d is %s, want done", w.id, st)
	}
	if w.cmd.reset {
		return types.Errorf(types.ErrWrongState, "worker %d task already finished", w.id)
	}

	w.cmd.reset = true
	w.cmd.start = false
	w.finished++
	return nil
}

// waitForChangeLocked blocks until the state or the finished counter moves,
// or the worker stops; caller holds w.mu
func (w *Worker) waitForChangeLocked() {
	state, finished := w.state.get(), w.finished
	for {
		st := w.state.get()
		if st == StateStopped || st != state || w.finished != finished {
			return
		}
		w.cond.Wait()
	}
}

// loop is the worker thread. The goroutine stays locked to its OS thread
// and exits without unlocking, so a pinned thread is discarded rather than
// returned to the scheduler.
func (w *Worker) loop(callback Callback, started chan<- error, done chan struct{}) {
	defer close(done)
	runtime.LockOSThread()

	if w.pinned {
		if err := w.config.Pinner(w.cpu); err != nil {
			started <- err
			return
		}
	}

	writer := stateWriter{cell: &w.state}

	w.mu.Lock()
	defer w.mu.Unlock()

	writer.advance(StateStarted)
	w.cond.Broadcast()
	started <- nil

	for {
		if w.cmd.stop {
			writer.advance(StateStopped)
			w.cond.Broadcast()
			return
		}

		state := w.state.get()
		if callback != nil {
			callback(Control{w: w, state: state})
		}

		switch state {
		case StateStarted:
			writer.advance(StateReady)

		case StateReady:
			w.cond.Broadcast()
			for !w.cmd.stop && !w.cmd.start {
				w.cond.Wait()
			}
			if w.cmd.stop {
				continue
			}
			w.cmd.start = false
			writer.advance(StateBusy)

		case StateBusy:
			w.cond.Broadcast()
			task := w.task
			w.mu.Unlock()
			startTime, elapsed, err := w.execute(task)
			w.mu.Lock()

			w.task = nil
			w.executed++
			w.busyTime += elapsed
			w.lastDuration = elapsed
			w.lastTaskTime = startTime
			if err != nil {
				w.panics++
			}
			writer.advance(StateDone)

		case StateDone:
			w.cond.Broadcast()
			for !w.cmd.stop && !w.cmd.reset {
				w.cond.Wait()
			}
			if w.cmd.stop {
				continue
			}
			w.cmd.reset = false
			writer.advance(StateReady)
		}
	}
}

// execute runs task without the worker lock, recovering a panic into a
// PoolError that is reported to the error handler
func (w *Worker) execute(task types.Task) (startTime time.Time, elapsed time.Duration, err error) {
	startTime = w.config.Clock.Now()

	defer func() {
		elapsed = w.config.Clock.Since(startTime)

		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			err = types.NewPoolError("execute", fmt.Errorf("panic: %v", r)).
				WithContext("worker_id", w.id).
				WithContext("stack_trace", string(buf[:n]))
			w.handleError(err)
		}
	}()

	task.Execute()
	return startTime, 0, nil
}

// handleError logs err and passes it to the configured handler
func (w *Worker) handleError(err error) {
	w.logger.Error("task panicked", zap.Error(err))

	if handler := w.config.ErrorHandler; handler != nil {
		if handledErr := handler(err); handledErr != nil {
			w.logger.Debug("error handler returned error", zap.Error(handledErr))
		}
	}
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return WorkerStats{
		ID:            w.id,
		CPU:           w.cpu,
		Pinned:        w.pinned,
		State:         w.state.get(),
		TasksExecuted: w.executed,
		TasksFinished: w.finished,
		Panics:        w.panics,
		BusyTime:      w.busyTime,
		LastTaskTime:  w.lastTaskTime,
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID            int
	CPU           int
	Pinned        bool
	State         State
	TasksExecuted int64
	TasksFinished uint64
	Panics        int64
	BusyTime      time.Duration
	LastTaskTime  time.Time
}

// IsBusy checks if Worker is executing a task
func (ws WorkerStats) IsBusy() bool {
	return ws.State == StateBusy
}

// IsIdle checks if Worker is waiting for a task
func (ws WorkerStats) IsIdle() bool {
	return ws.State == StateReady
}

// AverageTaskTime gets the mean execution time per task
func (ws WorkerStats) AverageTaskTime() time.Duration {
	if ws.TasksExecuted == 0 {
		return 0
	}
	return ws.BusyTime / time.Duration(ws.TasksExecuted)
}
