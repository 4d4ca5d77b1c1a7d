// Package retry wraps fallible functions into pool tasks that retry with
// backoff on the worker that runs them.
//
// A pool task cannot report failure to the pool, so a retry Task records
// its final error and attempt count in an Outcome owned by the submitter,
// next to the result storage.
package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/jzx17/pinpool/pkg/types"
)

// ErrMaxAttempts marks an Outcome whose function kept failing until the
// attempt budget ran out
var ErrMaxAttempts = errors.New("max attempts reached")

// Policy decides how often and how fast a failing function is retried
type Policy struct {
	// MaxAttempts bounds the calls, the first one included
	MaxAttempts int

	// Backoff computes the pause between attempts (none when nil)
	Backoff Backoff

	// RetryIf reports whether err is worth another attempt (all errors when nil)
	RetryIf func(err error) bool
}

// DefaultPolicy returns default policy: 3 attempts, exponential backoff
// from 10ms with equal jitter
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     NewExponentialBackoff(10*time.Millisecond, WithJitter(EqualJitter)),
	}
}

func (p Policy) shouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if p.RetryIf != nil {
		return p.RetryIf(err)
	}
	return true
}

func (p Policy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff.NextDelay(attempt)
}

// Outcome is written by a Task when it finishes
type Outcome struct {
	Attempts int
	Err      error
}

// Task retries Fn with Args until it succeeds or Policy gives up.
// Backoff pauses sleep on the worker thread, keeping its core.
type Task[A, R any] struct {
	Fn      func(args A, result *R) error
	Args    A
	Result  *R
	Outcome *Outcome
	Policy  Policy

	// Clock times the pauses between attempts (defaults to the real clock)
	Clock types.Clock
}

// NewTask creates a retrying task
func NewTask[A, R any](fn func(args A, result *R) error, args A, result *R, outcome *Outcome, policy Policy) *Task[A, R] {
	return &Task[A, R]{
		Fn:      fn,
		Args:    args,
		Result:  result,
		Outcome: outcome,
		Policy:  policy,
	}
}

// Validate checks that the function and the caller-owned storage are present
func (t *Task[A, R]) Validate() error {
	if t == nil || t.Fn == nil {
		return types.Errorf(types.ErrInvalidArgument, "retry task has no function")
	}
	if t.Result == nil || t.Outcome == nil {
		return types.Errorf(types.ErrInvalidArgument, "retry task has no result or outcome storage")
	}
	if t.Policy.MaxAttempts <= 0 {
		return types.Errorf(types.ErrInvalidArgument, "max attempts must be positive, got %d", t.Policy.MaxAttempts)
	}
	return nil
}

// Execute runs the retry loop
func (t *Task[A, R]) Execute() {
	clock := t.Clock
	if clock == nil {
		clock = types.NewRealClock()
	}

	attempt := 0
	for {
		attempt++
		err := t.Fn(t.Args, t.Result)
		if err == nil {
			*t.Outcome = Outcome{Attempts: attempt}
			return
		}

		if !t.Policy.shouldRetry(err, attempt) {
			if attempt >= t.Policy.MaxAttempts {
				err = fmt.Errorf("%w after %d attempts: %w", ErrMaxAttempts, attempt, err)
			}
			*t.Outcome = Outcome{Attempts: attempt, Err: err}
			return
		}

		if d := t.Policy.delay(attempt); d > 0 {
			clock.Sleep(d)
		}
	}
}
