package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/pinpool/internal/testutils"
	"github.com/jzx17/pinpool/pkg/pool"
	"github.com/jzx17/pinpool/pkg/types"
)

var errFlaky = errors.New("flaky")

// failFirst returns a function that fails n times before writing args*2
func failFirst(n int) func(args int, result *int) error {
	calls := 0
	return func(args int, result *int) error {
		calls++
		if calls <= n {
			return errFlaky
		}
		*result = args * 2
		return nil
	}
}

// executeWithMockClock runs task on a mock clock, advancing through the
// expected number of backoff pauses, and returns their durations
func executeWithMockClock(t *testing.T, task *Task[int, int], pauses int) []time.Duration {
	t.Helper()
	mock := testutils.NewMockClock(t)
	task.Clock = testutils.NewClockWrapper(mock)

	trap := mock.Trap().NewTimer()
	defer trap.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		task.Execute()
	}()

	var sleeps []time.Duration
	for i := 0; i < pauses; i++ {
		call := trap.MustWait(ctx)
		sleeps = append(sleeps, call.Duration)
		call.MustRelease(ctx)
		mock.Advance(call.Duration).MustWait(ctx)
	}

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("retry task did not finish")
	}
	return sleeps
}

func TestTask_SucceedsAfterRetries(t *testing.T) {
	var result int
	var outcome Outcome

	task := NewTask(failFirst(2), 21, &result, &outcome, Policy{
		MaxAttempts: 5,
		Backoff:     NewExponentialBackoff(time.Millisecond),
	})
	require.NoError(t, types.ValidateTask(task))

	sleeps := executeWithMockClock(t, task, 2)

	assert.NoError(t, outcome.Err)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 42, result)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, sleeps)
}

func TestTask_MaxAttempts(t *testing.T) {
	var result int
	var outcome Outcome

	task := NewTask(failFirst(10), 1, &result, &outcome, Policy{
		MaxAttempts: 3,
		Backoff:     NewFixedBackoff(5*time.Millisecond, nil),
	})
	sleeps := executeWithMockClock(t, task, 2)

	assert.ErrorIs(t, outcome.Err, ErrMaxAttempts)
	assert.ErrorIs(t, outcome.Err, errFlaky)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, sleeps)
	assert.Equal(t, 0, result)
}

func TestTask_RetryIf(t *testing.T) {
	var result int
	var outcome Outcome
	fatal := errors.New("fatal")

	task := NewTask(func(int, *int) error { return fatal }, 0, &result, &outcome, Policy{
		MaxAttempts: 5,
		RetryIf:     func(err error) bool { return errors.Is(err, errFlaky) },
	})
	task.Execute()

	assert.Equal(t, 1, outcome.Attempts)
	assert.ErrorIs(t, outcome.Err, fatal)
	assert.NotErrorIs(t, outcome.Err, ErrMaxAttempts)
}

func TestTask_Validate(t *testing.T) {
	var result int
	var outcome Outcome
	var nilTask *Task[int, int]

	tests := []struct {
		name string
		task types.Task
	}{
		{"nil task", nilTask},
		{"no function", NewTask[int, int](nil, 0, &result, &outcome, DefaultPolicy())},
		{"no result", NewTask(failFirst(0), 0, nil, &outcome, DefaultPolicy())},
		{"no outcome", NewTask(failFirst(0), 0, &result, nil, DefaultPolicy())},
		{"no attempts", NewTask(failFirst(0), 0, &result, &outcome, Policy{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, types.ValidateTask(tt.task), types.ErrInvalidArgument)
		})
	}
}

func TestTask_OnPool(t *testing.T) {
	p, err := pool.New(&pool.Config{Workers: 2})
	require.NoError(t, err)
	defer p.Destroy()
	require.NoError(t, p.Start(context.Background()))

	policy := Policy{MaxAttempts: 3, Backoff: NewFixedBackoff(time.Millisecond, nil)}
	results := make([]int, 8)
	outcomes := make([]Outcome, 8)
	for i := range results {
		require.NoError(t, p.Submit(NewTask(failFirst(i%4), i, &results[i], &outcomes[i], policy)))
	}
	require.NoError(t, p.WaitAll())

	for i, o := range outcomes {
		if i%4 < 3 {
			assert.NoError(t, o.Err, "task %d", i)
			assert.Equal(t, i%4+1, o.Attempts)
			assert.Equal(t, i*2, results[i])
		} else {
			assert.ErrorIs(t, o.Err, ErrMaxAttempts, "task %d", i)
			assert.Equal(t, 3, o.Attempts)
		}
	}
	assert.Equal(t, int64(8), p.Stats().Completed)
}
