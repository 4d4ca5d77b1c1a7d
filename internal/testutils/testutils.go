// Package testutils provides helpers shared by the pool and worker tests
package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestConfig test configuration
type TestConfig struct {
	Timeout time.Duration
	Workers int
	Verbose bool
}

// TestContext bundles a test with its timeout, logger and cleanups
type TestContext struct {
	t       *testing.T
	config  *TestConfig
	cleanup []func()
	mu      sync.Mutex
}

// NewTestContext creates new test context. Cleanups run when the test ends.
func NewTestContext(t *testing.T, config *TestConfig) *TestContext {
	if config == nil {
		config = &TestConfig{
			Timeout: 5 * time.Second,
			Workers: 4,
		}
	}

	tc := &TestContext{
		t:      t,
		config: config,
	}
	t.Cleanup(tc.Cleanup)
	return tc
}

// T returns testing.T instance
func (tc *TestContext) T() *testing.T {
	return tc.t
}

// Workers returns the configured worker count
func (tc *TestContext) Workers() int {
	return tc.config.Workers
}

// Timeout returns the configured wait bound
func (tc *TestContext) Timeout() time.Duration {
	return tc.config.Timeout
}

// Context returns context with timeout
func (tc *TestContext) Context() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), tc.config.Timeout)
	tc.AddCleanup(cancel)
	return ctx
}

// Logger returns a logger writing through t.Log when Verbose is set
func (tc *TestContext) Logger() *zap.Logger {
	if !tc.config.Verbose {
		return zap.NewNop()
	}
	return zaptest.NewLogger(tc.t)
}

// AddCleanup adds cleanup function
func (tc *TestContext) AddCleanup(fn func()) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cleanup = append(tc.cleanup, fn)
}

// Cleanup executes cleanup
func (tc *TestContext) Cleanup() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Execute cleanup functions in reverse order
	for i := len(tc.cleanup) - 1; i >= 0; i-- {
		tc.cleanup[i]()
	}
	tc.cleanup = nil
}

// RequireNoError asserts no error
func (tc *TestContext) RequireNoError(err error, msgAndArgs ...interface{}) {
	if !assert.NoError(tc.t, err, msgAndArgs...) {
		tc.t.FailNow()
	}
}

// AssertEventually waits for condition to be true
func (tc *TestContext) AssertEventually(condition func() bool, msgAndArgs ...interface{}) {
	assert.Eventually(tc.t, condition, tc.config.Timeout, time.Millisecond, msgAndArgs...)
}

// RequireReturns fails the test if fn does not return within the timeout
// and hands back its error otherwise
func (tc *TestContext) RequireReturns(fn func() error, msgAndArgs ...interface{}) error {
	tc.t.Helper()

	result := make(chan error, 1)
	go func() { result <- fn() }()

	select {
	case err := <-result:
		return err
	case <-time.After(tc.config.Timeout):
		assert.Fail(tc.t, "call did not return in time", msgAndArgs...)
		tc.t.FailNow()
		return nil
	}
}
