package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the pause before retry number attempt (1-based)
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// FixedBackoff implements fixed backoff strategy
type FixedBackoff struct {
	delay  time.Duration
	jitter JitterFunc
}

// NewFixedBackoff creates a fixed backoff strategy
func NewFixedBackoff(delay time.Duration, jitter JitterFunc) *FixedBackoff {
	return &FixedBackoff{
		delay:  delay,
		jitter: jitter,
	}
}

// NextDelay calculates the delay for the next retry
func (b *FixedBackoff) NextDelay(int) time.Duration {
	delay := b.delay
	if b.jitter != nil {
		delay = b.jitter(delay)
	}
	return delay
}

// ExponentialBackoff implements exponential backoff strategy
type ExponentialBackoff struct {
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
	jitter       JitterFunc
}

// ExponentialOption configures an ExponentialBackoff
type ExponentialOption func(*ExponentialBackoff)

// WithMultiplier sets the growth factor (default 2)
func WithMultiplier(multiplier float64) ExponentialOption {
	return func(b *ExponentialBackoff) { b.multiplier = multiplier }
}

// WithMaxDelay caps the delay (default 30s)
func WithMaxDelay(maxDelay time.Duration) ExponentialOption {
	return func(b *ExponentialBackoff) { b.maxDelay = maxDelay }
}

// WithJitter randomizes every computed delay
func WithJitter(jitter JitterFunc) ExponentialOption {
	return func(b *ExponentialBackoff) { b.jitter = jitter }
}

// NewExponentialBackoff creates an exponential backoff strategy
func NewExponentialBackoff(initialDelay time.Duration, opts ...ExponentialOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: initialDelay,
		multiplier:   2.0,
		maxDelay:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay calculates the delay for the next retry
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}

	d := time.Duration(delay)
	if b.jitter != nil {
		d = b.jitter(d)
	}
	return d
}

// JitterFunc jitter function type
type JitterFunc func(time.Duration) time.Duration

// FullJitter full jitter function - random within [0, delay) range
func FullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)))
}

// EqualJitter equal jitter function - delay/2 + random(0, delay/2)
func EqualJitter(delay time.Duration) time.Duration {
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + time.Duration(rand.Int63n(int64(half)))
}
