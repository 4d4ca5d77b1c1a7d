package queue

import (
	"math/rand"
	"testing"

	eapache "github.com/eapache/queue"
	"github.com/jzx17/pinpool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRing(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  error
	}{
		{name: "positive capacity", capacity: 4},
		{name: "zero capacity should error", capacity: 0, wantErr: types.ErrInvalidArgument},
		{name: "negative capacity should error", capacity: -1, wantErr: types.ErrInvalidArgument},
		{name: "capacity above max should error", capacity: MaxCapacity + 1, wantErr: types.ErrAllocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRing[int](tt.capacity, Fixed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.capacity, r.Cap())
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "growable", Growable.String())
	assert.Equal(t, "fixed", Fixed.String())
	assert.Equal(t, "unknown", Policy(42).String())
}

func TestRing_PopEmpty(t *testing.T) {
	r, err := NewRing[string](2, Growable)
	require.NoError(t, err)

	v, err := r.Pop()
	assert.ErrorIs(t, err, types.ErrUnderflow)
	assert.Empty(t, v)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 2, r.Cap())
}

func TestRing_FixedOverflow(t *testing.T) {
	r, err := NewWorkerQueue(3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Push(i))
	}
	assert.True(t, r.Full())

	err = r.Push(99)
	assert.ErrorIs(t, err, types.ErrOverflow)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())

	// Overflow must not disturb the queued order
	for i := 0; i < 3; i++ {
		v, err := r.Pop()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestRing_GrowthAcrossWraparound(t *testing.T) {
	r, err := NewRing[string](InitialTaskCapacity, Growable)
	require.NoError(t, err)

	require.NoError(t, r.Push("A"))
	require.NoError(t, r.Push("B"))
	assert.True(t, r.Full())

	v, err := r.Pop()
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	require.NoError(t, r.Push("C"))
	require.NoError(t, r.Push("D"))
	assert.Equal(t, 4, r.Cap())
	assert.Equal(t, 3, r.Len())

	for _, want := range []string{"B", "C", "D"} {
		v, err := r.Pop()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	_, err = r.Pop()
	assert.ErrorIs(t, err, types.ErrUnderflow)
}

func TestRing_RepeatedGrowth(t *testing.T) {
	r := NewTaskQueue()
	assert.Equal(t, InitialTaskCapacity, r.Cap())
	assert.Equal(t, Growable, r.Policy())

	for i := 0; i < 100; i++ {
		require.NoError(t, r.Push(nil))
	}
	assert.Equal(t, 100, r.Len())
	assert.Equal(t, 128, r.Cap())
}

func TestRing_Reset(t *testing.T) {
	r, err := NewRing[int](4, Growable)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.NoError(t, r.Push(i))
	}
	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 8, r.Cap())
	_, err = r.Pop()
	assert.ErrorIs(t, err, types.ErrUnderflow)

	require.NoError(t, r.Push(7))
	v, err := r.Pop()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

// TestRing_MatchesReferenceQueue drives random push/pop sequences against
// eapache/queue and checks order and size after every step.
func TestRing_MatchesReferenceQueue(t *testing.T) {
	for _, policy := range []Policy{Growable, Fixed} {
		t.Run(policy.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			const capacity = 5

			r, err := NewRing[int](capacity, policy)
			require.NoError(t, err)
			ref := eapache.New()

			next := 0
			for step := 0; step < 5000; step++ {
				if rng.Intn(3) < 2 {
					err := r.Push(next)
					if policy == Fixed && ref.Length() == capacity {
						require.ErrorIs(t, err, types.ErrOverflow)
					} else {
						require.NoError(t, err)
						ref.Add(next)
					}
					next++
				} else {
					v, err := r.Pop()
					if ref.Length() == 0 {
						require.ErrorIs(t, err, types.ErrUnderflow)
					} else {
						require.NoError(t, err)
						require.Equal(t, ref.Remove().(int), v)
					}
				}

				require.Equal(t, ref.Length(), r.Len())
				require.GreaterOrEqual(t, r.Len(), 0)
				require.LessOrEqual(t, r.Len(), r.Cap())
				if policy == Fixed {
					require.Equal(t, capacity, r.Cap())
				}
			}
		})
	}
}

func BenchmarkRing_PushPop(b *testing.B) {
	r := NewTaskQueue()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Push(nil)
		_, _ = r.Pop()
	}
}
