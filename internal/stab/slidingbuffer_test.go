package stab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingBuffer(t *testing.T) {
	t.Parallel()

	t.Run("invalid window size panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { NewSlidingBuffer[int](0) })
	})

	t.Run("fills then evicts oldest first", func(t *testing.T) {
		t.Parallel()
		b := NewSlidingBuffer[int](3)
		assert.Equal(t, 3, b.WindowSize())
		assert.Equal(t, 0, b.Len())
		assert.False(t, b.Full())

		b.Advance(1)
		b.Advance(2)
		assert.Equal(t, 2, b.Len())
		assert.Equal(t, 1, b.Oldest())
		assert.Equal(t, 2, b.Newest())

		b.Advance(3)
		require.True(t, b.Full())

		// Fourth push wraps and drops the 1.
		b.Advance(4)
		assert.Equal(t, 3, b.Len())
		assert.Equal(t, 2, b.Oldest())
		assert.Equal(t, 4, b.Newest())
	})

	t.Run("at indexes from the oldest across the wrap point", func(t *testing.T) {
		t.Parallel()
		b := NewSlidingBuffer[int](4)
		for v := 1; v <= 7; v++ {
			b.Advance(v)
		}
		// Stored window is now 4, 5, 6, 7.
		for i := 0; i < 4; i++ {
			assert.Equal(t, 4+i, b.At(i))
		}
		assert.Panics(t, func() { b.At(4) })
		assert.Panics(t, func() { b.At(-1) })
	})

	t.Run("centre requires a full window", func(t *testing.T) {
		t.Parallel()
		b := NewSlidingBuffer[int](5)
		b.Advance(10)
		assert.Panics(t, func() { b.Centre() })

		for v := 11; v <= 14; v++ {
			b.Advance(v)
		}
		require.True(t, b.Full())
		assert.Equal(t, 12, b.Centre())
	})

	t.Run("empty accessors panic", func(t *testing.T) {
		t.Parallel()
		b := NewSlidingBuffer[int](2)
		assert.Panics(t, func() { b.Oldest() })
		assert.Panics(t, func() { b.Newest() })
	})

	t.Run("clear keeps capacity", func(t *testing.T) {
		t.Parallel()
		b := NewSlidingBuffer[int](3)
		b.Advance(1)
		b.Advance(2)
		b.Clear()
		assert.Equal(t, 0, b.Len())
		assert.Equal(t, 3, b.WindowSize())

		b.Advance(9)
		assert.Equal(t, 9, b.Oldest())
	})

	t.Run("resize drops contents", func(t *testing.T) {
		t.Parallel()
		b := NewSlidingBuffer[int](3)
		b.Advance(1)
		b.Resize(5)
		assert.Equal(t, 5, b.WindowSize())
		assert.Equal(t, 0, b.Len())
		assert.Panics(t, func() { b.Resize(0) })
	})
}
