// Package stab implements the fixed-delay windowed smoothing pipeline that
// converts a noisy per-frame motion signal into a temporally stable
// corrective transform, while guaranteeing the crop region stays inside the
// warped frame.
package stab

import "fmt"

// SlidingBuffer is a fixed-capacity circular sequence. Advance pushes a new
// element, evicting the oldest once full. It exposes the windowing
// operations (oldest/newest/centre) as first-class methods so call sites
// never do manual index arithmetic.
//
// A SlidingBuffer exclusively owns its stored elements and is not safe for
// concurrent use.
type SlidingBuffer[T any] struct {
	data  []T
	start int
	count int
}

// NewSlidingBuffer creates a buffer with the given window size. Panics on a
// non-positive size.
func NewSlidingBuffer[T any](windowSize int) *SlidingBuffer[T] {
	if windowSize < 1 {
		panic(fmt.Sprintf("stab: invalid window size %d", windowSize))
	}
	return &SlidingBuffer[T]{data: make([]T, windowSize)}
}

// WindowSize returns the buffer capacity.
func (b *SlidingBuffer[T]) WindowSize() int { return len(b.data) }

// Len returns the number of stored elements.
func (b *SlidingBuffer[T]) Len() int { return b.count }

// Full reports whether the buffer holds WindowSize elements.
func (b *SlidingBuffer[T]) Full() bool { return b.count == len(b.data) }

// Clear drops all stored elements, keeping the window size.
func (b *SlidingBuffer[T]) Clear() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.start = 0
	b.count = 0
}

// Resize reallocates the buffer to a new window size, dropping all stored
// elements. Panics on a non-positive size.
func (b *SlidingBuffer[T]) Resize(windowSize int) {
	if windowSize < 1 {
		panic(fmt.Sprintf("stab: invalid window size %d", windowSize))
	}
	b.data = make([]T, windowSize)
	b.start = 0
	b.count = 0
}

// Advance pushes v, evicting the oldest element if the buffer is full.
func (b *SlidingBuffer[T]) Advance(v T) {
	if b.count < len(b.data) {
		b.data[(b.start+b.count)%len(b.data)] = v
		b.count++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % len(b.data)
}

// At returns the element i positions after the oldest. Panics when i is out
// of range.
func (b *SlidingBuffer[T]) At(i int) T {
	if i < 0 || i >= b.count {
		panic(fmt.Sprintf("stab: index %d out of range (len %d)", i, b.count))
	}
	return b.data[(b.start+i)%len(b.data)]
}

// Oldest returns the least recently pushed element. Panics when empty.
func (b *SlidingBuffer[T]) Oldest() T {
	if b.count == 0 {
		panic("stab: oldest of empty buffer")
	}
	return b.data[b.start]
}

// Newest returns the most recently pushed element. Panics when empty.
func (b *SlidingBuffer[T]) Newest() T {
	if b.count == 0 {
		panic("stab: newest of empty buffer")
	}
	return b.data[(b.start+b.count-1)%len(b.data)]
}

// Centre returns the middle element of a full window. Panics unless the
// buffer is full, since the centre of a partial window is not meaningful.
func (b *SlidingBuffer[T]) Centre() T {
	if !b.Full() {
		panic("stab: centre of a partial window")
	}
	return b.At(b.count / 2)
}
