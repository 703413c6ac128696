// Copyright ©2025 The qardio Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ring implements a fixed-capacity buffer retaining the most
// recently pushed values.
package ring

// Buffer is a ring buffer of the last Size values pushed.
type Buffer[T any] struct {
	data []T
	next int
	full bool
}

// NewBuffer returns a Buffer retaining the last n values.
func NewBuffer[T any](n int) *Buffer[T] {
	return &Buffer[T]{data: make([]T, n)}
}

// Len returns the number of values held.
func (r *Buffer[T]) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.next
}

// Size returns the buffer capacity.
func (r *Buffer[T]) Size() int {
	return len(r.data)
}

// Push appends v, discarding the oldest value when the buffer is full.
func (r *Buffer[T]) Push(v T) {
	r.data[r.next] = v
	r.next++
	if r.next == len(r.data) {
		r.next = 0
		r.full = true
	}
}

// All returns the held values, oldest first.
func (r *Buffer[T]) All() []T {
	if !r.full {
		out := make([]T, r.next)
		copy(out, r.data[:r.next])
		return out
	}
	out := make([]T, 0, len(r.data))
	out = append(out, r.data[r.next:]...)
	out = append(out, r.data[:r.next]...)
	return out
}
