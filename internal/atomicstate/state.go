/*
 * MIT License
 *
 * Copyright (c) 2026 the xiorpc authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package atomicstate holds a generic atomic value, used for the
// session/connection/transport lifecycle enums (spec §3) so a state read
// from one context never races with a transition driven by another (spec
// §5: "cross-context shared state is restricted to a small table").
package atomicstate

import "sync/atomic"

// Value is a typed wrapper around sync/atomic.Value. T must be a
// comparable, small value type (an int-based enum in every user of this
// package).
type Value[T comparable] struct {
	v atomic.Value
}

// NewValue builds a Value already holding init.
func NewValue[T comparable](init T) *Value[T] {
	s := &Value[T]{}
	s.v.Store(init)
	return s
}

// Load returns the current value.
func (s *Value[T]) Load() T {
	v := s.v.Load()
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Store unconditionally sets the value.
func (s *Value[T]) Store(val T) {
	s.v.Store(val)
}

// CompareAndSwap atomically sets val if the current value is old, returning
// whether the swap happened. Used by lifecycle transitions that must be
// idempotent (spec §4.2: "each transition is idempotent").
func (s *Value[T]) CompareAndSwap(old, val T) bool {
	cur := s.v.Load()
	if cur == nil {
		var zero T
		if zero != old {
			return false
		}
		return s.v.CompareAndSwap(nil, val)
	}
	if cur.(T) != old {
		return false
	}
	return s.v.CompareAndSwap(cur, val)
}

// Is reports whether the current value equals val.
func (s *Value[T]) Is(val T) bool {
	return s.Load() == val
}
