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

// Package task implements the unit of work flowing through send/receive
// (spec §3 "Task"): a pool-allocated, refcounted carrier for one in-flight
// message, plus the transport-scoped pool it is acquired from and released
// back to (spec §4.2 "Task pools").
package task

import (
	"sync/atomic"

	"github.com/nabbar/xiorpc/wire"
)

// State is the task lifecycle (spec §3): Init -> Delivered -> SendComplete
// -> Recycled.
type State int32

const (
	Init State = iota
	Delivered
	SendComplete
	Recycled
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Delivered:
		return "delivered"
	case SendComplete:
		return "send-complete"
	case Recycled:
		return "recycled"
	default:
		return "unknown"
	}
}

// Task is the unit of work carrying one framed send or receive (spec §3).
// SessionRef/ConnRef are opaque handles set by the session package (type
// asserted back by the holder) so this package doesn't import session and
// create a cycle.
type Task struct {
	pool *Pool

	Type   wire.Type
	Header wire.Header

	// Payload is the inbound or outbound message body, excluding the
	// session header and TLV frame prefix.
	Payload []byte

	// SenderTask is the back-pointer from a response task to the request
	// task that originated it (spec §3 "sender_task back-pointer").
	SenderTask *Task

	SessionRef interface{}
	ConnRef    interface{}

	// Status carries a non-nil error when the payload delivery failed
	// (spec §4.1: "unless task.status is non-zero").
	Status error

	// FlagsAtSend is the flags snapshot taken at send time (spec §3).
	FlagsAtSend wire.Flag

	// IsAssigned is set once the user layer (or AssignInBuf) supplied an
	// inbound buffer for this task (spec §4.1 "AssignInBuf").
	IsAssigned bool

	// IsFlushed marks a task discarded by a queue flush during teardown
	// rather than completed normally (spec §4.2 "Task flushing").
	IsFlushed bool

	state   atomic.Int32
	refs    atomic.Int32
	genSlot int
}

// State returns the task's current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// SetState transitions the task's lifecycle state.
func (t *Task) SetState(s State) { t.state.Store(int32(s)) }

// Refs returns the current reference count.
func (t *Task) Refs() int32 { return t.refs.Load() }

// AddRef takes an extra reference on the task (spec §3: "a task may be
// simultaneously referenced by the in-flight queue and by a user callback;
// both must put their reference"). Used e.g. to retain a task across a
// read-receipt's user callback (spec §4.1 req path).
func (t *Task) AddRef() {
	t.refs.Add(1)
}

// Put releases one reference. When the count reaches zero the task is
// reset and returned to its owning pool. Put is idempotent against
// over-release only in the sense that it never panics; callers remain
// responsible for matching every Get/AddRef with exactly one Put (spec §8
// invariant 4).
func (t *Task) Put() {
	if t.refs.Add(-1) > 0 {
		return
	}
	p := t.pool
	t.reset()
	if p != nil {
		p.release(t)
	}
}

// reset mirrors task_pre_put (spec §4.2): zero the framing state and
// counters so a reused slab slot starts clean.
func (t *Task) reset() {
	t.Type = wire.TypeUnknown
	t.Header = wire.Header{}
	t.Payload = nil
	t.SenderTask = nil
	t.SessionRef = nil
	t.ConnRef = nil
	t.Status = nil
	t.FlagsAtSend = 0
	t.IsAssigned = false
	t.IsFlushed = false
	t.state.Store(int32(Recycled))
}
