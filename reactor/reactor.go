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

// Package reactor is the adapter for the "per-thread readiness-based
// reactor; timers; deferred work items" the spec (§2) declares external to
// the core and "consumed through a small interface". The readiness
// multiplexer itself (the spec's "epoll-like" primitive) is explicitly out
// of scope (spec §1); what the core actually needs from it is the
// single-threaded execution guarantee of spec §5 ("All callbacks for
// objects bound to a context execute on that context's thread") plus
// timers and deferred work. Context provides exactly that by serializing
// every submitted callback through one worker goroutine — the sockets
// themselves ride Go's runtime-integrated (epoll-backed, on Linux) network
// poller, so readiness waiting still happens off any busy-spinning thread.
package reactor

import (
	"sync"
	"time"
)

// Timer is a cancellable deferred work item (spec §5: "disconnect_event,
// flush_tx_event, ctl_rx_event").
type Timer interface {
	// Stop cancels the timer. It reports false if the timer already fired
	// or was already stopped.
	Stop() bool
}

// Context is one cooperative single-threaded reactor (spec §2, §5). A
// session may span multiple contexts; a connection and the transport it is
// bound to live entirely on one.
type Context interface {
	// Go schedules fn to run on this context's worker goroutine. Safe to
	// call from any goroutine; submissions are executed strictly in the
	// order they were accepted.
	Go(fn func())

	// AfterFunc schedules fn to run on this context's worker goroutine
	// after d elapses. The returned Timer may be stopped before it fires.
	AfterFunc(d time.Duration, fn func()) Timer

	// Start begins processing submitted work. Safe to call once; a second
	// call is a no-op.
	Start()

	// Stop drains and stops the worker goroutine. Pending AfterFunc timers
	// are cancelled. Safe to call multiple times.
	Stop()

	// Closed reports whether Stop has completed.
	Closed() bool
}

type ctx struct {
	mu     sync.Mutex
	work   chan func()
	done   chan struct{}
	once   sync.Once
	stopWg sync.WaitGroup
	closed bool
}

// New builds a Context with the given work-queue depth (0 means
// unbuffered, i.e. every Go() call blocks until the worker goroutine is
// free — fine for low-volume control-plane contexts; transports with heavy
// payload traffic should size this to their expected in-flight count).
func New(queueDepth int) Context {
	return &ctx{
		work: make(chan func(), queueDepth),
		done: make(chan struct{}),
	}
}

func (c *ctx) Start() {
	c.once.Do(func() {
		c.stopWg.Add(1)
		go c.loop()
	})
}

func (c *ctx) loop() {
	defer c.stopWg.Done()
	for {
		select {
		case fn, ok := <-c.work:
			if !ok {
				return
			}
			fn()
		case <-c.done:
			// Drain whatever is already queued before exiting so a Stop
			// racing with in-flight Go() calls doesn't drop callbacks
			// silently mid-teardown.
			for {
				select {
				case fn := <-c.work:
					fn()
				default:
					return
				}
			}
		}
	}
}

func (c *ctx) Go(fn func()) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	select {
	case c.work <- fn:
	case <-c.done:
	}
}

func (c *ctx) AfterFunc(d time.Duration, fn func()) Timer {
	t := time.AfterFunc(d, func() { c.Go(fn) })
	return t
}

func (c *ctx) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	close(c.done)
	c.stopWg.Wait()
}

func (c *ctx) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
