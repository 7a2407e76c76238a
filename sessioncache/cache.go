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

// Package sessioncache is the process-wide session-id to session map (spec
// §4.3). Sessions register here at creation and leave at teardown; the
// receive path in this module demultiplexes through the per-nexus observer
// registry and does not look sessions up here. It is one of the two objects
// in the whole core mutated from more than one context (spec §5), alongside
// a session's own connections list, so its critical sections are guarded by
// a sync.RWMutex and never call back into user code.
package sessioncache

import (
	"math/rand"
	"sync"
)

// Cache is the process-wide id -> session lookup table.
type Cache[T any] struct {
	mu   sync.RWMutex
	byID map[uint32]T
	next uint32
}

// New builds an empty Cache. The starting id is randomized so two processes
// racing to both assign "1" to unrelated sessions don't collide if they
// ever share a log stream.
func New[T any]() *Cache[T] {
	return &Cache[T]{
		byID: make(map[uint32]T),
		next: rand.Uint32()>>1 + 1, // keep it non-zero and out of the sign bit
	}
}

// Add assigns a fresh process-unique id to sess and stores it, returning the
// id.
func (c *Cache[T]) Add(sess T) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		c.next++
		if c.next == 0 {
			c.next = 1
		}
		if _, used := c.byID[c.next]; !used {
			break
		}
	}
	id := c.next
	c.byID[id] = sess
	return id
}

// Remove drops id from the cache.
func (c *Cache[T]) Remove(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
}

// Lookup returns the session registered under id, if any.
func (c *Cache[T]) Lookup(id uint32) (sess T, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sess, ok = c.byID[id]
	return
}

// Len reports the number of live entries, mostly for tests/metrics.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
