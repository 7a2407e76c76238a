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

package task

import (
	"sync"

	"github.com/nabbar/xiorpc/xerr"
)

// Config is a pool's start/alloc/max policy (spec §4.2: "Pools obey a
// start/alloc/max policy"). Start tasks are pre-created eagerly; Alloc is
// the growth increment once the free list runs dry; Max bounds total slab
// size.
type Config struct {
	Start int
	Alloc int
	Max   int
}

func (c Config) normalized() Config {
	if c.Start <= 0 {
		c.Start = 16
	}
	if c.Alloc <= 0 {
		c.Alloc = c.Start
	}
	if c.Max <= 0 || c.Max < c.Start {
		c.Max = c.Start
	}
	return c
}

// Pool is a fixed+growable slab allocator of Task objects (spec §3, §4.2).
// A transport owns two of these: a small fixed "initial" pool and a growable
// "primary" pool; transport/tcp draws every task from the primary pool.
type Pool struct {
	cfg  Config
	mu   sync.Mutex
	free []*Task
	nr   int
}

// NewPool builds a pool and eagerly allocates cfg.Start tasks.
func NewPool(cfg Config) *Pool {
	cfg = cfg.normalized()
	p := &Pool{cfg: cfg}
	p.growLocked(cfg.Start)
	return p
}

func (p *Pool) growLocked(n int) {
	if p.nr+n > p.cfg.Max {
		n = p.cfg.Max - p.nr
	}
	for i := 0; i < n; i++ {
		t := &Task{pool: p, genSlot: p.nr}
		t.state.Store(int32(Recycled))
		p.free = append(p.free, t)
		p.nr++
	}
}

// Get acquires a task from the free list, growing the slab by cfg.Alloc
// (capped at cfg.Max) if the free list is empty. Returns xerr.NoMemory if
// the pool is at max capacity and nothing is free.
func (p *Pool) Get() (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		p.growLocked(p.cfg.Alloc)
	}
	if len(p.free) == 0 {
		return nil, xerr.Of(xerr.NoMemory)
	}
	n := len(p.free) - 1
	t := p.free[n]
	p.free[n] = nil
	p.free = p.free[:n]

	t.refs.Store(1)
	t.state.Store(int32(Init))
	return t, nil
}

// release returns t to the free list; called only once t's refcount has
// reached zero (see Task.Put).
func (p *Pool) release(t *Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, t)
}

// Stats reports the pool's current allocation.
type Stats struct {
	Allocated int
	Free      int
	InUse     int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Allocated: p.nr, Free: len(p.free), InUse: p.nr - len(p.free)}
}
