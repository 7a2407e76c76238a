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

package reactor_test

import (
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/reactor"
)

var _ = Describe("Context", func() {
	It("runs submitted work in submission order", func() {
		c := reactor.New(8)
		c.Start()
		defer c.Stop()

		var mu sync.Mutex
		var order []int
		var wg sync.WaitGroup
		wg.Add(5)
		for i := 0; i < 5; i++ {
			i := i
			c.Go(func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				wg.Done()
			})
		}
		wg.Wait()

		Expect(order).To(Equal([]int{0, 1, 2, 3, 4}))
	})

	It("fires AfterFunc on the worker goroutine", func() {
		c := reactor.New(1)
		c.Start()
		defer c.Stop()

		done := make(chan struct{})
		c.AfterFunc(10*time.Millisecond, func() { close(done) })

		Eventually(done).Should(BeClosed())
	})

	It("lets a pending timer be cancelled", func() {
		c := reactor.New(1)
		c.Start()
		defer c.Stop()

		var fired atomic.Bool
		timer := c.AfterFunc(50*time.Millisecond, func() { fired.Store(true) })
		Expect(timer.Stop()).To(BeTrue())

		time.Sleep(80 * time.Millisecond)
		Expect(fired.Load()).To(BeFalse())
	})

	It("reports Closed after Stop and drops further Go calls silently", func() {
		c := reactor.New(1)
		c.Start()
		c.Stop()
		Expect(c.Closed()).To(BeTrue())

		Expect(func() { c.Go(func() {}) }).ToNot(Panic())
	})
})
