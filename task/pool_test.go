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

package task_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/task"
	"github.com/nabbar/xiorpc/xerr"
)

var _ = Describe("Pool", func() {
	It("serves Start tasks without growing", func() {
		p := task.NewPool(task.Config{Start: 2, Alloc: 2, Max: 4})
		Expect(p.Stats().Allocated).To(Equal(2))

		t1, err := p.Get()
		Expect(err).ToNot(HaveOccurred())
		Expect(t1.State()).To(Equal(task.Init))
		Expect(p.Stats().InUse).To(Equal(1))
	})

	It("grows by Alloc when the free list is empty", func() {
		p := task.NewPool(task.Config{Start: 1, Alloc: 2, Max: 8})
		_, _ = p.Get()
		Expect(p.Stats().Free).To(Equal(0))

		_, err := p.Get()
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Stats().Allocated).To(Equal(3))
	})

	It("returns NoMemory once Max is exhausted", func() {
		p := task.NewPool(task.Config{Start: 1, Alloc: 1, Max: 1})
		_, err := p.Get()
		Expect(err).ToNot(HaveOccurred())

		_, err = p.Get()
		Expect(err).To(HaveOccurred())
		Expect(xerr.Is(err, xerr.NoMemory)).To(BeTrue())
	})

	It("recycles a task back to the free list once refs reach zero", func() {
		p := task.NewPool(task.Config{Start: 1, Alloc: 1, Max: 1})
		t1, _ := p.Get()
		t1.AddRef()
		Expect(t1.Refs()).To(Equal(int32(2)))

		t1.Put()
		Expect(p.Stats().Free).To(Equal(0), "still referenced once")

		t1.Put()
		Expect(p.Stats().Free).To(Equal(1))
		Expect(t1.State()).To(Equal(task.Recycled))
	})

	It("resets framing state on release (task_pre_put)", func() {
		p := task.NewPool(task.Config{Start: 1})
		t1, _ := p.Get()
		t1.Payload = []byte("leftover")
		t1.IsAssigned = true
		t1.Put()

		t2, _ := p.Get()
		Expect(t2.Payload).To(BeNil())
		Expect(t2.IsAssigned).To(BeFalse())
	})
})
