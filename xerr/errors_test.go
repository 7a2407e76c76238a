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

package xerr_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/xerr"
)

var _ = Describe("Error", func() {
	It("carries its code", func() {
		e := xerr.Of(xerr.Busy)
		Expect(e.Code()).To(Equal(xerr.Busy))
		Expect(e.Error()).To(Equal("busy"))
	})

	It("formats with Newf", func() {
		e := xerr.Newf(xerr.NotFound, "session %d not found", 42)
		Expect(e.Error()).To(Equal("session 42 not found"))
	})

	It("chains parents into the message", func() {
		parent := errors.New("socket reset")
		e := xerr.New(xerr.PeerDisconnected, "connection lost", parent)
		Expect(e.HasParent()).To(BeTrue())
		Expect(e.Error()).To(ContainSubstring("socket reset"))
	})

	It("round-trips through CodeOf and Is", func() {
		e := xerr.Of(xerr.ProtocolViolation)
		Expect(xerr.CodeOf(e)).To(Equal(xerr.ProtocolViolation))
		Expect(xerr.Is(e, xerr.ProtocolViolation)).To(BeTrue())
		Expect(xerr.Is(e, xerr.Busy)).To(BeFalse())
	})

	It("reports Unknown for a plain error", func() {
		Expect(xerr.CodeOf(errors.New("plain"))).To(Equal(xerr.Unknown))
	})

	It("unwraps to the first parent", func() {
		parent := errors.New("root cause")
		e := xerr.New(xerr.ConnectFailed, "dial failed", parent)
		Expect(errors.Unwrap(e)).To(Equal(parent))
	})

	It("lets a caller register a custom message for a code", func() {
		const custom xerr.Code = 9001
		xerr.RegisterMessage(custom, "custom kind")
		Expect(custom.Message()).To(Equal("custom kind"))
	})
})
