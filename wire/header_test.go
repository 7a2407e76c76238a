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

package wire_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/wire"
)

var _ = Describe("Header", func() {
	It("round-trips pack then unpack", func() {
		h := wire.Header{
			SerialNum:     1234567890,
			DestSessionID: 42,
			Flags:         wire.RequestReadReceipt | wire.MsgFlagLastInBatch,
			ReceiptResult: 0,
			Sn:            7,
			AckSn:         6,
			Credits:       3,
		}
		b := h.Marshal()
		Expect(b).To(HaveLen(wire.HeaderSize))

		var got wire.Header
		Expect(got.Unmarshal(b)).To(Succeed())
		Expect(got).To(Equal(h))
	})

	It("rejects a short buffer", func() {
		var got wire.Header
		err := got.Unmarshal(make([]byte, wire.HeaderSize-1))
		Expect(err).To(HaveOccurred())
	})

	It("peeks dest_session_id without needing the full header", func() {
		h := wire.Header{DestSessionID: 99}
		b := h.Marshal()
		id, err := wire.PeekDestSessionID(b[:12])
		Expect(err).ToNot(HaveOccurred())
		Expect(id).To(Equal(uint32(99)))
	})

	It("exposes flag bits via Has", func() {
		f := wire.RspFlagFirst
		Expect(f.Has(wire.RspFlagFirst)).To(BeTrue())
		Expect(f.Has(wire.RspFlagLast)).To(BeFalse())
	})
})

var _ = Describe("Handshake", func() {
	It("round-trips", func() {
		h := wire.Handshake{SockType: wire.SockData, SecondPort: 5555}
		b := h.Marshal()
		Expect(b).To(HaveLen(wire.HandshakeSize))

		var got wire.Handshake
		Expect(got.Unmarshal(b)).To(Succeed())
		Expect(got).To(Equal(h))
	})

	It("rejects an unknown sock_type", func() {
		b := wire.Handshake{SockType: 99}.Marshal()
		var got wire.Handshake
		err := got.Unmarshal(b)
		Expect(err).To(HaveOccurred())
	})
})
