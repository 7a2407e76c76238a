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

package tcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/config"
	"github.com/nabbar/xiorpc/transport/tcp"
)

var _ = Describe("FromOptions", func() {
	It("carries the frozen process-wide knobs onto a transport Config", func() {
		o := config.DefaultOptions()
		o.TCPDualStream = true
		o.TCPNoDelay = false
		o.TCPSoSndBuf = 65536
		o.TCPSoRcvBuf = 32768
		o.EnableDMALatency = true

		cfg := tcp.FromOptions(o)
		Expect(cfg.DualSocket).To(BeTrue())
		Expect(cfg.NoDelay).To(BeFalse())
		Expect(cfg.SndBuf).To(Equal(65536))
		Expect(cfg.RcvBuf).To(Equal(32768))
		Expect(cfg.EnableDMALatency).To(BeTrue())
		Expect(cfg.ListenBacklog).To(Equal(tcp.DefaultConfig().ListenBacklog), "pool/backlog sizing still comes from DefaultConfig")
	})
})
