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

package session_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/nexus"
	"github.com/nabbar/xiorpc/reactor"
	"github.com/nabbar/xiorpc/session"
	"github.com/nabbar/xiorpc/wire"
)

func newOnlineConnection(ops *recordingOps, credits int64) (*session.Connection, *fakeTransport) {
	s := session.New(session.Config{URI: "tcp://127.0.0.1:1234", Type: session.Client, Ops: ops})
	c := s.AllocConnection(reactor.New(0), nil)
	tr := newFakeTransport()
	c.BindTransport(tr)
	c.GrantInitialCredits(credits)
	return c, tr
}

var _ = Describe("one-way handshake (single-socket)", func() {
	It("delivers the payload and completes the send without a delivery receipt", func() {
		serverOps := &recordingOps{}
		server, _ := newOnlineConnection(serverOps, 1000)

		clientOps := &recordingOps{}
		client, clientTr := newOnlineConnection(clientOps, 1000)

		_, err := client.Send(session.Message{SerialNum: 1, Payload: []byte("ping"), OneWay: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(clientTr.sentCount()).To(Equal(1))

		sent := clientTr.lastSent()
		sent.ConnRef = nil
		// Both sides share this one task here; the extra reference keeps
		// the server's Put from recycling it before the client's send
		// completion reads its header.
		sent.AddRef()
		server.HandleEvent(nexus.Event{Kind: nexus.NewMessage, Task: sent})

		Expect(serverOps.snapshotMsgs()).To(HaveLen(1))
		Expect(serverOps.snapshotMsgs()[0].Payload).To(Equal("ping"))
		Expect(serverOps.snapshotMsgs()[0].SerialNum).To(BeEquivalentTo(1))

		client.OnOwReqSendComplete(sent)
		Expect(clientOps.owComps).To(ConsistOf(uint64(1)))
		Expect(clientOps.delivered).To(BeEmpty())
	})
})

var _ = Describe("request/response with receipt", func() {
	It("delivers a standalone receipt before the real response", func() {
		serverOps := &recordingOps{}
		server, serverTr := newOnlineConnection(serverOps, 1000)

		clientOps := &recordingOps{}
		client, clientTr := newOnlineConnection(clientOps, 1000)

		_, err := client.Send(session.Message{SerialNum: 7, Payload: []byte("do-it"), RequestReceipt: true})
		Expect(err).NotTo(HaveOccurred())

		req := clientTr.lastSent()
		server.HandleEvent(nexus.Event{Kind: nexus.NewMessage, Task: req})

		Expect(serverOps.snapshotMsgs()).To(HaveLen(1))

		receipt := serverTr.lastSent()
		Expect(receipt.Type).To(Equal(wire.MsgRsp))
		Expect(receipt.Header.Flags.Has(wire.RspFlagFirst)).To(BeTrue())
		Expect(receipt.Header.Flags.Has(wire.RspFlagLast)).To(BeFalse())

		client.HandleEvent(nexus.Event{Kind: nexus.NewMessage, Task: receipt})
		Expect(client.InFlightCount()).To(Equal(1), "the original request stays in flight until the real response arrives")

		delivered := clientOps.snapshotDelivered()
		Expect(delivered).To(HaveLen(1))
		Expect(delivered[0].SerialNum).To(BeEquivalentTo(7))

		real, getErr := serverTr.pool.Get()
		Expect(getErr).NotTo(HaveOccurred())
		real.Type = wire.MsgRsp
		real.Header = wire.Header{SerialNum: 7, Flags: wire.RspFlagFirst | wire.RspFlagLast}
		real.Payload = []byte("pong")

		client.HandleEvent(nexus.Event{Kind: nexus.NewMessage, Task: real})
		Expect(client.InFlightCount()).To(Equal(0))

		msgs := clientOps.snapshotMsgs()
		Expect(msgs).To(HaveLen(1))
		Expect(msgs[0].Payload).To(Equal("pong"))
	})
})

var _ = Describe("peer disconnect mid-flight", func() {
	It("surfaces on_msg_error for every outstanding request", func() {
		clientOps := &recordingOps{}
		client, clientTr := newOnlineConnection(clientOps, 0)
		client.GrantInitialCredits(10)

		for i := uint64(1); i <= 3; i++ {
			_, err := client.Send(session.Message{SerialNum: i, Payload: []byte("req")})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(clientTr.sentCount()).To(Equal(3))
		Expect(client.InFlightCount()).To(Equal(3))

		client.HandleEvent(nexus.Event{Kind: nexus.Disconnected, Passive: true})

		Expect(client.InFlightCount()).To(Equal(0))
		Expect(clientOps.snapshotErrs()).To(HaveLen(3))

		_, err := client.Send(session.Message{SerialNum: 4, Payload: []byte("too-late")})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("credit exhaustion", func() {
	It("queues sends once peer credits run out and resumes on ack", func() {
		clientOps := &recordingOps{}
		client, clientTr := newOnlineConnection(clientOps, 0)
		client.GrantInitialCredits(2)

		for i := uint64(1); i <= 3; i++ {
			_, err := client.Send(session.Message{SerialNum: i, Payload: []byte("x"), OneWay: true})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(clientTr.sentCount()).To(Equal(2))
		Expect(client.PendingSendCount()).To(Equal(1))

		ack, err := clientTr.pool.Get()
		Expect(err).NotTo(HaveOccurred())
		ack.Type = wire.AckReq
		ack.Header = wire.Header{Credits: 1}
		client.HandleEvent(nexus.Event{Kind: nexus.NewMessage, Task: ack})

		Expect(clientTr.sentCount()).To(Equal(3))
		Expect(client.PendingSendCount()).To(Equal(0))
	})
})

var _ = Describe("out-of-order sequence numbers", func() {
	It("drops a stale sn and keeps the connection online", func() {
		serverOps := &recordingOps{}
		server, serverTr := newOnlineConnection(serverOps, 1000)

		for sn := uint16(0); sn < 6; sn++ {
			t, err := serverTr.pool.Get()
			Expect(err).NotTo(HaveOccurred())
			t.Type = wire.OneWayReq
			t.Header = wire.Header{SerialNum: uint64(sn), Sn: sn}
			t.Payload = []byte("ok")
			server.HandleEvent(nexus.Event{Kind: nexus.NewMessage, Task: t})
		}
		Expect(serverOps.snapshotMsgs()).To(HaveLen(6))

		stale, err := serverTr.pool.Get()
		Expect(err).NotTo(HaveOccurred())
		stale.Type = wire.OneWayReq
		stale.Header = wire.Header{SerialNum: 99, Sn: 3}
		stale.Payload = []byte("stale")
		server.HandleEvent(nexus.Event{Kind: nexus.NewMessage, Task: stale})

		Expect(serverOps.snapshotMsgs()).To(HaveLen(6))
		Expect(server.State()).To(Equal(session.ConnOnline))
	})
})

var _ = Describe("destroy with an open connection", func() {
	It("fails with Busy until the connection is freed", func() {
		ops := &recordingOps{}
		s := session.New(session.Config{URI: "tcp://127.0.0.1:1234", Type: session.Client, Ops: ops})
		c := s.AllocConnection(reactor.New(0), nil)
		tr := newFakeTransport()
		c.BindTransport(tr)

		Expect(s.Destroy()).To(HaveOccurred())

		Expect(s.FreeConnection(c)).To(Succeed())
		Expect(s.Destroy()).To(Succeed())
	})
})
