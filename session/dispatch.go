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

package session

import (
	"github.com/nabbar/xiorpc/nexus"
	"github.com/nabbar/xiorpc/task"
	"github.com/nabbar/xiorpc/wire"
	"github.com/nabbar/xiorpc/xerr"
)

// cancelReasonNotFound is the receipt_result value a synthesized CANCEL_RSP
// carries when the target message could not be found in the io-queue (spec
// §4.1 on_cancel_request: "synthesizes a negative cancel response with
// reason MSG_NOT_FOUND").
const cancelReasonNotFound uint32 = 1

// HandleEvent is the nexus Observer a connection registers on its bound
// transport (spec §4.1 on_new_message and the Nexus events table).
func (c *Connection) HandleEvent(ev nexus.Event) {
	switch ev.Kind {
	case nexus.NewMessage:
		c.onNewMessage(ev.Task)
	case nexus.Established:
		c.onEstablished()
	case nexus.Disconnected:
		c.onDisconnected(ev.Passive)
	case nexus.Reconnected:
		c.onReconnected()
	case nexus.Closed:
		c.onClosed()
	case nexus.MessageError:
		c.onMessageError(ev.Task, ev.Err)
	case nexus.Error:
		c.onError(ev.Err)
	case nexus.AssignInBuf:
		c.onAssignInBuf(ev.Task)
	}
}

func (c *Connection) onNewMessage(t *task.Task) {
	if t == nil {
		return
	}
	t.ConnRef = c
	t.SessionRef = c.session

	switch {
	case t.Type.IsRequest():
		c.recvRequest(t)
	case t.Type.IsResponse():
		c.recvResponse(t)
	case t.Type == wire.AckReq:
		c.recvAck(t)
	case t.Type == wire.FinReq || t.Type == wire.FinRsp:
		c.recvFin(t)
	case t.Type == wire.CancelReq:
		c.recvCancelRequest(t)
	case t.Type == wire.CancelRsp:
		c.recvCancelResponse(t)
	case t.Type == wire.SessionSetupReq || t.Type == wire.SessionSetupRsp ||
		t.Type == wire.ConnectionHelloReq || t.Type == wire.ConnectionHelloRsp:
		c.recvHandshake(t)
	default:
		c.log.WithField("type", t.Type.String()).Warnf("session: unknown TLV type on connection %d", c.index)
		t.Put()
	}
}

// recvRequest implements the request receive path (spec §4.1 "Request
// receive").
func (c *Connection) recvRequest(t *task.Task) {
	hdr := t.Header

	c.snMu.Lock()
	inOrder := hdr.Sn == c.expSn
	want := c.expSn
	if inOrder {
		c.expSn++
		c.ackSn = hdr.Sn
	}
	c.snMu.Unlock()

	if !inOrder {
		c.log.WithField("conn", c.index).WithField("got", hdr.Sn).WithField("want", want).
			Warnf("session: out-of-order sn, message dropped")
		t.Put()
		return
	}

	c.restoreCredits(hdr.Credits)
	c.noteReceived()

	t.SetState(task.Delivered)
	c.mu.Lock()
	c.ioQueue[hdr.Sn] = t
	c.mu.Unlock()

	retain := hdr.Flags.Has(wire.RequestReadReceipt)
	if retain {
		t.AddRef()
	}

	c.notify(func() {
		if t.Status != nil {
			err := t.Status
			t.Status = nil
			c.ops().OnMsgError(c, hdr.SerialNum, err)
		} else {
			c.ops().OnMsg(c, hdr.SerialNum, t.Payload)
		}
	})

	c.mu.Lock()
	delete(c.ioQueue, hdr.Sn)
	c.mu.Unlock()
	t.Put()

	if retain {
		if t.State() == task.Delivered {
			c.sendReceipt(t)
		} else {
			t.Put()
		}
	}

	c.pumpTx()
}

// sendReceipt emits a standalone MSG_RSP carrying only RSP_FLAG_FIRST (spec
// glossary "Standalone receipt") and releases the reference recvRequest
// retained for it.
func (c *Connection) sendReceipt(t *task.Task) {
	defer t.Put()

	tr := c.transport()
	if tr == nil {
		return
	}
	rt, err := tr.NewTask()
	if err != nil {
		c.log.WithError(err).WithField("conn", c.index).Warnf("session: could not acquire receipt task")
		return
	}
	rt.Type = wire.MsgRsp
	rt.Header = wire.Header{
		SerialNum:     t.Header.SerialNum,
		DestSessionID: c.session.id,
		Flags:         wire.RspFlagFirst,
	}
	c.pumpOrQueue(rt)
}

// recvResponse implements the response receive path (spec §4.1 "Response
// receive").
func (c *Connection) recvResponse(t *task.Task) {
	st := c.state.Load()
	if st != ConnOnline && st != ConnFinWait1 {
		t.Put()
		return
	}

	hdr := t.Header
	c.snMu.Lock()
	if hdr.Sn == c.expSn {
		c.expSn++
		c.ackSn = hdr.Sn
	}
	c.snMu.Unlock()
	c.restoreCredits(hdr.Credits)
	c.noteReceived()

	c.mu.Lock()
	req, found := c.inFlight[hdr.SerialNum]
	c.mu.Unlock()
	if !found {
		c.log.WithField("conn", c.index).WithField("serial_num", hdr.SerialNum).
			Warnf("session: response with no matching request")
		t.Put()
		return
	}

	switch t.Type {
	case wire.OneWayRsp:
		c.recvOneWayRsp(t, req, hdr)
	case wire.MsgRsp:
		c.recvMsgRsp(t, req, hdr)
	default:
		t.Put()
	}
	c.pumpTx()
}

func (c *Connection) recvOneWayRsp(t, req *task.Task, hdr wire.Header) {
	if !hdr.Flags.Has(wire.RspFlagFirst) {
		// spec §9 design notes: documented behavior, not a bug — log and
		// continue rather than drop the response.
		c.log.WithField("conn", c.index).Warnf("session: ONE_WAY_RSP missing FIRST flag")
	}

	c.mu.Lock()
	delete(c.inFlight, hdr.SerialNum)
	c.mu.Unlock()

	if req.FlagsAtSend.Has(wire.RequestReadReceipt) {
		c.notify(func() { c.ops().OnMsgDelivered(c, hdr.SerialNum, hdr.ReceiptResult) })
	} else {
		c.notify(func() { c.ops().OnOwMsgSendComplete(c, hdr.SerialNum) })
	}
	req.Put()
	t.Put()
}

func (c *Connection) recvMsgRsp(t, req *task.Task, hdr wire.Header) {
	if hdr.Flags.Has(wire.RspFlagFirst) {
		c.notify(func() { c.ops().OnMsgDelivered(c, hdr.SerialNum, hdr.ReceiptResult) })
		if !hdr.Flags.Has(wire.RspFlagLast) {
			// Standalone receipt only: the request stays in flight for the
			// real response still to come.
			t.Put()
			return
		}
	}

	c.mu.Lock()
	delete(c.inFlight, hdr.SerialNum)
	c.mu.Unlock()

	if t.Status != nil {
		err := t.Status
		t.Status = nil
		c.notify(func() { c.ops().OnMsgError(c, hdr.SerialNum, err) })
	} else {
		c.notify(func() { c.ops().OnMsg(c, hdr.SerialNum, t.Payload) })
	}
	req.Put()
	t.Put()
}

// OnRspSendComplete is the transport's send-completion callback for a
// response this side produced (spec §4.1 "rsp_send_comp").
func (c *Connection) OnRspSendComplete(t *task.Task) {
	if t.IsFlushed {
		t.Put()
		return
	}
	if t.Type == wire.MsgRsp && !t.Header.Flags.Has(wire.RspFlagLast) {
		// Standalone receipt: release the send-side reference sendReceipt
		// retained; nothing else to notify.
		t.Put()
		return
	}
	c.notify(func() { c.ops().OnMsgSendComplete(c, t.Header.SerialNum) })
	t.Put()
}

// OnOwReqSendComplete is the transport's send-completion callback for a
// one-way request this side sent (spec §4.1 "ow_req_send_comp").
func (c *Connection) OnOwReqSendComplete(t *task.Task) {
	if t.IsFlushed {
		t.Put()
		return
	}
	if t.FlagsAtSend.Has(wire.RequestReadReceipt) {
		// The receipt path will notify instead.
		t.Put()
		return
	}
	c.mu.Lock()
	delete(c.inFlight, t.Header.SerialNum)
	c.mu.Unlock()
	c.notify(func() { c.ops().OnOwMsgSendComplete(c, t.Header.SerialNum) })
	t.Put()
}

func (c *Connection) recvAck(t *task.Task) {
	hdr := t.Header
	c.snMu.Lock()
	if hdr.Sn == c.expSn {
		c.expSn++
		c.ackSn = hdr.Sn
	}
	c.snMu.Unlock()
	c.restoreCredits(hdr.Credits)
	c.acksReceived.Add(1)
	c.statsMu.Lock()
	c.stats.Acked++
	c.statsMu.Unlock()
	t.Put()
	c.pumpTx()
}

func (c *Connection) recvFin(t *task.Task) {
	switch t.Type {
	case wire.FinReq:
		c.state.Store(ConnFinWait2)
		if tr := c.transport(); tr != nil {
			if rt, err := tr.NewTask(); err == nil {
				rt.Type = wire.FinRsp
				rt.Header = wire.Header{DestSessionID: c.session.id}
				c.pumpOrQueue(rt)
			}
		}
		c.beginClose()
	case wire.FinRsp:
		c.beginClose()
	}
	t.Put()
}

// recvCancelRequest implements the responder side of in-band cancellation
// (spec §4.1 "on_cancel_request").
func (c *Connection) recvCancelRequest(t *task.Task) {
	targetSn := t.Header.Sn
	c.mu.Lock()
	target, found := c.ioQueue[targetSn]
	c.mu.Unlock()

	if found {
		if c.ops().OnCancelRequest(c, target.Header.SerialNum) {
			t.Put()
			return
		}
	}

	if tr := c.transport(); tr != nil {
		if rt, err := tr.NewTask(); err == nil {
			rt.Type = wire.CancelRsp
			rt.Header = wire.Header{
				SerialNum:     t.Header.SerialNum,
				DestSessionID: c.session.id,
				ReceiptResult: cancelReasonNotFound,
			}
			c.pumpOrQueue(rt)
		}
	}
	t.Put()
}

// recvCancelResponse implements the requester side: the cancelled request
// surfaces as an error rather than its ordinary response.
func (c *Connection) recvCancelResponse(t *task.Task) {
	c.mu.Lock()
	req, found := c.inFlight[t.Header.SerialNum]
	if found {
		delete(c.inFlight, t.Header.SerialNum)
	}
	c.mu.Unlock()

	if found {
		sn := t.Header.SerialNum
		c.notify(func() { c.ops().OnMsgError(c, sn, xerr.Of(xerr.NotFound)) })
		req.Put()
	}
	t.Put()
}

func (c *Connection) onEstablished() {
	c.state.Store(ConnOnline)
	c.notifySession(EvConnectionEstablished, nil)
}

func (c *Connection) onDisconnected(passive bool) {
	prev := c.state.Load()
	if prev == ConnClosed || prev == ConnDisconnected {
		return
	}
	c.state.Store(ConnDisconnected)
	c.failInFlight(xerr.Of(xerr.PeerDisconnected))
	_ = passive
	c.notifySession(EvConnectionDisconnected, nil)
}

func (c *Connection) onReconnected() {
	c.state.Store(ConnOnline)
	c.notifySession(EvConnectionEstablished, nil)
	c.pumpTx()
}

func (c *Connection) onClosed() {
	c.trMu.Lock()
	nx := c.nx
	c.nx = nil
	c.trMu.Unlock()
	if nx != nil {
		nx.UnregisterSession(c.session.id)
	}
	c.state.Store(ConnClosed)
	c.notifySession(EvConnectionClosed, nil)
}

func (c *Connection) onMessageError(t *task.Task, err error) {
	if t == nil {
		return
	}
	c.mu.Lock()
	_, wasInFlight := c.inFlight[t.Header.SerialNum]
	if wasInFlight {
		delete(c.inFlight, t.Header.SerialNum)
	}
	c.mu.Unlock()

	sn := t.Header.SerialNum
	c.notify(func() { c.ops().OnMsgError(c, sn, err) })
	t.Put()
}

func (c *Connection) onError(err error) {
	st := c.session.State()
	if st == StateConnect || st == StateRedirected {
		c.session.setState(StateRefused)
		c.session.fanEvent(EvSessionError, err)
		return
	}
	c.notifySession(EvConnectionError, err)
}

func (c *Connection) onAssignInBuf(t *task.Task) {
	if t == nil {
		return
	}
	if buf, ok := c.ops().AssignInBuf(c, t.Header.SerialNum); ok {
		t.Payload = buf
		t.IsAssigned = true
	}
}
