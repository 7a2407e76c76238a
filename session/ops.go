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

// Ops is the user callback vtable a Session dispatches into (spec §3 "ops
// vtable", §4.1 receive/send-completion paths). Every method must return
// promptly; none may block the owning context.
type Ops interface {
	// OnMsg delivers an inbound request or the final payload of a response.
	OnMsg(c *Connection, serialNum uint64, payload []byte)

	// OnMsgError surfaces a non-nil task status instead of a payload, or a
	// delivery failure discovered after the fact (disconnect, message
	// error, cancellation).
	OnMsgError(c *Connection, serialNum uint64, err error)

	// OnMsgDelivered fires once for a REQUEST_READ_RECEIPT request, either
	// from the standalone receipt or from the FIRST flag on the real
	// response (spec §8 invariant 6).
	OnMsgDelivered(c *Connection, serialNum uint64, receiptResult uint32)

	// OnMsgSendComplete fires when a response this side sent has finished
	// transmitting.
	OnMsgSendComplete(c *Connection, serialNum uint64)

	// OnOwMsgSendComplete fires when a one-way request that did not request
	// a receipt has finished transmitting.
	OnOwMsgSendComplete(c *Connection, serialNum uint64)

	// OnSessionEvent surfaces the session-event enum (spec §6).
	OnSessionEvent(s *Session, ev Event, c *Connection, err error)

	// OnNewSession is consulted on the server path when a SESSION_SETUP_REQ
	// arrives; returning false rejects the session (spec supplement:
	// accelio's accept/reject path, dropped by the distilled spec).
	OnNewSession(s *Session) bool

	// OnCancelRequest is consulted for an in-band CANCEL_REQ; returning true
	// means the implementation handled the cancellation itself and no
	// synthesized CANCEL_RSP should be sent.
	OnCancelRequest(c *Connection, serialNum uint64) bool

	// AssignInBuf lets the user layer supply the inbound buffer for a task
	// instead of letting the transport allocate one (spec §4.1
	// "AssignInBuf").
	AssignInBuf(c *Connection, serialNum uint64) ([]byte, bool)
}

// NoopOps is a zero-value Ops implementation embeddable by callers who only
// care about a handful of callbacks.
type NoopOps struct{}

func (NoopOps) OnMsg(*Connection, uint64, []byte)                 {}
func (NoopOps) OnMsgError(*Connection, uint64, error)              {}
func (NoopOps) OnMsgDelivered(*Connection, uint64, uint32)          {}
func (NoopOps) OnMsgSendComplete(*Connection, uint64)               {}
func (NoopOps) OnOwMsgSendComplete(*Connection, uint64)             {}
func (NoopOps) OnSessionEvent(*Session, Event, *Connection, error) {}
func (NoopOps) OnNewSession(*Session) bool                         { return true }
func (NoopOps) OnCancelRequest(*Connection, uint64) bool           { return false }
func (NoopOps) AssignInBuf(*Connection, uint64) ([]byte, bool)      { return nil, false }

// Message is an outbound application message (spec's external "xio_msg"
// contract, §1 out-of-scope list) reduced to the fields this layer actually
// needs off of it.
type Message struct {
	SerialNum      uint64
	Payload        []byte
	OneWay         bool
	RequestReceipt bool
	LastInBatch    bool
}
