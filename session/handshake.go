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
	"github.com/nabbar/xiorpc/task"
	"github.com/nabbar/xiorpc/wire"
	"github.com/nabbar/xiorpc/xerr"
)

// recvHandshake dispatches the four handshake TLV types (spec §4.1
// on_new_message dispatch table: "SESSION_SETUP_REQ/RSP,
// CONNECTION_HELLO_REQ/RSP -> handshake paths").
func (c *Connection) recvHandshake(t *task.Task) {
	switch t.Type {
	case wire.SessionSetupReq:
		c.handleSessionSetupReq(t)
	case wire.SessionSetupRsp:
		c.handleSessionSetupRsp(t)
	case wire.ConnectionHelloReq:
		c.handleConnectionHelloReq(t)
	case wire.ConnectionHelloRsp:
		c.handleConnectionHelloRsp(t)
	}
	t.Put()
}

// handleSessionSetupReq is the server-side accept/reject decision point
// (spec supplement: accept/reject on the server path, dropped by the
// distilled spec).
func (c *Connection) handleSessionSetupReq(t *task.Task) {
	accept := c.ops().OnNewSession(c.session)

	tr := c.transport()
	if tr == nil {
		return
	}
	rt, err := tr.NewTask()
	if err != nil {
		c.log.WithError(err).WithField("conn", c.index).Warnf("session: could not acquire setup response task")
		return
	}
	rt.Type = wire.SessionSetupRsp
	rt.Header = wire.Header{SerialNum: t.Header.SerialNum, DestSessionID: c.session.id}

	if accept {
		c.state.Store(ConnOnline)
		c.session.setState(StateOnline)
		c.notifySession(EvConnectionEstablished, nil)
	} else {
		rt.Header.ReceiptResult = 1
		c.session.setState(StateRefused)
		c.notifySession(EvReject, nil)
	}
	c.pumpOrQueue(rt)
}

// handleSessionSetupRsp is the client-side reaction to the server's
// accept/reject decision.
func (c *Connection) handleSessionSetupRsp(t *task.Task) {
	if t.Header.ReceiptResult != 0 {
		c.session.setState(StateRefused)
		c.notifySession(EvConnectionRefused, xerr.Of(xerr.PermissionDenied))
		return
	}
	c.state.Store(ConnOnline)
	c.session.setState(StateOnline)
	c.notifySession(EvConnectionEstablished, nil)
}

func (c *Connection) handleConnectionHelloReq(t *task.Task) {
	tr := c.transport()
	if tr == nil {
		return
	}
	rt, err := tr.NewTask()
	if err != nil {
		return
	}
	rt.Type = wire.ConnectionHelloRsp
	rt.Header = wire.Header{SerialNum: t.Header.SerialNum, DestSessionID: c.session.id}
	c.pumpOrQueue(rt)
}

func (c *Connection) handleConnectionHelloRsp(t *task.Task) {
	// Acknowledged; nothing further to do in this rendition — the
	// connection is already Online by the time a CONNECTION_HELLO_RSP
	// arrives.
}
