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

// Package wire defines the on-wire layout of the protocol (spec §6): the
// session header, the dual-socket handshake message, the TLV type space,
// and the header flag bits.
package wire

// Type is the TLV message type carried ahead of every session header.
type Type uint16

const (
	TypeUnknown Type = iota
	MsgReq
	MsgRsp
	OneWayReq
	OneWayRsp
	AckReq
	FinReq
	FinRsp
	SessionSetupReq
	SessionSetupRsp
	ConnectionHelloReq
	ConnectionHelloRsp
	CancelReq
	CancelRsp
)

func (t Type) String() string {
	switch t {
	case MsgReq:
		return "MSG_REQ"
	case MsgRsp:
		return "MSG_RSP"
	case OneWayReq:
		return "ONE_WAY_REQ"
	case OneWayRsp:
		return "ONE_WAY_RSP"
	case AckReq:
		return "ACK_REQ"
	case FinReq:
		return "FIN_REQ"
	case FinRsp:
		return "FIN_RSP"
	case SessionSetupReq:
		return "SESSION_SETUP_REQ"
	case SessionSetupRsp:
		return "SESSION_SETUP_RSP"
	case ConnectionHelloReq:
		return "CONNECTION_HELLO_REQ"
	case ConnectionHelloRsp:
		return "CONNECTION_HELLO_RSP"
	case CancelReq:
		return "CANCEL_REQ"
	case CancelRsp:
		return "CANCEL_RSP"
	default:
		return "UNKNOWN"
	}
}

// IsRequest reports whether t is one of the request-shaped TLV types that
// flow through the req path (spec §4.1 on_new_message dispatch table).
func (t Type) IsRequest() bool {
	return t == MsgReq || t == OneWayReq
}

// IsResponse reports whether t flows through the rsp path.
func (t Type) IsResponse() bool {
	return t == MsgRsp || t == OneWayRsp
}
