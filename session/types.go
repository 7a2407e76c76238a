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

// Package session implements the session/connection layer (spec §4.1): a
// session owns its connections, a connection owns the per-peer sequence
// numbers and credit windows, and both participate in the receipt protocol
// and orderly teardown described across spec §3-§5.
package session

// Type distinguishes a client-initiated session from a passively accepted
// server one (spec §3).
type Type int

const (
	Client Type = iota
	Server
)

func (t Type) String() string {
	if t == Server {
		return "server"
	}
	return "client"
}

// State is the session lifecycle (spec §3): Init -> Connect -> Online ->
// Closing -> Closed, with Redirected/Refused/Accept/Reject side branches on
// the server path.
type State int32

const (
	StateInit State = iota
	StateConnect
	StateOnline
	StateClosing
	StateClosed
	StateRedirected
	StateRefused
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnect:
		return "connect"
	case StateOnline:
		return "online"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateRedirected:
		return "redirected"
	case StateRefused:
		return "refused"
	default:
		return "unknown"
	}
}

// ConnState is a connection's lifecycle, including the FIN state machine
// (spec §4.1 "FIN_REQ, FIN_RSP -> FIN state machine").
type ConnState int32

const (
	ConnInit ConnState = iota
	ConnOnline
	ConnFinWait1
	ConnFinWait2
	ConnClosing
	ConnClosed
	ConnDisconnected
	ConnError
)

func (s ConnState) String() string {
	switch s {
	case ConnInit:
		return "init"
	case ConnOnline:
		return "online"
	case ConnFinWait1:
		return "fin-wait-1"
	case ConnFinWait2:
		return "fin-wait-2"
	case ConnClosing:
		return "closing"
	case ConnClosed:
		return "closed"
	case ConnDisconnected:
		return "disconnected"
	case ConnError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the session-event enum surfaced to user ops (spec §6).
type Event int

const (
	EvReject Event = iota
	EvTeardown
	EvNewConnection
	EvConnectionEstablished
	EvConnectionClosed
	EvConnectionDisconnected
	EvConnectionRefused
	EvConnectionTeardown
	EvConnectionError
	EvSessionError
)

func (e Event) String() string {
	switch e {
	case EvReject:
		return "REJECT"
	case EvTeardown:
		return "TEARDOWN"
	case EvNewConnection:
		return "NEW_CONNECTION"
	case EvConnectionEstablished:
		return "CONNECTION_ESTABLISHED"
	case EvConnectionClosed:
		return "CONNECTION_CLOSED"
	case EvConnectionDisconnected:
		return "CONNECTION_DISCONNECTED"
	case EvConnectionRefused:
		return "CONNECTION_REFUSED"
	case EvConnectionTeardown:
		return "CONNECTION_TEARDOWN"
	case EvConnectionError:
		return "CONNECTION_ERROR"
	case EvSessionError:
		return "SESSION_ERROR"
	default:
		return "UNKNOWN"
	}
}
