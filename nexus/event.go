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

// Package nexus implements the publish/subscribe bus between a stream
// transport and the zero or more sessions observing it (spec §2 "Nexus
// observer bus", §4.1 "Nexus events").
package nexus

import "github.com/nabbar/xiorpc/task"

// Kind enumerates the events a nexus publishes to its observers.
type Kind int

const (
	// NewMessage carries a freshly reassembled inbound task (spec §2 data
	// flow: "emits NewMessage(task) to its observer").
	NewMessage Kind = iota
	// NewConnection carries a freshly accepted/paired child transport
	// handle (spec §4.2 "publish NewConnection(child) to the parent's
	// observable").
	NewConnection
	// Established fires once a client-side connect sequence completes
	// (spec §4.2 "publishes Established to observers").
	Established
	// Disconnected fires when the transport detects the peer is gone.
	Disconnected
	// Reconnected fires when a previously disconnected transport comes
	// back.
	Reconnected
	// Closed fires once a transport has finished its teardown cascade.
	Closed
	// MessageError fires when a queued message could not be sent/received.
	MessageError
	// Error fires on a fatal transport-level fault (spec §7).
	Error
	// AssignInBuf asks observers whether they want to supply the inbound
	// buffer for a task (spec §4.1 "AssignInBuf").
	AssignInBuf
)

func (k Kind) String() string {
	switch k {
	case NewMessage:
		return "new-message"
	case NewConnection:
		return "new-connection"
	case Established:
		return "established"
	case Disconnected:
		return "disconnected"
	case Reconnected:
		return "reconnected"
	case Closed:
		return "closed"
	case MessageError:
		return "message-error"
	case Error:
		return "error"
	case AssignInBuf:
		return "assign-in-buf"
	default:
		return "unknown"
	}
}

// Event is one notification published by a transport to its observers. Not
// every field is populated for every Kind; see the Kind docs above.
type Event struct {
	Kind Kind
	Task *task.Task
	// Transport is an opaque handle to the publishing transport (or, for
	// NewConnection, the freshly created child transport); consumers type
	// assert it to their concrete transport type.
	Transport interface{}
	Err       error
	// Passive reports, for Disconnected, whether the peer closed first
	// (spec §4.2 on_sock_disconnected(passive)).
	Passive bool
}
