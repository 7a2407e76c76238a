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
	"sync"

	"github.com/nabbar/xiorpc/nexus"
	"github.com/nabbar/xiorpc/session"
	"github.com/nabbar/xiorpc/task"
)

// fakeTransport is a minimal session.Transport used to drive the session
// layer in isolation, without a real socket (spec §4.2 is exercised
// separately by the transport/tcp package).
type fakeTransport struct {
	pool *task.Pool
	nx   nexus.Nexus

	mu     sync.Mutex
	sent   []*task.Task
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		pool: task.NewPool(task.Config{Start: 8, Alloc: 8, Max: 64}),
		nx:   nexus.New(),
	}
}

func (f *fakeTransport) NewTask() (*task.Task, error) { return f.pool.Get() }
func (f *fakeTransport) Nexus() nexus.Nexus           { return f.nx }

func (f *fakeTransport) Send(t *task.Task) error {
	f.mu.Lock()
	f.sent = append(f.sent, t)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) lastSent() *task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

// deliver simulates the peer's bytes having reassembled into t and hands it
// to the connection bound to this transport's nexus for sessionID.
func (f *fakeTransport) deliver(sessionID uint32, t *task.Task) {
	f.nx.Publish(nexus.Event{Kind: nexus.NewMessage, Task: t})
	_ = sessionID
}

// recordingOps captures every callback invocation for assertions.
type recordingOps struct {
	session.NoopOps

	mu sync.Mutex

	msgs       []msgRecord
	errs       []errRecord
	delivered  []deliveredRecord
	sendComps  []uint64
	owComps    []uint64
	events     []eventRecord
	acceptNew  bool
}

type msgRecord struct {
	SerialNum uint64
	Payload   string
}

type errRecord struct {
	SerialNum uint64
	Err       error
}

type deliveredRecord struct {
	SerialNum     uint64
	ReceiptResult uint32
}

type eventRecord struct {
	Event session.Event
	Err   error
}

func (o *recordingOps) OnMsg(c *session.Connection, serialNum uint64, payload []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msgRecord{SerialNum: serialNum, Payload: string(payload)})
}

func (o *recordingOps) OnMsgError(c *session.Connection, serialNum uint64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, errRecord{SerialNum: serialNum, Err: err})
}

func (o *recordingOps) OnMsgDelivered(c *session.Connection, serialNum uint64, receiptResult uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delivered = append(o.delivered, deliveredRecord{SerialNum: serialNum, ReceiptResult: receiptResult})
}

func (o *recordingOps) OnMsgSendComplete(c *session.Connection, serialNum uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sendComps = append(o.sendComps, serialNum)
}

func (o *recordingOps) OnOwMsgSendComplete(c *session.Connection, serialNum uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owComps = append(o.owComps, serialNum)
}

func (o *recordingOps) OnSessionEvent(s *session.Session, ev session.Event, c *session.Connection, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, eventRecord{Event: ev, Err: err})
}

func (o *recordingOps) OnNewSession(s *session.Session) bool {
	return o.acceptNew
}

func (o *recordingOps) snapshotMsgs() []msgRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]msgRecord, len(o.msgs))
	copy(out, o.msgs)
	return out
}

func (o *recordingOps) snapshotErrs() []errRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]errRecord, len(o.errs))
	copy(out, o.errs)
	return out
}

func (o *recordingOps) snapshotDelivered() []deliveredRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]deliveredRecord, len(o.delivered))
	copy(out, o.delivered)
	return out
}

func (o *recordingOps) snapshotEvents() []eventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]eventRecord, len(o.events))
	copy(out, o.events)
	return out
}
