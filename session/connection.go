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
	"sync"
	"sync/atomic"

	"github.com/nabbar/xiorpc/internal/atomicstate"
	"github.com/nabbar/xiorpc/logger"
	"github.com/nabbar/xiorpc/nexus"
	"github.com/nabbar/xiorpc/reactor"
	"github.com/nabbar/xiorpc/task"
	"github.com/nabbar/xiorpc/wire"
	"github.com/nabbar/xiorpc/xerr"
)

// Transport is the contract a connection needs from whatever stream
// transport it is bound to (spec §4.2): a task source, a way to hand a
// framed task off for transmission, the nexus publishing its events, and a
// way to tear it down. transport/tcp.Transport satisfies this structurally;
// session never imports it, avoiding the import cycle that would otherwise
// exist between the two halves of the core (spec §1 "two tightly coupled
// subsystems").
type Transport interface {
	NewTask() (*task.Task, error)
	Send(t *task.Task) error
	Nexus() nexus.Nexus
	Close() error
}

// ConnectionStats are the counters read through Connection.Stats (spec
// supplement: additive connection stats, dropped by the distilled spec).
// The metrics package does not export them.
type ConnectionStats struct {
	Sent     uint64
	Received uint64
	Acked    uint64
	Errors   uint64
}

// Connection is a logical flow bound to one context and at most one stream
// transport (spec §3).
type Connection struct {
	session     *Session
	index       int
	userContext interface{}
	ctx         reactor.Context

	trMu sync.Mutex
	nx   nexus.Nexus
	tr   Transport

	state *atomicstate.Value[ConnState]

	peerCredits     atomic.Int64
	localCredits    atomic.Int64
	acksReceived    atomic.Int64
	creditThreshold int64

	snMu  sync.Mutex
	txSn  uint16
	expSn uint16
	ackSn uint16

	mu       sync.Mutex
	inFlight map[uint64]*task.Task // keyed by SerialNum: requests awaiting a response
	ioQueue  map[uint16]*task.Task // keyed by Sn: delivered requests, for cancellation lookup
	txReady  []*task.Task          // queued sends blocked on peerCredits == 0

	notifying atomic.Bool // in_notify guard (spec §8 invariant 5)

	statsMu sync.Mutex
	stats   ConnectionStats

	log logger.Logger
}

func newConnection(s *Session, index int, ctx reactor.Context, userContext interface{}) *Connection {
	return &Connection{
		session:         s,
		index:           index,
		userContext:     userContext,
		ctx:             ctx,
		state:           atomicstate.NewValue(ConnInit),
		creditThreshold: 1,
		inFlight:        make(map[uint64]*task.Task),
		ioQueue:         make(map[uint16]*task.Task),
		log:             logger.Component("session"),
	}
}

func (c *Connection) Index() int            { return c.index }
func (c *Connection) Session() *Session     { return c.session }
func (c *Connection) State() ConnState      { return c.state.Load() }
func (c *Connection) UserContext() interface{} { return c.userContext }
func (c *Connection) PeerCredits() int64    { return c.peerCredits.Load() }
func (c *Connection) LocalCredits() int64   { return c.localCredits.Load() }
func (c *Connection) AcksReceived() int64   { return c.acksReceived.Load() }

// SetCreditThreshold sets how many received messages accumulate before an
// ACK_REQ is sent (spec §4.2 "periodically sends ACK_REQ when accumulated
// credits cross a threshold").
func (c *Connection) SetCreditThreshold(n int64) {
	if n <= 0 {
		n = 1
	}
	c.creditThreshold = n
}

func (c *Connection) Stats() ConnectionStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *Connection) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// PendingSendCount reports how many outbound tasks are parked waiting for
// peer credits (spec §4.2 flow control).
func (c *Connection) PendingSendCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.txReady)
}

// GrantInitialCredits seeds the peer-credit window, typically from the
// value negotiated during the session/connection handshake (spec §6
// "credits: credits granted with this message").
func (c *Connection) GrantInitialCredits(n int64) {
	if n <= 0 {
		return
	}
	c.peerCredits.Add(n)
	c.pumpTx()
}

func (c *Connection) IOQueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ioQueue)
}

func (c *Connection) boundNexus() nexus.Nexus {
	c.trMu.Lock()
	defer c.trMu.Unlock()
	return c.nx
}

// BindTransport attaches tr to the connection, releasing any prior nexus
// registration first (spec §3 connection invariant: "at most one stream
// transport bound at any time; on rebind, the old observer registration is
// dropped first").
func (c *Connection) BindTransport(tr Transport) {
	c.trMu.Lock()
	old := c.tr
	c.tr = tr
	c.trMu.Unlock()

	if old != nil {
		if onx := old.Nexus(); onx != nil {
			onx.UnregisterSession(c.session.id)
		}
	}
	c.bindNexus(tr.Nexus())
	c.state.Store(ConnOnline)
}

func (c *Connection) bindNexus(nx nexus.Nexus) {
	c.trMu.Lock()
	c.nx = nx
	c.trMu.Unlock()
	if nx != nil {
		nx.RegisterSession(c.session.id, c.HandleEvent)
	}
}

func (c *Connection) transport() Transport {
	c.trMu.Lock()
	defer c.trMu.Unlock()
	return c.tr
}

func (c *Connection) ops() Ops { return c.session.Ops() }

// notify runs fn while holding the re-entrancy guard so a connection's
// callbacks never interleave with one another (spec §8 invariant 5).
func (c *Connection) notify(fn func()) {
	if !c.notifying.CompareAndSwap(false, true) {
		c.log.WithField("conn", c.index).Warnf("session: re-entrant callback suppressed")
		return
	}
	defer c.notifying.Store(false)
	fn()
}

func (c *Connection) notifySession(ev Event, err error) {
	c.notify(func() { c.ops().OnSessionEvent(c.session, ev, c, err) })
}

// Send frames msg and either transmits it immediately (peer credits
// permitting) or parks it on txReady (spec §4.2 flow control).
func (c *Connection) Send(msg Message) (uint64, error) {
	if c.state.Load() != ConnOnline {
		return 0, xerr.Of(xerr.PeerDisconnected)
	}
	tr := c.transport()
	if tr == nil {
		return 0, xerr.Of(xerr.NotFound)
	}

	t, err := tr.NewTask()
	if err != nil {
		return 0, err
	}

	c.snMu.Lock()
	sn := c.txSn
	c.txSn++
	ackSn := c.ackSn
	c.snMu.Unlock()

	typ := wire.MsgReq
	if msg.OneWay {
		typ = wire.OneWayReq
	}
	var flags wire.Flag
	if msg.RequestReceipt {
		flags |= wire.RequestReadReceipt
	}
	if msg.LastInBatch {
		flags |= wire.MsgFlagLastInBatch
	}

	t.Type = typ
	t.Header = wire.Header{
		SerialNum:     msg.SerialNum,
		DestSessionID: c.session.id,
		Flags:         flags,
		Sn:            sn,
		AckSn:         ackSn,
	}
	t.Payload = msg.Payload
	t.FlagsAtSend = flags
	t.ConnRef = c
	t.SessionRef = c.session

	if !msg.OneWay || msg.RequestReceipt {
		t.AddRef()
		c.mu.Lock()
		c.inFlight[msg.SerialNum] = t
		c.mu.Unlock()
	}

	c.pumpOrQueue(t)
	return msg.SerialNum, nil
}

// pumpOrQueue transmits t immediately if a peer credit is available,
// otherwise parks it (spec §4.2: "when peer_credits == 0, transmission
// halts until a credit-ack arrives").
func (c *Connection) pumpOrQueue(t *task.Task) {
	if c.peerCredits.Load() > 0 {
		c.peerCredits.Add(-1)
		c.transmit(t)
		return
	}
	c.mu.Lock()
	c.txReady = append(c.txReady, t)
	c.mu.Unlock()
}

func (c *Connection) transmit(t *task.Task) {
	tr := c.transport()
	if tr == nil {
		t.Put()
		return
	}
	if err := tr.Send(t); err != nil {
		c.log.WithError(err).WithField("conn", c.index).Warnf("session: send failed")
	}
	c.statsMu.Lock()
	c.stats.Sent++
	c.statsMu.Unlock()
}

// pumpTx re-pumps the queued-on-credits list after peerCredits increases
// (spec §4.1 "after dispatch, re-pump transmit").
func (c *Connection) pumpTx() {
	for {
		if c.peerCredits.Load() <= 0 {
			return
		}
		c.mu.Lock()
		if len(c.txReady) == 0 {
			c.mu.Unlock()
			return
		}
		t := c.txReady[0]
		c.txReady = c.txReady[1:]
		c.mu.Unlock()

		c.peerCredits.Add(-1)
		c.transmit(t)
	}
}

func (c *Connection) restoreCredits(n uint16) {
	if n == 0 {
		return
	}
	c.peerCredits.Add(int64(n))
	c.pumpTx()
}

// noteReceived accounts one more received message toward the local credit
// window, sending an ACK_REQ once the threshold is crossed (spec §4.2).
func (c *Connection) noteReceived() {
	c.statsMu.Lock()
	c.stats.Received++
	c.statsMu.Unlock()

	if c.localCredits.Add(1) >= c.creditThreshold {
		c.sendAck()
	}
}

func (c *Connection) sendAck() {
	n := c.localCredits.Swap(0)
	if n == 0 {
		return
	}
	tr := c.transport()
	if tr == nil {
		return
	}
	t, err := tr.NewTask()
	if err != nil {
		c.log.WithError(err).WithField("conn", c.index).Warnf("session: could not acquire ack task")
		return
	}
	c.snMu.Lock()
	ackSn := c.ackSn
	c.snMu.Unlock()

	t.Type = wire.AckReq
	t.Header = wire.Header{DestSessionID: c.session.id, AckSn: ackSn, Credits: uint16(n)}
	c.pumpOrQueue(t)
}

func (c *Connection) failInFlight(err error) {
	c.mu.Lock()
	reqs := make([]*task.Task, 0, len(c.inFlight))
	for sn, t := range c.inFlight {
		reqs = append(reqs, t)
		delete(c.inFlight, sn)
	}
	c.mu.Unlock()

	for _, t := range reqs {
		sn := t.Header.SerialNum
		c.statsMu.Lock()
		c.stats.Errors++
		c.statsMu.Unlock()
		c.notify(func() { c.ops().OnMsgError(c, sn, err) })
		t.Put()
	}
}

func (c *Connection) beginClose() {
	c.state.CompareAndSwap(ConnOnline, ConnClosing)
}

// closeLocal tears the connection down from the session side: it releases
// the bound transport and marks the connection Closed (spec §4.1
// free_connection: "closes the connection").
func (c *Connection) closeLocal() {
	tr := c.transport()
	if tr != nil {
		_ = tr.Close()
	}
	c.state.Store(ConnClosed)
}
