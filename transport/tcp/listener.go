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

package tcp

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/nabbar/xiorpc/logger"
	"github.com/nabbar/xiorpc/nexus"
	"github.com/nabbar/xiorpc/reactor"
	"github.com/nabbar/xiorpc/wire"
	"github.com/nabbar/xiorpc/xerr"
)

// handshakeReadTimeout bounds how long a freshly accepted socket may take
// to deliver its fixed-size handshake before the pending entry is
// discarded (spec §4.2: "on EOF it discards the entry and closes the fd" —
// generalized here to any stall, not just a clean EOF, since Go's
// io.ReadFull collapses the partial-read retry loop the original drives
// off repeated EPOLLIN into a single blocked call that needs its own
// bound).
const handshakeReadTimeout = 30 * time.Second

// Listener is the server-side counterpart of Dial (spec §4.2 "Listen",
// "Accept and dual-socket pairing"). Each fully paired (or single-socket)
// accepted peer is published as a NewConnection event on the listener's
// own nexus, which server-side code registers a default observer on
// before any session id is known (spec nexus doc: "a listener registers a
// default observer to learn about brand new child connections").
type Listener struct {
	ln  net.Listener
	cfg Config
	ctx reactor.Context
	nx  nexus.Nexus
	log logger.Logger

	pendingMu sync.Mutex
	pending   []*pendingConn

	closeOnce sync.Once
}

// pendingConn is a freshly accepted, not-yet-paired dual-socket half (spec
// §3 "Pending connection").
type pendingConn struct {
	conn       net.Conn
	sockType   wire.SockType
	secondPort uint16
	peerIP     net.IP
	peerPort   uint16
}

// Listen binds uri and starts accepting (spec §4.2 "Listen: resolve URI ->
// sockaddr; bind; listen with backlog... state -> Listen; return bound
// port").
func Listen(ctx reactor.Context, uri string, cfg Config) (*Listener, error) {
	addr, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, xerr.New(xerr.AddressResolve, "transport/tcp: listen failed", err)
	}

	l := &Listener{
		ln:  ln,
		cfg: cfg,
		ctx: ctx,
		nx:  nexus.New(),
		log: logger.Component("transport.tcp.listener"),
	}
	go l.acceptLoop()
	return l, nil
}

// Addr returns the bound listen address (spec §4.2 "return bound port").
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Nexus is the "parent's observable" new-connection events are published
// on (spec §4.2 "publish NewConnection(child) to the parent's observable").
func (l *Listener) Nexus() nexus.Nexus { return l.nx }

// Close stops accepting and discards any unpaired pending connections
// (spec §4.2 on_sock_disconnected step 7: "drain pending-connection list").
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.ln.Close()
		l.pendingMu.Lock()
		pending := l.pending
		l.pending = nil
		l.pendingMu.Unlock()
		for _, p := range pending {
			_ = p.conn.Close()
		}
	})
	return err
}

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return
		}
		applySocketOptions(conn, l.cfg, l.log)
		go l.handleAccepted(conn)
	}
}

// handleAccepted reads the fixed handshake and, in single-socket mode,
// instantiates the child transport immediately; in dual-socket mode it
// attempts pairing against the pending list (spec §4.2 "Accept and
// dual-socket pairing").
func (l *Listener) handleAccepted(conn net.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeReadTimeout))
	var buf [wire.HandshakeSize]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		l.log.WithError(err).Debugf("transport/tcp: handshake read failed, abandoning pending connection")
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	var hs wire.Handshake
	if err := hs.Unmarshal(buf[:]); err != nil {
		l.log.WithError(err).Warnf("transport/tcp: malformed handshake")
		_ = conn.Close()
		return
	}

	ip, port := splitAddr(conn.RemoteAddr())

	if hs.SockType == wire.SockSingle {
		tr := newTransport(l.ctx, l.cfg, nexus.New())
		tr.ctlConn = conn
		tr.peerAddr = conn.RemoteAddr()
		tr.state.Store(StateConnected)
		tr.startReadLoop(conn)
		l.publishChild(tr)
		return
	}

	p := &pendingConn{conn: conn, sockType: hs.SockType, secondPort: hs.SecondPort, peerIP: ip, peerPort: port}

	l.pendingMu.Lock()
	var partner *pendingConn
	idx := -1
	for i, q := range l.pending {
		if pairMatches(p, q) {
			partner, idx = q, i
			break
		}
	}
	if partner != nil {
		l.pending = append(l.pending[:idx], l.pending[idx+1:]...)
	} else {
		l.pending = append(l.pending, p)
	}
	l.pendingMu.Unlock()

	if partner == nil {
		return
	}

	tr := newTransport(l.ctx, l.cfg, nexus.New())
	if p.sockType == wire.SockCtl {
		tr.ctlConn, tr.dataConn = p.conn, partner.conn
	} else {
		tr.ctlConn, tr.dataConn = partner.conn, p.conn
	}
	tr.peerAddr = tr.ctlConn.RemoteAddr()
	tr.state.Store(StateConnected)
	tr.startReadLoop(tr.ctlConn)
	tr.startReadLoop(tr.dataConn)
	l.publishChild(tr)
}

func (l *Listener) publishChild(tr *Transport) {
	l.ctx.Go(func() {
		l.nx.Broadcast(nexus.Event{Kind: nexus.NewConnection, Transport: tr})
	})
}

// pairMatches implements the dual-socket pairing rule (spec §4.2): address
// family/IP must match, and each side's advertised "second port" must
// equal the other side's observed peer port, cross-checked both ways. A
// pairing attempt between two halves declaring the same sock_type (two
// control or two data sockets) is never a match.
func pairMatches(a, b *pendingConn) bool {
	if a.sockType == b.sockType {
		return false
	}
	if !a.peerIP.Equal(b.peerIP) {
		return false
	}
	return a.secondPort == b.peerPort && b.secondPort == a.peerPort
}

func splitAddr(addr net.Addr) (net.IP, uint16) {
	if a, ok := addr.(*net.TCPAddr); ok {
		return a.IP, uint16(a.Port)
	}
	return nil, 0
}
