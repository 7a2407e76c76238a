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

package main

import (
	"github.com/nabbar/xiorpc/logger"
	"github.com/nabbar/xiorpc/metrics"
	"github.com/nabbar/xiorpc/session"
)

// cliOps is the session.Ops the listen and dial subcommands share: it logs
// every callback and mirrors connection-level counters into the metrics
// collector, rather than doing anything with the payload itself (xiorpctl
// has no application protocol of its own to decode one into).
type cliOps struct {
	session.NoopOps
	log logger.Logger
	met *metrics.Collector
}

func (o *cliOps) OnMsg(c *session.Connection, serialNum uint64, payload []byte) {
	o.log.WithField("conn", c.Index()).WithField("serial_num", serialNum).
		WithField("bytes", len(payload)).Infof("xiorpctl: message received")
	o.observe(c)
}

func (o *cliOps) OnMsgError(c *session.Connection, serialNum uint64, err error) {
	o.log.WithError(err).WithField("conn", c.Index()).WithField("serial_num", serialNum).
		Warnf("xiorpctl: message error")
}

func (o *cliOps) OnMsgDelivered(c *session.Connection, serialNum uint64, receiptResult uint32) {
	o.log.WithField("conn", c.Index()).WithField("serial_num", serialNum).
		WithField("receipt_result", receiptResult).Infof("xiorpctl: delivery receipt")
}

func (o *cliOps) OnMsgSendComplete(c *session.Connection, serialNum uint64) {
	o.observe(c)
}

func (o *cliOps) OnOwMsgSendComplete(c *session.Connection, serialNum uint64) {
	o.observe(c)
}

func (o *cliOps) OnSessionEvent(s *session.Session, ev session.Event, c *session.Connection, err error) {
	l := o.log.WithField("session", s.ID()).WithField("event", ev.String())
	if err != nil {
		l = l.WithError(err)
	}
	l.Infof("xiorpctl: session event")

	if c == nil {
		return
	}
	switch ev {
	case session.EvConnectionClosed, session.EvConnectionDisconnected, session.EvConnectionTeardown:
		o.met.RemoveConnection(s.ID(), c.Index())
	default:
		o.observe(c)
	}
}

func (o *cliOps) observe(c *session.Connection) {
	o.met.ObserveConnection(c.Session().ID(), c.Index(), c.PeerCredits(), c.LocalCredits(), int64(c.InFlightCount()))
}
