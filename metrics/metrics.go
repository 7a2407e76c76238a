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

// Package metrics exposes xiorpc's connection and transport counters as
// Prometheus collectors: one named metric per concern (credit levels,
// in-flight request counts, accept/pairing outcomes), each registered
// against a caller-supplied registry rather than the global default one,
// so a process embedding multiple xiorpc endpoints can keep their metrics
// apart.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xiorpc"

// Collector holds every metric this package defines, registered together
// against one prometheus.Registry.
type Collector struct {
	reg *prometheus.Registry

	peerCredits  *prometheus.GaugeVec
	localCredits *prometheus.GaugeVec
	inFlight     *prometheus.GaugeVec

	accepted     *prometheus.CounterVec
	paired       prometheus.Counter
	pairTimeouts prometheus.Counter

	framesSent *prometheus.CounterVec
	framesRecv *prometheus.CounterVec
}

// New builds a Collector and registers every metric it owns against reg.
// Passing prometheus.NewRegistry() keeps these collectors out of the
// global default registry, which matters when more than one xiorpc
// endpoint runs in the same process (spec supplement: additive
// observability, no functional effect on the protocol itself).
func New(reg *prometheus.Registry) *Collector {
	c := &Collector{
		reg: reg,
		peerCredits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_peer_credits",
			Help:      "Credits granted by the peer and not yet consumed, per connection.",
		}, []string{"session_id", "connection"}),
		localCredits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_local_credits",
			Help:      "Credits this side has granted the peer and not yet restored, per connection.",
		}, []string{"session_id", "connection"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_inflight_requests",
			Help:      "Requests sent and awaiting a response, per connection.",
		}, []string{"session_id", "connection"}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_accepted_total",
			Help:      "Sockets accepted by a listener, by socket mode.",
		}, []string{"mode"}),
		paired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_dual_socket_paired_total",
			Help:      "Control/data socket pairs successfully matched.",
		}),
		pairTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_dual_socket_pair_timeouts_total",
			Help:      "Dual-socket halves abandoned before a partner arrived.",
		}),
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_frames_sent_total",
			Help:      "TLV frames written to the wire, per transport.",
		}, []string{"transport"}),
		framesRecv: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_frames_received_total",
			Help:      "TLV frames read off the wire, per transport.",
		}, []string{"transport"}),
	}

	reg.MustRegister(
		c.peerCredits, c.localCredits, c.inFlight,
		c.accepted, c.paired, c.pairTimeouts,
		c.framesSent, c.framesRecv,
	)
	return c
}

// Registry returns the registry this Collector's metrics are registered
// against.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// ObserveConnection records the current credit and in-flight counts for
// one connection (spec §4.2's credit accounting, surfaced read-only).
func (c *Collector) ObserveConnection(sessionID uint32, connIndex int, peerCredits, localCredits, inFlight int64) {
	labels := prometheus.Labels{"session_id": strconv.FormatUint(uint64(sessionID), 10), "connection": strconv.Itoa(connIndex)}
	c.peerCredits.With(labels).Set(float64(peerCredits))
	c.localCredits.With(labels).Set(float64(localCredits))
	c.inFlight.With(labels).Set(float64(inFlight))
}

// RemoveConnection deletes a closed connection's gauge series so they
// don't linger at their last value forever.
func (c *Collector) RemoveConnection(sessionID uint32, connIndex int) {
	labels := prometheus.Labels{"session_id": strconv.FormatUint(uint64(sessionID), 10), "connection": strconv.Itoa(connIndex)}
	c.peerCredits.Delete(labels)
	c.localCredits.Delete(labels)
	c.inFlight.Delete(labels)
}

// IncAccepted counts one accepted socket, labeled by "single" or "dual".
func (c *Collector) IncAccepted(mode string) {
	c.accepted.WithLabelValues(mode).Inc()
}

// IncPaired counts one successful dual-socket pairing.
func (c *Collector) IncPaired() { c.paired.Inc() }

// IncPairTimeout counts one dual-socket half that was discarded unpaired.
func (c *Collector) IncPairTimeout() { c.pairTimeouts.Inc() }

// AddFrames adds the sent/received frame counts for one transport,
// identified by a caller-chosen label (e.g. its peer address).
func (c *Collector) AddFrames(transport string, sent, recv uint64) {
	if sent > 0 {
		c.framesSent.WithLabelValues(transport).Add(float64(sent))
	}
	if recv > 0 {
		c.framesRecv.WithLabelValues(transport).Add(float64(recv))
	}
}
