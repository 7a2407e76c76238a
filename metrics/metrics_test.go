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

package metrics_test

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/metrics"
)

func findMetric(reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	Expect(err).NotTo(HaveOccurred())
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

var _ = Describe("Collector", func() {
	var (
		reg *prometheus.Registry
		c   *metrics.Collector
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
		c = metrics.New(reg)
	})

	It("reports connection gauges under their session/connection labels", func() {
		c.ObserveConnection(7, 0, 900, 50, 3)

		f := findMetric(reg, "xiorpc_connection_peer_credits")
		Expect(f).NotTo(BeNil())
		Expect(f.GetMetric()).To(HaveLen(1))
		Expect(labelValue(f.GetMetric()[0], "session_id")).To(Equal("7"))
		Expect(f.GetMetric()[0].GetGauge().GetValue()).To(Equal(900.0))
	})

	It("removes a connection's gauge series on RemoveConnection", func() {
		c.ObserveConnection(1, 0, 10, 10, 1)
		c.RemoveConnection(1, 0)

		f := findMetric(reg, "xiorpc_connection_inflight_requests")
		Expect(f).NotTo(BeNil())
		Expect(f.GetMetric()).To(BeEmpty())
	})

	It("counts accepted sockets by mode", func() {
		c.IncAccepted("single")
		c.IncAccepted("dual")
		c.IncAccepted("dual")

		f := findMetric(reg, "xiorpc_transport_accepted_total")
		Expect(f).NotTo(BeNil())
		total := 0.0
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		Expect(total).To(Equal(3.0))
	})

	It("accumulates frame counters per transport", func() {
		c.AddFrames("peer-a", 5, 2)
		c.AddFrames("peer-a", 1, 0)

		sent := findMetric(reg, "xiorpc_transport_frames_sent_total")
		Expect(sent.GetMetric()[0].GetCounter().GetValue()).To(Equal(6.0))

		recv := findMetric(reg, "xiorpc_transport_frames_received_total")
		Expect(recv.GetMetric()[0].GetCounter().GetValue()).To(Equal(2.0))
	})
})
