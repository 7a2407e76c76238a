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

package tcp_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/xiorpc/nexus"
	"github.com/nabbar/xiorpc/reactor"
	"github.com/nabbar/xiorpc/task"
	"github.com/nabbar/xiorpc/transport/tcp"
	"github.com/nabbar/xiorpc/wire"
)

// waitConn collects NewConnection transports published on nx, up to a
// short timeout, for assertions without sleeping arbitrarily.
func waitConn(nx nexus.Nexus) *tcp.Transport {
	ch := make(chan *tcp.Transport, 1)
	nx.RegisterDefault(func(ev nexus.Event) {
		if ev.Kind == nexus.NewConnection {
			if tr, ok := ev.Transport.(*tcp.Transport); ok {
				select {
				case ch <- tr:
				default:
				}
			}
		}
	})
	select {
	case tr := <-ch:
		return tr
	case <-time.After(5 * time.Second):
		return nil
	}
}

type msgSink struct {
	mu   sync.Mutex
	msgs []*task.Task
}

func (s *msgSink) observer(ev nexus.Event) {
	if ev.Kind != nexus.NewMessage {
		return
	}
	s.mu.Lock()
	s.msgs = append(s.msgs, ev.Task)
	s.mu.Unlock()
}

func (s *msgSink) wait() *task.Task {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.msgs) > 0 {
			t := s.msgs[0]
			s.mu.Unlock()
			return t
		}
		s.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

var _ = Describe("single-socket listen/dial", func() {
	It("pairs immediately and exchanges one frame", func() {
		ctx := reactor.New(4)
		ctx.Start()
		defer ctx.Stop()

		cfg := tcp.DefaultConfig()
		ln, err := tcp.Listen(ctx, "127.0.0.1:0", cfg)
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		uri := fmt.Sprintf("tcp://%s", ln.Addr().String())
		client, err := tcp.Dial(ctx, uri, cfg)
		Expect(err).NotTo(HaveOccurred())
		defer client.Close()

		server := waitConn(ln.Nexus())
		Expect(server).NotTo(BeNil())
		Expect(server.IsDualSocket()).To(BeFalse())

		sink := &msgSink{}
		server.Nexus().RegisterDefault(sink.observer)

		req, err := client.NewTask()
		Expect(err).NotTo(HaveOccurred())
		req.Type = wire.OneWayReq
		req.Header = wire.Header{SerialNum: 1}
		req.Payload = []byte("ping")
		Expect(client.Send(req)).To(Succeed())

		got := sink.wait()
		Expect(got).NotTo(BeNil())
		Expect(string(got.Payload)).To(Equal("ping"))
		Expect(got.Header.SerialNum).To(BeEquivalentTo(1))
	})
})

var _ = Describe("dual-socket pairing", func() {
	It("pairs the control and data halves into one child transport", func() {
		ctx := reactor.New(4)
		ctx.Start()
		defer ctx.Stop()

		cfg := tcp.DefaultConfig()
		cfg.DualSocket = true

		ln, err := tcp.Listen(ctx, "127.0.0.1:0", cfg)
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()

		uri := fmt.Sprintf("tcp://%s", ln.Addr().String())
		client, err := tcp.Dial(ctx, uri, cfg)
		Expect(err).NotTo(HaveOccurred())
		defer client.Close()
		Expect(client.IsDualSocket()).To(BeTrue())

		server := waitConn(ln.Nexus())
		Expect(server).NotTo(BeNil())
		Expect(server.IsDualSocket()).To(BeTrue())

		sink := &msgSink{}
		server.Nexus().RegisterDefault(sink.observer)

		req, err := client.NewTask()
		Expect(err).NotTo(HaveOccurred())
		req.Type = wire.MsgReq
		req.Header = wire.Header{SerialNum: 42}
		req.Payload = []byte("hello-data-socket")
		Expect(client.Send(req)).To(Succeed())

		got := sink.wait()
		Expect(got).NotTo(BeNil())
		Expect(string(got.Payload)).To(Equal("hello-data-socket"))
	})
})
