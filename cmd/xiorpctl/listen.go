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
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nabbar/xiorpc/nexus"
	"github.com/nabbar/xiorpc/reactor"
	"github.com/nabbar/xiorpc/session"
	"github.com/nabbar/xiorpc/transport/tcp"
)

var listenFlags struct {
	uri          string
	initCredits  int64
	creditThresh int64
	metricsAddr  string
	queueDepth   int
}

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "accept xiorpc peers on a TCP URI and print message traffic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd)
		},
	}

	cmd.Flags().StringVar(&listenFlags.uri, "uri", "tcp://0.0.0.0:7000", "URI to listen on")
	cmd.Flags().Int64Var(&listenFlags.initCredits, "init-credits", 64, "peer credits granted to each accepted connection")
	cmd.Flags().Int64Var(&listenFlags.creditThresh, "credit-threshold", 16, "received-message count before an ACK_REQ is sent")
	cmd.Flags().StringVar(&listenFlags.metricsAddr, "metrics-addr", "", "address to serve /metrics on (empty disables it)")
	cmd.Flags().IntVar(&listenFlags.queueDepth, "queue-depth", 64, "reactor work-queue depth for the accepting context")

	return cmd
}

func runListen(cmd *cobra.Command) error {
	a := newApp(rootFlags.logLevel, rootFlags.envPrefix)
	if err := loadConfigFile(a.cfg, rootFlags.cfgFile); err != nil {
		return err
	}

	opts, err := a.cfg.Freeze()
	if err != nil {
		return fmt.Errorf("xiorpctl: invalid config: %w", err)
	}
	cfg := tcp.FromOptions(opts)

	ctx := reactor.New(listenFlags.queueDepth)
	ctx.Start()
	defer ctx.Stop()

	ln, err := tcp.Listen(ctx, listenFlags.uri, cfg)
	if err != nil {
		return fmt.Errorf("xiorpctl: listen failed: %w", err)
	}
	defer ln.Close()

	a.log.WithField("addr", ln.Addr().String()).Infof("xiorpctl: listening")

	if listenFlags.metricsAddr != "" {
		go serveMetrics(a, listenFlags.metricsAddr)
	}

	ln.Nexus().RegisterDefault(func(ev nexus.Event) {
		if ev.Kind != nexus.NewConnection {
			return
		}
		tr, ok := ev.Transport.(*tcp.Transport)
		if !ok {
			return
		}
		acceptConnection(a, ctx, tr)
	})

	waitForSignal()
	return nil
}

// acceptConnection wires a freshly paired/accepted child transport into a
// new server-side session, the way the cli's dial path mirrors it from the
// client side: one session per peer, one connection bound to the
// transport, credits granted directly rather than over a SESSION_SETUP
// wire exchange this codebase never emits.
func acceptConnection(a *app, ctx reactor.Context, tr *tcp.Transport) {
	ops := &cliOps{log: a.log, met: a.met}
	s := session.New(session.Config{
		URI:  tr.PeerAddr().String(),
		Type: session.Server,
		Ops:  ops,
	})
	c := s.AllocConnection(ctx, nil)
	c.SetCreditThreshold(listenFlags.creditThresh)
	c.BindTransport(tr)
	c.GrantInitialCredits(listenFlags.initCredits)

	a.met.IncAccepted(acceptedMode(tr))
	a.log.WithField("peer", tr.PeerAddr().String()).WithField("session", s.ID()).
		Infof("xiorpctl: accepted connection")
}

func acceptedMode(tr *tcp.Transport) string {
	if tr.IsDualSocket() {
		return "dual"
	}
	return "single"
}

func serveMetrics(a *app, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))
	a.log.WithField("addr", addr).Infof("xiorpctl: serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		a.log.WithError(err).Warnf("xiorpctl: metrics server stopped")
	}
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
