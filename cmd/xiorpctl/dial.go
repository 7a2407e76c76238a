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
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/nabbar/xiorpc/reactor"
	"github.com/nabbar/xiorpc/session"
	"github.com/nabbar/xiorpc/transport/tcp"
)

// serialCounter hands out the outbound serial numbers xiorpctl dial uses
// to track its own requests; it has nothing to do with the wire session
// id, which stays a uint32 minted by sessioncache.
var serialCounter atomic.Uint64

var dialFlags struct {
	uri          string
	payload      string
	oneWay       bool
	receipt      bool
	initCredits  int64
	creditThresh int64
	queueDepth   int
	timeout      time.Duration
}

func newDialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dial",
		Short: "dial a xiorpc peer and send one message",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDial(cmd)
		},
	}

	cmd.Flags().StringVar(&dialFlags.uri, "uri", "tcp://127.0.0.1:7000", "URI to dial")
	cmd.Flags().StringVar(&dialFlags.payload, "payload", "ping", "message payload to send")
	cmd.Flags().BoolVar(&dialFlags.oneWay, "one-way", false, "send as a one-way request")
	cmd.Flags().BoolVar(&dialFlags.receipt, "receipt", false, "request a read receipt")
	cmd.Flags().Int64Var(&dialFlags.initCredits, "init-credits", 64, "peer credits granted to this connection")
	cmd.Flags().Int64Var(&dialFlags.creditThresh, "credit-threshold", 16, "received-message count before an ACK_REQ is sent")
	cmd.Flags().IntVar(&dialFlags.queueDepth, "queue-depth", 64, "reactor work-queue depth for the dialing context")
	cmd.Flags().DurationVar(&dialFlags.timeout, "timeout", 10*time.Second, "how long to wait for completion before giving up")

	return cmd
}

func runDial(cmd *cobra.Command) error {
	a := newApp(rootFlags.logLevel, rootFlags.envPrefix)
	if err := loadConfigFile(a.cfg, rootFlags.cfgFile); err != nil {
		return err
	}

	opts, err := a.cfg.Freeze()
	if err != nil {
		return fmt.Errorf("xiorpctl: invalid config: %w", err)
	}
	cfg := tcp.FromOptions(opts)

	ctx := reactor.New(dialFlags.queueDepth)
	ctx.Start()
	defer ctx.Stop()

	tr, err := tcp.Dial(ctx, dialFlags.uri, cfg)
	if err != nil {
		return fmt.Errorf("xiorpctl: dial failed: %w", err)
	}
	defer tr.Close()

	done := make(chan error, 1)
	ops := &dialOps{cliOps: cliOps{log: a.log, met: a.met}, done: done}

	s := session.New(session.Config{
		URI:  dialFlags.uri,
		Type: session.Client,
		Ops:  ops,
	})
	c := s.AllocConnection(ctx, nil)
	c.SetCreditThreshold(dialFlags.creditThresh)
	c.BindTransport(tr)
	c.GrantInitialCredits(dialFlags.initCredits)

	sn := serialCounter.Add(1)
	ops.trackSerial(sn)

	if _, err = c.Send(session.Message{
		SerialNum:      sn,
		Payload:        []byte(dialFlags.payload),
		OneWay:         dialFlags.oneWay,
		RequestReceipt: dialFlags.receipt,
		LastInBatch:    true,
	}); err != nil {
		return fmt.Errorf("xiorpctl: send failed: %w", err)
	}

	select {
	case err = <-done:
		if err != nil {
			return fmt.Errorf("xiorpctl: message %d failed: %w", sn, err)
		}
		a.log.WithField("serial_num", sn).Infof("xiorpctl: message completed")
		return nil
	case <-time.After(dialFlags.timeout):
		return fmt.Errorf("xiorpctl: timed out waiting for serial_num %d", sn)
	}
}

// dialOps extends cliOps with a single-shot completion signal for the one
// message xiorpctl dial sends, tracked by serial number the way a real
// caller would track a request it cares about finishing.
type dialOps struct {
	cliOps
	done   chan error
	serial uint64
}

func (o *dialOps) trackSerial(sn uint64) { o.serial = sn }

func (o *dialOps) OnMsg(c *session.Connection, serialNum uint64, payload []byte) {
	o.cliOps.OnMsg(c, serialNum, payload)
}

func (o *dialOps) OnMsgError(c *session.Connection, serialNum uint64, err error) {
	o.cliOps.OnMsgError(c, serialNum, err)
	if serialNum == o.serial {
		o.done <- err
	}
}

func (o *dialOps) OnMsgDelivered(c *session.Connection, serialNum uint64, receiptResult uint32) {
	o.cliOps.OnMsgDelivered(c, serialNum, receiptResult)
	if serialNum == o.serial {
		o.done <- nil
	}
}

func (o *dialOps) OnMsgSendComplete(c *session.Connection, serialNum uint64) {
	o.cliOps.OnMsgSendComplete(c, serialNum)
	if serialNum == o.serial {
		o.done <- nil
	}
}

func (o *dialOps) OnOwMsgSendComplete(c *session.Connection, serialNum uint64) {
	o.cliOps.OnOwMsgSendComplete(c, serialNum)
	if serialNum == o.serial {
		o.done <- nil
	}
}
