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

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// inspect has no wire session of its own to report on; it prints the
// knobs a listen/dial invocation would freeze, tagged with a trace id so
// multiple inspect runs show up as distinct entries in aggregated logs
// (the human-facing identifier DESIGN.md reserves google/uuid for, as
// opposed to the wire-width-constrained uint32 session id).
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "print the resolved configuration a listen/dial run would freeze",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd)
		},
	}
}

func runInspect(cmd *cobra.Command) error {
	a := newApp(rootFlags.logLevel, rootFlags.envPrefix)
	if err := loadConfigFile(a.cfg, rootFlags.cfgFile); err != nil {
		return err
	}

	traceID := uuid.New()
	opts, err := a.cfg.Freeze()
	if err != nil {
		return fmt.Errorf("xiorpctl: invalid config: %w", err)
	}

	a.log.WithField("trace_id", traceID.String()).Infof("xiorpctl: inspect")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "trace_id: %s\n", traceID)
	fmt.Fprintf(out, "enable_mem_pool: %v\n", opts.EnableMemPool)
	fmt.Fprintf(out, "enable_dma_latency: %v\n", opts.EnableDMALatency)
	fmt.Fprintf(out, "enable_mr_check: %v\n", opts.EnableMRCheck)
	fmt.Fprintf(out, "trans_buf_threshold: %d\n", opts.TransBufThreshold)
	fmt.Fprintf(out, "max_in_iovlen: %d\n", opts.MaxInIovLen)
	fmt.Fprintf(out, "max_out_iovlen: %d\n", opts.MaxOutIovLen)
	fmt.Fprintf(out, "tcp_no_delay: %v\n", opts.TCPNoDelay)
	fmt.Fprintf(out, "tcp_so_sndbuf: %d\n", opts.TCPSoSndBuf)
	fmt.Fprintf(out, "tcp_so_rcvbuf: %d\n", opts.TCPSoRcvBuf)
	fmt.Fprintf(out, "tcp_dual_stream: %v\n", opts.TCPDualStream)
	return nil
}
