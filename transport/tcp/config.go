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

// Package tcp is the stream transport provider (spec §4.2): per-endpoint
// accept/connect/listen state, the single- and dual-socket modes, TLV
// reassembly over the byte stream, and per-transport task pools. It
// implements session.Transport so a session.Connection can bind to it
// without this package ever being imported by session (the dependency runs
// the other way, avoiding the cycle spec §1 calls out between the two core
// subsystems).
package tcp

import (
	"github.com/nabbar/xiorpc/config"
	"github.com/nabbar/xiorpc/task"
)

// Config is the set of knobs spec §6 enumerates for the TCP provider
// (ENABLE_MEM_POOL/TCP_NO_DELAY/TCP_SO_SNDBUF/TCP_SO_RCVBUF/TCP_DUAL_STREAM
// and friends), narrowed to what a single transport instance needs; process-
// wide defaults and validation (TRANS_BUF_THRESHOLD's read-only-after-first-
// open rule) live in the config package.
type Config struct {
	// DualSocket selects the control+data two-socket mode (spec §4.2
	// "Modes"); false is single-socket.
	DualSocket bool

	// NoDelay sets TCP_NODELAY on every socket opened by this transport.
	NoDelay bool

	// SndBuf/RcvBuf set SO_SNDBUF/SO_RCVBUF when non-zero.
	SndBuf int
	RcvBuf int

	// ListenBacklog is not passed to the socket; Listen uses the net
	// package's default backlog.
	ListenBacklog int

	// EnableDMALatency makes Dial hold /dev/cpu_dma_latency open until the
	// dialed Transport is closed (spec §4.2 "CPU DMA latency"). Transports
	// accepted by a Listener do not open it.
	EnableDMALatency bool

	// InitialPool and PrimaryPool size the two task pools each transport
	// owns (spec §4.2 "Task pools: two pools per transport"). The initial
	// pool is allocated, but NewTask and the receive path draw every task
	// from the primary pool.
	InitialPool task.Config
	PrimaryPool task.Config
}

// DefaultConfig returns single-socket, no-dual-stream defaults with modest
// pool sizing.
func DefaultConfig() Config {
	return Config{
		ListenBacklog: 128,
		InitialPool:   task.Config{Start: 4, Alloc: 4, Max: 8},
		PrimaryPool:   task.Config{Start: 16, Alloc: 16, Max: 4096},
	}
}

// FromOptions builds a transport Config from a frozen config.Options
// snapshot, layering the process-wide knobs (dual-stream mode, socket
// options, DMA latency pinning) onto otherwise-default pool sizing. This
// is the bridge a listener/dialer uses after calling config.Config.Freeze.
// Only TCPDualStream, TCPNoDelay, TCPSoSndBuf, TCPSoRcvBuf and
// EnableDMALatency are carried; TransBufThreshold, the iovec limits,
// EnableMemPool and EnableMRCheck are not.
func FromOptions(o config.Options) Config {
	cfg := DefaultConfig()
	cfg.DualSocket = o.TCPDualStream
	cfg.NoDelay = o.TCPNoDelay
	cfg.SndBuf = o.TCPSoSndBuf
	cfg.RcvBuf = o.TCPSoRcvBuf
	cfg.EnableDMALatency = o.EnableDMALatency
	return cfg
}
