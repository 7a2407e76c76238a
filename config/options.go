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

package config

import "github.com/nabbar/xiorpc/xerr"

// transBufThresholdMax is the upper bound spec §6 places on
// TRANS_BUF_THRESHOLD; the lower bound is zero (disabled).
const transBufThresholdMax = 65536

// Options is an immutable snapshot of every knob this repo exposes (spec §6
// "Configuration knobs"). A Config produces one via Freeze, after which the
// knobs it carries - TransBufThreshold chief among them - no longer track
// live viper state.
type Options struct {
	EnableMemPool    bool
	EnableDMALatency bool
	EnableMRCheck    bool

	// TransBufThreshold is a payload size in bytes, range-checked by Freeze
	// and read-only after the first Freeze. No transport in this module
	// reads it: transport/tcp.FromOptions does not carry it.
	TransBufThreshold int

	MaxInIovLen  int
	MaxOutIovLen int

	TCPNoDelay    bool
	TCPSoSndBuf   int
	TCPSoRcvBuf   int
	TCPDualStream bool
}

// DefaultOptions mirrors the original's conservative defaults: pooling and
// Nagle-disabling on, DMA latency pinning and memory-registration checks
// off, buffer sizes left to the kernel.
func DefaultOptions() Options {
	return Options{
		EnableMemPool:     true,
		EnableDMALatency:  false,
		EnableMRCheck:     false,
		TransBufThreshold: 4096,
		MaxInIovLen:       16,
		MaxOutIovLen:      16,
		TCPNoDelay:        true,
		TCPSoSndBuf:       0,
		TCPSoRcvBuf:       0,
		TCPDualStream:     false,
	}
}

// Validate rejects the one knob the spec places a hard range on (spec §8
// edge case: "TRANS_BUF_THRESHOLD outside [0, 65536] is rejected with
// invalid-argument").
func (o Options) Validate() error {
	if o.TransBufThreshold < 0 || o.TransBufThreshold > transBufThresholdMax {
		return xerr.InvalidArgumentf("config: trans_buf_threshold %d outside [0, %d]", o.TransBufThreshold, transBufThresholdMax)
	}
	if o.MaxInIovLen < 0 {
		return xerr.InvalidArgumentf("config: max_in_iovlen must be non-negative, got %d", o.MaxInIovLen)
	}
	if o.MaxOutIovLen < 0 {
		return xerr.InvalidArgumentf("config: max_out_iovlen must be non-negative, got %d", o.MaxOutIovLen)
	}
	return nil
}
