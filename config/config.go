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

// Package config loads the runtime knobs spec §6 enumerates
// (ENABLE_MEM_POOL, ENABLE_DMA_LATENCY, ENABLE_MR_CHECK,
// TRANS_BUF_THRESHOLD, MAX_IN_IOVLEN, MAX_OUT_IOVLEN, TCP_NO_DELAY,
// TCP_SO_SNDBUF, TCP_SO_RCVBUF, TCP_DUAL_STREAM) through viper, the way
// every config-bearing component in the teacher does: defaults seeded up
// front, overridden by a config file and then the environment, read back
// through typed accessors rather than raw key strings at call sites.
package config

import (
	"io"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/nabbar/xiorpc/logger"
)

const (
	keyEnableMemPool     = "enable_mem_pool"
	keyEnableDMALatency  = "enable_dma_latency"
	keyEnableMRCheck     = "enable_mr_check"
	keyTransBufThreshold = "trans_buf_threshold"
	keyMaxInIovLen       = "max_in_iovlen"
	keyMaxOutIovLen      = "max_out_iovlen"
	keyTCPNoDelay        = "tcp_no_delay"
	keyTCPSoSndBuf       = "tcp_so_sndbuf"
	keyTCPSoRcvBuf       = "tcp_so_rcvbuf"
	keyTCPDualStream     = "tcp_dual_stream"
)

// Config wraps a *viper.Viper seeded with DefaultOptions, exposing the
// knobs as typed accessors and a one-shot Freeze that produces the
// read-only snapshot taken at first-transport-open (spec §8's "global TCP
// options... read-only snapshot taken at first-transport-open").
type Config struct {
	vpr *viper.Viper
	log logger.Logger

	mu     sync.Mutex
	frozen bool
	snap   Options
}

// New builds a Config with DefaultOptions already set, ready to have a
// config file or environment layered on top before the first Freeze.
func New() *Config {
	v := viper.New()
	o := DefaultOptions()
	v.SetDefault(keyEnableMemPool, o.EnableMemPool)
	v.SetDefault(keyEnableDMALatency, o.EnableDMALatency)
	v.SetDefault(keyEnableMRCheck, o.EnableMRCheck)
	v.SetDefault(keyTransBufThreshold, o.TransBufThreshold)
	v.SetDefault(keyMaxInIovLen, o.MaxInIovLen)
	v.SetDefault(keyMaxOutIovLen, o.MaxOutIovLen)
	v.SetDefault(keyTCPNoDelay, o.TCPNoDelay)
	v.SetDefault(keyTCPSoSndBuf, o.TCPSoSndBuf)
	v.SetDefault(keyTCPSoRcvBuf, o.TCPSoRcvBuf)
	v.SetDefault(keyTCPDualStream, o.TCPDualStream)

	return &Config{vpr: v, log: logger.Component("config")}
}

// Viper exposes the underlying instance for callers that need viper
// features this package doesn't wrap (watch, remote providers), the same
// escape hatch the teacher's own viper wrapper offers.
func (c *Config) Viper() *viper.Viper { return c.vpr }

// BindEnv turns on environment-variable overrides under prefix (e.g.
// "XIORPC_TRANS_BUF_THRESHOLD"), matching the teacher's SetEnvVarsPrefix.
func (c *Config) BindEnv(prefix string) {
	c.vpr.SetEnvPrefix(prefix)
	c.vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.vpr.AutomaticEnv()
}

// Load layers a config file of the given viper format ("json", "yaml",
// "toml", ...) over the defaults. Environment overrides turned on by
// BindEnv still take precedence over values read from the file.
func (c *Config) Load(r io.Reader, format string) error {
	c.vpr.SetConfigType(format)
	return c.vpr.ReadConfig(r)
}

func (c *Config) EnableMemPool() bool    { return c.vpr.GetBool(keyEnableMemPool) }
func (c *Config) EnableDMALatency() bool { return c.vpr.GetBool(keyEnableDMALatency) }
func (c *Config) EnableMRCheck() bool    { return c.vpr.GetBool(keyEnableMRCheck) }
func (c *Config) TransBufThreshold() int { return c.vpr.GetInt(keyTransBufThreshold) }
func (c *Config) MaxInIovLen() int       { return c.vpr.GetInt(keyMaxInIovLen) }
func (c *Config) MaxOutIovLen() int      { return c.vpr.GetInt(keyMaxOutIovLen) }
func (c *Config) TCPNoDelay() bool       { return c.vpr.GetBool(keyTCPNoDelay) }
func (c *Config) TCPSoSndBuf() int       { return c.vpr.GetInt(keyTCPSoSndBuf) }
func (c *Config) TCPSoRcvBuf() int       { return c.vpr.GetInt(keyTCPSoRcvBuf) }
func (c *Config) TCPDualStream() bool    { return c.vpr.GetBool(keyTCPDualStream) }

// Options reads every knob's current live value into an Options value,
// without freezing it.
func (c *Config) Options() Options {
	return Options{
		EnableMemPool:     c.EnableMemPool(),
		EnableDMALatency:  c.EnableDMALatency(),
		EnableMRCheck:     c.EnableMRCheck(),
		TransBufThreshold: c.TransBufThreshold(),
		MaxInIovLen:       c.MaxInIovLen(),
		MaxOutIovLen:      c.MaxOutIovLen(),
		TCPNoDelay:        c.TCPNoDelay(),
		TCPSoSndBuf:       c.TCPSoSndBuf(),
		TCPSoRcvBuf:       c.TCPSoRcvBuf(),
		TCPDualStream:     c.TCPDualStream(),
	}
}

// Freeze validates and snapshots the current Options on first call; every
// later call returns the same snapshot regardless of subsequent viper
// changes. This is the enforcement point for "TRANS_BUF_THRESHOLD becomes
// read-only after the first transport opens" (spec §6): callers invoke
// Freeze exactly once, when the first transport.Listen/Dial runs.
func (c *Config) Freeze() (Options, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return c.snap, nil
	}

	o := c.Options()
	if err := o.Validate(); err != nil {
		return Options{}, err
	}

	c.snap = o
	c.frozen = true
	c.log.WithField("trans_buf_threshold", o.TransBufThreshold).Debugf("config: frozen at first transport open")
	return c.snap, nil
}

// Frozen reports whether Freeze has already run, and the snapshot if so.
func (c *Config) Frozen() (Options, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.frozen
}
