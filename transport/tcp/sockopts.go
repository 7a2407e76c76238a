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

package tcp

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/nabbar/xiorpc/logger"
)

// applySocketOptions sets TCP_NODELAY and the SO_SNDBUF/SO_RCVBUF sizes on
// a freshly dialed or accepted connection (spec §4.2 "Socket creation:
// AF_INET, nonblocking, SO_REUSEADDR, optional TCP_NODELAY, configurable
// SO_SNDBUF/SO_RCVBUF"). net.Dial/net.Listen already handle AF_INET
// selection, nonblocking mode (Go sockets are always nonblocking under the
// runtime poller) and SO_REUSEADDR for listeners; what is left for this
// package to set directly are the options Go's net package has no portable
// setter for, which is done here via the raw fd through SyscallConn and
// golang.org/x/sys/unix, rather than reaching for CGO or a raw socket
// layer of our own.
func applySocketOptions(c net.Conn, cfg Config, log logger.Logger) {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		log.WithError(err).Debugf("transport/tcp: could not access raw socket for option tuning")
		return
	}

	ctlErr := raw.Control(func(fd uintptr) {
		if cfg.NoDelay {
			if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); e != nil {
				log.WithError(e).Debugf("transport/tcp: TCP_NODELAY failed")
			}
		}
		if cfg.SndBuf > 0 {
			if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SndBuf); e != nil {
				log.WithError(e).Debugf("transport/tcp: SO_SNDBUF failed")
			}
		}
		if cfg.RcvBuf > 0 {
			if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RcvBuf); e != nil {
				log.WithError(e).Debugf("transport/tcp: SO_RCVBUF failed")
			}
		}
	})
	if ctlErr != nil {
		log.WithError(ctlErr).Debugf("transport/tcp: socket option control call failed")
	}
}
