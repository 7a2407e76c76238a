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

// Package xerr defines the error-kind taxonomy used across the transport
// core (spec §7): invalid argument, out of memory, address-resolve failure,
// connect failure, not found, busy, protocol violation, peer disconnected,
// not supported, permission denied.
package xerr

import "sync"

// Code is a small numeric error kind, similar in spirit to an HTTP status
// code: a stable integer that callers can switch on, with a message looked
// up from a registry rather than baked into the call site.
type Code uint16

const (
	Unknown Code = iota
	InvalidArgument
	NoMemory
	AddressResolve
	ConnectFailed
	NotFound
	Busy
	ProtocolViolation
	PeerDisconnected
	NotSupported
	PermissionDenied
)

var (
	msgMu  sync.RWMutex
	msgTab = map[Code]string{
		Unknown:           "unknown error",
		InvalidArgument:   "invalid argument",
		NoMemory:          "out of memory",
		AddressResolve:    "address resolution failed",
		ConnectFailed:     "connect failed",
		NotFound:          "not found",
		Busy:              "busy",
		ProtocolViolation: "protocol violation",
		PeerDisconnected:  "peer disconnected",
		NotSupported:      "operation not supported",
		PermissionDenied:  "permission denied",
	}
)

// RegisterMessage overrides (or adds) the default message for a code. Call
// sites that want a more specific message than the generic kind string pass
// it directly to New instead; this registry exists for callers that want a
// single source of truth keyed only on the code.
func RegisterMessage(c Code, msg string) {
	msgMu.Lock()
	defer msgMu.Unlock()
	msgTab[c] = msg
}

// Message returns the registered message for a code, or "unknown error" if
// none was registered.
func (c Code) Message() string {
	msgMu.RLock()
	defer msgMu.RUnlock()
	if m, ok := msgTab[c]; ok {
		return m
	}
	return msgTab[Unknown]
}

func (c Code) String() string {
	return c.Message()
}
