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

package wire

import (
	"encoding/binary"

	"github.com/nabbar/xiorpc/xerr"
)

// SockType identifies which half of a dual-socket pair a handshake message
// announces (spec §6).
type SockType uint32

const (
	SockSingle SockType = 1
	SockCtl    SockType = 2
	SockData   SockType = 3
)

func (t SockType) String() string {
	switch t {
	case SockSingle:
		return "single"
	case SockCtl:
		return "ctl"
	case SockData:
		return "data"
	default:
		return "unknown"
	}
}

func (t SockType) Valid() bool {
	return t == SockSingle || t == SockCtl || t == SockData
}

// HandshakeSize is the fixed wire size of the dual-socket handshake message.
const HandshakeSize = 4 + 2 + 2

// Handshake is the fixed, host-agnostic message exchanged on a freshly
// accepted/connected fd to announce its role and, in dual-socket mode, the
// peer's other port (spec §6, §4.2 "Accept and dual-socket pairing").
type Handshake struct {
	SockType   SockType
	SecondPort uint16
}

func (h Handshake) Marshal() []byte {
	b := make([]byte, HandshakeSize)
	binary.BigEndian.PutUint32(b[0:4], uint32(h.SockType))
	binary.BigEndian.PutUint16(b[4:6], h.SecondPort)
	// b[6:8] is pad, left zero.
	return b
}

func (h *Handshake) Unmarshal(b []byte) error {
	if len(b) < HandshakeSize {
		return xerr.InvalidArgumentf("handshake: need %d bytes, got %d", HandshakeSize, len(b))
	}
	h.SockType = SockType(binary.BigEndian.Uint32(b[0:4]))
	h.SecondPort = binary.BigEndian.Uint16(b[4:6])
	if !h.SockType.Valid() {
		return xerr.ProtocolViolationf("handshake: unknown sock_type %d", h.SockType)
	}
	return nil
}
