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

// Package mbuf is the message-buffer adapter the spec (§1, §6) describes as
// external ("a TLV framing helper"): a cursored view over a task's backing
// buffer used to reassemble and emit length-prefixed TLV frames from a byte
// stream. The core depends only on this small contract.
package mbuf

import (
	"encoding/binary"

	"github.com/nabbar/xiorpc/xerr"
)

// frameHeaderSize is the on-wire length prefix ahead of every TLV frame:
// a 2-byte Type followed by a 4-byte payload length.
const frameHeaderSize = 2 + 4

// Buf is a cursored read/write view over a byte slice, used to frame TLV
// messages: Reset rewinds the cursor, Write appends, Bytes exposes what has
// been written so far for a socket write() call.
type Buf struct {
	data []byte
	pos  int
}

// New wraps buf for writing from offset 0.
func New(buf []byte) *Buf {
	return &Buf{data: buf[:0]}
}

func (b *Buf) Reset() { b.data = b.data[:0]; b.pos = 0 }

func (b *Buf) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *Buf) Bytes() []byte { return b.data }
func (b *Buf) Len() int      { return len(b.data) }

// PutFrame appends a length-prefixed TLV frame: uint16 type, uint32 length,
// then payload.
func (b *Buf) PutFrame(typ uint16, payload []byte) {
	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint16(hdr[0:2], typ)
	binary.BigEndian.PutUint32(hdr[2:6], uint32(len(payload)))
	b.data = append(b.data, hdr[:]...)
	b.data = append(b.data, payload...)
}

// Reassembler accumulates bytes read off a stream socket and yields
// complete TLV frames as they become available, the way the stream
// transport's rx handlers do (spec §4.2: "stream transport reassembles
// TLVs"). It tolerates partial reads: Feed can be called repeatedly with
// whatever a non-blocking read() returned.
type Reassembler struct {
	buf []byte
}

// Frame is one fully reassembled TLV unit.
type Frame struct {
	Type    uint16
	Payload []byte
}

// Feed appends freshly read bytes to the reassembler's scratch buffer.
func (r *Reassembler) Feed(p []byte) {
	r.buf = append(r.buf, p...)
}

// Pending reports how many bytes are buffered and not yet part of a
// complete frame — used by the deferred ctl-rx event (spec §4.2) to decide
// whether reassembly must continue without blocking the reactor.
func (r *Reassembler) Pending() int { return len(r.buf) }

// Next extracts the next complete frame, if any. ok is false when fewer
// than a full frame's worth of bytes are buffered; callers should return to
// the reactor and wait for more readiness rather than spin.
func (r *Reassembler) Next() (f Frame, ok bool, err error) {
	if len(r.buf) < frameHeaderSize {
		return Frame{}, false, nil
	}
	typ := binary.BigEndian.Uint16(r.buf[0:2])
	length := binary.BigEndian.Uint32(r.buf[2:6])
	if length > 64<<20 {
		return Frame{}, false, xerr.ProtocolViolationf("mbuf: implausible frame length %d", length)
	}
	total := frameHeaderSize + int(length)
	if len(r.buf) < total {
		return Frame{}, false, nil
	}
	payload := make([]byte, length)
	copy(payload, r.buf[frameHeaderSize:total])
	r.buf = r.buf[total:]
	return Frame{Type: typ, Payload: payload}, true, nil
}
