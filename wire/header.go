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

// Flag bits carried in Header.Flags (spec §6).
const (
	RequestReadReceipt Flag = 1 << iota
	RspFlagFirst
	RspFlagLast
	MsgFlagLastInBatch
)

// Flag is the session-header flag bitset.
type Flag uint32

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// HeaderSize is the fixed wire size of Header, in bytes.
const HeaderSize = 8 + 4 + 4 + 4 + 2 + 2 + 2

// Header is the fixed-layout, big-endian session header (spec §6) prefixing
// every TLV payload.
type Header struct {
	SerialNum     uint64
	DestSessionID uint32
	Flags         Flag
	ReceiptResult uint32
	Sn            uint16
	AckSn         uint16
	Credits       uint16
}

// Marshal encodes h into a HeaderSize-byte big-endian buffer.
func (h Header) Marshal() []byte {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint64(b[0:8], h.SerialNum)
	binary.BigEndian.PutUint32(b[8:12], h.DestSessionID)
	binary.BigEndian.PutUint32(b[12:16], uint32(h.Flags))
	binary.BigEndian.PutUint32(b[16:20], h.ReceiptResult)
	binary.BigEndian.PutUint16(b[20:22], h.Sn)
	binary.BigEndian.PutUint16(b[22:24], h.AckSn)
	binary.BigEndian.PutUint16(b[24:26], h.Credits)
	return b
}

// Unmarshal decodes a HeaderSize-byte big-endian buffer into h.
func (h *Header) Unmarshal(b []byte) error {
	if len(b) < HeaderSize {
		return xerr.InvalidArgumentf("session header: need %d bytes, got %d", HeaderSize, len(b))
	}
	h.SerialNum = binary.BigEndian.Uint64(b[0:8])
	h.DestSessionID = binary.BigEndian.Uint32(b[8:12])
	h.Flags = Flag(binary.BigEndian.Uint32(b[12:16]))
	h.ReceiptResult = binary.BigEndian.Uint32(b[16:20])
	h.Sn = binary.BigEndian.Uint16(b[20:22])
	h.AckSn = binary.BigEndian.Uint16(b[22:24])
	h.Credits = binary.BigEndian.Uint16(b[24:26])
	return nil
}

// PeekDestSessionID reads just the dest_session_id field without requiring
// the rest of the header to be parsed — used by find_session (spec §4.1)
// which "peeks into the task's TLV header (without advancing)".
func PeekDestSessionID(b []byte) (uint32, error) {
	if len(b) < 12 {
		return 0, xerr.InvalidArgumentf("session header: too short to peek dest_session_id")
	}
	return binary.BigEndian.Uint32(b[8:12]), nil
}
