/*
NAME
  bitreader.go

DESCRIPTION
  bitreader.go provides the two cursor abstractions the A9LL and W2_PASS
  decoders use to walk disjoint regions of a single packet at the same
  time: an MSB-first bit reader, and a byte-aligned little-endian byte
  reader. Both borrow a slice rather than owning a copy, so many readers
  can be active over one packet simultaneously without interfering with
  each other (see the design notes on "multiple independent cursors").

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package qmage

import (
	"fmt"

	"github.com/pkg/errors"
)

// errShortRead is the underlying cause wrapped by a bitReader/byteReader
// whenever a read would run past the end of its borrowed slice. It wraps
// ErrInvalid, so callers should compare against the exported ErrInvalid
// sentinel rather than this internal cause.
var errShortRead = errors.Wrap(ErrInvalid, "qmage: read past end of borrowed slice")

// bitReader is an MSB-first bit reader over a borrowed byte slice.
type bitReader struct {
	buf  []byte
	pos  int // Bit position from the start of buf.
	nbit int // Total number of valid bits (len(buf)*8).
}

// newBitReader returns a bitReader over buf. buf is not copied.
func newBitReader(buf []byte) *bitReader {
	return &bitReader{buf: buf, nbit: len(buf) * 8}
}

// ReadBit reads a single bit, returning 0 or 1.
func (r *bitReader) ReadBit() (int, error) {
	v, err := r.ReadBits(1)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// ReadBits reads n bits (1 <= n <= 16) MSB-first and returns them as an
// unsigned value.
func (r *bitReader) ReadBits(n int) (uint32, error) {
	if n < 1 || n > 16 {
		return 0, fmt.Errorf("qmage: invalid bit read width %d", n)
	}
	if r.pos+n > r.nbit {
		return 0, errors.Wrapf(errShortRead, "read %d bits at bit offset %d (of %d)", n, r.pos, r.nbit)
	}

	var v uint32
	for i := 0; i < n; i++ {
		byteIdx := (r.pos + i) / 8
		bitIdx := 7 - (r.pos+i)%8
		bit := (r.buf[byteIdx] >> uint(bitIdx)) & 1
		v = v<<1 | uint32(bit)
	}
	r.pos += n
	return v, nil
}

// SkipBits advances the cursor by n bits without returning a value.
func (r *bitReader) SkipBits(n int) error {
	if r.pos+n > r.nbit {
		return errors.Wrapf(errShortRead, "skip %d bits at bit offset %d (of %d)", n, r.pos, r.nbit)
	}
	r.pos += n
	return nil
}

// byteReader is a sequential, bounds-checked, little-endian byte reader
// over a borrowed byte slice.
type byteReader struct {
	buf []byte
	pos int
}

// newByteReader returns a byteReader over buf. buf is not copied.
func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf}
}

// remaining returns the number of unread bytes.
func (r *byteReader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *byteReader) need(n int) error {
	if r.remaining() < n {
		return errors.Wrapf(errShortRead, "need %d bytes at offset %d (of %d)", n, r.pos, len(r.buf))
	}
	return nil
}

// peekU8 returns the next byte without advancing the cursor.
func (r *byteReader) peekU8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.buf[r.pos], nil
}

// readU8 reads and returns the next byte.
func (r *byteReader) readU8() (byte, error) {
	b, err := r.peekU8()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

// readLE16 reads a little-endian 16-bit unsigned value.
func (r *byteReader) readLE16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.buf[r.pos]) | uint16(r.buf[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

// readLE32 reads a little-endian 32-bit unsigned value.
func (r *byteReader) readLE32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.pos]) | uint32(r.buf[r.pos+1])<<8 |
		uint32(r.buf[r.pos+2])<<16 | uint32(r.buf[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

// readBuffer reads and returns the next n bytes as a sub-slice (not a copy)
// of the borrowed buffer.
func (r *byteReader) readBuffer(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// skip advances the cursor by n bytes.
func (r *byteReader) skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// readValue implements the unbounded varlen scheme shared by the W2_PASS
// index-run and run-length substreams (§4.F): consume 0xFF bytes
// accumulating 0xFF each, then add the next (non-0xFF) byte.
func readValue(r *byteReader) (int, error) {
	var v int
	for {
		b, err := r.readU8()
		if err != nil {
			return 0, err
		}
		v += int(b)
		if b != 0xFF {
			return v, nil
		}
	}
}
