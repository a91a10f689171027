/*
NAME
  w2pass.go

DESCRIPTION
  w2pass.go implements the two W2_PASS still-image decoders: depth=1
  (§4.F), a run/dictionary decoder over 32-bit literals, and depth=2
  (§4.G), a 16-byte-strip predictor that reconstructs a depth=1 payload
  into an intermediate buffer before handing off to the depth=1 decoder.

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
	"encoding/binary"
	"fmt"
)

// decodeW2Depth1 decodes a W2_PASS depth=1 payload (buf, starting with its
// own 16-byte header) into frame, per §4.F. Aligned and unaligned output
// (dst_linesize == width*2 or not) are unified here into a single
// pixel-cursor write that honours Frame's stride, since Frame.set already
// performs the row-wrapped, stride-aware addressing both cases need.
func decodeW2Depth1(buf []byte, frame *Frame) error {
	size := len(buf)
	if size < 16 {
		return fmt.Errorf("qmage: w2pass depth=1 payload too small (%d < 16): %w", size, ErrInvalid)
	}

	hdr := newByteReader(buf)
	cntTable, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: w2pass depth=1 cnt_table: %w", err)
	}
	sizeIdx, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: w2pass depth=1 size_idx: %w", err)
	}
	sizeRun, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: w2pass depth=1 size_run: %w", err)
	}
	if err := hdr.skip(4); err != nil { // Ignored trailer bytes.
		return fmt.Errorf("qmage: w2pass depth=1 header: %w", err)
	}

	dictBytes := int(cntTable) * 4
	start1 := 16 + dictBytes
	start2 := start1 + int(sizeIdx)
	start3 := start2 + int(sizeRun)
	if start1 > size || start2 > size || start3 > size {
		return fmt.Errorf("qmage: w2pass depth=1 substream offsets out of range (size=%d): %w", size, ErrInvalid)
	}

	dr := newByteReader(buf[16:start1])
	dict := make([]uint32, cntTable)
	for i := range dict {
		v, err := dr.readLE32()
		if err != nil {
			return fmt.Errorf("qmage: w2pass depth=1 dictionary entry %d: %w", i, err)
		}
		dict[i] = v
	}

	gb1 := newByteReader(buf[start1:start2])
	gb2 := newByteReader(buf[start2:start3])
	gb3 := newByteReader(buf[start3:])

	width, height := frame.Width, frame.Height
	total := width * height
	written := 0
	x, y := 0, 0
	writePixel := func(v uint16) {
		frame.set(x, y, v)
		written++
		x++
		if x >= width {
			x = 0
			y++
		}
	}

	for written < total {
		idx, err := readValue(gb1)
		if err != nil {
			return fmt.Errorf("qmage: w2pass depth=1 idx: %w", err)
		}

		if idx == 0 {
			lit, err := gb3.readLE32()
			if err != nil {
				return fmt.Errorf("qmage: w2pass depth=1 literal: %w", err)
			}
			writePixel(uint16(lit))
			if written < total {
				writePixel(uint16(lit >> 16))
			}
			continue
		}

		e := idx - 1
		if e*4+4 > size-16 || e >= len(dict) {
			return fmt.Errorf("qmage: w2pass depth=1 dictionary index %d out of range: %w", idx, ErrInvalid)
		}
		entry := dict[e]

		run, err := readValue(gb2)
		if err != nil {
			return fmt.Errorf("qmage: w2pass depth=1 run: %w", err)
		}
		run++

		remaining := total - written
		count := run * 2
		if count > remaining {
			count = remaining
		}
		lo, hi := uint16(entry), uint16(entry>>16)
		for c := 0; c < count; c++ {
			if c%2 == 0 {
				writePixel(lo)
			} else {
				writePixel(hi)
			}
		}
	}

	return nil
}

// decodeW2Depth2 decodes a W2_PASS depth=2 payload into frame, per §4.G:
// a 16-byte-strip predictor reconstructs an intermediate buffer which is
// itself a depth=1 payload, then §4.F finishes the job.
func decodeW2Depth2(buf []byte, frame *Frame) error {
	if len(buf) < 12 {
		return fmt.Errorf("qmage: w2pass depth=2 header too small: %w", ErrInvalid)
	}

	hdr := newByteReader(buf)
	bsize, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: w2pass depth=2 bsize: %w", err)
	}
	if bsize < 16 {
		return fmt.Errorf("qmage: w2pass depth=2 bsize %d < 16: %w", bsize, ErrInvalid)
	}
	len1, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: w2pass depth=2 len1: %w", err)
	}
	len2, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: w2pass depth=2 len2: %w", err)
	}

	body := buf[12:]
	if len(body) < int(len1)+int(len2) {
		return fmt.Errorf("qmage: w2pass depth=2 truncated substreams: %w", ErrInvalid)
	}
	// Every strip after the first reads at least one gb1 bit and the
	// unaligned tail is at most 15 bytes, so a larger bsize cannot be
	// decoded and is rejected before the buffer is allocated.
	if int64(bsize) > 16+int64(len1)*8*16+15 {
		return fmt.Errorf("qmage: w2pass depth=2 bsize %d exceeds what %d gb1 bytes can steer: %w", bsize, len1, ErrInvalid)
	}
	gb1 := newBitReader(body[:len1])
	gb2 := newByteReader(body[len1 : len1+len2])
	gb3 := newByteReader(body[len1+len2:])

	inter := make([]byte, bsize)

	rel := 1
	lit, err := gb3.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: w2pass depth=2 strip1 literal: %w", err)
	}
	binary.LittleEndian.PutUint32(inter[0:4], lit)
	dPos := 4
	for i := 0; i < 6; i++ {
		v, newRel, err := decodeStripValue(inter, dPos, rel, gb1, gb2, gb3, i)
		if err != nil {
			return fmt.Errorf("qmage: w2pass depth=2 strip1 value %d: %w", i, err)
		}
		binary.LittleEndian.PutUint16(inter[dPos:dPos+2], v)
		rel = newRel
		dPos += 2
	}

	alignedEnd := int(bsize) &^ 15
	for dPos < alignedEnd {
		bit, err := gb1.ReadBit()
		if err != nil {
			return fmt.Errorf("qmage: w2pass depth=2 strip selector: %w", err)
		}
		if bit == 0 {
			bit2, err := gb1.ReadBit()
			if err != nil {
				return fmt.Errorf("qmage: w2pass depth=2 strip selector2: %w", err)
			}
			if bit2 == 0 {
				raw, err := gb3.readBuffer(16)
				if err != nil {
					return fmt.Errorf("qmage: w2pass depth=2 raw strip: %w", err)
				}
				copy(inter[dPos:dPos+16], raw)
			} else {
				off := dPos - rel*2
				if off < 0 || off+16 > dPos {
					return fmt.Errorf("qmage: w2pass depth=2 strip copy offset %d: %w", off, ErrInvalid)
				}
				copy(inter[dPos:dPos+16], inter[off:off+16])
			}
		} else {
			mask, err := gb2.readU8()
			if err != nil {
				return fmt.Errorf("qmage: w2pass depth=2 strip2 mask: %w", err)
			}
			for p := 0; p < 8; p++ {
				v, newRel, err := decodeStrip2Value(inter, dPos+p*2, rel, mask, p, gb1, gb2, gb3)
				if err != nil {
					return fmt.Errorf("qmage: w2pass depth=2 strip2 value %d: %w", p, err)
				}
				binary.LittleEndian.PutUint16(inter[dPos+p*2:dPos+p*2+2], v)
				rel = newRel
			}
		}
		dPos += 16
	}

	if int(bsize) != alignedEnd {
		tail := int(bsize) - alignedEnd
		raw, err := gb2.readBuffer(tail)
		if err != nil {
			return fmt.Errorf("qmage: w2pass depth=2 trailing tail: %w", err)
		}
		copy(inter[alignedEnd:], raw)
	}

	return decodeW2Depth1(inter, frame)
}

// decodeStripValue implements the shared strip1/strip2-prefix three-state
// value selection rule (§4.G "Tie-breaks"): copy from d_pos-rel*2, XOR a
// previous value with qmage_diff, or read a raw literal — and the "rel"
// refresh that piggybacks on it at even positions.
func decodeStripValue(buf []byte, dPos, rel int, gb1 *bitReader, gb2, gb3 *byteReader, idx int) (uint16, int, error) {
	bit1, err := gb1.ReadBit()
	if err != nil {
		return 0, rel, err
	}
	if bit1 == 1 {
		off := dPos - rel*2
		if off < 0 || off+2 > dPos {
			return 0, rel, fmt.Errorf("qmage: strip value copy offset %d: %w", off, ErrInvalid)
		}
		return binary.LittleEndian.Uint16(buf[off : off+2]), rel, nil
	}

	newRel := rel
	if idx%2 == 0 {
		if b, err := gb2.readU8(); err == nil {
			newRel = refreshRel(b)
		} else if b, err := gb3.readU8(); err == nil {
			newRel = refreshRel(b)
		}
	}

	bit2, err := gb1.ReadBit()
	if err != nil {
		return 0, newRel, err
	}
	if bit2 == 0 {
		prevOff := dPos - 2
		prev := binary.LittleEndian.Uint16(buf[prevOff : prevOff+2])
		b, err := gb2.readU8()
		if err != nil {
			return 0, newRel, err
		}
		return prev ^ qmageDiff[b], newRel, nil
	}

	v, err := gb3.readLE16()
	return v, newRel, err
}

// decodeStrip2Value is decodeStripValue's strip2 counterpart: the initial
// copy/decode selector bit is supplied by mask (one bit per pixel) rather
// than read fresh from gb1, but the remaining XOR-vs-literal decision and
// rel refresh behave identically.
func decodeStrip2Value(buf []byte, dPos, rel int, mask byte, p int, gb1 *bitReader, gb2, gb3 *byteReader) (uint16, int, error) {
	if mask>>uint(p)&1 == 1 {
		off := dPos - rel*2
		if off < 0 || off+2 > dPos {
			return 0, rel, fmt.Errorf("qmage: strip2 value copy offset %d: %w", off, ErrInvalid)
		}
		return binary.LittleEndian.Uint16(buf[off : off+2]), rel, nil
	}

	newRel := rel
	if p%2 == 0 {
		if b, err := gb2.readU8(); err == nil {
			newRel = refreshRel(b)
		} else if b, err := gb3.readU8(); err == nil {
			newRel = refreshRel(b)
		}
	}

	bit2, err := gb1.ReadBit()
	if err != nil {
		return 0, newRel, err
	}
	if bit2 == 0 {
		prevOff := dPos - 2
		prev := binary.LittleEndian.Uint16(buf[prevOff : prevOff+2])
		b, err := gb2.readU8()
		if err != nil {
			return 0, newRel, err
		}
		return prev ^ qmageDiff[b], newRel, nil
	}

	v, err := gb3.readLE16()
	return v, newRel, err
}

// refreshRel converts a freshly read byte into a valid (non-zero) rel
// value, the "relative offset in 16-bit units" accumulator.
func refreshRel(b byte) int {
	if b == 0 {
		return 1
	}
	return int(b)
}
