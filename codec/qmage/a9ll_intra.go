/*
NAME
  a9ll_intra.go

DESCRIPTION
  a9ll_intra.go implements the A9LL intra (keyframe) decoder (§4.D): a
  4x4-block raster reconstruction driven by three interleaved streams
  (two bitstreams, one bytestream) plus the ori_delta lookup table.

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

import "fmt"

// decodeA9LLIntra reconstructs a keyframe raster into frame, per §4.D.
func decodeA9LLIntra(h Header, buf []byte, frame *Frame) error {
	if h.UseExtraException {
		return fmt.Errorf("qmage: a9ll intra use_extra_exception: %w", ErrUnsupportedFeature)
	}
	size := len(buf)
	if size < h.HeaderSize+8 {
		return fmt.Errorf("qmage: a9ll intra packet too small (%d < %d): %w", size, h.HeaderSize+8, ErrInvalid)
	}
	if int(h.Width)%4 != 0 || int(h.Height)%4 != 0 {
		return fmt.Errorf("qmage: a9ll intra requires 4x4-aligned dimensions, got %dx%d: %w", h.Width, h.Height, ErrInvalid)
	}

	hdr := newByteReader(buf[h.HeaderSize:])
	gb1Start, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: a9ll intra gb1_start: %w", err)
	}
	gb3Start, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: a9ll intra gb3_start: %w", err)
	}

	lo := uint32(h.HeaderSize + 8)
	hi := uint32(size)
	if gb1Start < lo || gb1Start > hi || gb3Start < lo || gb3Start > hi {
		return fmt.Errorf("qmage: a9ll intra offsets gb1_start=%d gb3_start=%d out of [%d,%d]: %w", gb1Start, gb3Start, lo, hi, ErrInvalid)
	}

	gb1 := newBitReader(buf[lo:gb1Start])
	gb2 := newBitReader(buf[gb1Start:size])
	gb3 := newByteReader(buf[gb3Start:size])

	table := oriDeltaFor(h.Legacy)
	if h.IsDynamicTable {
		table, err = newDynamicOriDelta(gb3)
		if err != nil {
			return fmt.Errorf("qmage: a9ll intra dynamic ori_delta: %w", err)
		}
	}

	width, height := int(h.Width), int(h.Height)
	for y := 0; y < height; y += 4 {
		for x := 0; x < width; x += 4 {
			mode, err := gb1.ReadBits(2)
			if err != nil {
				return fmt.Errorf("qmage: a9ll intra cell mode: %w", err)
			}

			if mode == 3 {
				if x > 0 {
					copyEdge(frame, x, y)
				}
				continue
			}

			cbp, err := gb3.readLE16()
			if err != nil {
				return fmt.Errorf("qmage: a9ll intra cbp: %w", err)
			}

			dir := qmageDir[mode]
			for k := 0; k < 16; k++ {
				i, j := k%4, k/4
				px, py := x+i, y+j
				rx, ry := px+dir.dx, py+dir.dy

				if cbp&(1<<uint(k)) != 0 {
					frame.set(px, py, frame.at(rx, ry))
					continue
				}

				nbBits, err := gb2.ReadBits(3)
				if err != nil {
					return fmt.Errorf("qmage: a9ll intra nb_bits: %w", err)
				}
				if nbBits == 7 {
					lit, err := gb3.readLE16()
					if err != nil {
						return fmt.Errorf("qmage: a9ll intra literal: %w", err)
					}
					frame.set(px, py, lit)
					continue
				}

				idx, err := gb1.ReadBits(int(nbBits) + 1)
				if err != nil {
					return fmt.Errorf("qmage: a9ll intra idx: %w", err)
				}
				delta := table.at(int(nbBits), int(idx))
				frame.set(px, py, frame.at(rx, ry)+uint16(delta))
			}
		}
	}

	return nil
}

// copyEdge fills the 4x4 cell at (x, y) with the pixel immediately to the
// left of its top-left corner, per the mode==3 "copy_edge" rule.
func copyEdge(frame *Frame, x, y int) {
	v := frame.at(x-1, y)
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			frame.set(x+i, y+j, v)
		}
	}
}
