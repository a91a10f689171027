/*
NAME
  a9ll_inter.go

DESCRIPTION
  a9ll_inter.go implements the A9LL inter (non-keyframe) decoder (§4.E):
  16x16 macroblock reconstruction against the previous frame, with
  motion vectors and a fall-through to 4x4 sub-block or edge-block
  decoding.

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

// decodeA9LLInter reconstructs a non-keyframe raster into frame using prev
// for inter prediction, per §4.E. prev must not be nil.
func decodeA9LLInter(h Header, buf []byte, frame, prev *Frame, logger Logger) error {
	size := len(buf)
	if size < h.HeaderSize+8 {
		return fmt.Errorf("qmage: a9ll inter packet too small (%d < %d): %w", size, h.HeaderSize+8, ErrInvalid)
	}

	hdr := newByteReader(buf[h.HeaderSize:])
	gb1Start, err := hdr.readLE32()
	if err != nil {
		return fmt.Errorf("qmage: a9ll inter gb1_start: %w", err)
	}
	// gb3_start is part of the on-disk layout shared with the intra
	// decoder but unused here: inter decoding only uses two streams.
	if _, err := hdr.readLE32(); err != nil {
		return fmt.Errorf("qmage: a9ll inter gb3_start: %w", err)
	}

	lo := uint32(h.HeaderSize + 8)
	hi := uint32(size)
	if gb1Start < lo || gb1Start > hi {
		return fmt.Errorf("qmage: a9ll inter offset gb1_start=%d out of [%d,%d]: %w", gb1Start, lo, hi, ErrInvalid)
	}

	gb1 := newBitReader(buf[lo:gb1Start])
	gb2 := newByteReader(buf[gb1Start:size])
	table := oriDeltaFor(h.Legacy)

	width, height := int(h.Width), int(h.Height)
	for y := 0; y < height; y += 16 {
		for x := 0; x < width; x += 16 {
			var err error
			if x+16 <= width && y+16 <= height {
				err = decodeMBAni(gb1, gb2, frame, prev, x, y, h.Qp, table, logger)
			} else {
				err = decodeMBEdge(gb1, gb2, frame, width, height, x, y, h.Qp, table)
			}
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// decodeMBAni decodes one interior (fully in-bounds) 16x16 macroblock.
func decodeMBAni(gb1 *bitReader, gb2 *byteReader, frame, prev *Frame, x, y int, qp byte, table oriDeltaTable, logger Logger) error {
	h1, err := gb1.ReadBit()
	if err != nil {
		return fmt.Errorf("qmage: a9ll inter mb h1: %w", err)
	}
	if h1 == 0 {
		return decodeSubBlocks(gb1, gb2, frame, prev, x, y, 0, 0, qp, table, logger, false)
	}

	h2, err := gb1.ReadBit()
	if err != nil {
		return fmt.Errorf("qmage: a9ll inter mb h2: %w", err)
	}
	if h2 == 1 {
		frame.copyFrom(prev, x, y, 16, 16, x, y)
		return nil
	}

	h3, err := gb1.ReadBit()
	if err != nil {
		return fmt.Errorf("qmage: a9ll inter mb h3: %w", err)
	}

	var mvx, mvy int
	if h3 == 0 {
		rx, err := gb1.ReadBits(8)
		if err != nil {
			return fmt.Errorf("qmage: a9ll inter mv_x: %w", err)
		}
		ry, err := gb1.ReadBits(7)
		if err != nil {
			return fmt.Errorf("qmage: a9ll inter mv_y: %w", err)
		}
		mvx = int(rx) - 0x7F
		mvy = int(ry) - 0x3F

		if x+mvx < 0 || y+mvy < 0 || x+mvx+16 > prev.Width || y+mvy+16 > prev.Height {
			return fmt.Errorf("qmage: a9ll inter mb motion vector (%d,%d) out of range at (%d,%d): %w", mvx, mvy, x, y, ErrInvalid)
		}

		h4, err := gb1.ReadBit()
		if err != nil {
			return fmt.Errorf("qmage: a9ll inter mb h4: %w", err)
		}
		if h4 == 1 {
			frame.copyFrom(prev, x, y, 16, 16, x+mvx, y+mvy)
			return nil
		}
	}

	return decodeSubBlocks(gb1, gb2, frame, prev, x, y, mvx, mvy, qp, table, logger, true)
}

// decodeSubBlocks decodes the sixteen 4x4 sub-blocks of a 16x16
// macroblock. inter selects decode_block3 (with mvx/mvy) over
// decode_block2.
func decodeSubBlocks(gb1 *bitReader, gb2 *byteReader, frame, prev *Frame, x, y, mvx, mvy int, qp byte, table oriDeltaTable, logger Logger, inter bool) error {
	for sy := 0; sy < 16; sy += 4 {
		for sx := 0; sx < 16; sx += 4 {
			var err error
			if inter {
				err = decodeBlock3(gb1, gb2, frame, prev, x+sx, y+sy, mvx, mvy, qp, table, logger)
			} else {
				err = decodeBlock2(gb1, gb2, frame, x+sx, y+sy, qp, table)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeBlock2 decodes one intra 4x4 sub-block against the current frame.
func decodeBlock2(gb1 *bitReader, gb2 *byteReader, frame *Frame, x, y int, qp byte, table oriDeltaTable) error {
	mode, err := gb1.ReadBits(2)
	if err != nil {
		return fmt.Errorf("qmage: a9ll inter block2 mode: %w", err)
	}
	if qp != 0 {
		skip, err := gb1.ReadBit()
		if err != nil {
			return fmt.Errorf("qmage: a9ll inter block2 skip: %w", err)
		}
		if skip == 0 {
			return fmt.Errorf("qmage: a9ll inter block2 skip=0 with qp!=0: %w", ErrUnsupportedFeature)
		}
	}

	if mode >= 3 {
		if x > 0 {
			copyEdge(frame, x, y)
		}
		return nil
	}

	return decodeDirectional(gb1, gb2, frame, frame, x, y, qmageDir[mode], table)
}

// decodeBlock3 decodes one inter 4x4 sub-block.
func decodeBlock3(gb1 *bitReader, gb2 *byteReader, frame, prev *Frame, x, y, mvx, mvy int, qp byte, table oriDeltaTable, logger Logger) error {
	mode, err := gb1.ReadBits(3)
	if err != nil {
		return fmt.Errorf("qmage: a9ll inter block3 mode: %w", err)
	}
	if qp != 0 {
		skip, err := gb1.ReadBit()
		if err != nil {
			return fmt.Errorf("qmage: a9ll inter block3 skip: %w", err)
		}
		if skip == 0 {
			return fmt.Errorf("qmage: a9ll inter block3 skip=0 with qp!=0: %w", ErrUnsupportedFeature)
		}
	}

	switch mode {
	case 0, 1, 2:
		return decodeDirectional(gb1, gb2, frame, frame, x, y, qmageDir[mode], table)
	case 3:
		if x > 0 {
			copyEdge(frame, x, y)
		}
		return nil
	case 4:
		return decodeDirectional(gb1, gb2, frame, prev, x, y, struct{ dx, dy int }{0, 0}, table)
	case 5:
		frame.copyFrom(prev, x, y, 4, 4, x, y)
		return nil
	case 6:
		return decodeDirectional(gb1, gb2, frame, prev, x, y, struct{ dx, dy int }{mvx, mvy}, table)
	case 7:
		if x+mvx < 0 || y+mvy < 0 || x+mvx+4 > prev.Width || y+mvy+4 > prev.Height {
			logger.Log(LogLevelWarning, "qmage: a9ll inter sub-block motion vector out of range, leaving block unchanged", "x", x, "y", y, "mvx", mvx, "mvy", mvy)
			return nil
		}
		frame.copyFrom(prev, x, y, 4, 4, x+mvx, y+mvy)
		return nil
	default:
		return fmt.Errorf("qmage: a9ll inter block3 mode %d: %w", mode, ErrUnsupportedFeature)
	}
}

// decodeDirectional decodes a 4x4 block by calling decodePixel for each
// pixel against ref, offset by dir.
func decodeDirectional(gb1 *bitReader, gb2 *byteReader, frame, ref *Frame, x, y int, dir struct{ dx, dy int }, table oriDeltaTable) error {
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			v, err := decodePixel(gb1, gb2, table, ref, x+i+dir.dx, y+j+dir.dy)
			if err != nil {
				return fmt.Errorf("qmage: a9ll inter decode_pixel: %w", err)
			}
			frame.set(x+i, y+j, v)
		}
	}
	return nil
}

// decodePixel implements the shared decode_pixel primitive (§4.E).
func decodePixel(gb1 *bitReader, gb2 *byteReader, table oriDeltaTable, ref *Frame, rx, ry int) (uint16, error) {
	skip, err := gb1.ReadBit()
	if err != nil {
		return 0, err
	}
	if skip == 1 {
		return ref.at(rx, ry), nil
	}

	nbBits, err := gb1.ReadBits(3)
	if err != nil {
		return 0, err
	}
	if nbBits == 7 {
		return gb2.readLE16()
	}

	idx, err := gb1.ReadBits(int(nbBits) + 1)
	if err != nil {
		return 0, err
	}
	delta := table.at(int(nbBits), int(idx))
	return ref.at(rx, ry) + uint16(delta), nil
}

// decodeMBEdge decodes a macroblock that straddles the frame's logical
// rectangle (§4.E "decode_mbedge").
func decodeMBEdge(gb1 *bitReader, gb2 *byteReader, frame *Frame, width, height, x, y int, qp byte, table oriDeltaTable) error {
	skip, err := gb1.ReadBit()
	if err != nil {
		return fmt.Errorf("qmage: a9ll inter mbedge skip: %w", err)
	}
	if skip == 1 {
		return fmt.Errorf("qmage: a9ll inter mbedge skip bit set: %w", ErrUnsupportedFeature)
	}

	for sy := 0; sy < 16; sy += 4 {
		for sx := 0; sx < 16; sx += 4 {
			cx, cy := x+sx, y+sy
			if cx >= width || cy >= height {
				continue
			}

			if cx+4 <= width && cy+4 <= height {
				if err := decodeBlock2(gb1, gb2, frame, cx, cy, qp, table); err != nil {
					return err
				}
				continue
			}

			for j := 0; j < 4; j++ {
				for i := 0; i < 4; i++ {
					px, py := cx+i, cy+j
					if px >= width || py >= height {
						continue
					}
					lit, err := gb2.readLE16()
					if err != nil {
						return fmt.Errorf("qmage: a9ll inter mbedge literal: %w", err)
					}
					frame.set(px, py, lit)
				}
			}
		}
	}

	return nil
}
