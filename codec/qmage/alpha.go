/*
NAME
  alpha.go

DESCRIPTION
  alpha.go implements the alpha sub-bitstream scanner (§4.C). It is not
  used to reconstruct pixels; it exists purely so the container splitter
  (container/qmage) can work out where one animation keyframe's packet
  ends and the next begins, since the alpha sub-bitstream on a legacy
  animation keyframe carries no explicit length field.

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

// AlphaSize walks the alpha sub-bitstream starting at the current position
// of buf (i.e. buf[0] is the first byte of the two length words) and
// returns the total number of bytes it occupies, rounded up to a multiple
// of 4. width and height are the frame's pixel dimensions; both must be
// aligned per the preconditions below.
func AlphaSize(buf []byte, width, height int) (int, error) {
	if width%8 != 0 || height%4 != 0 {
		return 0, fmt.Errorf("qmage: alpha scan requires width%%8==0 and height%%4==0, got %dx%d: %w", width, height, ErrUnsupportedFeature)
	}

	br := newByteReader(buf)
	len1, err := br.readLE32()
	if err != nil {
		return 0, fmt.Errorf("qmage: alpha len1: %w", err)
	}
	len2, err := br.readLE32()
	if err != nil {
		return 0, fmt.Errorf("qmage: alpha len2: %w", err)
	}
	if len1 < 8 || len2 < len1 {
		return 0, fmt.Errorf("qmage: alpha lengths len1=%d len2=%d: %w", len1, len2, ErrInvalid)
	}

	body, err := br.readBuffer(int(len2 - 8))
	if err != nil {
		return 0, fmt.Errorf("qmage: alpha body: %w", err)
	}
	gb1 := newBitReader(body[:len1-8])
	gb2 := newBitReader(body[len1-8:])

	// gb3 is a companion byte stream positioned directly after the
	// len2-8 byte block; advancing it is all this scan needs gb3 for.
	gb3 := newByteReader(buf[8+int(len2-8):])

	bandRows := height / 4
	cellCols := width / 8
	for band := 0; band < bandRows; band++ {
		for cell := 0; cell < cellCols; cell++ {
			mode, err := gb1.ReadBits(2)
			if err != nil {
				return 0, fmt.Errorf("qmage: alpha mode: %w", err)
			}
			if mode >= 3 {
				continue
			}

			cbp, err := gb3.readLE16()
			if err != nil {
				return 0, fmt.Errorf("qmage: alpha cbp: %w", err)
			}

			for k := 0; k < 16; k++ {
				if cbp&(1<<uint(k)) != 0 {
					continue
				}
				nbBits, err := gb2.ReadBits(3)
				if err != nil {
					return 0, fmt.Errorf("qmage: alpha nb_bits: %w", err)
				}
				if nbBits == 7 {
					if err := gb3.skip(2); err != nil {
						return 0, fmt.Errorf("qmage: alpha literal skip: %w", err)
					}
				} else {
					if err := gb1.SkipBits(int(nbBits) + 1); err != nil {
						return 0, fmt.Errorf("qmage: alpha index skip: %w", err)
					}
				}
			}
		}
	}

	total := int(len2) + gb3.pos
	return (total + 3) &^ 3, nil
}
