/*
NAME
  qmage.go

DESCRIPTION
  qmage.go provides the probing and packet-boundary-discovery functions
  an enclosing multimedia framework needs to register the Qmage codec:
  a probe score for container auto-detection, and a packet splitter
  that tells the demuxer where one animation packet ends and the next
  begins (spec §6).

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package qmage provides container-level probing and packet-boundary
// discovery for Qmage streams, playing the role that container/flv and
// container/mts play for their respective formats: Probe scores a
// candidate stream and PacketSize tells the demuxer where packet
// boundaries fall. It does not itself register anything with a
// framework.
package qmage

import (
	"fmt"

	qmagecodec "github.com/go-qmage/qmage/codec/qmage"
)

// avprobeScoreExtension mirrors the constant the source documentation
// names (AVPROBE_SCORE_EXTENSION); a format detected this way is
// plausible but not a maximum-confidence header/magic match.
const avprobeScoreExtension = 50

// Probe scores buf's plausibility as the start of a Qmage stream. A
// score of 0 means "not Qmage"; any positive score means the header
// parsed and both dimensions are non-zero, per spec §6.
func Probe(buf []byte) int {
	if _, err := qmagecodec.ParseHeader(buf); err != nil {
		return 0
	}
	return avprobeScoreExtension / 4
}

// PacketSize returns the size, in bytes, of the single Qmage packet
// starting at buf[0], per spec §6. For stills, this is always
// len(buf) (the whole remaining stream is one packet). For animation
// frames, it seeks alpha_position-header_size further from the
// just-past-header read position (i.e. to the absolute offset
// alpha_position), either runs the alpha scanner (on a keyframe) or
// reads a raw 32-bit length (otherwise) to find alpha_size, and
// returns alpha_position+alpha_size.
func PacketSize(buf []byte) (int, error) {
	h, err := qmagecodec.ParseHeader(buf)
	if err != nil {
		return 0, err
	}
	if !h.Mode {
		return len(buf), nil
	}

	seekTo := int(h.AlphaPosition)
	if seekTo < 0 || seekTo > len(buf) {
		return 0, fmt.Errorf("container/qmage: packet boundary seek %d out of [0,%d]: %w", seekTo, len(buf), qmagecodec.ErrInvalid)
	}

	var alphaSize int
	if h.CurrentFrameNumber == 1 {
		alphaSize, err = qmagecodec.AlphaSize(buf[seekTo:], int(h.Width), int(h.Height))
		if err != nil {
			return 0, fmt.Errorf("container/qmage: alpha scan: %w", err)
		}
	} else {
		if len(buf) < seekTo+4 {
			return 0, fmt.Errorf("container/qmage: truncated packet length field: %w", qmagecodec.ErrEndOfStream)
		}
		raw := uint32(buf[seekTo]) | uint32(buf[seekTo+1])<<8 | uint32(buf[seekTo+2])<<16 | uint32(buf[seekTo+3])<<24
		if raw < 4 {
			return 0, fmt.Errorf("container/qmage: packet length %d < 4: %w", raw, qmagecodec.ErrInvalid)
		}
		alphaSize = int(raw)
	}

	return int(h.AlphaPosition) + alphaSize, nil
}
