/*
NAME
  decoder.go

DESCRIPTION
  decoder.go provides the top-level frame driver (§4.H): header parsing,
  dispatch to the A9LL or W2_PASS decoder appropriate for the header, and
  maintenance of the retained previous-frame slot used by A9LL inter
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

// Decode parses and decodes one Qmage packet, returning the reconstructed
// frame. On success, the frame replaces the Context's retained previous
// frame for subsequent inter decoding; on failure, the previous frame is
// left unchanged (§7).
func (c *Context) Decode(packet []byte) (*Frame, error) {
	h, err := ParseHeader(packet)
	if err != nil {
		return nil, err
	}

	if h.UseExtraException {
		return nil, fmt.Errorf("qmage: use_extra_exception: %w", ErrUnsupportedFeature)
	}

	if h.Mode {
		return c.decodeAnimationFrame(h, packet)
	}
	return c.decodeStill(h, packet)
}

func (c *Context) decodeAnimationFrame(h Header, packet []byte) (*Frame, error) {
	if int(h.Width)%4 != 0 || int(h.Height)%4 != 0 {
		return nil, fmt.Errorf("qmage: a9ll requires 4x4-aligned dimensions, got %dx%d: %w", h.Width, h.Height, ErrInvalid)
	}

	frame := NewFrame(int(h.Width), int(h.Height))
	frame.Keyframe = h.CurrentFrameNumber == 1

	var err error
	if frame.Keyframe {
		err = decodeA9LLIntra(h, packet, frame)
	} else {
		if c.prev == nil {
			return nil, fmt.Errorf("qmage: inter frame decoded with no retained previous frame: %w", ErrInvalid)
		}
		err = decodeA9LLInter(h, packet, frame, c.prev, c.Logger)
	}
	if err != nil {
		return nil, err
	}

	c.prev = frame
	return frame, nil
}

func (c *Context) decodeStill(h Header, packet []byte) (*Frame, error) {
	if h.UseIndexColor {
		return nil, fmt.Errorf("qmage: use_index_color stills: %w", ErrUnsupportedFeature)
	}
	if h.EncoderMode != W2Pass {
		return nil, fmt.Errorf("qmage: still encoder_mode %d: %w", h.EncoderMode, ErrUnsupportedFeature)
	}
	if len(packet) < h.HeaderSize {
		return nil, fmt.Errorf("qmage: still packet shorter than header_size %d: %w", h.HeaderSize, ErrInvalid)
	}

	frame := NewFrame(int(h.Width), int(h.Height))
	frame.Keyframe = true
	payload := packet[h.HeaderSize:]

	var err error
	switch h.Depth {
	case 1:
		err = decodeW2Depth1(payload, frame)
	case 2:
		err = decodeW2Depth2(payload, frame)
	default:
		err = fmt.Errorf("qmage: w2pass depth %d: %w", h.Depth, ErrUnsupportedFeature)
	}
	if err != nil {
		return nil, err
	}

	c.prev = frame
	return frame, nil
}
