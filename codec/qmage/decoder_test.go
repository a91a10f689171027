/*
NAME
  decoder_test.go

DESCRIPTION
  decoder_test.go provides end-to-end testing for decoder.go, exercising
  Context.Decode across the still and animation-keyframe paths.

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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContextDecodeBadMagic(t *testing.T) {
	c := NewContext(nil)
	_, err := c.Decode(make([]byte, 12))
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("Decode() = %v, want ErrBadMagic", err)
	}
}

func TestContextDecodeW2PassDepth1Still(t *testing.T) {
	packet := []byte{
		// Header (12 bytes; no transparency, no animation).
		0x51, 0x4D, // magic.
		0x0C,       // qversion (post-legacy).
		0x00,       // raw_type = RGB565.
		0x00,       // flag4: qp=0, not_comp=0, use_chroma_key=0, mode=0.
		0x01,       // flag5: encoder_mode=1 (W2_PASS), depth bit=0 -> depth=1.
		0x02, 0x00, // width = 2.
		0x01, 0x00, // height = 1.
		0x00, // flag10.
		0x00, // flag11.

		// W2_PASS depth=1 payload.
		0x00, 0x00, 0x00, 0x00, // cnt_table = 0.
		0x01, 0x00, 0x00, 0x00, // size_idx = 1.
		0x00, 0x00, 0x00, 0x00, // size_run = 0.
		0x00, 0x00, 0x00, 0x00, // ignored trailer.
		0x00,                   // gb1: idx = 0 (literal).
		0x11, 0x11, 0x22, 0x22, // gb3: literal -> pixel0=0x1111, pixel1=0x2222.
	}

	c := NewContext(nil)
	frame, err := c.Decode(packet)
	if err != nil {
		t.Fatalf("Decode(): unexpected error: %v", err)
	}

	want := &Frame{
		Width:    2,
		Height:   1,
		Stride:   4,
		Pix:      []byte{0x11, 0x11, 0x22, 0x22},
		Keyframe: true,
	}
	if diff := cmp.Diff(want, frame); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
	if c.Previous() != frame {
		t.Errorf("Previous() = %p, want the just-decoded frame %p", c.Previous(), frame)
	}
}

func TestContextDecodeA9LLIntraKeyframeAllSkip(t *testing.T) {
	packet := []byte{
		// Header (24 bytes; legacy, animation).
		0x51, 0x4D, // magic.
		0x0B,       // qversion (legacy).
		0x00,       // raw_type = RGB565.
		0x80,       // flag4: mode=1.
		0x00,       // flag5: encoder_mode=0.
		0x04, 0x00, // width = 4.
		0x04, 0x00, // height = 4.
		0x00,                   // flag10.
		0x00,                   // flag11.
		0x00, 0x00, 0x00, 0x00, // alpha_position (legacy, unused here).
		0x01, 0x00, // total_frame_number = 1.
		0x01, 0x00, // current_frame_number = 1 (keyframe).
		0x00, 0x00, // animation_delay_time.
		0x00, // animation_no_repeat.
		0x00, // padding.

		// A9LL intra payload.
		33, 0, 0, 0, // gb1_start = 33 (absolute offset into packet).
		33, 0, 0, 0, // gb3_start = 33.
		0b11000000, // gb1: mode=3 (copy_edge/skip); x==0 so it's a no-op.
	}

	c := NewContext(nil)
	frame, err := c.Decode(packet)
	if err != nil {
		t.Fatalf("Decode(): unexpected error: %v", err)
	}
	if !frame.Keyframe {
		t.Errorf("Keyframe = false, want true")
	}
	want := make([]byte, 4*4*2)
	if diff := cmp.Diff(want, frame.Pix); diff != "" {
		t.Errorf("Pix mismatch (-want +got):\n%s", diff)
	}
}

func TestContextDecodeInterWithoutPreviousFrame(t *testing.T) {
	packet := []byte{
		0x51, 0x4D,
		0x0B,
		0x00,
		0x80, // mode=1.
		0x00,
		0x04, 0x00,
		0x04, 0x00,
		0x00,
		0x00,
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, // total_frame_number.
		0x02, 0x00, // current_frame_number = 2 (inter).
		0x00, 0x00,
		0x00,
		0x00,
	}
	c := NewContext(nil)
	if _, err := c.Decode(packet); !errors.Is(err, ErrInvalid) {
		t.Errorf("Decode() inter frame with no previous frame = %v, want ErrInvalid", err)
	}
}
