/*
NAME
  header_test.go

DESCRIPTION
  header_test.go provides testing for header.go.

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

func TestParseHeaderBadMagic(t *testing.T) {
	buf := make([]byte, 12)
	buf[0], buf[1] = 0x00, 0x00
	buf[2] = 0x0B
	if _, err := ParseHeader(buf); !errors.Is(err, ErrBadMagic) {
		t.Errorf("ParseHeader() = %v, want ErrBadMagic", err)
	}
}

func TestParseHeaderTooShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 11)); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ParseHeader() on 11 bytes = %v, want ErrEndOfStream", err)
	}
}

func TestParseHeaderUnsupportedVersion(t *testing.T) {
	buf := make([]byte, 12)
	buf[0], buf[1] = 0x51, 0x4D
	buf[2] = 0x0A
	if _, err := ParseHeader(buf); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("ParseHeader() qversion 0x0A = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParseHeaderLegacyStill(t *testing.T) {
	buf := make([]byte, 12)
	buf[0], buf[1] = 0x51, 0x4D
	buf[2] = 0x0B           // Legacy.
	buf[3] = RawTypeRGB565  // Opaque.
	buf[4] = 0x25           // Qp=5, not_comp=1, use_chroma_key=0, mode=0.
	buf[5] = 0x21           // encoder_mode=1, alpha_depth=0, depth=1, use_extra_exception=0.
	buf[6], buf[7] = 8, 0   // width=8.
	buf[8], buf[9] = 8, 0   // height=8.
	buf[10] = 0
	buf[11] = 0

	got, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader(): unexpected error: %v", err)
	}

	want := Header{
		Legacy:       true,
		Qversion:     0x0B,
		RawType:      RawTypeRGB565,
		Qp:           5,
		NotComp:      true,
		EncoderMode:  1,
		Depth:        1,
		Width:        8,
		Height:       8,
		HeaderSize:   12,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseHeader() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHeaderPostLegacyAnimation(t *testing.T) {
	base := func(currentFrame uint16) []byte {
		buf := make([]byte, 24)
		buf[0], buf[1] = 0x51, 0x4D
		buf[2] = 0x0C            // Post-legacy.
		buf[3] = RawTypeRGBA565  // Transparency.
		buf[4] = 0x80            // mode=1.
		buf[5] = 0x01            // encoder_mode=1, depth bit=0 -> depth=1.
		buf[6], buf[7] = 16, 0   // width.
		buf[8], buf[9] = 16, 0   // height.
		buf[10] = 0
		buf[11] = 0
		buf[12], buf[13] = 10, 0 // quarter alpha_position = 10.
		buf[14] = 0x03           // alpha_encoder_mode = 3.
		buf[15] = 0              // padding.
		buf[16], buf[17] = 5, 0  // total_frame_number.
		buf[18] = byte(currentFrame)
		buf[19] = byte(currentFrame >> 8)
		buf[20], buf[21] = 100, 0 // animation_delay_time.
		buf[22] = 0               // animation_no_repeat.
		buf[23] = 0
		return buf
	}

	t.Run("keyframe multiplies quarter offset", func(t *testing.T) {
		got, err := ParseHeader(base(1))
		if err != nil {
			t.Fatalf("ParseHeader(): unexpected error: %v", err)
		}
		if got.AlphaPosition != 40 {
			t.Errorf("AlphaPosition = %d, want 40", got.AlphaPosition)
		}
		if got.HeaderSize != 24 {
			t.Errorf("HeaderSize = %d, want 24", got.HeaderSize)
		}
		if got.AlphaEncoderMode != 3 {
			t.Errorf("AlphaEncoderMode = %d, want 3", got.AlphaEncoderMode)
		}
	})

	t.Run("non-keyframe leaves quarter offset unmultiplied", func(t *testing.T) {
		got, err := ParseHeader(base(2))
		if err != nil {
			t.Fatalf("ParseHeader(): unexpected error: %v", err)
		}
		if got.AlphaPosition != 10 {
			t.Errorf("AlphaPosition = %d, want 10", got.AlphaPosition)
		}
	})
}

func TestParseHeaderIndexColorNinePatched(t *testing.T) {
	buf := make([]byte, 20)
	buf[0], buf[1] = 0x51, 0x4D
	buf[2] = 0x0C
	buf[3] = RawTypeRGB565
	buf[4] = 0x00
	buf[5] = 0x01
	buf[6], buf[7] = 4, 0
	buf[8], buf[9] = 4, 0
	buf[10] = 0
	buf[11] = 0x22 // use_index_color=1, nine_patched=1.
	buf[12], buf[13], buf[14], buf[15] = 0x00, 0x01, 0x00, 0x00 // color_count=256.
	// Four bytes of nine_patched padding.

	got, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader(): unexpected error: %v", err)
	}
	if got.ColorCount != 256 {
		t.Errorf("ColorCount = %d, want 256", got.ColorCount)
	}
	if !got.UseIndexColor || !got.NinePatched {
		t.Errorf("UseIndexColor=%v NinePatched=%v, want both true", got.UseIndexColor, got.NinePatched)
	}
	if got.HeaderSize != 12 {
		t.Errorf("HeaderSize = %d, want 12", got.HeaderSize)
	}
}

func TestParseHeaderUnsupportedRawType(t *testing.T) {
	buf := make([]byte, 12)
	buf[0], buf[1] = 0x51, 0x4D
	buf[2] = 0x0B
	buf[3] = 0x02 // Not in {0,3,6}.
	if _, err := ParseHeader(buf); !errors.Is(err, ErrUnsupportedFeature) {
		t.Errorf("ParseHeader() raw_type=2 = %v, want ErrUnsupportedFeature", err)
	}
}

func TestParseHeaderZeroDimension(t *testing.T) {
	buf := make([]byte, 12)
	buf[0], buf[1] = 0x51, 0x4D
	buf[2] = 0x0B
	buf[3] = RawTypeRGB565
	if _, err := ParseHeader(buf); !errors.Is(err, ErrInvalid) {
		t.Errorf("ParseHeader() zero width/height = %v, want ErrInvalid", err)
	}
}
