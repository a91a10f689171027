/*
NAME
  header.go

DESCRIPTION
  header.go parses the fixed-layout Qmage container header (§3, §4.B,
  §6) into a Header value, deriving header_size and every flag the
  downstream A9LL/W2_PASS decoders need.

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

// magic is the big-endian container magic that every Qmage payload must
// start with.
const magic = 0x514D

// Recognised raw_type values (§3). Anything else is ErrUnsupportedFeature.
const (
	RawTypeRGB565  = 0 // Opaque.
	RawTypeRGBA565 = 3 // RGBA5658.
	RawTypeRGBA    = 6
)

// W2Pass is the only still-image encoder_mode this decoder supports.
const W2Pass = 1

// Header is the parsed form of a Qmage packet's leading bytes.
type Header struct {
	Legacy  bool // qversion == 0xB.
	Qversion byte
	RawType  byte
	Transparency bool // RawType != RawTypeRGB565.

	Qp           byte
	NotComp      bool
	UseChromaKey bool
	Mode         bool // Animation flag.

	EncoderMode       byte
	IsDynamicTable    bool // Post-legacy only.
	AlphaDepth        byte
	Depth             byte
	UseExtraException bool

	Width, Height uint16

	NearLossless bool

	IsGrayType    bool // Aliases AndroidSupport.
	UseIndexColor bool
	PreMultiplied bool
	NotAlphaComp  bool
	IsOpaque      bool
	NinePatched   bool

	AlphaPosition    uint32
	AlphaEncoderMode byte // Post-legacy only.

	TotalFrameNumber    uint16
	CurrentFrameNumber  uint16
	AnimationDelayTime  uint16
	AnimationNoRepeat   byte

	ColorCount uint32 // Only if UseIndexColor; not consumed by the core decoders.

	HeaderSize int
}

// AndroidSupport reports the is_gray_type flag under its alternate,
// source-preserved name (§3: "android_support aliases is_gray_type").
func (h Header) AndroidSupport() bool { return h.IsGrayType }

// ParseHeader parses the Qmage header from the start of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < 12 {
		return Header{}, fmt.Errorf("qmage: header needs at least 12 bytes, got %d: %w", len(buf), ErrEndOfStream)
	}

	var h Header

	gotMagic := uint16(buf[0])<<8 | uint16(buf[1])
	if gotMagic != magic {
		return Header{}, fmt.Errorf("qmage: got magic 0x%04x, want 0x%04x: %w", gotMagic, magic, ErrBadMagic)
	}

	h.Qversion = buf[2]
	h.Legacy = h.Qversion == 0x0B
	if h.Qversion < 0x0B {
		return Header{}, fmt.Errorf("qmage: qversion 0x%02x: %w", h.Qversion, ErrUnsupportedVersion)
	}

	h.RawType = buf[3]
	switch h.RawType {
	case RawTypeRGB565, RawTypeRGBA565, RawTypeRGBA:
	default:
		return Header{}, fmt.Errorf("qmage: raw_type %d: %w", h.RawType, ErrUnsupportedFeature)
	}
	h.Transparency = h.RawType != RawTypeRGB565

	flag4 := buf[4]
	h.Qp = flag4 & 0x1F
	h.NotComp = flag4>>5&1 != 0
	h.UseChromaKey = flag4>>6&1 != 0
	h.Mode = flag4>>7&1 != 0

	flag5 := buf[5]
	if h.Legacy {
		h.EncoderMode = flag5 & 0x07
		h.AlphaDepth = (flag5 >> 3) & 0x03
		h.Depth = (flag5 >> 5) & 0x03
		h.UseExtraException = flag5>>7&1 != 0
	} else {
		h.EncoderMode = flag5 & 0x0F
		h.IsDynamicTable = flag5>>4&1 != 0
		h.AlphaDepth = (flag5 >> 5) & 0x01
		h.Depth = (flag5>>6&1 + 1) // Stored as a single bit; mapped to 1 or 2.
		h.UseExtraException = flag5>>7&1 != 0
	}

	h.Width = uint16(buf[6]) | uint16(buf[7])<<8
	h.Height = uint16(buf[8]) | uint16(buf[9])<<8
	if h.Width == 0 || h.Height == 0 {
		return Header{}, fmt.Errorf("qmage: zero dimension %dx%d: %w", h.Width, h.Height, ErrInvalid)
	}

	flag10 := buf[10]
	h.NearLossless = flag10&1 != 0

	flag11 := buf[11]
	h.IsGrayType = flag11&1 != 0
	h.UseIndexColor = flag11>>1&1 != 0
	h.PreMultiplied = flag11>>2&1 != 0
	h.NotAlphaComp = flag11>>3&1 != 0
	h.IsOpaque = flag11>>4&1 != 0
	h.NinePatched = flag11>>5&1 != 0

	off := 12
	var quarterAlphaPosition uint32
	havePostLegacyAlpha := false
	if h.Transparency || h.Mode {
		if h.Legacy {
			if len(buf) < off+4 {
				return Header{}, fmt.Errorf("qmage: truncated alpha_position: %w", ErrEndOfStream)
			}
			h.AlphaPosition = uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
			off += 4
		} else {
			if len(buf) < off+4 {
				return Header{}, fmt.Errorf("qmage: truncated alpha_position: %w", ErrEndOfStream)
			}
			quarterAlphaPosition = uint32(buf[off]) | uint32(buf[off+1])<<8
			havePostLegacyAlpha = true
			off += 2
			h.AlphaEncoderMode = buf[off] & 0x0F
			off += 2 // alpha_encoder_mode byte + padding byte.
		}
	}

	if h.Mode {
		if len(buf) < off+8 {
			return Header{}, fmt.Errorf("qmage: truncated animation fields: %w", ErrEndOfStream)
		}
		h.TotalFrameNumber = uint16(buf[off]) | uint16(buf[off+1])<<8
		h.CurrentFrameNumber = uint16(buf[off+2]) | uint16(buf[off+3])<<8
		h.AnimationDelayTime = uint16(buf[off+4]) | uint16(buf[off+5])<<8
		h.AnimationNoRepeat = buf[off+6]
		off += 8
	}

	// Post-legacy alpha_position is a quarter-offset, multiplied by 4 for
	// stills and keyframes (§4.B): "happens iff !mode || current_frame_number <= 1".
	if havePostLegacyAlpha {
		if !h.Mode || h.CurrentFrameNumber <= 1 {
			h.AlphaPosition = quarterAlphaPosition * 4
		} else {
			h.AlphaPosition = quarterAlphaPosition
		}
	}

	if h.Mode {
		h.HeaderSize = 24
	} else if h.Transparency {
		h.HeaderSize = 16
	} else {
		h.HeaderSize = 12
	}

	if h.UseIndexColor {
		cc := newByteReader(buf[off:])
		v, err := cc.readLE32()
		if err != nil {
			return Header{}, fmt.Errorf("qmage: color_count: %w", err)
		}
		h.ColorCount = v
		if h.NinePatched {
			if err := cc.skip(4); err != nil {
				return Header{}, fmt.Errorf("qmage: nine_patched skip: %w", err)
			}
		}
	}

	return h, nil
}
