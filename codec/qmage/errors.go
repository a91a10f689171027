/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the sentinel error kinds returned by the Qmage
  decoder, per the error handling design: BadMagic, UnsupportedVersion,
  UnsupportedFeature, Invalid, and EndOfStream. OutOfMemory is not a
  sentinel: every allocation is sized by the frame dimensions or by
  packet fields checked against the packet length first, and an
  allocation failure is left to the Go runtime.

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

import "github.com/pkg/errors"

// Sentinel error kinds. Use errors.Is to test a returned error against
// these; wrapped context (offsets, field values) is added with
// fmt.Errorf("...: %w", ...) or errors.Wrap as appropriate.
var (
	// ErrBadMagic is returned when the header's leading magic bytes don't
	// match 0x514D.
	ErrBadMagic = errors.New("qmage: bad magic")

	// ErrUnsupportedVersion is returned when qversion is neither 0xB nor
	// greater than 0xB.
	ErrUnsupportedVersion = errors.New("qmage: unsupported qversion")

	// ErrUnsupportedFeature is returned for a recognised but out-of-scope
	// feature: raw_type outside {0,3,6}, use_extra_exception, a still
	// encoder_mode other than W2_PASS, a W2_PASS depth other than 1 or 2,
	// qp != 0 without a set skip flag, or an edge macroblock's skip bit.
	ErrUnsupportedFeature = errors.New("qmage: unsupported feature")

	// ErrInvalid covers out-of-range lengths/offsets, an out-of-bounds
	// macroblock-level motion vector, or any other structurally malformed
	// bitstream state.
	ErrInvalid = errors.New("qmage: invalid bitstream")

	// ErrEndOfStream is returned when a probe or container-level read
	// runs past the end of the available bytes.
	ErrEndOfStream = errors.New("qmage: end of stream")
)
