/*
NAME
  bitreader_test.go

DESCRIPTION
  bitreader_test.go provides testing for bitreader.go.

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
)

func TestBitReaderReadBits(t *testing.T) {
	// 0x8f, 0xe3 = 1000 1111, 1110 0011.
	r := newBitReader([]byte{0x8f, 0xe3})

	for _, want := range []struct {
		n int
		v uint32
	}{
		{4, 0x8},
		{2, 0x3},
		{4, 0xf},
		{6, 0x23},
	} {
		got, err := r.ReadBits(want.n)
		if err != nil {
			t.Fatalf("ReadBits(%d): unexpected error: %v", want.n, err)
		}
		if got != want.v {
			t.Errorf("ReadBits(%d) = 0x%x, want 0x%x", want.n, got, want.v)
		}
	}
}

func TestBitReaderReadBit(t *testing.T) {
	r := newBitReader([]byte{0xA0}) // 1010 0000.
	want := []int{1, 0, 1, 0}
	for i, w := range want {
		got, err := r.ReadBit()
		if err != nil {
			t.Fatalf("ReadBit() %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("ReadBit() %d = %d, want %d", i, got, w)
		}
	}
}

func TestBitReaderPastEnd(t *testing.T) {
	r := newBitReader([]byte{0xFF})
	if _, err := r.ReadBits(9); !errors.Is(err, errShortRead) {
		t.Errorf("ReadBits(9) on 1 byte: got err %v, want errShortRead", err)
	}
}

func TestBitReaderSkipBits(t *testing.T) {
	r := newBitReader([]byte{0xF0, 0x0F})
	if err := r.SkipBits(4); err != nil {
		t.Fatalf("SkipBits(4): unexpected error: %v", err)
	}
	got, err := r.ReadBits(8)
	if err != nil {
		t.Fatalf("ReadBits(8): unexpected error: %v", err)
	}
	if got != 0x00 {
		t.Errorf("ReadBits(8) after skip = 0x%x, want 0x00", got)
	}
}

func TestByteReaderLE(t *testing.T) {
	r := newByteReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05})

	u8, err := r.readU8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("readU8() = %v, %v, want 0x01, nil", u8, err)
	}

	le16, err := r.readLE16()
	if err != nil || le16 != 0x0302 {
		t.Fatalf("readLE16() = 0x%x, %v, want 0x0302, nil", le16, err)
	}

	buf, err := r.readBuffer(2)
	if err != nil || len(buf) != 2 || buf[0] != 0x04 || buf[1] != 0x05 {
		t.Fatalf("readBuffer(2) = %v, %v, want [4 5], nil", buf, err)
	}

	if _, err := r.readU8(); !errors.Is(err, errShortRead) {
		t.Errorf("readU8() past end: got %v, want errShortRead", err)
	}
}

func TestByteReaderLE32(t *testing.T) {
	r := newByteReader([]byte{0x78, 0x56, 0x34, 0x12})
	v, err := r.readLE32()
	if err != nil {
		t.Fatalf("readLE32(): unexpected error: %v", err)
	}
	if v != 0x12345678 {
		t.Errorf("readLE32() = 0x%x, want 0x12345678", v)
	}
}

func TestReadValue(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want int
	}{
		{"single byte", []byte{5}, 5},
		{"one 0xff", []byte{0xFF, 3}, 0xFF + 3},
		{"two 0xff", []byte{0xFF, 0xFF, 1}, 0xFF*2 + 1},
		{"terminal 0xff itself impossible", []byte{0xFF, 0}, 0xFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := readValue(newByteReader(c.buf))
			if err != nil {
				t.Fatalf("readValue(): unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("readValue() = %d, want %d", got, c.want)
			}
		})
	}
}
