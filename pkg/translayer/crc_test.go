// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

import "testing"

func TestCRC16CCITT_KnownCheckValue(t *testing.T) {
	crc, err := NewCRC(CrcWidth16, 0x1021, 0xFFFF, 0x0000)
	if err != nil {
		t.Fatalf("NewCRC: %v", err)
	}
	got := crc.Compute([]byte("123456789"))
	if got != 0x29B1 {
		t.Errorf("CRC-16-CCITT check value = 0x%04X, want 0x29B1", got)
	}
}

func TestCRC_EmptyInput(t *testing.T) {
	crc, err := NewCRC(CrcWidth16, 0x1021, 0xFFFF, 0x0000)
	if err != nil {
		t.Fatalf("NewCRC: %v", err)
	}
	if got := crc.Compute(nil); got != 0xFFFF {
		t.Errorf("CRC of empty input should equal the initial value, got 0x%04X", got)
	}
}

func TestCRC_Widths_AppendVerifyRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		width  CrcWidth
		poly   uint32
		init   uint32
		xorOut uint32
	}{
		{"CRC-8", CrcWidth8, 0x07, 0x00, 0x00},
		{"CRC-16-CCITT", CrcWidth16, 0x1021, 0xFFFF, 0x0000},
		{"CRC-32", CrcWidth32, 0x04C11DB7, 0xFFFFFFFF, 0xFFFFFFFF},
	}

	data := []byte{0x10, 0x30, 0x01, 0x02, 0x03, 0x04, 0x7E, 0x00}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			crc, err := NewCRC(c.width, c.poly, c.init, c.xorOut)
			if err != nil {
				t.Fatalf("NewCRC: %v", err)
			}
			if crc.ByteWidth() != c.width.ByteWidth() {
				t.Fatalf("ByteWidth() = %d, want %d", crc.ByteWidth(), c.width.ByteWidth())
			}

			withCRC := crc.AppendCRC(append([]byte(nil), data...), data)
			if len(withCRC) != len(data)+crc.ByteWidth() {
				t.Fatalf("AppendCRC length = %d, want %d", len(withCRC), len(data)+crc.ByteWidth())
			}
			if !crc.Verify(withCRC) {
				t.Errorf("Verify failed on freshly appended checksum")
			}

			corrupted := append([]byte(nil), withCRC...)
			corrupted[len(corrupted)-1] ^= 0xFF
			if crc.Verify(corrupted) {
				t.Errorf("Verify should fail when the last CRC byte is flipped")
			}
		})
	}
}

func TestCRC_InvalidWidth(t *testing.T) {
	if _, err := NewCRC(CrcWidth(12), 0x1021, 0xFFFF, 0x0000); err == nil {
		t.Error("expected error for unsupported CRC width")
	}
}

func TestCRC_Deterministic(t *testing.T) {
	crc, err := NewCRC(CrcWidth16, 0x1021, 0xFFFF, 0x0000)
	if err != nil {
		t.Fatalf("NewCRC: %v", err)
	}
	data := []byte{0x10, 0x30, 0x01, 0x02, 0x03, 0x04}
	if crc.Compute(data) != crc.Compute(data) {
		t.Error("CRC should be deterministic across calls")
	}
}
