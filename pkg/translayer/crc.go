// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

// CRC is a table-driven, non-reflected (MSB-first) CRC engine parameterized
// by register width, polynomial, initial value, and final XOR. One CRC
// instance is constructed per Transport; tables are never shared statically
// because the parameters are configurable per instance.
type CRC struct {
	width    CrcWidth
	poly     uint32
	initial  uint32
	finalXor uint32
	mask     uint32
	table    [256]uint32
}

// NewCRC builds a CRC engine for the given width/poly/init/finalXor,
// precomputing its 256-entry lookup table.
func NewCRC(width CrcWidth, poly, initial, finalXor uint32) (*CRC, error) {
	if !width.valid() {
		return nil, newErrorf(ErrBufferTooSmall, "unsupported CRC width: %d", width)
	}

	mask := widthMask(width)
	topBit := uint32(1) << (uint(width) - 1)

	c := &CRC{
		width:    width,
		poly:     poly & mask,
		initial:  initial & mask,
		finalXor: finalXor & mask,
		mask:     mask,
	}

	for i := 0; i < 256; i++ {
		reg := uint32(i) << (uint(width) - 8)
		for b := 0; b < 8; b++ {
			if reg&topBit != 0 {
				reg = (reg << 1) ^ c.poly
			} else {
				reg <<= 1
			}
		}
		c.table[i] = reg & mask
	}

	return c, nil
}

func widthMask(w CrcWidth) uint32 {
	if w == 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << uint(w)) - 1
}

// ByteWidth returns the number of bytes the checksum serializes to.
func (c *CRC) ByteWidth() int {
	return c.width.ByteWidth()
}

// Compute returns the width-bit checksum of data.
func (c *CRC) Compute(data []byte) uint32 {
	shift := uint(c.width) - 8
	crc := c.initial
	for _, b := range data {
		idx := (crc >> shift) ^ uint32(b)
		crc = ((crc << 8) ^ c.table[idx&0xFF]) & c.mask
	}
	return (crc ^ c.finalXor) & c.mask
}

// AppendCRC serializes Compute(data) in most-significant-byte-first order
// and appends it to dst, returning the extended slice. AppendCRC never
// fails: append grows dst as needed.
func (c *CRC) AppendCRC(dst []byte, data []byte) []byte {
	crc := c.Compute(data)
	n := c.ByteWidth()
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(crc>>(uint(i)*8)))
	}
	return dst
}

// Verify recomputes the checksum over message and compares it to the
// width-sized, MSB-first checksum appended immediately after it in
// withCRC. Equivalent in spirit to the "residue is zero" identity
// (CRC(message || CRC(message)) == 0) but implemented as a direct
// recompute-and-compare, which — unlike the residue trick — stays correct
// for any FinalXor, not only FinalXor == 0.
func (c *CRC) Verify(withCRC []byte) bool {
	n := c.ByteWidth()
	if len(withCRC) < n {
		return false
	}
	message := withCRC[:len(withCRC)-n]
	crcBytes := withCRC[len(withCRC)-n:]

	var want uint32
	for _, b := range crcBytes {
		want = (want << 8) | uint32(b)
	}

	return c.Compute(message) == want
}
