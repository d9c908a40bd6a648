// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package translayer implements the host side of a bidirectional,
// packet-oriented serial transport used to exchange strictly typed binary
// payloads with a microcontroller peer. It owns payload staging buffers,
// COBS encode/decode, a configurable CRC engine, packet framing with a
// sentinel start byte and delimiter byte, and an incremental receive state
// machine tolerant of partial reads, stream noise, and inter-byte timeouts.
package translayer

// Framing bytes (defaults; overridable per Config).
const (
	DefaultStartByte     byte = 129
	DefaultDelimiterByte byte = 0
)

// Payload size bounds imposed by COBS: 0 is meaningless, 255 cannot be
// represented because the overhead byte itself is a payload byte value.
const (
	MinPayloadSize = 1
	MaxPayloadSize = 254
)

// CrcWidth is the bit width of the CRC register. Only 8, 16, and 32 are
// valid; all other widths are rejected by NewCRC.
type CrcWidth int

const (
	CrcWidth8  CrcWidth = 8
	CrcWidth16 CrcWidth = 16
	CrcWidth32 CrcWidth = 32
)

// ByteWidth returns the number of postamble bytes the CRC serializes to.
func (w CrcWidth) ByteWidth() int {
	return int(w) / 8
}

func (w CrcWidth) valid() bool {
	switch w {
	case CrcWidth8, CrcWidth16, CrcWidth32:
		return true
	default:
		return false
	}
}

// Config holds the immutable parameters of a Transport for its lifetime.
// Zero-value Config is invalid; use DefaultConfig as a starting point.
type Config struct {
	StartByte     byte
	DelimiterByte byte

	CrcWidth     CrcWidth
	Polynomial   uint32
	InitialValue uint32
	FinalXor     uint32

	MaxTxPayloadSize uint8
	MaxRxPayloadSize uint8
	MinRxPayloadSize uint8

	// TimeoutUS bounds the inter-byte gap (in microseconds) tolerated
	// while a packet is in progress on the receive path.
	TimeoutUS uint64

	// AllowStartByteErrors controls whether failing to locate the start
	// byte after draining available input is reported as StartByteNotFound
	// (true) or treated as "nothing to receive" (false).
	AllowStartByteErrors bool
}

// DefaultConfig returns the conventional CRC16-CCITT configuration used
// throughout this repository's tests and examples: start byte 0x81,
// delimiter 0x00, poly 0x1021, init 0xFFFF, xor-out 0x0000.
func DefaultConfig() Config {
	return Config{
		StartByte:            DefaultStartByte,
		DelimiterByte:        DefaultDelimiterByte,
		CrcWidth:             CrcWidth16,
		Polynomial:           0x1021,
		InitialValue:         0xFFFF,
		FinalXor:             0x0000,
		MaxTxPayloadSize:     MaxPayloadSize,
		MaxRxPayloadSize:     MaxPayloadSize,
		MinRxPayloadSize:     MinPayloadSize,
		TimeoutUS:            20000,
		AllowStartByteErrors: false,
	}
}

// Validate checks that the configuration is internally consistent,
// returning an error describing the first violation found.
func (c Config) Validate() error {
	if !c.CrcWidth.valid() {
		return newErrorf(ErrBufferTooSmall, "unsupported CRC width: %d", c.CrcWidth)
	}
	if c.MaxTxPayloadSize < MinPayloadSize || c.MaxTxPayloadSize > MaxPayloadSize {
		return newErrorf(ErrPayloadTooLarge, "max_tx_payload_size out of range [1,254]: %d", c.MaxTxPayloadSize)
	}
	if c.MaxRxPayloadSize < MinPayloadSize || c.MaxRxPayloadSize > MaxPayloadSize {
		return newErrorf(ErrInvalidPayloadSize, "max_rx_payload_size out of range [1,254]: %d", c.MaxRxPayloadSize)
	}
	if c.MinRxPayloadSize < 1 || c.MinRxPayloadSize > c.MaxRxPayloadSize {
		return newErrorf(ErrInvalidPayloadSize, "min_rx_payload_size out of range [1,%d]: %d", c.MaxRxPayloadSize, c.MinRxPayloadSize)
	}
	return nil
}

// overheadSize is the COBS overhead+delimiter added to an encoded payload.
const overheadSize = 2

// preambleSize is [start_byte][payload_size] on the wire.
const preambleSize = 2

// postambleSize returns the number of CRC bytes appended after the frame.
func postambleSize(w CrcWidth) int {
	return w.ByteWidth()
}
