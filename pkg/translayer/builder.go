// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

// buildPacket assembles the wire packet from a staged payload of n bytes:
//
//	[start_byte][payload_size][overhead][COBS(payload, delim)...][delim][CRC]
//
// payload_size is emitted on both send and receive framing (see DESIGN.md's
// Open Question decision): the wire format table in spec.md §6 lists it in
// both directions, so the host always includes it.
func buildPacket(cfg Config, crc *CRC, payload []byte) ([]byte, error) {
	n := len(payload)
	if n == 0 {
		return nil, newErrorf(ErrEmptyPayload, "transmission buffer is empty")
	}
	if n > int(cfg.MaxTxPayloadSize) {
		return nil, newErrorf(ErrPayloadTooLarge, "staged payload %d exceeds max_tx_payload_size %d", n, cfg.MaxTxPayloadSize)
	}

	encoded, err := cobsEncode(payload, cfg.DelimiterByte)
	if err != nil {
		return nil, newErrorf(ErrEncodeFailed, "cobs encode: %v", err)
	}

	packet := make([]byte, 0, preambleSize+len(encoded)+crc.ByteWidth())
	packet = append(packet, cfg.StartByte, byte(n))
	packet = append(packet, encoded...)
	packet = crc.AppendCRC(packet, encoded)

	return packet, nil
}
