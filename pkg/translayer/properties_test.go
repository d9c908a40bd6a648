// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestProperty_COBSRoundTrip: ∀ payload p, 1 ≤ |p| ≤ 254, ∀ delimiter d:
// COBS_decode(COBS_encode(p, d), d) = p.
func TestProperty_COBSRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		delim := rapid.Byte().Draw(rt, "delim")
		payload := rapid.SliceOfN(rapid.Byte(), 1, 254).Draw(rt, "payload")

		encoded, err := cobsEncode(payload, delim)
		require.NoError(rt, err)

		decoded, err := cobsDecode(encoded, delim)
		require.NoError(rt, err)
		require.True(rt, bytes.Equal(decoded, payload), "round trip mismatch: got %v, want %v", decoded, payload)
	})
}

// TestProperty_CRCResidueIsZero: ∀ bytes b: CRC(b || MSB_bytes(CRC(b))) = 0.
func TestProperty_CRCResidueIsZero(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		width := rapid.SampledFrom([]CrcWidth{CrcWidth8, CrcWidth16, CrcWidth32}).Draw(rt, "width")
		data := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(rt, "data")

		crc, err := NewCRC(width, 0x1021, 0xFFFF, 0)
		require.NoError(rt, err)

		withCRC := crc.AppendCRC(append([]byte(nil), data...), data)
		require.Equal(rt, uint32(0), crc.Compute(withCRC), "CRC(data || CRC(data)) is not residue-zero")
	})
}

// TestProperty_SendReceiveRoundTrip: ∀ staged payload p: receive(send(p))
// yields a reception buffer whose first |p| bytes equal p and rx_used = |p|,
// over a lossless channel.
func TestProperty_SendReceiveRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 1, 254).Draw(rt, "payload")

		cfg := DefaultConfig()
		port := NewLoopback()
		tr, err := New(cfg, port, NewVirtualClock(0))
		require.NoError(rt, err)

		require.NoError(rt, tr.StageTx(0, payload))
		ok, err := tr.Send()
		require.NoError(rt, err)
		require.True(rt, ok)

		ok, err = tr.Receive()
		require.NoError(rt, err)
		require.True(rt, ok)
		require.Equal(rt, len(payload), tr.RxUsed())
		require.True(rt, bytes.Equal(tr.RxPayload(), payload))
	})
}

// TestProperty_TxUsedTracksHighWaterMark: for any write sequence to the
// transmission buffer at indices i1 < i2 < ..., tx_used after all writes
// equals max_k(i_k + l_k).
func TestProperty_TxUsedTracksHighWaterMark(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		const capacity = 64
		buf := newTransmissionBuffer(capacity)

		writeCount := rapid.IntRange(1, 10).Draw(rt, "writeCount")
		want := 0
		for i := 0; i < writeCount; i++ {
			offset := rapid.IntRange(0, capacity-1).Draw(rt, "offset")
			maxLen := capacity - offset
			length := rapid.IntRange(1, maxLen).Draw(rt, "length")

			err := buf.Write(offset, make([]byte, length))
			require.NoError(rt, err)
			if end := offset + length; end > want {
				want = end
			}
		}

		require.Equal(rt, want, buf.Used())
	})
}

// TestProperty_ByteStreamIdempotence: partitioning a received frame's bytes
// into any ordered sequence of chunks and calling the receiver across chunks
// yields the same outcome as a single-chunk delivery.
func TestProperty_ByteStreamIdempotence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := DefaultConfig()
		crc := testCRC(t)
		payload := rapid.SliceOfN(rapid.Byte(), 1, 254).Draw(rt, "payload")
		frame := buildFrame(t, cfg, crc, payload)

		chunkSizes := make([]int, 0)
		remaining := len(frame)
		for remaining > 0 {
			sz := rapid.IntRange(1, remaining).Draw(rt, "chunk")
			chunkSizes = append(chunkSizes, sz)
			remaining -= sz
		}

		state := newParseState()
		var leftover []byte
		offset := 0
		for _, sz := range chunkSizes {
			chunk := frame[offset : offset+sz]
			offset += sz
			input := append(append([]byte(nil), leftover...), chunk...)
			result := parseStep(cfg, crc.ByteWidth(), input, state)
			state = result.state
			leftover = result.leftover
		}

		require.Equal(rt, parseDone, state.status)

		rx := newReceptionBuffer(len(payload) + overheadSize + crc.ByteWidth())
		n, err := validatePacket(crc, cfg.DelimiterByte, state.captured, rx)
		require.NoError(rt, err)
		require.Equal(rt, len(payload), n)
		require.True(rt, bytes.Equal(rx.Payload(), payload))
	})
}
