// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

// cobsEncode transforms payload (1..254 bytes) into an encoded block of
// len(payload)+2 bytes: [overhead][encoded...][delim]. The delimiter value
// never appears in [overhead][encoded...]; it appears exactly once, as the
// final byte. Runs are split on occurrences of delim, and each run-length
// code is stored XORed with delim so that no code can equal the delimiter
// (with delimiter 0 this is plain COBS).
func cobsEncode(payload []byte, delim byte) ([]byte, error) {
	n := len(payload)
	if n < MinPayloadSize {
		return nil, newErrorf(ErrPayloadTooShort, "payload length %d below minimum %d", n, MinPayloadSize)
	}
	if n > MaxPayloadSize {
		return nil, newErrorf(ErrPayloadTooLarge, "payload length %d exceeds maximum %d", n, MaxPayloadSize)
	}

	// codeIdx points at the overhead slot for the run currently being
	// written. Output grows dynamically because the number of overhead
	// bytes varies: a run can close early on a delimiter byte, or (only
	// possible when a payload longer than 254 bytes is chained, never
	// within this codec's own [1,254] bound) on hitting the 0xFF cap.
	out := make([]byte, 1, n+2)
	codeIdx := 0
	code := byte(1)

	for i := 0; i < n; i++ {
		b := payload[i]
		if b == delim {
			out[codeIdx] = code ^ delim
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF && i+1 < n {
			out[codeIdx] = code ^ delim
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code ^ delim
	out = append(out, delim)

	return out, nil
}

// cobsDecode reverses cobsEncode. encoded must be the full
// [overhead][encoded...][delim] block (length 3..256). The delimiter must
// appear exactly once, in the last position, and the overhead chain must
// walk exactly to it.
func cobsDecode(encoded []byte, delim byte) ([]byte, error) {
	n := len(encoded)
	if n < 3 {
		return nil, newErrorf(ErrPayloadTooShort, "encoded length %d below minimum 3", n)
	}
	if n > MaxPayloadSize+2 {
		return nil, newErrorf(ErrPayloadTooLarge, "encoded length %d exceeds maximum %d", n, MaxPayloadSize+2)
	}
	if encoded[n-1] != delim {
		return nil, newErrorf(ErrDelimiterMisplaced, "final byte 0x%02X is not the delimiter 0x%02X", encoded[n-1], delim)
	}

	out := make([]byte, 0, n-2)
	i := 0
	limit := n - 1 // index of the trailing delimiter; the chain must end exactly here
	for i < limit {
		code := encoded[i] ^ delim
		if code == 0 {
			return nil, newErrorf(ErrCorrupted, "zero-length run at offset %d", i)
		}
		runEnd := i + int(code)
		if runEnd > limit {
			return nil, newErrorf(ErrCorrupted, "run of length %d at offset %d walks past encoded block", code, i)
		}
		for j := i + 1; j < runEnd; j++ {
			if encoded[j] == delim {
				return nil, newErrorf(ErrCorrupted, "delimiter found mid-run at offset %d", j)
			}
			out = append(out, encoded[j])
		}
		if runEnd < limit && code != 0xFF {
			out = append(out, delim)
		}
		i = runEnd
	}
	if i != limit {
		return nil, newErrorf(ErrCorrupted, "decode chain ended at offset %d, expected %d", i, limit)
	}

	return out, nil
}
