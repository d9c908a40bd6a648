// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

import "time"

// pollInterval bounds how finely the receive loop re-checks for new bytes
// while waiting within the inter-byte timeout window (spec.md §5: a
// cooperative sleep of <=100us granularity, not a blocking read).
const pollInterval = 50 * time.Microsecond

// scanChunk is the read size the receiver requests when the parser has not
// asked for a specific byte count (at the start of a receive). Every read
// is enlarged to whatever InWaiting reports if that is more, so scanChunk
// is a minimum request size, not an upper bound.
const scanChunk = 64

// receive drains t.port (prefixed by any held Residual), runs it through
// the parser state machine and then the validator, and reports whether a
// full valid packet now sits in t.rx. A (false, nil) result means no
// packet was obtainable right now but nothing went wrong (only possible
// when AllowStartByteErrors is false); any non-nil error is terminal for
// this call and both rx and Residual are reset per spec.md §7.
func (t *Transport) receive() (bool, error) {
	cfg := t.cfg
	crcWidth := t.crc.ByteWidth()

	state := newParseState()
	pending := t.residual.Take()
	lastByteTimeUS := t.clock.NowUS()
	remaining := 0

	for {
		if len(pending) == 0 {
			avail, err := t.port.InWaiting()
			if err != nil {
				t.residual.Clear()
				t.rx.Reset()
				return false, newErrorf(ErrReadFailed, "in_waiting: %v", err)
			}

			want := remaining
			if want <= 0 {
				want = scanChunk
			}
			if avail > want {
				want = avail
			}
			if want == 0 {
				want = 1
			}

			buf := make([]byte, want)
			n, err := t.port.Read(buf)
			if err != nil {
				t.residual.Clear()
				t.rx.Reset()
				return false, newErrorf(ErrReadFailed, "read: %v", err)
			}
			pending = buf[:n]
		}

		if len(pending) == 0 {
			if state.status == parseNeedStart {
				// Absence of data is reported immediately before a start
				// byte has been found; the timeout does not apply here.
				t.residual.Clear()
				if cfg.AllowStartByteErrors {
					t.rx.Reset()
					return false, newErrorf(ErrStartByteNotFound, "start byte 0x%02X not found", cfg.StartByte)
				}
				return false, nil
			}

			if t.clock.NowUS()-lastByteTimeUS >= cfg.TimeoutUS {
				t.residual.Clear()
				t.rx.Reset()
				if state.status == parseNeedSize {
					return false, newErrorf(ErrStaleSize, "timed out after %dus waiting for payload_size byte", cfg.TimeoutUS)
				}
				return false, newErrorf(ErrStaleBody, "timed out after %dus waiting for packet body", cfg.TimeoutUS)
			}

			t.clock.Sleep(pollInterval)
			continue
		}

		result := parseStep(cfg, crcWidth, pending, state)
		lastByteTimeUS = t.clock.NowUS()
		state = result.state
		pending = result.leftover
		remaining = result.remaining

		switch state.status {
		case parseDone:
			t.residual.Set(pending)
			if _, err := validatePacket(t.crc, cfg.DelimiterByte, state.captured, t.rx); err != nil {
				t.rx.Reset()
				t.residual.Clear()
				return false, err
			}
			return true, nil

		case parseError:
			t.rx.Reset()
			t.residual.Clear()
			return false, state.Err

		case parseNeedStart:
			// Start byte still not found in this batch (e.g. the entire
			// batch was noise); loop back and pull more bytes.
			continue

		default: // parseNeedSize, parseNeedBody
			continue
		}
	}
}
