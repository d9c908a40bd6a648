// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

// parseStatus is the tagged result of driving the parser forward with
// whatever bytes are currently available. Modeling this as a pure function
// over accumulated bytes (spec.md §9 design note) — rather than as hidden
// state on Transport — keeps the receiver easy to test and to drive across
// multiple, arbitrarily-chunked reads.
type parseStatus int

const (
	// parseNeedStart: the start byte has not yet been located in the
	// accumulated bytes.
	parseNeedStart parseStatus = iota
	// parseNeedSize: the start byte was found; one more byte is required
	// to learn payload_size.
	parseNeedSize
	// parseNeedBody: payload_size is known; Remaining more bytes are
	// required to complete the frame.
	parseNeedBody
	// parseDone: the full packet has been captured.
	parseDone
	// parseError: a terminal error occurred; Err is set.
	parseError
)

// parseState is the explicit, re-entrant state of an in-progress parse. It
// is held by Transport.receive across calls to parseStep so a partial
// packet's progress survives the successive reads within one Receive call;
// each Receive call starts from a fresh state.
type parseState struct {
	status     parseStatus
	packetSize int // overhead+delim bytes = payload_size+2; 0 until known
	payloadSz  int
	captured   []byte // [overhead][COBS payload][delim][CRC] bytes captured so far
	Err        *Error
}

func newParseState() parseState {
	return parseState{status: parseNeedStart}
}

// parseResult is returned by parseStep: the updated state, the unconsumed
// tail of the input (leftover) to present again on the next call, and how
// many more bytes (remaining) are needed to complete the current phase (0
// when Done or on error; 1 while the start byte or size byte is still
// awaited).
type parseResult struct {
	state     parseState
	leftover  []byte // unconsumed tail of the input, carried to Residual
	remaining int    // bytes still needed to complete the current phase
}

// parseStep drives the parser with (accumulated bytes, prior state),
// locating the start byte, resolving payload_size, and capturing the body
// per spec.md §4.5. It never blocks; it only inspects the bytes given.
func parseStep(cfg Config, crcByteWidth int, input []byte, prev parseState) parseResult {
	st := prev
	buf := input

	switch st.status {
	case parseNeedStart:
		idx := -1
		for i, b := range buf {
			if b == cfg.StartByte {
				idx = i
				break
			}
		}
		if idx == -1 {
			// No start byte anywhere in the drained bytes.
			if cfg.AllowStartByteErrors {
				return parseResult{
					state:    parseState{status: parseError, Err: newErrorf(ErrStartByteNotFound, "start byte 0x%02X not found in %d drained bytes", cfg.StartByte, len(buf))},
					leftover: nil,
				}
			}
			return parseResult{state: newParseState(), leftover: nil, remaining: 1}
		}
		// Discard noise before the start byte; continue with size phase
		// using whatever followed it in this same batch.
		rest := buf[idx+1:]
		next := parseState{status: parseNeedSize}
		return continueNeedSize(cfg, crcByteWidth, rest, next)

	case parseNeedSize:
		return continueNeedSize(cfg, crcByteWidth, buf, st)

	case parseNeedBody:
		return continueNeedBody(crcByteWidth, buf, st)

	default:
		// Done/Error states are terminal; callers reset before calling
		// again, so re-entering here would be a caller bug. Treat
		// defensively as needing a fresh start.
		return parseResult{state: newParseState(), leftover: buf}
	}
}

func continueNeedSize(cfg Config, crcByteWidth int, buf []byte, st parseState) parseResult {
	if len(buf) == 0 {
		return parseResult{state: st, leftover: nil, remaining: 1}
	}

	size := buf[0]
	rest := buf[1:]

	if int(size) < int(cfg.MinRxPayloadSize) || int(size) > int(cfg.MaxRxPayloadSize) {
		return parseResult{
			state: parseState{status: parseError, Err: newErrorf(ErrInvalidPayloadSize, "payload_size %d outside [%d,%d]", size, cfg.MinRxPayloadSize, cfg.MaxRxPayloadSize)},
		}
	}

	packetSize := int(size) + overheadSize
	next := parseState{
		status:     parseNeedBody,
		packetSize: packetSize,
		payloadSz:  int(size),
		captured:   make([]byte, 0, packetSize+crcByteWidth),
	}
	return continueNeedBody(crcByteWidth, rest, next)
}

func continueNeedBody(crcByteWidth int, buf []byte, st parseState) parseResult {
	total := st.packetSize + crcByteWidth
	need := total - len(st.captured)

	if need <= 0 {
		// Already complete (shouldn't normally recurse here with nothing
		// to do, but handle defensively).
		st.status = parseDone
		return parseResult{state: st, leftover: buf}
	}

	take := need
	if take > len(buf) {
		take = len(buf)
	}

	st.captured = append(st.captured, buf[:take]...)
	leftover := buf[take:]
	remaining := total - len(st.captured)

	if remaining == 0 {
		st.status = parseDone
		return parseResult{state: st, leftover: leftover, remaining: 0}
	}

	return parseResult{state: st, leftover: leftover, remaining: remaining}
}
