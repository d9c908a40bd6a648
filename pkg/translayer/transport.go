// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

// Transport owns a single serial endpoint, one transmission buffer, one
// reception buffer, and one residual buffer (spec.md §5). It is
// single-threaded and non-reentrant: callers sharing a Transport across
// goroutines must serialize access externally.
type Transport struct {
	cfg      Config
	crc      *CRC
	port     SerialPort
	clock    Clock
	tx       *TransmissionBuffer
	rx       *ReceptionBuffer
	residual Residual
}

// New constructs a Transport bound to port, allocating both buffers once.
// clock may be nil, in which case a real monotonic clock is used.
func New(cfg Config, port SerialPort, clock Clock) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if port == nil {
		return nil, newErrorf(ErrNotConnected, "serial port is nil")
	}

	crc, err := NewCRC(cfg.CrcWidth, cfg.Polynomial, cfg.InitialValue, cfg.FinalXor)
	if err != nil {
		return nil, err
	}

	if clock == nil {
		clock = NewRealClock()
	}

	rxCapacity := int(cfg.MaxRxPayloadSize) + overheadSize + crc.ByteWidth()

	return &Transport{
		cfg:   cfg,
		crc:   crc,
		port:  port,
		clock: clock,
		tx:    newTransmissionBuffer(cfg.MaxTxPayloadSize),
		rx:    newReceptionBuffer(rxCapacity),
	}, nil
}

// Config returns the transport's immutable configuration.
func (t *Transport) Config() Config { return t.cfg }

// StageTx writes k = len(p) bytes into the transmission buffer at offset i
// (spec.md §4.3); it does not send anything.
func (t *Transport) StageTx(i int, p []byte) error {
	return t.tx.Write(i, p)
}

// TxUsed returns the length of the currently staged outbound payload.
func (t *Transport) TxUsed() int { return t.tx.Used() }

// RxUsed returns the length of the most recently decoded inbound payload.
func (t *Transport) RxUsed() int { return t.rx.Used() }

// RxPayload returns the most recently decoded inbound payload bytes.
func (t *Transport) RxPayload() []byte { return t.rx.Payload() }

// ResetTx clears the staged outbound payload length without zeroing memory.
func (t *Transport) ResetTx() { t.tx.Reset() }

// ResetRx clears the decoded inbound payload length without zeroing memory.
func (t *Transport) ResetRx() { t.rx.Reset() }

// ResidualLen reports how many bytes carried over from the last Receive
// are still pending reprocessing on the next call.
func (t *Transport) ResidualLen() int { return t.residual.Len() }

// RxCapacity returns the physical size of the reception buffer:
// max_rx_payload_size plus the COBS overhead and CRC byte counts.
func (t *Transport) RxCapacity() int { return t.rx.Capacity() }

// Available reports whether at least one full minimal frame could be
// obtained right now: min_rx_payload_size bytes of payload plus framing
// overhead (start + size + overhead + delim + CRC). It never reads from
// the port, only observes InWaiting plus any held Residual.
func (t *Transport) Available() (bool, error) {
	waiting, err := t.port.InWaiting()
	if err != nil {
		return false, newErrorf(ErrReadFailed, "in_waiting: %v", err)
	}
	total := waiting + t.residual.Len()
	minFrame := preambleSize + int(t.cfg.MinRxPayloadSize) + overheadSize + t.crc.ByteWidth()
	return total >= minFrame, nil
}

// Send builds a packet from the staged transmission buffer and writes it
// to the serial port in a single operation (spec.md §4.7).
func (t *Transport) Send() (bool, error) {
	packet, err := buildPacket(t.cfg, t.crc, t.tx.Bytes())
	if err != nil {
		return false, err
	}

	n, err := t.port.Write(packet)
	if err != nil {
		return false, newErrorf(ErrWriteFailed, "write: %v", err)
	}
	if n != len(packet) {
		return false, newErrorf(ErrWriteFailed, "short write: wrote %d of %d bytes", n, len(packet))
	}

	return true, nil
}

// Receive runs the receiver state machine followed by the validator.
// It returns true iff a full, valid packet is now in the reception buffer
// (available via RxPayload/RxUsed); false with a nil error means nothing
// was currently obtainable (only reachable when AllowStartByteErrors is
// false); any other error is reported to the caller directly, per
// spec.md §7's no-retry policy.
func (t *Transport) Receive() (bool, error) {
	return t.receive()
}
