// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

// SerialEndpoint adapts a go.bug.st/serial.Port to translayer.SerialPort.
// go.bug.st/serial does not expose a byte-count query on the underlying OS
// buffer across platforms, so InWaiting is approximated: a background
// goroutine performs short-timeout reads appended to a buffer, and InWaiting
// reports that buffer's length. This keeps the receive loop's
// bounded-reads/non-blocking contract (spec's transport facade) without
// requiring a per-platform buffered-bytes syscall.
type SerialEndpoint struct {
	port serial.Port

	mu     sync.Mutex
	buf    []byte
	closed bool
	pollErr error

	stop chan struct{}
	done chan struct{}
}

// OpenSerialEndpoint opens portName at baudRate and starts the background
// polling reader.
func OpenSerialEndpoint(portName string, baudRate int) (*SerialEndpoint, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(20 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	e := &SerialEndpoint{
		port: port,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go e.pollLoop()
	return e, nil
}

func (e *SerialEndpoint) pollLoop() {
	defer close(e.done)
	chunk := make([]byte, 256)
	for {
		select {
		case <-e.stop:
			return
		default:
		}

		n, err := e.port.Read(chunk)
		if err != nil {
			e.mu.Lock()
			e.pollErr = err
			e.mu.Unlock()
			return
		}
		if n == 0 {
			continue
		}

		e.mu.Lock()
		e.buf = append(e.buf, chunk[:n]...)
		e.mu.Unlock()
	}
}

// Read satisfies translayer.SerialPort: it copies whatever is currently
// buffered without blocking for more.
func (e *SerialEndpoint) Read(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pollErr != nil && len(e.buf) == 0 {
		return 0, e.pollErr
	}
	n := copy(p, e.buf)
	e.buf = e.buf[n:]
	return n, nil
}

// Write satisfies translayer.SerialPort: a single blocking write to the port.
func (e *SerialEndpoint) Write(p []byte) (int, error) {
	return e.port.Write(p)
}

// InWaiting reports the length of the background-filled buffer.
func (e *SerialEndpoint) InWaiting() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pollErr != nil && len(e.buf) == 0 {
		return 0, e.pollErr
	}
	return len(e.buf), nil
}

// Close stops the polling goroutine and closes the underlying port.
func (e *SerialEndpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	close(e.stop)
	<-e.done
	return e.port.Close()
}

var _ translayer.SerialPort = (*SerialEndpoint)(nil)
