// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

import (
	"sync"
)

// SerialPort is the narrow interface the core consumes from the external
// serial endpoint (spec.md §6). Port enumeration, open/close, and the
// actual byte-level I/O driver are out of core scope; this package only
// depends on this interface. cmd/serialendpoint.go implements it over
// go.bug.st/serial for production use.
type SerialPort interface {
	// Read copies up to len(p) currently-available bytes into p without
	// blocking beyond what the underlying driver itself does, and returns
	// the number of bytes copied.
	Read(p []byte) (int, error)
	// Write sends p in a single operation.
	Write(p []byte) (int, error)
	// InWaiting reports how many bytes are currently buffered for Read.
	InWaiting() (int, error)
	Close() error
}

// BytePipe is an in-memory, synchronous SerialPort that stands in for a
// real serial endpoint in tests and in cmd/replay.go. Reads
// are served from an inbound queue filled by Feed (simulating bytes
// arriving from the wire); writes are recorded separately in Sent so
// tests can assert on what a Send produced without it silently looping
// back into Read.
type BytePipe struct {
	mu     sync.Mutex
	inbound []byte
	Sent   []byte
}

// NewBytePipe returns an empty in-memory byte pipe.
func NewBytePipe() *BytePipe {
	return &BytePipe{}
}

// Feed appends bytes as if they had arrived from the wire, for test setup.
func (p *BytePipe) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbound = append(p.inbound, b...)
}

func (p *BytePipe) Read(dst []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(dst, p.inbound)
	p.inbound = p.inbound[n:]
	return n, nil
}

func (p *BytePipe) Write(src []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sent = append(p.Sent, src...)
	return len(src), nil
}

func (p *BytePipe) InWaiting() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inbound), nil
}

func (p *BytePipe) Close() error { return nil }

// Loopback wires writes back onto the inbound queue, modeling a transport
// whose Send feeds its own Receive — used by cmd/selftest.go to validate
// connectivity without a peer.
type Loopback struct {
	*BytePipe
}

// NewLoopback returns a SerialPort whose writes are immediately available
// to read back.
func NewLoopback() *Loopback {
	return &Loopback{BytePipe: NewBytePipe()}
}

func (l *Loopback) Write(src []byte) (int, error) {
	n, err := l.BytePipe.Write(src)
	if err != nil {
		return n, err
	}
	l.Feed(src)
	return n, nil
}
