// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

import "time"

// Clock abstracts the monotonic microsecond clock the receive loop's
// timeout policy depends on. Production code uses realClock; tests inject
// a VirtualClock so staleness is deterministic (spec.md §9).
type Clock interface {
	NowUS() uint64
	// Sleep pauses for the given duration. The receive loop calls this
	// with short, bounded intervals (<=100us granularity) so the timeout
	// is honored regardless of the underlying serial driver.
	Sleep(d time.Duration)
}

type realClock struct{ start time.Time }

// NewRealClock returns a Clock backed by the OS monotonic clock.
func NewRealClock() Clock {
	return &realClock{start: time.Now()}
}

func (c *realClock) NowUS() uint64 {
	return uint64(time.Since(c.start).Microseconds())
}

func (c *realClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// VirtualClock is a manually-advanced Clock for deterministic tests. Sleep
// advances the clock by the requested duration instead of blocking, so
// timeout-driven scenarios run instantly.
type VirtualClock struct {
	nowUS uint64
}

// NewVirtualClock returns a VirtualClock starting at t0 microseconds.
func NewVirtualClock(t0 uint64) *VirtualClock {
	return &VirtualClock{nowUS: t0}
}

func (c *VirtualClock) NowUS() uint64 {
	return c.nowUS
}

func (c *VirtualClock) Sleep(d time.Duration) {
	c.nowUS += uint64(d.Microseconds())
}

// Advance moves the clock forward by us microseconds without sleeping.
func (c *VirtualClock) Advance(us uint64) {
	c.nowUS += us
}
