// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package translayer

import (
	"bytes"
	"testing"
)

func TestTransmissionBuffer_WriteAdvancesUsed(t *testing.T) {
	buf := newTransmissionBuffer(8)

	if err := buf.Write(0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Used() != 3 {
		t.Fatalf("Used() = %d, want 3", buf.Used())
	}

	// Overwriting earlier bytes must not shrink Used.
	if err := buf.Write(0, []byte{9}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Used() != 3 {
		t.Fatalf("Used() after overwrite = %d, want 3 (unchanged)", buf.Used())
	}
	if !bytes.Equal(buf.Bytes(), []byte{9, 2, 3}) {
		t.Errorf("Bytes() = %v, want [9 2 3]", buf.Bytes())
	}

	// Writing further out advances Used to the new high-water mark.
	if err := buf.Write(5, []byte{7, 8}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Used() != 7 {
		t.Fatalf("Used() = %d, want 7", buf.Used())
	}

	buf.Reset()
	if buf.Used() != 0 {
		t.Fatalf("Used() after Reset = %d, want 0", buf.Used())
	}
}

func TestTransmissionBuffer_WriteOutOfBounds(t *testing.T) {
	buf := newTransmissionBuffer(4)
	if err := buf.Write(2, []byte{1, 2, 3}); err == nil {
		t.Error("expected out-of-bounds write to fail")
	}
	if err := buf.Write(-1, []byte{1}); err == nil {
		t.Error("expected negative offset write to fail")
	}
}

func TestReceptionBuffer_PayloadBoundedByUsed(t *testing.T) {
	buf := newReceptionBuffer(8)
	copy(buf.raw(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	buf.setUsed(3)

	if !bytes.Equal(buf.Payload(), []byte{1, 2, 3}) {
		t.Errorf("Payload() = %v, want [1 2 3]", buf.Payload())
	}

	buf.Reset()
	if buf.Used() != 0 {
		t.Errorf("Used() after Reset = %d, want 0", buf.Used())
	}
}

func TestResidual_SetTakeClear(t *testing.T) {
	var r Residual
	if r.Len() != 0 {
		t.Fatalf("new Residual should be empty")
	}

	r.Set([]byte{1, 2, 3})
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	taken := r.Take()
	if !bytes.Equal(taken, []byte{1, 2, 3}) {
		t.Errorf("Take() = %v, want [1 2 3]", taken)
	}
	if r.Len() != 0 {
		t.Errorf("Residual should be empty after Take")
	}

	r.Set([]byte{9})
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Residual should be empty after Clear")
	}
}

func TestResidual_SetCopiesInput(t *testing.T) {
	var r Residual
	src := []byte{1, 2, 3}
	r.Set(src)
	src[0] = 0xFF
	if r.Take()[0] == 0xFF {
		t.Error("Residual.Set must not alias the caller's backing array")
	}
}
