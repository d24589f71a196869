// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq_test

import (
	"errors"
	"testing"
	"unsafe"

	"code.hybscloud.com/ringq"
)

func TestMPMCBasic(t *testing.T) {
	q := ringq.NewMPMC[int](3)

	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}

	for i := range 4 {
		v := i + 100
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	for i := range 4 {
		val, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i+100)
		}
	}

	if _, err := q.Dequeue(); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestMPMCIndirectBasic(t *testing.T) {
	q := ringq.NewMPMCIndirect(4)
	for i := range 4 {
		if err := q.Enqueue(uintptr(i)); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	for i := range 4 {
		v, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if v != uintptr(i) {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, v, i)
		}
	}
}

func TestMPMCPtrBasic(t *testing.T) {
	type msg struct{ n int }
	q := ringq.NewMPMCPtr(4)
	vals := make([]msg, 4)
	for i := range vals {
		vals[i].n = i
	}
	for i := range vals {
		if err := q.Enqueue(unsafe.Pointer(&vals[i])); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	got := make(map[int]bool, 4)
	for range vals {
		p, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		got[(*msg)(p).n] = true
	}
	for i := range vals {
		if !got[i] {
			t.Fatalf("value %d missing from dequeued set", i)
		}
	}
}

func TestEnqueueAlwaysSucceeds(t *testing.T) {
	// MPMC/SPMC/MPSC producers never observe ErrWouldBlock: a contended
	// slot is skipped (its gap raised) rather than rejected.
	q := ringq.NewMPMC[int](2)
	for i := range 2 {
		v := i
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if _, err := q.Dequeue(); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
}
