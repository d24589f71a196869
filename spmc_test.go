// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/ringq"
)

func TestSPMCBasic(t *testing.T) {
	q := ringq.NewSPMC[int](3)

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

func TestSPMCIndirectBasic(t *testing.T) {
	q := ringq.NewSPMCIndirect(4)
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

func TestSPMCRandomizedRequiresMinCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Randomized() with capacity < 256 should panic")
		}
	}()
	b := ringq.New(64).Randomized().SingleProducer()
	ringq.BuildSPMC[int](b)
}

func TestMPMCRandomizedOk(t *testing.T) {
	b := ringq.New(256).Randomized()
	q := ringq.BuildMPMC[int](b)
	if q.Cap() != 256 {
		t.Fatalf("Cap: got %d, want 256", q.Cap())
	}
	v := 42
	if err := q.Enqueue(&v); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	got, err := q.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got != 42 {
		t.Fatalf("Dequeue: got %d, want 42", got)
	}
}
