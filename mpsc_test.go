// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/ringq"
)

func TestMPSCBasic(t *testing.T) {
	q := ringq.NewMPSC[int](3)

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

func TestMPSCIndirectBasic(t *testing.T) {
	q := ringq.NewMPSCIndirect(4)
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

func TestBuilderAlgorithmSelection(t *testing.T) {
	b := ringq.New(16)

	if _, ok := any(ringq.BuildSPSC[int](b.SingleProducer().SingleConsumer())).(*ringq.SPSC[int]); !ok {
		t.Fatal("BuildSPSC did not return *SPSC[int]")
	}
	if _, ok := any(ringq.BuildSPMC[int](ringq.New(16).SingleProducer())).(*ringq.SPMC[int]); !ok {
		t.Fatal("BuildSPMC did not return *SPMC[int]")
	}
	if _, ok := any(ringq.BuildMPSC[int](ringq.New(16).SingleConsumer())).(*ringq.MPSC[int]); !ok {
		t.Fatal("BuildMPSC did not return *MPSC[int]")
	}
	if _, ok := any(ringq.BuildMPMC[int](ringq.New(16))).(*ringq.MPMC[int]); !ok {
		t.Fatal("BuildMPMC did not return *MPMC[int]")
	}
}

func TestBuilderPanicsOnMismatchedConstraints(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("BuildSPSC with only SingleProducer should panic")
		}
	}()
	ringq.BuildSPSC[int](ringq.New(16).SingleProducer())
}
