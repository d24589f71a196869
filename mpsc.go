// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"fmt"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPSC is a multi-producer single-consumer bounded ring.
//
// Enqueue uses the same claim-and-gap CAS protocol as [MPMC] — any number
// of producers may call it concurrently. Dequeue has no FAA: with a single
// consumer, head only ever advances from that one goroutine, so it is read
// and advanced with relaxed loads and stores instead of a fetch-and-add.
// Retries on both sides are tallied under
// [ClassMPMC], since the contention they measure — concurrent producers
// racing slots — is the same phenomenon.
type MPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // single-consumer-owned, not contended
	_          pad
	tail       atomix.Int64 // next rank a producer will attempt (FAA)
	_          pad
	buffer     []Slot128[T]
	mask       uint64
	randomized bool
	cooperative bool
}

// NewMPSC creates an MPSC ring. Capacity rounds up to the next power of 2.
func NewMPSC[T any](capacity int) *MPSC[T] {
	return NewMPSCOpts[T](capacity, Options{})
}

// NewMPSCOpts creates an MPSC ring with explicit Options.
func NewMPSCOpts[T any](capacity int, opts Options) *MPSC[T] {
	n := uint64(roundToPow2(capacity))
	checkCapacity(n, opts.randomized)
	buf := newSlots[Slot128[T]](n, opts.buffer)
	for i := range buf {
		buf[i].storeRankGap(emptyRank, emptyRank)
	}
	return &MPSC[T]{
		buffer:      buf,
		mask:        n - 1,
		randomized:  opts.randomized,
		cooperative: opts.cooperativeYield,
	}
}

// Cap returns the ring capacity.
func (q *MPSC[T]) Cap() int { return int(q.mask + 1) }

func (q *MPSC[T]) String() string {
	return fmt.Sprintf("MPSC(%p){head=%d tail=%d cap=%d}", q, q.head.LoadRelaxed(), q.tail.LoadRelaxed(), q.Cap())
}

// EnqueueRetries publishes elem. Any number of goroutines may call it
// concurrently; it always eventually succeeds and returns (1, nil).
func (q *MPSC[T]) EnqueueRetries(elem *T) (int, error) {
	sw := spin.Wait{}
	t := q.tail.AddAcqRel(1) - 1
	for {
		idx := slotIndex(uint64(t), q.mask, q.randomized)
		cell := &q.buffer[idx]
		rank, gap := cell.loadRankGap()

		switch {
		case gap >= t:
			// Some earlier contender already marked this rank abandoned;
			// move on without charging a second skip for it.
			t = q.tail.AddAcqRel(1) - 1
		case rank == claimedRank:
			sw.Once()
		case rank >= 0:
			cell.casRankGap(rank, gap, rank, t)
			globalStats.recordEnqueueSkipped(ClassMPMC)
			t = q.tail.AddAcqRel(1) - 1
		default:
			if !cell.casRankGap(rank, gap, claimedRank, gap) {
				continue
			}
			cell.data = *elem
			cell.storeRankGap(t, gap)
			return 1, nil
		}
	}
}

// Enqueue publishes elem. Implements [Producer].
func (q *MPSC[T]) Enqueue(elem *T) error {
	_, err := q.EnqueueRetries(elem)
	return err
}

func (q *MPSC[T]) elementAvailable() bool {
	head := q.head.LoadRelaxed()
	idx := slotIndex(head, q.mask, q.randomized)
	rank, gap := q.buffer[idx].loadRankGap()
	return rank == int64(head) || gap >= int64(head)
}

// Dequeue is the non-blocking drain (consumer only). Implements [Consumer].
func (q *MPSC[T]) Dequeue() (T, error) {
	if !q.elementAvailable() {
		var zero T
		return zero, ErrWouldBlock
	}
	v, _ := q.dequeueBackoff()
	return v, nil
}

// DequeueWait is the blocking drain (consumer only).
func (q *MPSC[T]) DequeueWait() (T, int) {
	return q.dequeueBackoff()
}

func (q *MPSC[T]) dequeueBackoff() (T, int) {
	head := q.head.LoadRelaxed()
	idx := slotIndex(head, q.mask, q.randomized)
	cell := &q.buffer[idx]

	r := 0
	sw := spin.Wait{}
	for {
		rank, gap := cell.loadRankGap()
		if rank == int64(head) {
			elem := cell.data
			var zero T
			cell.data = zero
			cell.storeRankGap(emptyRank, gap)
			q.head.StoreRelaxed(head + 1)
			return elem, r + 1
		}
		if gap >= int64(head) {
			head++
			q.head.StoreRelaxed(head)
			idx = slotIndex(head, q.mask, q.randomized)
			cell = &q.buffer[idx]
			continue
		}
		backoff(ClassMPMC, uint64(r), &sw, q.cooperative)
		r++
	}
}

// MPSCIndirect is an MPSC ring for uintptr handles.
type MPSCIndirect struct {
	inner *MPSC[uintptr]
}

// NewMPSCIndirect creates an MPSC ring for uintptr values.
func NewMPSCIndirect(capacity int) *MPSCIndirect {
	return &MPSCIndirect{inner: NewMPSC[uintptr](capacity)}
}

func (q *MPSCIndirect) Enqueue(elem uintptr) error               { return q.inner.Enqueue(&elem) }
func (q *MPSCIndirect) EnqueueRetries(elem uintptr) (int, error) { return q.inner.EnqueueRetries(&elem) }
func (q *MPSCIndirect) Dequeue() (uintptr, error)                { return q.inner.Dequeue() }
func (q *MPSCIndirect) DequeueWait() (uintptr, int)              { return q.inner.DequeueWait() }
func (q *MPSCIndirect) Cap() int                                 { return q.inner.Cap() }
func (q *MPSCIndirect) String() string                           { return q.inner.String() }

// MPSCPtr is an MPSC ring for unsafe.Pointer values.
type MPSCPtr struct {
	inner *MPSC[unsafe.Pointer]
}

// NewMPSCPtr creates an MPSC ring for unsafe.Pointer values.
func NewMPSCPtr(capacity int) *MPSCPtr {
	return &MPSCPtr{inner: NewMPSC[unsafe.Pointer](capacity)}
}

func (q *MPSCPtr) Enqueue(elem unsafe.Pointer) error               { return q.inner.Enqueue(&elem) }
func (q *MPSCPtr) EnqueueRetries(elem unsafe.Pointer) (int, error) { return q.inner.EnqueueRetries(&elem) }
func (q *MPSCPtr) Dequeue() (unsafe.Pointer, error)                { return q.inner.Dequeue() }
func (q *MPSCPtr) DequeueWait() (unsafe.Pointer, int)              { return q.inner.DequeueWait() }
func (q *MPSCPtr) Cap() int                                        { return q.inner.Cap() }
func (q *MPSCPtr) String() string                                  { return q.inner.String() }
