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

// MPMC is a multi-producer multi-consumer bounded ring.
//
// Every slot packs its rank and gap into one 128-bit word (Slot128) so a
// producer can claim an empty slot with a single CAS and a consumer can
// release a drained one with a single 128-bit store, never observing a torn
// rank/gap pair. A producer that
// loses the race for a slot raises that slot's gap to its own rank before
// moving on, so any consumer still waiting on the old rank knows to skip
// ahead instead of spinning forever on a rank nobody will ever publish.
type MPMC[T any] struct {
	_          pad
	head       atomix.Int64 // next rank a consumer will attempt (FAA)
	_          pad
	tail       atomix.Int64 // next rank a producer will attempt (FAA)
	_          pad
	buffer     []Slot128[T]
	mask       uint64
	randomized bool
	cooperative bool
}

// NewMPMC creates an MPMC ring. Capacity rounds up to the next power of 2.
func NewMPMC[T any](capacity int) *MPMC[T] {
	return NewMPMCOpts[T](capacity, Options{})
}

// NewMPMCOpts creates an MPMC ring with explicit Options.
func NewMPMCOpts[T any](capacity int, opts Options) *MPMC[T] {
	n := uint64(roundToPow2(capacity))
	checkCapacity(n, opts.randomized)
	buf := newSlots[Slot128[T]](n, opts.buffer)
	for i := range buf {
		buf[i].storeRankGap(emptyRank, emptyRank)
	}
	return &MPMC[T]{
		buffer:      buf,
		mask:        n - 1,
		randomized:  opts.randomized,
		cooperative: opts.cooperativeYield,
	}
}

// Cap returns the ring capacity.
func (q *MPMC[T]) Cap() int { return int(q.mask + 1) }

func (q *MPMC[T]) String() string {
	return fmt.Sprintf("MPMC(%p){head=%d tail=%d cap=%d}", q, q.head.LoadRelaxed(), q.tail.LoadRelaxed(), q.Cap())
}

// EnqueueRetries publishes elem. Any number of goroutines may call it
// concurrently. A producer that loses a slot to contention raises the
// slot's gap and claims the next rank instead of retrying the same one;
// it always eventually succeeds and returns (1, nil) — there is no
// producer-side ErrWouldBlock in this discipline.
func (q *MPMC[T]) EnqueueRetries(elem *T) (int, error) {
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
func (q *MPMC[T]) Enqueue(elem *T) error {
	_, err := q.EnqueueRetries(elem)
	return err
}

func (q *MPMC[T]) elementAvailable() bool {
	head := q.head.LoadRelaxed()
	idx := slotIndex(uint64(head), q.mask, q.randomized)
	rank, gap := q.buffer[idx].loadRankGap()
	return rank == head || gap >= head
}

// Dequeue is the non-blocking drain: a peek at the current head rank that
// returns ErrWouldBlock if it is neither published nor gapped past.
// Implements [Consumer].
func (q *MPMC[T]) Dequeue() (T, error) {
	if !q.elementAvailable() {
		var zero T
		return zero, ErrWouldBlock
	}
	v, _ := q.dequeueBackoff()
	return v, nil
}

// DequeueWait is the blocking drain (`mpmc_dequeue_backoff`).
func (q *MPMC[T]) DequeueWait() (T, int) {
	return q.dequeueBackoff()
}

func (q *MPMC[T]) dequeueBackoff() (T, int) {
	sw := spin.Wait{}
	r := 0
	for {
		h := q.head.AddAcqRel(1) - 1
		idx := slotIndex(uint64(h), q.mask, q.randomized)
		cell := &q.buffer[idx]

		skip := false
		for {
			rank, gap := cell.loadRankGap()
			if rank == h {
				elem := cell.data
				var zero T
				cell.data = zero
				cell.storeRankGap(emptyRank, gap)
				return elem, r + 1
			}
			if gap >= h {
				skip = true
				break
			}
			backoff(ClassMPMC, uint64(r), &sw, q.cooperative)
			r++
		}
		if skip {
			continue
		}
	}
}

// MPMCIndirect is an MPMC ring for uintptr handles.
type MPMCIndirect struct {
	inner *MPMC[uintptr]
}

// NewMPMCIndirect creates an MPMC ring for uintptr values.
func NewMPMCIndirect(capacity int) *MPMCIndirect {
	return &MPMCIndirect{inner: NewMPMC[uintptr](capacity)}
}

func (q *MPMCIndirect) Enqueue(elem uintptr) error               { return q.inner.Enqueue(&elem) }
func (q *MPMCIndirect) EnqueueRetries(elem uintptr) (int, error) { return q.inner.EnqueueRetries(&elem) }
func (q *MPMCIndirect) Dequeue() (uintptr, error)                { return q.inner.Dequeue() }
func (q *MPMCIndirect) DequeueWait() (uintptr, int)              { return q.inner.DequeueWait() }
func (q *MPMCIndirect) Cap() int                                 { return q.inner.Cap() }
func (q *MPMCIndirect) String() string                           { return q.inner.String() }

// MPMCPtr is an MPMC ring for unsafe.Pointer values.
type MPMCPtr struct {
	inner *MPMC[unsafe.Pointer]
}

// NewMPMCPtr creates an MPMC ring for unsafe.Pointer values.
func NewMPMCPtr(capacity int) *MPMCPtr {
	return &MPMCPtr{inner: NewMPMC[unsafe.Pointer](capacity)}
}

func (q *MPMCPtr) Enqueue(elem unsafe.Pointer) error               { return q.inner.Enqueue(&elem) }
func (q *MPMCPtr) EnqueueRetries(elem unsafe.Pointer) (int, error) { return q.inner.EnqueueRetries(&elem) }
func (q *MPMCPtr) Dequeue() (unsafe.Pointer, error)                { return q.inner.Dequeue() }
func (q *MPMCPtr) DequeueWait() (unsafe.Pointer, int)              { return q.inner.DequeueWait() }
func (q *MPMCPtr) Cap() int                                        { return q.inner.Cap() }
func (q *MPMCPtr) String() string                                  { return q.inner.String() }
