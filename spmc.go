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

// SPMC is a single-producer multi-consumer bounded ring.
//
// The producer never blocks: when it finds the next slot still occupied it
// marks the slot's gap and moves on to the rank after it, so one Enqueue
// call may burn several ranks. Consumers claim ranks with a
// fetch-and-add on head and race each other for slots; a consumer that
// claimed a rank the producer gapped past abandons it and claims the next
// one. FIFO order across consumers is not guaranteed — only that every
// published value is eventually drained exactly once.
type SPMC[T any] struct {
	_          pad
	head       atomix.Uint64 // next rank a consumer will claim (FAA)
	_          pad
	tail       atomix.Uint64 // advisory: producer-local, only visible here for diagnostics
	_          pad
	buffer     []SGSlot[T]
	mask       uint64
	randomized bool
	cooperative bool
}

// NewSPMC creates an SPMC ring. Capacity rounds up to the next power of 2.
func NewSPMC[T any](capacity int) *SPMC[T] {
	return NewSPMCOpts[T](capacity, Options{})
}

// NewSPMCOpts creates an SPMC ring with explicit Options.
func NewSPMCOpts[T any](capacity int, opts Options) *SPMC[T] {
	n := uint64(roundToPow2(capacity))
	checkCapacity(n, opts.randomized)
	buf := newSlots[SGSlot[T]](n, opts.buffer)
	for i := range buf {
		buf[i].rank.StoreRelaxed(emptyRank)
		buf[i].gap.StoreRelaxed(emptyRank)
	}
	return &SPMC[T]{
		buffer:      buf,
		mask:        n - 1,
		randomized:  opts.randomized,
		cooperative: opts.cooperativeYield,
	}
}

// Cap returns the ring capacity.
func (q *SPMC[T]) Cap() int { return int(q.mask + 1) }

func (q *SPMC[T]) String() string {
	return fmt.Sprintf("SPMC(%p){head=%d tail=%d cap=%d}", q, q.head.LoadRelaxed(), q.tail.LoadRelaxed(), q.Cap())
}

// EnqueueRetries publishes elem (single producer only). The ring never
// rejects an enqueue on the producer's own account — it burns gapped ranks
// until it finds an empty slot — so it always returns (1, nil).
func (q *SPMC[T]) EnqueueRetries(elem *T) (int, error) {
	t := q.tail.LoadRelaxed()
	for {
		idx := slotIndex(t, q.mask, q.randomized)
		cell := &q.buffer[idx]
		if cell.rank.LoadAcquire() < 0 {
			cell.data = *elem
			cell.rank.StoreRelease(int64(t))
			break
		}
		cell.gap.StoreRelease(int64(t))
		globalStats.recordEnqueueSkipped(ClassSPMC)
		t++
	}
	q.tail.StoreRelaxed(t + 1)
	return 1, nil
}

// Enqueue publishes elem (single producer only). Implements [Producer].
func (q *SPMC[T]) Enqueue(elem *T) error {
	_, err := q.EnqueueRetries(elem)
	return err
}

func (q *SPMC[T]) elementAvailable() bool {
	head := q.head.LoadRelaxed()
	idx := slotIndex(head, q.mask, q.randomized)
	cell := &q.buffer[idx]
	return cell.rank.LoadAcquire() == int64(head) || cell.gap.LoadAcquire() >= int64(head)
}

// Dequeue is the non-blocking drain. It peeks the head slot without
// claiming a rank; if neither a matching rank nor a gap covering it is
// present, it returns ErrWouldBlock. A peek that looks promising can still
// race with another consumer before the claiming backoff variant runs —
// that is harmless, since [DequeueWait] will simply re-claim past it.
// Implements [Consumer].
func (q *SPMC[T]) Dequeue() (T, error) {
	if !q.elementAvailable() {
		var zero T
		return zero, ErrWouldBlock
	}
	v, _ := q.dequeueBackoff()
	return v, nil
}

// DequeueWait is the blocking drain (`spmc_dequeue_backoff`).
func (q *SPMC[T]) DequeueWait() (T, int) {
	return q.dequeueBackoff()
}

func (q *SPMC[T]) dequeueBackoff() (T, int) {
	sw := spin.Wait{}
	r := 0
	for {
		rank := q.head.AddAcqRel(1) - 1
		idx := slotIndex(rank, q.mask, q.randomized)
		cell := &q.buffer[idx]

		reclaimed := false
		for cell.rank.LoadAcquire() != int64(rank) {
			if cell.gap.LoadAcquire() >= int64(rank) {
				if cell.rank.LoadAcquire() != int64(rank) {
					reclaimed = true
				}
				break
			}
			backoff(ClassSPMC, uint64(r), &sw, q.cooperative)
			r++
		}
		if reclaimed {
			continue
		}

		elem := cell.data
		var zero T
		cell.data = zero
		cell.rank.StoreRelease(emptyRank)
		return elem, r + 1
	}
}

// SPMCIndirect is an SPMC ring for uintptr handles.
type SPMCIndirect struct {
	inner *SPMC[uintptr]
}

// NewSPMCIndirect creates an SPMC ring for uintptr values.
func NewSPMCIndirect(capacity int) *SPMCIndirect {
	return &SPMCIndirect{inner: NewSPMC[uintptr](capacity)}
}

func (q *SPMCIndirect) Enqueue(elem uintptr) error                 { return q.inner.Enqueue(&elem) }
func (q *SPMCIndirect) EnqueueRetries(elem uintptr) (int, error)   { return q.inner.EnqueueRetries(&elem) }
func (q *SPMCIndirect) Dequeue() (uintptr, error)                  { return q.inner.Dequeue() }
func (q *SPMCIndirect) DequeueWait() (uintptr, int)                { return q.inner.DequeueWait() }
func (q *SPMCIndirect) Cap() int                                   { return q.inner.Cap() }
func (q *SPMCIndirect) String() string                             { return q.inner.String() }

// SPMCPtr is an SPMC ring for unsafe.Pointer values.
type SPMCPtr struct {
	inner *SPMC[unsafe.Pointer]
}

// NewSPMCPtr creates an SPMC ring for unsafe.Pointer values.
func NewSPMCPtr(capacity int) *SPMCPtr {
	return &SPMCPtr{inner: NewSPMC[unsafe.Pointer](capacity)}
}

func (q *SPMCPtr) Enqueue(elem unsafe.Pointer) error               { return q.inner.Enqueue(&elem) }
func (q *SPMCPtr) EnqueueRetries(elem unsafe.Pointer) (int, error) { return q.inner.EnqueueRetries(&elem) }
func (q *SPMCPtr) Dequeue() (unsafe.Pointer, error)                { return q.inner.Dequeue() }
func (q *SPMCPtr) DequeueWait() (unsafe.Pointer, int)              { return q.inner.DequeueWait() }
func (q *SPMCPtr) Cap() int                                        { return q.inner.Cap() }
func (q *SPMCPtr) String() string                                  { return q.inner.String() }
