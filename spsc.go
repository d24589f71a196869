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

// SPSC is a single-producer single-consumer bounded ring.
//
// Each slot carries the producer rank that last published it: the rank is
// both the slot's version and its presence flag, so no separate full/empty
// bit is needed. Enqueue on a full SPSC ring does not return ErrWouldBlock —
// unlike the other three disciplines, which skip to a later rank, it backs
// off until the consumer frees the slot it needs, since with exactly one
// producer and one consumer that wait is always bounded by the consumer's
// own progress.
//
// Memory: O(capacity), one slot per logical element.
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // next rank the consumer will claim
	_          pad
	tail       atomix.Uint64 // next rank the producer will claim
	_          pad
	buffer     []SGSlot[T]
	mask       uint64
	randomized bool
	cooperative bool
}

// NewSPSC creates an SPSC ring. Capacity rounds up to the next power of 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	return NewSPSCOpts[T](capacity, Options{})
}

// NewSPSCOpts creates an SPSC ring with explicit Options.
func NewSPSCOpts[T any](capacity int, opts Options) *SPSC[T] {
	n := uint64(roundToPow2(capacity))
	checkCapacity(n, opts.randomized)
	buf := newSlots[SGSlot[T]](n, opts.buffer)
	for i := range buf {
		buf[i].rank.StoreRelaxed(emptyRank)
		buf[i].gap.StoreRelaxed(emptyRank)
	}
	return &SPSC[T]{
		buffer:      buf,
		mask:        n - 1,
		randomized:  opts.randomized,
		cooperative: opts.cooperativeYield,
	}
}

// Cap returns the ring capacity.
func (q *SPSC[T]) Cap() int { return int(q.mask + 1) }

// String renders a one-line diagnostic snapshot, e.g. for logs.
func (q *SPSC[T]) String() string {
	return fmt.Sprintf("SPSC(%p){head=%d tail=%d cap=%d}", q, q.head.LoadRelaxed(), q.tail.LoadRelaxed(), q.Cap())
}

func (q *SPSC[T]) elementAvailable() bool {
	head := q.head.LoadRelaxed()
	idx := slotIndex(head, q.mask, q.randomized)
	return q.buffer[idx].rank.LoadAcquire() == int64(head)
}

// EnqueueRetries publishes elem (producer only), backing off while the slot
// the next rank maps to is still occupied by an undrained item. Returns the
// number of retries performed plus one.
func (q *SPSC[T]) EnqueueRetries(elem *T) (int, error) {
	tail := q.tail.LoadRelaxed()
	idx := slotIndex(tail, q.mask, q.randomized)
	cell := &q.buffer[idx]

	r := 0
	if cell.rank.LoadAcquire() != emptyRank {
		globalStats.recordEnqueueDelayed()
		sw := spin.Wait{}
		for cell.rank.LoadAcquire() != emptyRank {
			backoff(ClassSPSC, uint64(r), &sw, q.cooperative)
			r++
		}
	}
	cell.data = *elem
	cell.rank.StoreRelease(int64(tail))
	q.tail.StoreRelaxed(tail + 1)
	return r + 1, nil
}

// Enqueue publishes elem (producer only). Implements [Producer].
func (q *SPSC[T]) Enqueue(elem *T) error {
	_, err := q.EnqueueRetries(elem)
	return err
}

// Dequeue is the non-blocking drain: it returns ErrWouldBlock immediately
// if the ring is empty instead of spinning. Implements [Consumer].
func (q *SPSC[T]) Dequeue() (T, error) {
	if !q.elementAvailable() {
		var zero T
		return zero, ErrWouldBlock
	}
	v, _ := q.dequeueBackoff()
	return v, nil
}

// DequeueWait is the blocking drain (`spsc_dequeue_backoff`): it spins/backs
// off until an element is available, returning it along with the retry
// count (1 if none were needed).
func (q *SPSC[T]) DequeueWait() (T, int) {
	return q.dequeueBackoff()
}

func (q *SPSC[T]) dequeueBackoff() (T, int) {
	head := q.head.LoadRelaxed()
	idx := slotIndex(head, q.mask, q.randomized)
	cell := &q.buffer[idx]

	r := 0
	sw := spin.Wait{}
	for cell.rank.LoadAcquire() != int64(head) {
		backoff(ClassSPSC, uint64(r), &sw, q.cooperative)
		r++
	}
	elem := cell.data
	var zero T
	cell.data = zero
	cell.rank.StoreRelease(emptyRank)
	q.head.StoreRelaxed(head + 1)
	return elem, r + 1
}

// SPSCIndirect is an SPSC ring for uintptr handles (pool indices, free
// lists) — the same protocol as [SPSC], specialized to avoid boxing a
// pointer around an already word-sized value.
type SPSCIndirect struct {
	inner *SPSC[uintptr]
}

// NewSPSCIndirect creates an SPSC ring for uintptr values.
func NewSPSCIndirect(capacity int) *SPSCIndirect {
	return &SPSCIndirect{inner: NewSPSC[uintptr](capacity)}
}

// Enqueue publishes elem (producer only).
func (q *SPSCIndirect) Enqueue(elem uintptr) error { return q.inner.Enqueue(&elem) }

// EnqueueRetries is the retry-counted form of Enqueue.
func (q *SPSCIndirect) EnqueueRetries(elem uintptr) (int, error) { return q.inner.EnqueueRetries(&elem) }

// Dequeue is the non-blocking drain.
func (q *SPSCIndirect) Dequeue() (uintptr, error) { return q.inner.Dequeue() }

// DequeueWait is the blocking drain.
func (q *SPSCIndirect) DequeueWait() (uintptr, int) { return q.inner.DequeueWait() }

// Cap returns the ring capacity.
func (q *SPSCIndirect) Cap() int { return q.inner.Cap() }

func (q *SPSCIndirect) String() string { return q.inner.String() }

// SPSCPtr is an SPSC ring for unsafe.Pointer values, for zero-copy handoff
// of a producer's object to the consumer.
type SPSCPtr struct {
	inner *SPSC[unsafe.Pointer]
}

// NewSPSCPtr creates an SPSC ring for unsafe.Pointer values.
func NewSPSCPtr(capacity int) *SPSCPtr {
	return &SPSCPtr{inner: NewSPSC[unsafe.Pointer](capacity)}
}

// Enqueue publishes elem (producer only). Ownership of the pointee
// transfers to the consumer; the producer must not touch it after this call.
func (q *SPSCPtr) Enqueue(elem unsafe.Pointer) error { return q.inner.Enqueue(&elem) }

// EnqueueRetries is the retry-counted form of Enqueue.
func (q *SPSCPtr) EnqueueRetries(elem unsafe.Pointer) (int, error) { return q.inner.EnqueueRetries(&elem) }

// Dequeue is the non-blocking drain.
func (q *SPSCPtr) Dequeue() (unsafe.Pointer, error) { return q.inner.Dequeue() }

// DequeueWait is the blocking drain.
func (q *SPSCPtr) DequeueWait() (unsafe.Pointer, int) { return q.inner.DequeueWait() }

// Cap returns the ring capacity.
func (q *SPSCPtr) Cap() int { return q.inner.Cap() }

func (q *SPSCPtr) String() string { return q.inner.String() }
