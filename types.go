// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import "unsafe"

// Queue is the combined producer-consumer interface for a FIFO ring.
//
// Queue provides Enqueue and a non-blocking Dequeue. Dequeue returns
// ErrWouldBlock when the ring is empty. No ring's Enqueue returns
// ErrWouldBlock: on a full ring SPSC backs off until the consumer frees a
// slot, and SPMC/MPSC/MPMC skip to a later rank.
//
// The interface intentionally excludes length because accurate counts in
// lock-free algorithms require expensive cross-core synchronization.
// Track counts in application logic when needed.
//
// Example:
//
//	q := ringq.NewMPMC[int](1024)
//
//	val := 42
//	if err := q.Enqueue(&val); err != nil {
//	    // Not reached for the rings in this package
//	}
//
//	elem, err := q.Dequeue()
//	if err == nil {
//	    fmt.Println(elem)
//	}
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Cap() int
}

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying large structs; the ring
// stores a copy of the pointed-to value, so the original may be modified
// after Enqueue returns.
type Producer[T any] interface {
	// Enqueue publishes an element. The rings in this package always
	// return nil; SPSC backs off while its ring is full.
	//
	// Thread safety depends on ring discipline:
	//   - SPSC/SPMC: single producer only
	//   - MPSC/MPMC: multiple producers safe
	Enqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements.
//
// Dequeue is non-blocking; every ring type also exposes a DequeueWait method
// (the `*_dequeue_backoff` operation) that spins/backs off until an element
// is available.
type Consumer[T any] interface {
	// Dequeue claims and returns the element at the head of the ring.
	// Returns (zero-value, ErrWouldBlock) if the ring is empty.
	//
	// Thread safety depends on ring discipline:
	//   - SPSC/MPSC: single consumer only
	//   - SPMC/MPMC: multiple consumers safe
	Dequeue() (T, error)
}

// QueueIndirect is the combined interface for index/handle (uintptr) rings.
//
// Useful for buffer pools and other index-based hand-off where the payload
// is a slot number rather than a value.
type QueueIndirect interface {
	ProducerIndirect
	ConsumerIndirect
	Cap() int
}

// ProducerIndirect enqueues uintptr values (see [Producer] for when Enqueue
// waits).
type ProducerIndirect interface {
	Enqueue(elem uintptr) error
}

// ConsumerIndirect dequeues uintptr values (non-blocking).
type ConsumerIndirect interface {
	Dequeue() (uintptr, error)
}

// QueuePtr is the combined interface for unsafe.Pointer rings.
//
// QueuePtr moves pointers directly without copying the pointee. Ownership of
// the pointed-to object transfers from producer to consumer on Enqueue; the
// producer must not touch it again after the call returns.
type QueuePtr interface {
	ProducerPtr
	ConsumerPtr
	Cap() int
}

// ProducerPtr enqueues unsafe.Pointer values (see [Producer] for when
// Enqueue waits).
type ProducerPtr interface {
	Enqueue(elem unsafe.Pointer) error
}

// ConsumerPtr dequeues unsafe.Pointer values (non-blocking).
type ConsumerPtr interface {
	Dequeue() (unsafe.Pointer, error)
}
