// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import "unsafe"

// Options configures ring construction. The zero value is the default:
// linear addressing, nanosleep-based backoff, library-allocated buffer.
type Options struct {
	randomized       bool
	cooperativeYield bool
	cacheLineAligned bool
	buffer           any
}

// Builder provides fluent configuration for ring construction, mirroring
// how the addressing/backoff/buffer knobs in the ring protocol compose.
//
// Example:
//
//	q := ringq.BuildMPMC[Job](ringq.New(4096).Randomized())
type Builder struct {
	capacity int
	opts     Options
}

// New creates a ring builder with the given capacity (in slots; rounds up
// to the next power of two, panics if < 2).
func New(capacity int) *Builder {
	if capacity < 2 {
		panic("ringq: capacity must be >= 2")
	}
	return &Builder{capacity: capacity}
}

// Randomized enables address-randomized slot indexing: the low byte of the
// rank is bit-swapped before masking, disrupting false-sharing patterns
// under adversarial access patterns. Requires capacity >= 256; Build panics
// otherwise.
func (b *Builder) Randomized() *Builder {
	b.opts.randomized = true
	return b
}

// CooperativeYield replaces the whole backoff escalation (pause, then
// nanosleep) with a single runtime.Gosched call. Use inside a cooperatively
// scheduled environment where a real sleep would surrender the processor
// for longer than necessary.
func (b *Builder) CooperativeYield() *Builder {
	b.opts.cooperativeYield = true
	return b
}

// CacheLineAligned requests that, beyond the mandatory head/tail/buffer
// cache-line separation every ring already has, individual slots are also
// isolated to their own cache line. This is a documentation-level hint in
// this implementation (see DESIGN.md) rather than a distinct slot layout:
// Go generics cannot conditionally size a struct per instantiation of T
// without duplicating every ring type. Ring-level alignment — the part the
// invariants require — is unconditional.
func (b *Builder) CacheLineAligned() *Builder {
	b.opts.cacheLineAligned = true
	return b
}

// WithSGBuffer supplies a pre-allocated slot array for an SPSC or SPMC
// ring, instead of having the constructor allocate one. Its length must
// equal the builder's capacity rounded up to the next power of two; round
// the capacity up yourself or just pass a buffer sized to a capacity you
// already know is a power of two.
func WithSGBuffer[T any](b *Builder, buf []SGSlot[T]) *Builder {
	b.opts.buffer = buf
	return b
}

// WithPackedBuffer supplies a pre-allocated slot array for an MPSC or MPMC
// ring, instead of having the constructor allocate one. Its length must
// equal the builder's capacity rounded up to the next power of two.
func WithPackedBuffer[T any](b *Builder, buf []Slot128[T]) *Builder {
	b.opts.buffer = buf
	return b
}

// producerConsumerBuilder records the producer-count/consumer-count
// constraints set via the SingleProducer/SingleConsumer methods below; the
// BuildXxx functions check them against the discipline they construct.
//
// Selection:
//
//	SingleProducer + SingleConsumer → SPSC
//	SingleProducer only             → SPMC
//	SingleConsumer only             → MPSC
//	Neither                         → MPMC
type producerConsumerBuilder struct {
	*Builder
	singleProducer bool
	singleConsumer bool
}

// SingleProducer declares exactly one goroutine will enqueue.
func (b *Builder) SingleProducer() *producerConsumerBuilder {
	return &producerConsumerBuilder{Builder: b, singleProducer: true}
}

// SingleConsumer declares exactly one goroutine will dequeue.
func (b *Builder) SingleConsumer() *producerConsumerBuilder {
	return &producerConsumerBuilder{Builder: b, singleConsumer: true}
}

// SingleConsumer narrows a SingleProducer builder to SPSC.
func (b *producerConsumerBuilder) SingleConsumer() *producerConsumerBuilder {
	b.singleConsumer = true
	return b
}

// SingleProducer narrows a SingleConsumer builder to SPSC.
func (b *producerConsumerBuilder) SingleProducer() *producerConsumerBuilder {
	b.singleProducer = true
	return b
}

// BuildSPSC creates an SPSC ring with compile-time type safety. Panics
// unless the builder was configured with SingleProducer().SingleConsumer().
func BuildSPSC[T any](b *producerConsumerBuilder) *SPSC[T] {
	if !b.singleProducer || !b.singleConsumer {
		panic("ringq: BuildSPSC requires SingleProducer().SingleConsumer()")
	}
	return NewSPSCOpts[T](b.capacity, b.opts)
}

// BuildSPMC creates an SPMC ring. Panics unless configured with
// SingleProducer() and not SingleConsumer().
func BuildSPMC[T any](b *producerConsumerBuilder) *SPMC[T] {
	if !b.singleProducer || b.singleConsumer {
		panic("ringq: BuildSPMC requires SingleProducer() without SingleConsumer()")
	}
	return NewSPMCOpts[T](b.capacity, b.opts)
}

// BuildMPSC creates an MPSC ring. Panics unless configured with
// SingleConsumer() and not SingleProducer().
func BuildMPSC[T any](b *producerConsumerBuilder) *MPSC[T] {
	if b.singleProducer || !b.singleConsumer {
		panic("ringq: BuildMPSC requires SingleConsumer() without SingleProducer()")
	}
	return NewMPSCOpts[T](b.capacity, b.opts)
}

// BuildMPMC creates an MPMC ring from a plain (unconstrained) builder.
func BuildMPMC[T any](b *Builder) *MPMC[T] {
	return NewMPMCOpts[T](b.capacity, b.opts)
}

// roundToPow2 rounds n up to the next power of 2. It panics if n < 2.
func roundToPow2(n int) int {
	if n < 2 {
		panic("ringq: capacity must be >= 2")
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache-line padding used to keep head and tail (and the buffer
// pointer) on separate cache lines, preventing false sharing between
// producer and consumer.
type pad [64]byte

// slotIndex maps a rank to a physical slot index. The default is a plain
// modulo-capacity fold; the randomized scheme bit-swaps the low byte of the
// rank first, which still preserves the modulo-capacity property (required
// for capacity >= 256) while disrupting false-sharing access patterns.
func slotIndex(rank, mask uint64, randomized bool) uint64 {
	if !randomized {
		return rank & mask
	}
	return (rank & (mask ^ 0xFF)) | ((rank & 0x0F) << 4) | ((rank & 0xF0) >> 4)
}

// newSlots returns buf if non-nil (after validating its length), else
// allocates a fresh slice of n slots.
func newSlots[T any](n uint64, buf any) []T {
	if buf == nil {
		return make([]T, n)
	}
	s, ok := buf.([]T)
	if !ok {
		panic("ringq: buffer type does not match the ring's slot type")
	}
	if uint64(len(s)) != n {
		panic("ringq: buffer length must equal capacity rounded up to a power of two")
	}
	return s
}

func checkCapacity(n uint64, randomized bool) {
	if randomized && n < 256 {
		panic("ringq: Randomized() requires capacity >= 256")
	}
}
