// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ringq provides bounded lock-free FIFO rings for word-sized
// payloads, built around a rank/gap slot protocol rather than sequence
// numbers or a free/full bitmask.
//
// Every slot remembers the producer rank that last published it; the rank
// doubles as the slot's version and its presence flag. A second field, the
// gap, lets a producer that cannot use a given rank advertise "skip ahead of
// here" to any consumer waiting on that rank, which is what
// lets SPMC/MPMC/MPSC avoid ever blocking a producer.
//
// Four disciplines are provided, chosen by who may call Enqueue/Dequeue
// concurrently:
//
//   - SPSC: Single-Producer Single-Consumer
//   - SPMC: Single-Producer Multi-Consumer
//   - MPSC: Multi-Producer Single-Consumer
//   - MPMC: Multi-Producer Multi-Consumer
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := ringq.NewSPSC[Event](1024)
//	q := ringq.NewMPMC[*Request](4096)
//
// The builder auto-selects a discipline from producer/consumer constraints:
//
//	q := ringq.BuildSPSC[Event](ringq.New(1024).SingleProducer().SingleConsumer())
//	q := ringq.BuildMPSC[Event](ringq.New(1024).SingleConsumer())
//	q := ringq.BuildSPMC[Event](ringq.New(1024).SingleProducer())
//	q := ringq.BuildMPMC[Event](ringq.New(1024))
//
// # Basic Usage
//
//	q := ringq.NewMPMC[int](1024)
//
//	value := 42
//	if err := q.Enqueue(&value); err != nil {
//	    // Not reached: no discipline returns a producer-side error. SPSC
//	    // backs off while its ring is full; SPMC/MPSC/MPMC skip to a
//	    // later rank.
//	}
//
//	elem, err := q.Dequeue()
//	if ringq.IsWouldBlock(err) {
//	    // ring is empty, try again later
//	}
//
// Every ring also exposes EnqueueRetries and DequeueWait, the retry-counted
// forms of Enqueue/Dequeue (`*_enqueue`/`*_dequeue_backoff` in the
// underlying protocol): EnqueueRetries returns the number of backoff rounds
// plus one (always 1 on SPMC/MPSC/MPMC, whose producers step over busy slots
// instead of waiting), DequeueWait blocks until an element is available and
// returns the number of backoff rounds that took plus one.
//
// # Common Patterns
//
// Pipeline stage (SPSC):
//
//	q := ringq.NewSPSC[Data](1024)
//
//	go func() { // producer
//	    for data := range input {
//	        q.Enqueue(&data) // backs off internally; never fails on full
//	    }
//	}()
//
//	go func() { // consumer
//	    for {
//	        data, err := q.Dequeue()
//	        if ringq.IsWouldBlock(err) {
//	            continue
//	        }
//	        process(data)
//	    }
//	}()
//
// Event aggregation (MPSC), multiple sources into one processor:
//
//	q := ringq.NewMPSC[Event](4096)
//
//	for _, s := range sensors {
//	    go func(s Sensor) {
//	        for ev := range s.Events() {
//	            q.Enqueue(&ev)
//	        }
//	    }(s)
//	}
//
//	go func() {
//	    for {
//	        ev, err := q.Dequeue()
//	        if err == nil {
//	            aggregate(ev)
//	        }
//	    }
//	}()
//
// Work distribution (SPMC), one dispatcher into a worker pool:
//
//	q := ringq.NewSPMC[Task](1024)
//
//	go func() {
//	    for task := range tasks {
//	        q.Enqueue(&task)
//	    }
//	}()
//
//	for i := 0; i < numWorkers; i++ {
//	    go func() {
//	        for {
//	            task, err := q.Dequeue()
//	            if err == nil {
//	                task.Execute()
//	            }
//	        }
//	    }()
//	}
//
// Worker pool (MPMC), many submitters into many workers:
//
//	q := ringq.NewMPMC[Job](4096)
//
//	for i := 0; i < numWorkers; i++ {
//	    go func() {
//	        for {
//	            job, err := q.Dequeue()
//	            if err == nil {
//	                job.Run()
//	            }
//	        }
//	    }()
//	}
//
//	func Submit(j Job) error { return q.Enqueue(&j) }
//
// # Queue Variants
//
// Three payload conventions are available:
//
//	NewSPSC[T], NewSPMC[T], NewMPSC[T], NewMPMC[T]  - generic, value copied in/out
//	*Indirect constructors                           - uintptr handles
//	*Ptr constructors                                - unsafe.Pointer, zero-copy
//
// Indirect rings suit index-based pools:
//
//	pool := make([][]byte, 1024)
//	freeList := ringq.NewSPSCIndirect(1024)
//	for i := range pool {
//	    pool[i] = make([]byte, 4096)
//	    freeList.Enqueue(uintptr(i))
//	}
//	idx, err := freeList.Dequeue()
//	buf := pool[idx]
//
// Ptr rings hand a pointer straight across without copying the pointee:
//
//	q := ringq.NewMPMCPtr(1024)
//	msg := &Message{Data: largePayload}
//	q.Enqueue(unsafe.Pointer(msg))
//	ptr, _ := q.Dequeue()
//	msg := (*Message)(ptr)
//
// # Algorithm Selection
//
// All four disciplines use n physical slots for capacity n — none
// over-allocate. What differs is the slot layout and the claim protocol:
//
//	SPSC: two independent 64-bit rank/gap atomics; producer never contends
//	      with another producer, so no CAS is needed to publish.
//	SPMC: same two-atomic slot as SPSC; the producer still never contends,
//	      but consumers fetch-and-add a shared head and may claim a rank the
//	      producer has already gapped past, so dequeue uses FAA-then-verify
//	      instead of a plain load.
//	MPSC: rank and gap packed into one 128-bit word so competing producers
//	      can CAS-claim a slot atomically; the single consumer needs no FAA.
//	MPMC: the 128-bit packed slot on both sides — producers CAS to claim,
//	      consumers FAA a shared head and release with a 128-bit store.
//
// Typed builder functions check the producer/consumer constraints each
// discipline requires when called, and panic on a mismatch:
//
//	BuildSPSC[T](b) → *SPSC[T]  // requires SingleProducer().SingleConsumer()
//	BuildSPMC[T](b) → *SPMC[T]  // requires SingleProducer() only
//	BuildMPSC[T](b) → *MPSC[T]  // requires SingleConsumer() only
//	BuildMPMC[T](b) → *MPMC[T]  // no constraints
//
// # Error Handling
//
// Dequeue (and nothing on the producer side, in any discipline) returns
// [ErrWouldBlock] when an operation cannot proceed without waiting. The
// error is sourced from [code.hybscloud.com/iox] for ecosystem consistency.
//
//	elem, err := q.Dequeue()
//	if ringq.IsWouldBlock(err) {
//	    // ring empty, retry later
//	} else if err != nil {
//	    return err
//	}
//
// For semantic classification (delegates to iox):
//
//	ringq.IsWouldBlock(err)  // true if ring empty
//	ringq.IsSemantic(err)    // true if control-flow signal
//	ringq.IsNonFailure(err)  // true if nil or ErrWouldBlock
//
// # Capacity and Length
//
// Capacity rounds up to the next power of 2:
//
//	q := ringq.NewMPMC[int](3)     // actual capacity: 4
//	q := ringq.NewMPMC[int](1000)  // actual capacity: 1024
//
// Minimum capacity is 2; New/NewXxx panic below that. Randomized()
// additionally requires capacity >= 256.
//
// Length is intentionally not provided: an accurate count in a lock-free
// ring requires cross-core synchronization no caller actually needs. Track
// counts in application logic if you need them.
//
// # Thread Safety
//
//   - SPSC: one producer goroutine, one consumer goroutine
//   - SPMC: one producer goroutine, multiple consumer goroutines
//   - MPSC: multiple producer goroutines, one consumer goroutine
//   - MPMC: multiple producer and consumer goroutines
//
// Violating these constraints (e.g. two producers on an SPSC ring) is
// undefined behavior: data corruption and lost wakeups, not a panic.
//
// # Statistics
//
// [GlobalStats] returns the process-wide retry/gap/error counters every
// ring updates as it runs; [Stats.Dump] renders them for diagnostics.
//
// # Race Detection
//
// Go's race detector is not designed for lock-free algorithm verification.
// It tracks explicit synchronization primitives (mutex, channel, WaitGroup)
// but cannot observe happens-before relationships established purely
// through atomic acquire/release orderings on the rank/gap words. These
// algorithms are correct; the detector may still report false positives
// because the synchronization it needs to see lives in memory ordering, not
// in a primitive it instruments.
//
// Tests incompatible with race detection are excluded via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering (including the 128-bit packed rank/gap CAS used by MPSC/MPMC),
// and [code.hybscloud.com/spin] for the CPU-pause/yield tier of the
// adaptive backoff engine, before it escalates to a scaled nanosleep.
package ringq
