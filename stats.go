// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"fmt"
	"io"

	"code.hybscloud.com/atomix"
)

// RetryClass selects which statistics bucket a backoff retry is charged to,
// and whether the sleep-priority skew applies (SPMC only; see [Stats]).
type RetryClass int

const (
	// ClassSPSC charges single-producer single-consumer retries.
	ClassSPSC RetryClass = iota + 1
	// ClassSPMC charges single-producer multi-consumer retries.
	// This is the only class the priority-skew backoff term applies to.
	ClassSPMC
	// ClassMPMC charges multi-producer multi-consumer retries (also used
	// for MPSC, which shares the same CAS-claim producer contention).
	ClassMPMC
)

// retryBuckets is the number of histogram buckets: powers of ten from
// 10^0 through 10^11.
const retryBuckets = 12

// Stats holds the process-wide queue statistics described in the ring
// protocol's statistics component: per-discipline retry histograms, gap
// event counters, and an error counter for misuse of the stats API itself.
// All fields are updated with acquire-release atomic adds; Stats is safe for
// concurrent use from any number of producer/consumer goroutines.
type Stats struct {
	spscEnqueueDelayed atomix.Uint64
	spmcEnqueueSkipped atomix.Uint64
	mpmcEnqueueSkipped atomix.Uint64

	spscRetries [retryBuckets]atomix.Uint64
	spmcRetries [retryBuckets]atomix.Uint64
	mpmcRetries [retryBuckets]atomix.Uint64

	errors atomix.Uint64

	// sleeping is the process-wide count of callers currently parked in a
	// nanosleep backoff. New sleepers read it to compute their priority
	// skew (see backoff.go); it is otherwise advisory.
	sleeping atomix.Int64
}

// globalStats is the single process-wide instance every ring updates.
var globalStats Stats

// GlobalStats returns the process-wide statistics singleton shared by every
// ring created in this process.
func GlobalStats() *Stats {
	return &globalStats
}

// SleepingCount returns the number of goroutines currently parked in a
// nanosleep backoff tier, process-wide. Exposed for diagnostics only; it is
// not part of the core queue contract.
func (s *Stats) SleepingCount() int {
	return int(s.sleeping.LoadRelaxed())
}

// Reset zeroes every counter. Intended for test isolation between cases
// that assert on specific counter values.
func (s *Stats) Reset() {
	s.spscEnqueueDelayed.StoreRelaxed(0)
	s.spmcEnqueueSkipped.StoreRelaxed(0)
	s.mpmcEnqueueSkipped.StoreRelaxed(0)
	for i := range s.spscRetries {
		s.spscRetries[i].StoreRelaxed(0)
	}
	for i := range s.spmcRetries {
		s.spmcRetries[i].StoreRelaxed(0)
	}
	for i := range s.mpmcRetries {
		s.mpmcRetries[i].StoreRelaxed(0)
	}
	s.errors.StoreRelaxed(0)
}

// recordEnqueueDelayed bumps the SPSC "slot was still busy" counter.
func (s *Stats) recordEnqueueDelayed() {
	s.spscEnqueueDelayed.AddAcqRel(1)
}

// recordEnqueueSkipped bumps the per-class gap-event counter.
func (s *Stats) recordEnqueueSkipped(class RetryClass) {
	switch class {
	case ClassSPMC:
		s.spmcEnqueueSkipped.AddAcqRel(1)
	case ClassMPMC:
		s.mpmcEnqueueSkipped.AddAcqRel(1)
	default:
		s.errors.AddAcqRel(1)
	}
}

// recordRetry increments the histogram bucket for the largest power of ten
// less than or equal to n (n=0 records nothing: no retry occurred yet).
// An unrecognized class increments the global error counter instead.
func (s *Stats) recordRetry(class RetryClass, n uint64) {
	var buckets *[retryBuckets]atomix.Uint64
	switch class {
	case ClassSPSC:
		buckets = &s.spscRetries
	case ClassSPMC:
		buckets = &s.spmcRetries
	case ClassMPMC:
		buckets = &s.mpmcRetries
	default:
		s.errors.AddAcqRel(1)
		return
	}
	if n == 0 {
		return
	}
	idx := 0
	m := uint64(1)
	for i := 1; i < retryBuckets; i++ {
		next := m * 10
		if next > n {
			break
		}
		m = next
		idx = i
	}
	buckets[idx].AddAcqRel(1)
}

// Dump writes a formatted snapshot of every counter to w. It is a
// diagnostic aid, not part of the core contract, and safe to call
// concurrently with traffic.
func (s *Stats) Dump(w io.Writer) {
	fmt.Fprintln(w, "Single Producer / Single Consumer Queue Stats:")
	fmt.Fprintf(w, "  Slots delayed: %d (slot was still busy - should be: 0)\n", s.spscEnqueueDelayed.LoadRelaxed())
	dumpRetries(w, &s.spscRetries)

	fmt.Fprintln(w, "Single Producer / Multiple Consumer Queue Stats:")
	fmt.Fprintf(w, "  Slots skipped: %d (producer skipped a claimed slot)\n", s.spmcEnqueueSkipped.LoadRelaxed())
	dumpRetries(w, &s.spmcRetries)

	fmt.Fprintln(w, "Multiple Producer / Multiple Consumer Queue Stats:")
	fmt.Fprintf(w, "  Slots skipped: %d (producer skipped a claimed slot)\n", s.mpmcEnqueueSkipped.LoadRelaxed())
	dumpRetries(w, &s.mpmcRetries)

	fmt.Fprintf(w, "Errors: %d (should be: 0)\n", s.errors.LoadRelaxed())
}

func dumpRetries(w io.Writer, buckets *[retryBuckets]atomix.Uint64) {
	m := uint64(1)
	for i := 0; i < retryBuckets; i++ {
		if v := buckets[i].LoadRelaxed(); v > 0 {
			fmt.Fprintf(w, "  retries (>= %d): %d\n", m, v)
		}
		m *= 10
	}
}
