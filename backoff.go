// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"runtime"
	"time"

	"code.hybscloud.com/spin"
)

// Process-global backoff tunables, read-only once producer/consumer
// goroutines are running. Set these (if at all) during program
// initialization, before any ring is put under contention.
var (
	interarrivalNS = uint64(100)   // base nanosleep unit per retry period
	maxWaitPeriods = uint64(10000) // clamp on the retry count used to scale the sleep
	backoffStepNS  = uint64(10)    // per-sleeper priority skew added for ClassSPMC
)

// SetInterarrivalNS sets the base nanosleep unit multiplied by the retry
// count once a backoff escalates past the pure-spin tier. Default 100ns.
func SetInterarrivalNS(ns uint64) { interarrivalNS = ns }

// SetMaxWaitPeriods clamps how large a retry count is allowed to scale the
// nanosleep duration. Default 10000.
func SetMaxWaitPeriods(n uint64) { maxWaitPeriods = n }

// SetBackoffStepNS sets the per-currently-sleeping-caller skew added to a
// ClassSPMC backoff, in nanoseconds. Default 10.
func SetBackoffStepNS(ns uint64) { backoffStepNS = ns }

// backoff escalates from a CPU-pause/yield hint to a nanosleep that grows
// linearly with the retry count n (clamped at maxWaitPeriods), recording the retry in the global
// statistics. sw carries the pause/yield state across calls within a single
// caller's retry loop (a fresh spin.Wait per retry loop, not per call).
//
// cooperativeYield replaces the entire escalation with a single
// runtime.Gosched call, for embedding inside a cooperative scheduler where
// nanosleep would needlessly give up the processor.
func backoff(class RetryClass, n uint64, sw *spin.Wait, cooperativeYield bool) {
	globalStats.recordRetry(class, n)

	if cooperativeYield {
		runtime.Gosched()
		return
	}

	if n < 2 {
		sw.Once()
		return
	}

	if n > maxWaitPeriods {
		n = maxWaitPeriods
	}
	waitNS := interarrivalNS * n
	if class == ClassSPMC {
		priority := uint64(globalStats.sleeping.AddAcqRel(1) - 1)
		waitNS += priority * backoffStepNS
		time.Sleep(time.Duration(waitNS) * time.Nanosecond)
		globalStats.sleeping.AddAcqRel(-1)
		return
	}
	time.Sleep(time.Duration(waitNS) * time.Nanosecond)
}
