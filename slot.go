// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import "code.hybscloud.com/atomix"

// emptyRank marks a slot with no published payload.
const emptyRank = int64(-1)

// claimedRank is the short-lived exclusive-claim state a CAS-based producer
// (MPMC/MPSC) passes through between winning the empty slot and
// publishing its payload. It exists so two producers racing the same index
// at disjoint ranks can never both believe they own the slot's data field.
const claimedRank = int64(-2)

// SGSlot is a ring slot with rank and gap stored as two independent 64-bit
// atomics. That is enough for SPSC and SPMC: in both disciplines only the
// single producer publishes a rank or raises a gap (consumers only reset rank
// to empty after draining), so rank and gap never need to change together in
// one indivisible step. Exported only so callers can pre-allocate a slot
// array and hand it to an SPSC/SPMC ring via WithSGBuffer; its fields carry
// no public API.
type SGSlot[T any] struct {
	rank atomix.Int64
	gap  atomix.Int64
	data T
}

// Slot128 packs rank and gap into one 128-bit atomic word so a single CAS
// can observe and update both together — required once more than one
// producer can race the same slot, as in MPSC and MPMC: a producer losing
// the race needs to raise the slot's gap without ever letting a concurrent
// winner's rank write appear torn. entry's low word holds rank's bit
// pattern (reinterpreted as uint64), the high word holds gap's. Exported
// only so callers can pre-allocate a slot array and hand it to an MPSC/MPMC
// ring via WithPackedBuffer; its fields carry no public API.
type Slot128[T any] struct {
	entry atomix.Uint128
	data  T
}

func (s *Slot128[T]) loadRankGap() (rank, gap int64) {
	lo, hi := s.entry.LoadAcquire()
	return int64(lo), int64(hi)
}

func (s *Slot128[T]) casRankGap(rank, gap, newRank, newGap int64) bool {
	return s.entry.CompareAndSwapAcqRel(uint64(rank), uint64(gap), uint64(newRank), uint64(newGap))
}

func (s *Slot128[T]) storeRankGap(rank, gap int64) {
	s.entry.StoreRelease(uint64(rank), uint64(gap))
}
