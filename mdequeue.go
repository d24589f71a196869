// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import "code.hybscloud.com/spin"

// MDequeue fans a single consumer in across several SPSC rings
// (`spsc_mdequeue`): it scans rings in order and drains the first whose head
// slot is ready. It preserves each ring's single-consumer invariant only if
// this is the sole caller dequeueing from any of them.
//
// If blocking is false and no ring is ready, it returns (zero, -1, 0);
// callers distinguish "empty" from "found" via the returned index (-1 means
// empty). If blocking is true, it backs off and rescans until one ring
// yields an element.
func MDequeue[T any](rings []*SPSC[T], blocking bool) (elem T, ring int, retries int) {
	sw := spin.Wait{}
	r := 0
	for {
		for i, q := range rings {
			if q.elementAvailable() {
				v, _ := q.dequeueBackoff()
				return v, i, r + 1
			}
		}
		if !blocking {
			var zero T
			return zero, -1, 0
		}
		backoff(ClassSPSC, uint64(r), &sw, false)
		r++
	}
}
