// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package ringq

// RaceEnabled is true when the race detector is active.
// The concurrent tests do not read it; they are excluded from race builds
// by a //go:build !race constraint instead.
const RaceEnabled = true
