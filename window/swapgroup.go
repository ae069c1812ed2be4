// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package window

import "sync/atomic"

// SwapGroup coordinates buffer presentation across every window of a
// frame group. Only one window per frame performs a real vsync swap;
// the others present by blitting their back buffer to the front
// buffer, so N windows never serialize N vsync waits.
//
// The orchestrator resets the group once per frame, before any window
// swaps; windows then claim presentation slots in swap order.
type SwapGroup struct {
	counter atomic.Int64
}

// Reset starts a new frame group. Must not race with Claim.
func (g *SwapGroup) Reset() {
	g.counter.Store(0)
}

// Claim returns this window's presentation slot in the current frame
// group, starting at 0. The window claiming slot 0 performs the vsync
// swap.
func (g *SwapGroup) Claim() int {
	return int(g.counter.Add(1)) - 1
}
