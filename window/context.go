// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package window

import (
	"log/slog"
	"sync"
)

// contextGuard models surface currency for a window. Render,
// SwapBuffers, and the surface-touching attribute setters each claim
// the surface for their scope; a nested claim (a setter invoked
// mid-render) is a no-op that still balances, so a window never
// deadlocks on itself. Window use is confined to the render
// goroutine; the guard tracks claim depth, it is not a cross-goroutine
// lock. Acquisition is scoped: acquire returns the matching release,
// which must run exactly once. A second release is logged and ignored.
type contextGuard struct {
	mu    sync.Mutex
	depth int
}

func newContextGuard() *contextGuard {
	return &contextGuard{}
}

func (g *contextGuard) acquire() (release func()) {
	g.mu.Lock()
	g.depth++
	g.mu.Unlock()
	released := false
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if released || g.depth == 0 {
			slog.Warn("window: unbalanced context release")
			return
		}
		released = true
		g.depth--
	}
}

// held reports whether any scope currently claims the surface.
func (g *contextGuard) held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth > 0
}
