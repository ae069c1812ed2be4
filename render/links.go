// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

// Handle identifies a renderable registered in an [Arena]. Cameras and
// windows store handles rather than object references: liveness is
// handle validity, so unregistering an object immediately invalidates
// every link to it without back-pointer bookkeeping.
type Handle int64

// Arena owns the renderables that can be linked to cameras.
type Arena struct {
	objs map[Handle]Renderable
	next Handle
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{objs: make(map[Handle]Renderable)}
}

// Add registers a renderable and returns its handle.
func (a *Arena) Add(r Renderable) Handle {
	a.next++
	a.objs[a.next] = r
	return a.next
}

// Remove unregisters the handle; existing links to it become dead and
// are skipped by iteration.
func (a *Arena) Remove(h Handle) {
	delete(a.objs, h)
}

// Get returns the renderable for the handle, with ok=false for a dead
// handle.
func (a *Arena) Get(h Handle) (Renderable, bool) {
	r, ok := a.objs[h]
	return r, ok
}

// Len returns the number of live renderables.
func (a *Arena) Len() int { return len(a.objs) }
