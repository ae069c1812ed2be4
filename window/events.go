// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package window

import "sync"

// Input event records. The window buffers events from the windowing
// system callbacks; the UI drains them between frames.

// KeyEvent is one keyboard key transition.
type KeyEvent struct {
	Key, Scancode, Action, Mods int
}

// CharEvent is one translated character input.
type CharEvent struct {
	Char rune
}

// MouseButtonEvent is one mouse button transition.
type MouseButtonEvent struct {
	Button, Action, Mods int
}

// MousePosEvent is a cursor move in window coordinates.
type MousePosEvent struct {
	X, Y float64
}

// ScrollEvent is one scroll step.
type ScrollEvent struct {
	X, Y float64
}

// DropEvent is a set of file paths dropped onto the window.
type DropEvent struct {
	Paths []string
}

// queue is an unbounded FIFO with its own lock. Each event kind gets
// its own queue so a burst of one kind never blocks draining another.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

// drain returns all buffered items in arrival order and empties the
// queue.
func (q *queue[T]) drain() []T {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// events holds one window's buffered input.
type events struct {
	keys    queue[KeyEvent]
	chars   queue[CharEvent]
	buttons queue[MouseButtonEvent]
	moves   queue[MousePosEvent]
	scrolls queue[ScrollEvent]
	drops   queue[DropEvent]
}

// PushKey buffers a key event. Safe to call from windowing-system
// callbacks.
func (w *Window) PushKey(e KeyEvent) { w.events.keys.push(e) }

// PushChar buffers a character event.
func (w *Window) PushChar(e CharEvent) { w.events.chars.push(e) }

// PushMouseButton buffers a mouse button event.
func (w *Window) PushMouseButton(e MouseButtonEvent) { w.events.buttons.push(e) }

// PushMousePos buffers a cursor move.
func (w *Window) PushMousePos(e MousePosEvent) { w.events.moves.push(e) }

// PushScroll buffers a scroll event.
func (w *Window) PushScroll(e ScrollEvent) { w.events.scrolls.push(e) }

// PushDrop buffers a file drop.
func (w *Window) PushDrop(e DropEvent) { w.events.drops.push(e) }

// Keys drains the buffered key events in arrival order.
func (w *Window) Keys() []KeyEvent { return w.events.keys.drain() }

// Chars drains the buffered character events.
func (w *Window) Chars() []CharEvent { return w.events.chars.drain() }

// MouseButtons drains the buffered mouse button events.
func (w *Window) MouseButtons() []MouseButtonEvent { return w.events.buttons.drain() }

// MousePositions drains the buffered cursor moves.
func (w *Window) MousePositions() []MousePosEvent { return w.events.moves.drain() }

// Scrolls drains the buffered scroll events.
func (w *Window) Scrolls() []ScrollEvent { return w.events.scrolls.drain() }

// Drops drains the buffered file drops.
func (w *Window) Drops() []DropEvent { return w.events.drops.drain() }
