// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package window implements the output windows that composite camera
// textures to the screen: layout of up to four inputs, gamma-corrected
// presentation through a screen quad, buffered input events, and the
// one-vsync-per-frame-group swap protocol.
package window

import (
	"log/slog"

	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/values"
)

// maxInputs is the number of textures a window can composite; the
// layout uniform addresses them by quadrant.
const maxInputs = 4

// Surface is the windowing-system side of a window: sizing, monitor
// placement, and buffer presentation. The gpu package provides the
// GLFW-backed implementation.
type Surface interface {
	Size() (width, height int)
	SetSize(width, height int)

	// FramebufferSize returns the drawable size in pixels, which
	// differs from Size on high-DPI displays.
	FramebufferSize() (width, height int)

	Position() (x, y int)
	SetPosition(x, y int)
	SetTitle(title string)

	// SetSwapInterval sets the vsync divisor for real swaps.
	SetSwapInterval(interval int)

	// SetFullscreen moves the window to the given monitor, or back to
	// windowed mode for a negative index.
	SetFullscreen(monitor int) error

	// SwapBuffers presents with a vsync wait.
	SwapBuffers()

	// BlitFrontBuffer presents by copying the back buffer to the front
	// buffer without waiting for vsync.
	BlitFrontBuffer()

	ShouldClose() bool
}

// Fencer inserts GPU fences so a swap never presents a half-rendered
// frame.
type Fencer interface {
	// InsertFence enqueues a fence after the work submitted so far and
	// returns a function that blocks until it signals.
	InsertFence() (wait func())
}

// LinkKind tags what a texture linked to a window represents, so the
// window resolves the role at link time instead of inspecting the
// object later.
type LinkKind int32

const (
	// LinkTexture is a plain texture input.
	LinkTexture LinkKind = iota

	// LinkCamera is a camera output texture.
	LinkCamera

	// LinkGui is the UI overlay, drawn above every other input.
	LinkGui
)

type link struct {
	kind LinkKind
	tx   render.Texture
}

// Window composites its linked textures to one OS window.
type Window struct {
	Name string

	surface Surface
	fencer  Fencer
	guard   *contextGuard
	events  events

	// screen is the fullscreen quad that samples the linked textures.
	screen render.Renderable
	inputs []link
	gui    render.Texture

	layout       [maxInputs]int
	gamma        float64
	srgb         bool
	swapTest     bool
	frame        uint64
	fullscreen   int
	swapInterval int

	fence func()

	attrs values.Registry
}

// New returns a window presenting through the given surface, drawing
// with the given screen quad.
func New(name string, surface Surface, fencer Fencer, screen render.Renderable) *Window {
	w := &Window{
		Name:    name,
		surface: surface,
		fencer:  fencer,
		guard:   newContextGuard(),
		screen:  screen,

		gamma:        2.2,
		srgb:         true,
		fullscreen:   -1,
		swapInterval: 1,
	}
	surface.SetSwapInterval(w.swapInterval)
	w.registerAttributes()
	return w
}

// Attributes returns the window's attribute registry.
func (w *Window) Attributes() *values.Registry { return &w.attrs }

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool { return w.surface.ShouldClose() }

// LinkTexture attaches a texture with the given role. Texture and
// camera links fill the quadrant inputs, at most four; a GUI link
// replaces the current overlay.
func (w *Window) LinkTexture(tx render.Texture, kind LinkKind) bool {
	if kind == LinkGui {
		w.gui = tx
		return true
	}
	if len(w.inputs) >= maxInputs {
		slog.Warn("window: input limit reached", "window", w.Name, "limit", maxInputs)
		return false
	}
	w.inputs = append(w.inputs, link{kind: kind, tx: tx})
	return true
}

// UnlinkTexture detaches the texture whatever its role.
func (w *Window) UnlinkTexture(tx render.Texture) {
	if w.gui == tx {
		w.gui = nil
		return
	}
	for i, l := range w.inputs {
		if l.tx == tx {
			w.inputs = append(w.inputs[:i], w.inputs[i+1:]...)
			return
		}
	}
}

// InputCount returns the number of quadrant inputs.
func (w *Window) InputCount() int { return len(w.inputs) }

// updateUpstreamSizes back-propagates the window's drawable size to
// the linked textures, so upstream cameras render at display
// resolution. Quadrant inputs follow only while the layout is
// homogeneous (every cell addressing a linked input holds the same
// value); the GUI overlay always matches the window.
func (w *Window) updateUpstreamSizes(width, height int) {
	size := values.Floats(float64(width), float64(height))
	if w.gui != nil {
		w.gui.SetAttribute("size", size)
	}
	for i := 1; i < len(w.inputs); i++ {
		if w.layout[i] != w.layout[0] {
			return
		}
	}
	for _, l := range w.inputs {
		l.tx.SetAttribute("size", size)
	}
}

// Render composites the linked textures through the screen quad and
// inserts the fence the next swap will wait on.
func (w *Window) Render() error {
	release := w.guard.acquire()
	defer release()

	fbW, fbH := w.surface.FramebufferSize()
	w.updateUpstreamSizes(fbW, fbH)

	sh := w.screen.Shader()
	sh.SetAttribute("_windowSize", values.Floats(float64(fbW), float64(fbH)))
	sh.SetAttribute("_gamma", values.Floats(boolFloat(w.srgb), w.gamma))
	sh.SetAttribute("_layout", values.Floats(
		float64(w.layout[0]), float64(w.layout[1]),
		float64(w.layout[2]), float64(w.layout[3])))
	if w.swapTest {
		// Alternate full-frame black/white to make missed swaps and
		// tearing visible.
		sh.SetAttribute("_swapTest", values.Floats(float64(w.frame%2)))
	} else {
		sh.SetAttribute("_swapTest", values.Floats(-1))
	}

	w.screen.Activate()
	for _, l := range w.inputs {
		l.tx.Bind()
	}
	w.screen.Draw()
	for _, l := range w.inputs {
		l.tx.Unbind()
	}

	if w.gui != nil {
		w.gui.Bind()
		sh.SetAttribute("_drawGui", values.Floats(1))
		w.screen.Draw()
		sh.SetAttribute("_drawGui", values.Floats(0))
		w.gui.Unbind()
	}
	w.screen.Deactivate()

	if w.fencer != nil {
		w.fence = w.fencer.InsertFence()
	}
	w.frame++
	return nil
}

// SwapBuffers presents the rendered frame. The first window to claim
// a slot in the group performs the real vsync swap; every other
// window blits its back buffer to the front buffer, so a frame group
// of N windows pays for one vsync wait. Rendering must be complete:
// the fence inserted by Render is waited on first.
func (w *Window) SwapBuffers(group *SwapGroup) {
	release := w.guard.acquire()
	defer release()

	if w.fence != nil {
		w.fence()
		w.fence = nil
	}
	if group.Claim() == 0 {
		w.surface.SwapBuffers()
	} else {
		w.surface.BlitFrontBuffer()
	}
}

func (w *Window) registerAttributes() {
	r := &w.attrs

	r.Add("fullscreen", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		release := w.guard.acquire()
		defer release()
		monitor := args[0].Int()
		if err := w.surface.SetFullscreen(monitor); err != nil {
			slog.Warn("window: fullscreen switch failed",
				"window", w.Name, "monitor", monitor, "err", err)
			return true
		}
		w.fullscreen = monitor
		return true
	}, func() values.Values {
		return values.Floats(float64(w.fullscreen))
	})

	r.Add("position", func(args values.Values) bool {
		if len(args) < 2 {
			return false
		}
		release := w.guard.acquire()
		defer release()
		w.surface.SetPosition(args[0].Int(), args[1].Int())
		return true
	}, func() values.Values {
		x, y := w.surface.Position()
		return values.Floats(float64(x), float64(y))
	})

	r.Add("size", func(args values.Values) bool {
		if len(args) < 2 {
			return false
		}
		release := w.guard.acquire()
		defer release()
		w.surface.SetSize(args[0].Int(), args[1].Int())
		return true
	}, func() values.Values {
		width, height := w.surface.Size()
		return values.Floats(float64(width), float64(height))
	})

	r.Add("swapInterval", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		release := w.guard.acquire()
		defer release()
		w.swapInterval = max(args[0].Int(), 0)
		w.surface.SetSwapInterval(w.swapInterval)
		return true
	}, func() values.Values {
		return values.Floats(float64(w.swapInterval))
	})

	r.Add("layout", func(args values.Values) bool {
		if len(args) < maxInputs {
			return false
		}
		for i := 0; i < maxInputs; i++ {
			w.layout[i] = args[i].Int()
		}
		return true
	}, func() values.Values {
		return values.Floats(
			float64(w.layout[0]), float64(w.layout[1]),
			float64(w.layout[2]), float64(w.layout[3]))
	})

	r.Add("gamma", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		w.gamma = args[0].Float()
		return true
	}, func() values.Values {
		return values.Floats(w.gamma)
	})

	r.Add("srgb", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		w.srgb = args[0].Bool()
		return true
	}, func() values.Values {
		return values.Floats(boolFloat(w.srgb))
	})

	r.Add("swapTest", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		w.swapTest = args[0].Bool()
		return true
	}, func() values.Values {
		return values.Floats(boolFloat(w.swapTest))
	})

	r.Add("title", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		release := w.guard.acquire()
		defer release()
		w.surface.SetTitle(args[0].Str())
		return true
	}, nil)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
