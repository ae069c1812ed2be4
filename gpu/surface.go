// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"

	core "cogentcore.org/core/gpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/prismap/prismap/window"
)

// Init initializes the windowing system. Must be called on the main
// thread before creating any surface.
func Init() error {
	return core.Init()
}

// Terminate shuts the windowing system down. Must be called on the
// main thread, after all surfaces are destroyed.
func Terminate() {
	core.Terminate()
}

// PollEvents processes pending windowing-system events, dispatching
// them to the installed callbacks. Must be called on the main thread,
// once per frame.
func PollEvents() {
	glfw.PollEvents()
}

// Surface is a GLFW window presenting through a WebGPU surface,
// implementing window.Surface.
type Surface struct {
	dev *Device
	win *glfw.Window
	sf  *core.Surface

	monitor      int
	windowed     image.Rectangle
	swapInterval int
}

// NewSurface opens a window of the given size and wires a WebGPU
// surface to it. Must be called on the main thread.
func NewSurface(dev *Device, size image.Point, title string) (*Surface, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(size.X, size.Y, title, nil, nil)
	if err != nil {
		return nil, err
	}
	sp := core.Instance().CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))
	sf := core.NewSurface(dev.GP, sp, size, 1, core.UndefinedType)
	s := &Surface{dev: dev, win: win, sf: sf, monitor: -1, swapInterval: 1}
	win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		s.sf.SetSize(image.Point{width, height})
	})
	return s, nil
}

// Frame returns the WebGPU surface frames are rendered into.
func (s *Surface) Frame() *core.Surface { return s.sf }

// Size returns the window size in screen coordinates.
func (s *Surface) Size() (int, int) { return s.win.GetSize() }

// SetSize resizes the window.
func (s *Surface) SetSize(width, height int) {
	s.win.SetSize(width, height)
	s.sf.SetSize(image.Point{width, height})
}

// FramebufferSize returns the drawable size in pixels.
func (s *Surface) FramebufferSize() (int, int) { return s.win.GetFramebufferSize() }

// Position returns the window position.
func (s *Surface) Position() (int, int) { return s.win.GetPos() }

// SetPosition moves the window.
func (s *Surface) SetPosition(x, y int) { s.win.SetPos(x, y) }

// SetTitle sets the window title.
func (s *Surface) SetTitle(title string) { s.win.SetTitle(title) }

// SetSwapInterval records the vsync divisor. The WebGPU surface is
// configured for FIFO presentation, which paces to every vsync;
// larger divisors are tracked but presented at interval 1.
func (s *Surface) SetSwapInterval(interval int) {
	s.swapInterval = interval
}

// SetFullscreen moves the window to the given monitor at its current
// video mode, or back to its previous windowed bounds for a negative
// index.
func (s *Surface) SetFullscreen(monitor int) error {
	if monitor < 0 {
		if s.monitor < 0 {
			return nil
		}
		b := s.windowed
		s.win.SetMonitor(nil, b.Min.X, b.Min.Y, b.Dx(), b.Dy(), 0)
		s.sf.SetSize(image.Point{b.Dx(), b.Dy()})
		s.monitor = -1
		return nil
	}
	monitors := glfw.GetMonitors()
	if monitor >= len(monitors) {
		return fmt.Errorf("gpu: no monitor %d (have %d)", monitor, len(monitors))
	}
	if s.monitor < 0 {
		x, y := s.win.GetPos()
		width, height := s.win.GetSize()
		s.windowed = image.Rect(x, y, x+width, y+height)
	}
	m := monitors[monitor]
	vm := m.GetVideoMode()
	s.win.SetMonitor(m, 0, 0, vm.Width, vm.Height, vm.RefreshRate)
	s.sf.SetSize(image.Point{vm.Width, vm.Height})
	s.monitor = monitor
	return nil
}

// SwapBuffers presents the rendered frame. Present itself does not
// block; with FIFO presentation the vsync wait is paid when the next
// frame's surface texture is acquired.
func (s *Surface) SwapBuffers() {
	s.sf.Present()
}

// BlitFrontBuffer presents without claiming the frame group's vsync
// slot. On WebGPU this is the same queue submission as SwapBuffers;
// the presentation engine absorbs it without an extra wait.
func (s *Surface) BlitFrontBuffer() {
	s.sf.Present()
}

// ShouldClose reports whether the user asked to close the window.
func (s *Surface) ShouldClose() bool { return s.win.ShouldClose() }

// InstallCallbacks routes the window's input events into the given
// event buffers.
func (s *Surface) InstallCallbacks(w *window.Window) {
	s.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		w.PushKey(window.KeyEvent{
			Key: int(key), Scancode: scancode,
			Action: int(action), Mods: int(mods),
		})
	})
	s.win.SetCharCallback(func(_ *glfw.Window, char rune) {
		w.PushChar(window.CharEvent{Char: char})
	})
	s.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		w.PushMouseButton(window.MouseButtonEvent{
			Button: int(button), Action: int(action), Mods: int(mods),
		})
	})
	s.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.PushMousePos(window.MousePosEvent{X: x, Y: y})
	})
	s.win.SetScrollCallback(func(_ *glfw.Window, x, y float64) {
		w.PushScroll(window.ScrollEvent{X: x, Y: y})
	})
	s.win.SetDropCallback(func(_ *glfw.Window, paths []string) {
		w.PushDrop(window.DropEvent{Paths: paths})
	})
}

// Destroy closes the window and releases its surface.
func (s *Surface) Destroy() {
	s.sf.Release()
	s.win.Destroy()
}
