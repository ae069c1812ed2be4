// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package window

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/render/rendertest"
	"github.com/prismap/prismap/values"
)

type fakeSurface struct {
	width, height int
	x, y          int
	title         string
	swapInterval  int
	monitor       int
	failFS        bool

	swaps, blits int
	closed       bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{width: 640, height: 480, monitor: -1}
}

func (s *fakeSurface) Size() (int, int)            { return s.width, s.height }
func (s *fakeSurface) SetSize(w, h int)            { s.width, s.height = w, h }
func (s *fakeSurface) FramebufferSize() (int, int) { return s.width * 2, s.height * 2 }
func (s *fakeSurface) Position() (int, int)        { return s.x, s.y }
func (s *fakeSurface) SetPosition(x, y int)        { s.x, s.y = x, y }
func (s *fakeSurface) SetTitle(t string)           { s.title = t }
func (s *fakeSurface) SetSwapInterval(i int)       { s.swapInterval = i }
func (s *fakeSurface) SwapBuffers()                { s.swaps++ }
func (s *fakeSurface) BlitFrontBuffer()            { s.blits++ }
func (s *fakeSurface) ShouldClose() bool           { return s.closed }

func (s *fakeSurface) SetFullscreen(monitor int) error {
	if s.failFS {
		return errors.New("no such monitor")
	}
	s.monitor = monitor
	return nil
}

type fakeFencer struct {
	mu       sync.Mutex
	inserted int
	waited   int
}

func (f *fakeFencer) InsertFence() func() {
	f.mu.Lock()
	f.inserted++
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.waited++
		f.mu.Unlock()
	}
}

func newTestWindow() (*Window, *fakeSurface, *fakeFencer, *rendertest.Renderable) {
	surface := newFakeSurface()
	fencer := &fakeFencer{}
	screen := rendertest.NewRenderable()
	w := New("win", surface, fencer, screen)
	return w, surface, fencer, screen
}

func TestSwapGroupSingleWindow(t *testing.T) {
	w, surface, _, _ := newTestWindow()
	var group SwapGroup

	for frame := 0; frame < 3; frame++ {
		group.Reset()
		require.NoError(t, w.Render())
		w.SwapBuffers(&group)
	}
	assert.Equal(t, 3, surface.swaps)
	assert.Equal(t, 0, surface.blits)
}

func TestSwapGroupOneVsyncPerFrame(t *testing.T) {
	const n = 5
	windows := make([]*Window, n)
	surfaces := make([]*fakeSurface, n)
	for i := range windows {
		windows[i], surfaces[i], _, _ = newTestWindow()
	}

	var group SwapGroup
	for frame := 0; frame < 2; frame++ {
		group.Reset()
		for _, w := range windows {
			require.NoError(t, w.Render())
		}
		for _, w := range windows {
			w.SwapBuffers(&group)
		}
	}

	swaps, blits := 0, 0
	for _, s := range surfaces {
		swaps += s.swaps
		blits += s.blits
	}
	assert.Equal(t, 2, swaps, "exactly one vsync swap per frame group")
	assert.Equal(t, 2*(n-1), blits)
	assert.Equal(t, 2, surfaces[0].swaps, "first claimer takes the vsync slot")
}

func TestSwapWaitsOnRenderFence(t *testing.T) {
	w, _, fencer, _ := newTestWindow()
	var group SwapGroup
	group.Reset()

	require.NoError(t, w.Render())
	assert.Equal(t, 1, fencer.inserted)
	assert.Equal(t, 0, fencer.waited)

	w.SwapBuffers(&group)
	assert.Equal(t, 1, fencer.waited)

	// Without a new render there is no fence to wait on again.
	w.SwapBuffers(&group)
	assert.Equal(t, 1, fencer.waited)
}

func TestRenderUniformsAndSwapTest(t *testing.T) {
	w, _, _, screen := newTestWindow()
	w.Attributes().Set("layout", values.Floats(0, 1, 2, 3))
	w.Attributes().Set("gamma", values.Floats(2.4))

	require.NoError(t, w.Render())
	assert.Equal(t, values.Floats(0, 1, 2, 3), screen.Shdr.Uniforms["_layout"])
	assert.Equal(t, values.Floats(1, 2.4), screen.Shdr.Uniforms["_gamma"])
	assert.Equal(t, values.Floats(-1), screen.Shdr.Uniforms["_swapTest"])
	assert.Equal(t, 1, screen.DrawCount)

	// Swap test alternates frame parity.
	w.Attributes().Set("swapTest", values.Floats(1))
	require.NoError(t, w.Render())
	second := screen.Shdr.Uniforms["_swapTest"][0].Float()
	require.NoError(t, w.Render())
	third := screen.Shdr.Uniforms["_swapTest"][0].Float()
	assert.NotEqual(t, second, third)
}

func TestGuiOverlayDrawnLast(t *testing.T) {
	w, _, _, screen := newTestWindow()
	gui := rendertest.NewTexture(render.TextureFormat{Size: image.Point{64, 64}})
	require.True(t, w.LinkTexture(gui, LinkGui))

	require.NoError(t, w.Render())
	assert.Equal(t, 2, screen.DrawCount, "scene pass plus GUI pass")
	assert.Equal(t, values.Floats(0), screen.Shdr.Uniforms["_drawGui"])
	assert.Zero(t, gui.Bound, "GUI texture unbound after render")
}

func TestInputLimit(t *testing.T) {
	w, _, _, _ := newTestWindow()
	for i := 0; i < maxInputs; i++ {
		tx := rendertest.NewTexture(render.TextureFormat{Size: image.Point{32, 32}})
		require.True(t, w.LinkTexture(tx, LinkTexture))
	}
	extra := rendertest.NewTexture(render.TextureFormat{Size: image.Point{32, 32}})
	assert.False(t, w.LinkTexture(extra, LinkTexture))
	assert.Equal(t, maxInputs, w.InputCount())

	w.UnlinkTexture(extra)
	assert.Equal(t, maxInputs, w.InputCount(), "unlinking a stranger is a no-op")
}

func TestUpstreamResizePropagatesWindowSize(t *testing.T) {
	w, surface, _, _ := newTestWindow()
	a := rendertest.NewTexture(render.TextureFormat{Size: image.Point{512, 512}})
	b := rendertest.NewTexture(render.TextureFormat{Size: image.Point{512, 512}})
	w.LinkTexture(a, LinkCamera)
	w.LinkTexture(b, LinkCamera)

	require.NoError(t, w.Render())

	// The drawable size reaches every input; the window itself never
	// follows its inputs.
	assert.Equal(t, image.Point{1280, 960}, a.Fmt.Size)
	assert.Equal(t, image.Point{1280, 960}, b.Fmt.Size)
	width, height := surface.Size()
	assert.Equal(t, 640, width)
	assert.Equal(t, 480, height)
}

func TestUpstreamResizeHomogeneousLayoutOnly(t *testing.T) {
	w, _, _, _ := newTestWindow()
	a := rendertest.NewTexture(render.TextureFormat{Size: image.Point{512, 512}})
	b := rendertest.NewTexture(render.TextureFormat{Size: image.Point{512, 512}})
	w.LinkTexture(a, LinkCamera)
	w.LinkTexture(b, LinkCamera)
	w.Attributes().Set("layout", values.Floats(0, 1, 0, 0))

	require.NoError(t, w.Render())
	assert.Equal(t, image.Point{512, 512}, a.Fmt.Size, "mixed layout keeps input sizes")
	assert.Equal(t, image.Point{512, 512}, b.Fmt.Size)
}

func TestGuiTextureFollowsWindowSize(t *testing.T) {
	w, _, _, _ := newTestWindow()
	gui := rendertest.NewTexture(render.TextureFormat{Size: image.Point{64, 64}})
	in := rendertest.NewTexture(render.TextureFormat{Size: image.Point{512, 512}})
	require.True(t, w.LinkTexture(gui, LinkGui))
	require.True(t, w.LinkTexture(in, LinkTexture))
	w.Attributes().Set("layout", values.Floats(0, 1, 2, 3))

	require.NoError(t, w.Render())

	// The overlay resizes even with a mixed layout.
	assert.Equal(t, image.Point{1280, 960}, gui.Fmt.Size)
	assert.Equal(t, image.Point{512, 512}, in.Fmt.Size)
}

func TestFullscreenAttribute(t *testing.T) {
	w, surface, _, _ := newTestWindow()
	require.True(t, w.Attributes().Set("fullscreen", values.Floats(1)))
	assert.Equal(t, 1, surface.monitor)

	// A failed switch keeps the previous state.
	surface.failFS = true
	require.True(t, w.Attributes().Set("fullscreen", values.Floats(2)))
	v, _ := w.Attributes().Get("fullscreen")
	assert.Equal(t, 1, v[0].Int())
}

func TestSwapIntervalForwarded(t *testing.T) {
	w, surface, _, _ := newTestWindow()
	require.True(t, w.Attributes().Set("swapInterval", values.Floats(0)))
	assert.Equal(t, 0, surface.swapInterval)

	// Negative values clamp to 0.
	w.Attributes().Set("swapInterval", values.Floats(-3))
	assert.Equal(t, 0, surface.swapInterval)
}

func TestEventQueuesIndependentFIFO(t *testing.T) {
	w, _, _, _ := newTestWindow()
	w.PushKey(KeyEvent{Key: 1})
	w.PushScroll(ScrollEvent{Y: -1})
	w.PushKey(KeyEvent{Key: 2})
	w.PushChar(CharEvent{Char: 'a'})

	keys := w.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, 1, keys[0].Key)
	assert.Equal(t, 2, keys[1].Key)
	assert.Empty(t, w.Keys(), "drain empties the queue")

	assert.Len(t, w.Scrolls(), 1)
	assert.Len(t, w.Chars(), 1)
	assert.Empty(t, w.MouseButtons())
}

func TestEventQueueConcurrentPush(t *testing.T) {
	w, _, _, _ := newTestWindow()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.PushMousePos(MousePosEvent{X: float64(j)})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, w.MousePositions(), 800)
}

func TestContextGuardScopedRelease(t *testing.T) {
	g := newContextGuard()
	release := g.acquire()
	release()
	assert.False(t, g.held())
	// A second release of the same scope is ignored.
	release()
	assert.False(t, g.held())
}

func TestContextGuardReentrant(t *testing.T) {
	g := newContextGuard()
	outer := g.acquire()
	// A nested claim must not block and must balance independently.
	inner := g.acquire()
	assert.True(t, g.held())
	inner()
	assert.True(t, g.held())
	outer()
	assert.False(t, g.held())
}

func TestAttributeSetterDuringRenderScope(t *testing.T) {
	w, surface, _, _ := newTestWindow()

	// A setter invoked while the render scope holds the surface (as a
	// control handler running between draw calls would) must not
	// deadlock.
	release := w.guard.acquire()
	defer release()
	require.True(t, w.Attributes().Set("size", values.Floats(1024, 768)))
	width, height := surface.Size()
	assert.Equal(t, 1024, width)
	assert.Equal(t, 768, height)
}
