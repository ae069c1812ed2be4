// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rendertest provides in-memory fakes for the render
// contracts, used by the camera, blend, and window tests to exercise
// the core without a GPU.
package rendertest

import (
	"fmt"
	"image"

	"github.com/prismap/prismap/geom"
	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/values"
)

// Texture is an in-memory [render.Texture].
type Texture struct {
	ID        uintptr
	Fmt       render.TextureFormat
	Resizable bool
	Bound     int
}

func NewTexture(f render.TextureFormat) *Texture {
	return &Texture{Fmt: f, Resizable: true}
}

func (t *Texture) TexID() uintptr { return t.ID }
func (t *Texture) Bind()          { t.Bound++ }
func (t *Texture) Unbind()        { t.Bound-- }

func (t *Texture) Reset(f render.TextureFormat) error {
	t.Fmt = f
	return nil
}

func (t *Texture) Format() render.TextureFormat { return t.Fmt }

func (t *Texture) SetAttribute(name string, args values.Values) bool {
	switch name {
	case "size":
		if len(args) < 2 {
			return false
		}
		if t.Resizable {
			t.Fmt.Size = image.Point{args[0].Int(), args[1].Int()}
		}
		return true
	case "resizable":
		if len(args) < 1 {
			return false
		}
		t.Resizable = args[0].Bool()
		return true
	case "filtering":
		if len(args) < 1 {
			return false
		}
		t.Fmt.Filtering = args[0].Bool()
		return true
	}
	return false
}

// Framebuffer is an in-memory [render.Framebuffer]. Tests preload
// DepthData and ColorData to drive picking and blend readbacks.
type Framebuffer struct {
	ColorAttachments map[int]render.Texture
	DepthAttachment  render.Texture
	BoundCount       int

	// DepthData maps pixel to depth; unlisted pixels read 1.0.
	DepthData map[image.Point]float32

	// ColorData is returned from ReadColor16, with ColorSize as its
	// dimensions. When nil, ReadColor16 fails.
	ColorData map[int][]uint16
	ColorSize image.Point

	// Clears records every Clear call; ViewportRect and ScissorRect the
	// most recent viewport and scissor state.
	Clears       [][4]float64
	ViewportRect image.Point
	ScissorRect  image.Rectangle
	ScissorOn    bool
}

func NewFramebuffer() *Framebuffer {
	return &Framebuffer{
		ColorAttachments: make(map[int]render.Texture),
		DepthData:        make(map[image.Point]float32),
		ColorData:        make(map[int][]uint16),
	}
}

func (f *Framebuffer) AttachColor(index int, tx render.Texture) error {
	if tx == nil {
		delete(f.ColorAttachments, index)
		return nil
	}
	f.ColorAttachments[index] = tx
	return nil
}

func (f *Framebuffer) AttachDepth(tx render.Texture) error {
	f.DepthAttachment = tx
	return nil
}

func (f *Framebuffer) Bind()   { f.BoundCount++ }
func (f *Framebuffer) Unbind() { f.BoundCount-- }

func (f *Framebuffer) Clear(r, g, b, a float64) {
	f.Clears = append(f.Clears, [4]float64{r, g, b, a})
}

func (f *Framebuffer) Viewport(width, height int) {
	f.ViewportRect = image.Point{width, height}
}

func (f *Framebuffer) Scissor(x, y, width, height int) {
	if width <= 0 || height <= 0 {
		f.ScissorOn = false
		return
	}
	f.ScissorOn = true
	f.ScissorRect = image.Rect(x, y, x+width, y+height)
}

func (f *Framebuffer) ReadDepth(x, y int) float32 {
	if d, ok := f.DepthData[image.Point{x, y}]; ok {
		return d
	}
	return 1
}

func (f *Framebuffer) ReadColor16(index int) ([]uint16, image.Point, error) {
	data, ok := f.ColorData[index]
	if !ok {
		return nil, image.Point{}, fmt.Errorf("no color data at index %d", index)
	}
	return data, f.ColorSize, nil
}

func (f *Framebuffer) Release() {}

// Device is an in-memory [render.Device]. It hands out the same
// framebuffer to every NewFramebuffer call so tests can preload it.
type Device struct {
	FB      *Framebuffer
	MaxDims image.Point
	nextID  uintptr
}

func NewDevice() *Device {
	return &Device{FB: NewFramebuffer(), MaxDims: image.Point{2048, 2048}}
}

func (d *Device) MaxViewportDims() image.Point { return d.MaxDims }

func (d *Device) NewTexture(f render.TextureFormat) (render.Texture, error) {
	d.nextID++
	tx := NewTexture(f)
	tx.ID = d.nextID
	return tx, nil
}

func (d *Device) NewFramebuffer() (render.Framebuffer, error) {
	return d.FB, nil
}

// Shader records uniform sets by name.
type Shader struct {
	Uniforms map[string]values.Values
}

func (s *Shader) SetAttribute(name string, args values.Values) bool {
	if s.Uniforms == nil {
		s.Uniforms = make(map[string]values.Values)
	}
	s.Uniforms[name] = args
	return true
}

// Renderable is a recording fake for [render.Renderable].
type Renderable struct {
	Vertices []geom.Vector3
	Model    geom.Matrix4

	Attrs       map[string]values.Values
	Shdr        Shader
	CalibPoints []geom.Vector3

	View, Proj geom.Matrix4
	DrawCount  int
	ActiveNow  bool

	VisibilityCalls int
	TessellateCalls int
	TransferCalls   int
	FillHistory     []values.Values
}

func NewRenderable(vertices ...geom.Vector3) *Renderable {
	return &Renderable{
		Vertices: vertices,
		Model:    geom.Identity4(),
		Attrs:    map[string]values.Values{"fill": {values.String("texture")}},
	}
}

func (r *Renderable) Activate()   { r.ActiveNow = true }
func (r *Renderable) Deactivate() { r.ActiveNow = false }
func (r *Renderable) Draw()       { r.DrawCount++ }

func (r *Renderable) SetViewProjection(view, proj geom.Matrix4) {
	r.View, r.Proj = view, proj
}

func (r *Renderable) SetModelMatrix(m geom.Matrix4) { r.Model = m }
func (r *Renderable) ModelMatrix() geom.Matrix4     { return r.Model }

func (r *Renderable) Shader() render.Shader { return &r.Shdr }

func (r *Renderable) ComputeVisibility(view, proj geom.Matrix4, blendWidth float64) {
	r.VisibilityCalls++
}

func (r *Renderable) TessellateForCamera(view, proj geom.Matrix4, blendWidth, blendPrecision float64) {
	r.TessellateCalls++
}

func (r *Renderable) TransferVisibilityFromTexture(width, height int) {
	r.TransferCalls++
}

func (r *Renderable) PickVertex(p geom.Vector3) (geom.Vector3, float64) {
	best := geom.Vector3{}
	dist := 1e30
	for _, v := range r.Vertices {
		if d := v.Sub(p).Length(); d < dist {
			dist = d
			best = v
		}
	}
	return best, dist
}

func (r *Renderable) CalibrationPoints() []geom.Vector3 { return r.CalibPoints }

func (r *Renderable) AddCalibrationPoint(world geom.Vector3) {
	for _, p := range r.CalibPoints {
		if p == world {
			return
		}
	}
	r.CalibPoints = append(r.CalibPoints, world)
}

func (r *Renderable) RemoveCalibrationPoint(world geom.Vector3) {
	for i, p := range r.CalibPoints {
		if p == world {
			r.CalibPoints = append(r.CalibPoints[:i], r.CalibPoints[i+1:]...)
			return
		}
	}
}

func (r *Renderable) SetAttribute(name string, args values.Values) bool {
	if r.Attrs == nil {
		r.Attrs = make(map[string]values.Values)
	}
	if name == "fill" {
		r.FillHistory = append(r.FillHistory, args)
	}
	r.Attrs[name] = args
	return true
}

func (r *Renderable) GetAttribute(name string) (values.Values, bool) {
	v, ok := r.Attrs[name]
	return v, ok
}
