// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package camera implements the virtual projector view: a camera pose
// with an off-axis projection, linked drawable objects, calibration
// point management, picking, and the blending-map passes. A camera
// renders into a multi-attachment [render.Target]; windows composite
// the first color attachment to the screen.
package camera

import (
	"errors"
	"image"
	"log/slog"
	"math"

	"github.com/prismap/prismap/geom"
	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/values"
)

// CalibrationState tracks where a camera is in the calibration cycle.
type CalibrationState int32

const (
	Uncalibrated CalibrationState = iota
	PointsCollected
	Calibrating
	Calibrated
)

func (s CalibrationState) String() string {
	switch s {
	case Uncalibrated:
		return "uncalibrated"
	case PointsCollected:
		return "points-collected"
	case Calibrating:
		return "calibrating"
	case Calibrated:
		return "calibrated"
	}
	return "unknown"
}

// Marker colors. Calibration point markers are color-coded by state so
// the operator can tell at a glance which points constrain the solve.
var (
	markerSelected       = [4]float64{0.9, 0.1, 0.1, 1.0}
	markerSet            = [4]float64{1.0, 0.5, 0.0, 1.0}
	markerAdded          = [4]float64{0.0, 0.5, 1.0, 1.0}
	markerObject         = [4]float64{0.1, 1.0, 0.2, 1.0}
	screenMarkerSelected = [4]float64{0.9, 0.3, 0.1, 1.0}
	screenMarkerSet      = [4]float64{1.0, 0.7, 0.0, 1.0}
	flashColor           = [4]float64{0.6, 0.6, 0.6, 1.0}
	frameColor           = [4]float64{1.0, 0.5, 0.0, 1.0}
)

const (
	worldMarkerScale  = 0.0003
	screenMarkerScale = 0.05
	frameWidth        = 8

	// Marker model names looked up in the camera's model table.
	Marker3D = "3d_marker"
	Marker2D = "2d_marker"
)

// ErrNoOutput reports a render on a camera whose target has no color
// attachment.
var ErrNoOutput = errors.New("camera: render target has no color output")

// onceDrawable is a model queued for a single frame.
type onceDrawable struct {
	model string
	rt    geom.Matrix4
}

// Camera is a virtual projector view into the scene.
type Camera struct {
	Name string

	// Pose and lens.
	eye, target, up geom.Vector3
	fov             float64
	cx, cy          float64
	near, far       float64

	dev   render.Device
	out   *render.Target
	arena *render.Arena
	links []render.Handle

	// models holds named helper geometry (calibration markers) drawn
	// outside the object list.
	models map[string]render.Renderable

	points     []CalibrationPoint
	selected   int
	calibrated bool
	state      CalibrationState
	seed       uint64

	// Blending and color correction.
	blendWidth       float64
	blendPrecision   float64
	blackLevel       float64
	brightness       float64
	colorTemperature float64
	colorLUT         values.Values
	lutActive        bool
	colorMixMatrix   values.Values

	// Display options.
	drawFrame                bool
	flashBG                  bool
	hidden                   bool
	displayCalibration       bool
	displayAllCalibrations   bool
	showAllCalibrationPoints bool
	clearColor               [4]float64

	once                []onceDrawable
	newWidth, newHeight int

	attrs values.Registry
}

// New returns a camera rendering into a new single-attachment target
// on the given device, with its objects resolved through the arena.
func New(name string, dev render.Device, arena *render.Arena) (*Camera, error) {
	out, err := render.NewTarget(dev, 1)
	if err != nil {
		return nil, err
	}
	c := &Camera{
		Name:  name,
		dev:   dev,
		out:   out,
		arena: arena,

		eye:    geom.Vec3(1, 1, 5),
		target: geom.Vec3(0, 0, 0),
		up:     geom.Vec3(0, 0, 1),
		fov:    35,
		cx:     0.5,
		cy:     0.5,
		near:   0.1,
		far:    100,

		selected:         -1,
		blendWidth:       0.05,
		blendPrecision:   0.1,
		brightness:       1,
		colorTemperature: 6500,
		colorMixMatrix:   values.Floats(1, 0, 0, 0, 1, 0, 0, 0, 1),
		clearColor:       [4]float64{0, 0, 0, 1},
	}
	c.registerAttributes()
	return c, nil
}

// Target returns the camera's render target.
func (c *Camera) Target() *render.Target { return c.out }

// Attributes returns the camera's attribute registry.
func (c *Camera) Attributes() *values.Registry { return &c.attrs }

// State returns the calibration state.
func (c *Camera) State() CalibrationState { return c.state }

// Pose returns the current eye, target and up vectors.
func (c *Camera) Pose() (eye, target, up geom.Vector3) {
	return c.eye, c.target, c.up
}

// Lens returns the field of view and normalized principal point.
func (c *Camera) Lens() (fov, cx, cy float64) { return c.fov, c.cx, c.cy }

// SetModel registers named helper geometry (markers); a nil renderable
// unregisters the name.
func (c *Camera) SetModel(name string, r render.Renderable) {
	if c.models == nil {
		c.models = make(map[string]render.Renderable)
	}
	if r == nil {
		delete(c.models, name)
		return
	}
	c.models[name] = r
}

// Link attaches a renderable handle to the camera and pushes the
// camera's calibration points onto it.
func (c *Camera) Link(h render.Handle) {
	for _, l := range c.links {
		if l == h {
			return
		}
	}
	c.links = append(c.links, h)
	if obj, ok := c.arena.Get(h); ok {
		for _, p := range c.points {
			obj.AddCalibrationPoint(p.World)
		}
	}
}

// Unlink detaches a renderable handle, removing the camera's
// calibration points from it.
func (c *Camera) Unlink(h render.Handle) {
	for i, l := range c.links {
		if l != h {
			continue
		}
		c.links = append(c.links[:i], c.links[i+1:]...)
		if obj, ok := c.arena.Get(h); ok {
			for _, p := range c.points {
				obj.RemoveCalibrationPoint(p.World)
			}
		}
		return
	}
}

// objects returns the live linked renderables, skipping dead handles.
func (c *Camera) objects() []render.Renderable {
	objs := make([]render.Renderable, 0, len(c.links))
	for _, h := range c.links {
		if obj, ok := c.arena.Get(h); ok {
			objs = append(objs, obj)
		}
	}
	return objs
}

// ViewMatrix returns the camera's view matrix, guarded against a
// degenerate eye==target pose.
func (c *Camera) ViewMatrix() geom.Matrix4 {
	return geom.View(c.eye, c.target, c.up)
}

// ProjectionMatrix returns the off-axis projection for the current
// lens parameters and target size.
func (c *Camera) ProjectionMatrix() geom.Matrix4 {
	size := c.out.Size()
	return geom.Projection(c.fov, c.cx, c.cy,
		float64(size.X), float64(size.Y), c.near, c.far)
}

// DrawModelOnce queues the named model for drawing in the next frame
// only, with the given model matrix.
func (c *Camera) DrawModelOnce(model string, rt geom.Matrix4) {
	c.once = append(c.once, onceDrawable{model: model, rt: rt})
}

// SetOutputSize resizes the render target immediately. Interactive
// resizes go through the "size" attribute instead, which defers to the
// next Render so attachments are never reallocated mid-frame.
func (c *Camera) SetOutputSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.out.SetSize(width, height)
}

// Render draws all linked objects into the target, then the
// calibration markers and any one-shot models. A hidden camera renders
// nothing and returns nil.
func (c *Camera) Render() error {
	c.out.SyncSize()
	if c.newWidth > 0 && c.newHeight > 0 {
		c.SetOutputSize(c.newWidth, c.newHeight)
		c.newWidth, c.newHeight = 0, 0
	}
	if c.hidden {
		return nil
	}
	if len(c.out.Colors) == 0 {
		return ErrNoOutput
	}

	fb := c.out.Framebuffer()
	fb.Bind()
	defer fb.Unbind()

	size := c.out.Size()
	fb.Viewport(size.X, size.Y)

	if c.flashBG {
		fb.Clear(flashColor[0], flashColor[1], flashColor[2], flashColor[3])
	} else {
		fb.Clear(c.clearColor[0], c.clearColor[1], c.clearColor[2], c.clearColor[3])
	}
	if c.drawFrame {
		fb.Clear(frameColor[0], frameColor[1], frameColor[2], frameColor[3])
		fb.Scissor(frameWidth, frameWidth, size.X-2*frameWidth, size.Y-2*frameWidth)
		if c.flashBG {
			fb.Clear(flashColor[0], flashColor[1], flashColor[2], flashColor[3])
		} else {
			fb.Clear(c.clearColor[0], c.clearColor[1], c.clearColor[2], c.clearColor[3])
		}
		fb.Scissor(0, 0, 0, 0)
	}

	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	balanceR, balanceB := colorBalanceFromTemperature(c.colorTemperature)

	for _, obj := range c.objects() {
		obj.Activate()
		sh := obj.Shader()
		sh.SetAttribute("_cameraAttributes", values.Floats(c.blendWidth, c.blackLevel))
		sh.SetAttribute("_fovAndColorBalance", values.Floats(
			c.fov*float64(size.X)/float64(size.Y)*math.Pi/180.0,
			c.fov*math.Pi/180.0,
			balanceR, balanceB))
		sh.SetAttribute("_brightness", values.Floats(c.brightness))
		if c.lutActive && len(c.colorLUT) == 768 {
			sh.SetAttribute("_colorLUT", c.colorLUT)
			sh.SetAttribute("_isColorLUT", values.Floats(1))
			sh.SetAttribute("_colorMixMatrix", c.colorMixMatrix)
		} else {
			sh.SetAttribute("_isColorLUT", values.Floats(0))
		}
		obj.SetViewProjection(view, proj)
		obj.Draw()
		obj.Deactivate()
	}

	if c.displayCalibration {
		c.drawCalibrationMarkers(view, proj)
	}

	for _, d := range c.once {
		obj, ok := c.models[d.model]
		if !ok {
			slog.Warn("camera: unknown one-shot model", "camera", c.Name, "model", d.model)
			continue
		}
		obj.Activate()
		obj.SetModelMatrix(d.rt)
		obj.SetViewProjection(view, proj)
		obj.Draw()
		obj.Deactivate()
	}
	c.once = c.once[:0]

	return nil
}

// drawCalibrationMarkers draws the world and screen markers for this
// camera's calibration points, plus the object-attached points of
// other cameras when enabled.
func (c *Camera) drawCalibrationMarkers(view, proj geom.Matrix4) {
	marker3, ok3 := c.models[Marker3D]
	marker2, ok2 := c.models[Marker2D]

	if ok3 && c.showAllCalibrationPoints {
		// Points attached to the objects but not owned by this camera.
		for _, obj := range c.objects() {
			for _, world := range obj.CalibrationPoints() {
				if c.findPoint(world) >= 0 {
					continue
				}
				c.drawWorldMarker(marker3, view, proj, world, markerObject)
			}
		}
	}
	if !ok3 && !ok2 {
		return
	}

	for i, p := range c.points {
		color := markerAdded
		screenColor := screenMarkerSet
		switch {
		case i == c.selected:
			color = markerSelected
			screenColor = screenMarkerSelected
		case p.IsSet:
			color = markerSet
		}
		if ok3 {
			c.drawWorldMarker(marker3, view, proj, p.World, color)
		}
		if ok2 && p.IsSet {
			c.drawScreenMarker(marker2, p.Screen, screenColor)
		}
	}
}

func (c *Camera) drawWorldMarker(m render.Renderable, view, proj geom.Matrix4, world geom.Vector3, color [4]float64) {
	// Scale with distance so markers keep a constant apparent size.
	scale := worldMarkerScale * c.eye.Sub(world).Length() * c.fov
	rt := geom.Identity4()
	rt.Set(0, 0, scale)
	rt.Set(1, 1, scale)
	rt.Set(2, 2, scale)
	rt.Set(0, 3, world.X)
	rt.Set(1, 3, world.Y)
	rt.Set(2, 3, world.Z)

	m.Activate()
	m.SetAttribute("color", values.Floats(color[0], color[1], color[2], color[3]))
	m.SetModelMatrix(rt)
	m.SetViewProjection(view, proj)
	m.Draw()
	m.Deactivate()
}

func (c *Camera) drawScreenMarker(m render.Renderable, screen geom.Vector2, color [4]float64) {
	// Screen markers bypass the camera transform: identity view and
	// projection, model placed directly in clip space.
	rt := geom.Identity4()
	rt.Set(0, 0, screenMarkerScale)
	rt.Set(1, 1, screenMarkerScale)
	rt.Set(2, 2, screenMarkerScale)
	rt.Set(0, 3, screen.X)
	rt.Set(1, 3, screen.Y)

	m.Activate()
	m.SetAttribute("color", values.Floats(color[0], color[1], color[2], color[3]))
	m.SetModelMatrix(rt)
	m.SetViewProjection(geom.Identity4(), geom.Identity4())
	m.Draw()
	m.Deactivate()
}

// viewportSize returns the target size as floats.
func (c *Camera) viewportSize() (w, h float64) {
	size := c.out.Size()
	return float64(size.X), float64(size.Y)
}

// fitToMaxViewport returns the largest size with the target's aspect
// ratio that fits the device limits.
func fitToMaxViewport(size, limits image.Point) image.Point {
	dims := limits
	if size.X >= size.Y {
		dims.Y = dims.X * size.Y / size.X
	} else {
		dims.X = dims.Y * size.X / size.Y
	}
	return dims
}

// colorBalanceFromTemperature returns the red and blue channel gains
// relative to green for the given color temperature in Kelvin, using
// the Tanner Helland blackbody approximation. The temperature is
// clamped to [1000, 15000].
func colorBalanceFromTemperature(temp float64) (r, b float64) {
	t := math.Min(math.Max(temp, 1000), 15000) / 100

	var red, green, blue float64
	if t <= 66 {
		red = 255
	} else {
		red = 329.698727446 * math.Pow(t-60, -0.1332047592)
	}
	if t <= 66 {
		green = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		green = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}
	switch {
	case t >= 66:
		blue = 255
	case t <= 19:
		blue = 0
	default:
		blue = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	red = math.Min(math.Max(red, 0), 255)
	green = math.Min(math.Max(green, 1), 255)
	blue = math.Min(math.Max(blue, 0), 255)
	return red / green, blue / green
}
