// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"log/slog"
	"math"

	"github.com/prismap/prismap/calib"
	"github.com/prismap/prismap/geom"
	"github.com/prismap/prismap/values"
)

// CalibrationPoint pairs a world-space point with its observed screen
// position in normalized [-1, 1] coordinates. The screen side only
// constrains the solve once IsSet is true.
type CalibrationPoint struct {
	World  geom.Vector3
	Screen geom.Vector2
	IsSet  bool
}

// SetSolverSeed fixes the calibration solver's random seed; 0 (the
// default) draws a fresh seed per solve.
func (c *Camera) SetSolverSeed(seed uint64) { c.seed = seed }

// CalibrationPoints returns a copy of the camera's calibration points.
func (c *Camera) CalibrationPoints() []CalibrationPoint {
	pts := make([]CalibrationPoint, len(c.points))
	copy(pts, c.points)
	return pts
}

// SelectedPoint returns the index of the selected point, -1 for none.
func (c *Camera) SelectedPoint() int { return c.selected }

func (c *Camera) findPoint(world geom.Vector3) int {
	for i, p := range c.points {
		if p.World == world {
			return i
		}
	}
	return -1
}

func (c *Camera) updatePointState() {
	if len(c.points) == 0 {
		c.state = Uncalibrated
		return
	}
	if c.state == Uncalibrated || c.state == Calibrated {
		c.state = PointsCollected
	}
}

// AddCalibrationPoint adds a world point and selects it. Adding an
// already-known point only selects it; the point is propagated to
// every linked object either way so their markers stay in sync.
func (c *Camera) AddCalibrationPoint(world geom.Vector3) {
	if i := c.findPoint(world); i >= 0 {
		c.selected = i
		return
	}
	c.points = append(c.points, CalibrationPoint{World: world})
	c.selected = len(c.points) - 1
	for _, obj := range c.objects() {
		obj.AddCalibrationPoint(world)
	}
	c.updatePointState()
}

// SetCalibrationPoint sets the screen position of the selected point
// directly and marks it set.
func (c *Camera) SetCalibrationPoint(screen geom.Vector2) bool {
	if c.selected < 0 {
		return false
	}
	c.points[c.selected].Screen = screen
	c.points[c.selected].IsSet = true
	c.updatePointState()
	return true
}

// MoveCalibrationPoint shifts the selected point's screen position by
// the given pixel delta, marking it set. If a calibration has already
// run, the solve is re-issued immediately so the pose tracks the drag.
func (c *Camera) MoveCalibrationPoint(dx, dy float64) bool {
	if c.selected < 0 {
		return false
	}
	w, h := c.viewportSize()
	c.points[c.selected].Screen.X += dx / w
	c.points[c.selected].Screen.Y += dy / h
	c.points[c.selected].IsSet = true
	c.updatePointState()
	if c.calibrated {
		if err := c.Calibrate(); err != nil {
			slog.Warn("camera: recalibration after point move failed",
				"camera", c.Name, "err", err)
		}
	}
	return true
}

// RemoveCalibrationPoint removes the point at the exact world
// position. With unlessSet, a point whose screen position has been set
// is kept.
func (c *Camera) RemoveCalibrationPoint(world geom.Vector3, unlessSet bool) bool {
	i := c.findPoint(world)
	if i < 0 {
		return false
	}
	if unlessSet && c.points[i].IsSet {
		return false
	}
	c.removeAt(i)
	return true
}

// RemoveNearestCalibrationPoint removes the point whose projected
// screen position is closest to the given normalized position.
func (c *Camera) RemoveNearestCalibrationPoint(screen geom.Vector2) bool {
	i := c.nearestPoint(screen)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Camera) removeAt(i int) {
	world := c.points[i].World
	c.points = append(c.points[:i], c.points[i+1:]...)
	switch {
	case c.selected == i:
		c.selected = -1
	case c.selected > i:
		c.selected--
	}
	for _, obj := range c.objects() {
		obj.RemoveCalibrationPoint(world)
	}
	c.updatePointState()
}

// nearestPoint returns the index of the point whose projection is
// closest to the normalized screen position, -1 when there are none.
func (c *Camera) nearestPoint(screen geom.Vector2) int {
	if len(c.points) == 0 {
		return -1
	}
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	w, h := c.viewportSize()
	vp := geom.Vp(w, h)

	best := -1
	bestDist := math.Inf(1)
	for i, p := range c.points {
		pos := geom.Project(p.World, view, proj, vp)
		dx := pos.X/w*2 - 1 - screen.X
		dy := pos.Y/h*2 - 1 - screen.Y
		if d := dx*dx + dy*dy; d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// SelectNextCalibrationPoint cycles the selection forward.
func (c *Camera) SelectNextCalibrationPoint() {
	if len(c.points) == 0 {
		c.selected = -1
		return
	}
	c.selected = (c.selected + 1) % len(c.points)
}

// SelectPreviousCalibrationPoint cycles the selection backward.
func (c *Camera) SelectPreviousCalibrationPoint() {
	if len(c.points) == 0 {
		c.selected = -1
		return
	}
	c.selected--
	if c.selected < 0 {
		c.selected = len(c.points) - 1
	}
}

// DeselectCalibrationPoint clears the selection.
func (c *Camera) DeselectCalibrationPoint() { c.selected = -1 }

// calibrationPointsValues serializes the points for bulk save: one
// nested list of [wx wy wz sx sy isSet] per point.
func (c *Camera) calibrationPointsValues() values.Values {
	out := make(values.Values, len(c.points))
	for i, p := range c.points {
		out[i] = values.ListOf(values.Floats(
			p.World.X, p.World.Y, p.World.Z,
			p.Screen.X, p.Screen.Y,
			boolFloat(p.IsSet)))
	}
	return out
}

// setCalibrationPointsValues restores a bulk save, replacing every
// current point and propagating the change to linked objects.
func (c *Camera) setCalibrationPointsValues(args values.Values) bool {
	pts := make([]CalibrationPoint, 0, len(args))
	for _, v := range args {
		l := v.List()
		if len(l) != 6 {
			return false
		}
		f := l.AsFloats()
		pts = append(pts, CalibrationPoint{
			World:  geom.Vec3(f[0], f[1], f[2]),
			Screen: geom.Vec2(f[3], f[4]),
			IsSet:  f[5] > 0,
		})
	}
	for _, obj := range c.objects() {
		for _, p := range c.points {
			obj.RemoveCalibrationPoint(p.World)
		}
		for _, p := range pts {
			obj.AddCalibrationPoint(p.World)
		}
	}
	c.points = pts
	c.selected = -1
	c.updatePointState()
	return true
}

// Calibrate solves for the camera pose and lens parameters from the
// set calibration points and applies the result. The current pose is
// kept on failure.
func (c *Camera) Calibrate() error {
	pts := make([]calib.Correspondence, 0, len(c.points))
	for _, p := range c.points {
		if p.IsSet {
			pts = append(pts, calib.Correspondence{World: p.World, Screen: p.Screen})
		}
	}
	if len(pts) < calib.MinPoints {
		return calib.ErrInsufficientData
	}
	c.calibrated = true
	c.state = Calibrating

	w, h := c.viewportSize()
	res, err := calib.Solve(pts, calib.Config{
		Width: w, Height: h,
		Near: c.near, Far: c.far,
		Eye:  c.eye,
		Seed: c.seed,
	})
	if err != nil {
		c.state = PointsCollected
		return err
	}

	dir, up := res.Orientation()
	c.fov = res.Fov
	c.cx, c.cy = res.Cx, res.Cy
	c.eye = res.Eye
	c.target = c.eye.Add(dir)
	c.up = up
	c.state = Calibrated

	slog.Info("camera: calibration applied", "camera", c.Name,
		"fov", c.fov, "objective", res.Objective)
	return nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
