// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"math"

	"github.com/prismap/prismap/geom"
)

// poleGuard is the minimum angle in radians the view direction must
// keep from the vertical axis; elevation changes that would cross it
// are dropped so the camera never flips over the pole.
const poleGuard = 0.2

// MoveEye translates the eye without moving the target.
func (c *Camera) MoveEye(dx, dy, dz float64) {
	c.eye = c.eye.Add(geom.Vec3(dx, dy, dz))
}

// MoveTarget translates the target without moving the eye.
func (c *Camera) MoveTarget(dx, dy, dz float64) {
	c.target = c.target.Add(geom.Vec3(dx, dy, dz))
}

// RotateAroundTarget orbits the eye around the target: yaw about the
// vertical axis, then elevation about the view's horizontal axis,
// guarded against crossing the pole.
func (c *Camera) RotateAroundTarget(yaw, elevation float64) {
	dir := c.target.Sub(c.eye)
	rotZ := geom.Rotate(yaw, geom.Vec3(0, 0, 1))
	dir = rotZ.MulVector4T(geom.Vec4(dir.X, dir.Y, dir.Z, 1)).Vec3()
	c.eye = c.target.Sub(dir)

	dir = c.eye.Sub(c.target)
	dir = geom.RotateVector(dir, elevation, geom.Vec3(dir.Y, -dir.X, 0))
	newEye := dir.Add(c.target)
	if abovePole(newEye.Sub(c.target)) {
		c.eye = newEye
	}
}

// RotateAroundPoint orbits both the eye and the target around an
// arbitrary world point, with the same pole guard as
// [Camera.RotateAroundTarget].
func (c *Camera) RotateAroundPoint(yaw, elevation float64, point geom.Vector3) {
	rotZ := geom.Rotate(yaw, geom.Vec3(0, 0, 1))

	dir := c.eye.Sub(point)
	dir = rotZ.MulVector4T(geom.Vec4(dir.X, dir.Y, dir.Z, 1)).Vec3()
	c.eye = dir.Add(point)

	dir = c.target.Sub(point)
	dir = rotZ.MulVector4T(geom.Vec4(dir.X, dir.Y, dir.Z, 1)).Vec3()
	c.target = dir.Add(point)

	// Elevation rotates about the horizontal axis through the point.
	horiz := c.eye.Sub(point)
	axis := geom.Vec3(horiz.Y, -horiz.X, 0)
	newEye := geom.RotateVector(c.eye.Sub(point), elevation, axis).Add(point)
	newTarget := geom.RotateVector(c.target.Sub(point), elevation, axis).Add(point)
	if abovePole(newEye.Sub(newTarget)) {
		c.eye = newEye
		c.target = newTarget
	}
}

// abovePole reports whether the view direction keeps clear of the
// vertical axis.
func abovePole(dir geom.Vector3) bool {
	folded := geom.Vec3(dir.X, dir.Y, math.Abs(dir.Z)).Normal()
	return folded.Angle(geom.Vec3(0, 0, 1)) >= poleGuard
}

// Pan translates eye and target together in view space: x along the
// view's right axis, y along its up axis, z along the view direction.
func (c *Camera) Pan(dx, dy, dz float64) {
	inv, ok := c.ViewMatrix().Inverse()
	if !ok {
		return
	}
	v := inv.MulVector4(geom.Vec4(dx, dy, dz, 0)).Vec3()
	c.target = c.target.Add(v)
	c.eye = c.eye.Add(v)
}

// Forward moves eye and target along the eye-target axis; positive
// values back the camera away from the target.
func (c *Camera) Forward(dist float64) {
	v := c.eye.Sub(c.target).Normal().MulScalar(dist)
	c.target = c.target.Add(v)
	c.eye = c.eye.Add(v)
}
