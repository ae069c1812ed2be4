// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom provides the projection and view math for projector
// calibration: off-axis frusta, guarded look-at views, and
// project/unproject against a pixel viewport. Everything runs in
// float64: the calibration solver needs the precision, and the GPU
// boundary converts to float32 at upload time.
package geom

import "math"

// Frustum returns the perspective projection matrix for the given
// frustum planes, following the OpenGL convention.
func Frustum(left, right, bottom, top, near, far float64) Matrix4 {
	var m Matrix4
	m.Set(0, 0, 2*near/(right-left))
	m.Set(1, 1, 2*near/(top-bottom))
	m.Set(0, 2, (right+left)/(right-left))
	m.Set(1, 2, (top+bottom)/(top-bottom))
	m.Set(2, 2, -(far+near)/(far-near))
	m.Set(3, 2, -1)
	m.Set(2, 3, -2*far*near/(far-near))
	return m
}

// Projection returns the asymmetric projection frustum for a projector
// with the given vertical field of view in degrees, normalized principal
// point (cx, cy), viewport aspect given as width and height, and
// near/far planes. The principal point shifts the frustum slab
// off-center on each axis independently, rather than translating the
// camera: this is what aligns a projector image to a surface without
// moving the lens.
func Projection(fov, cx, cy, width, height, near, far float64) Matrix4 {
	tTemp := near * math.Tan(fov*math.Pi/360.0)
	bTemp := -tTemp
	top := tTemp - (cy-0.5)*(tTemp-bTemp)
	bottom := bTemp - (cy-0.5)*(tTemp-bTemp)

	rTemp := tTemp * width / height
	lTemp := bTemp * width / height
	right := rTemp - (cx-0.5)*(rTemp-lTemp)
	left := lTemp - (cx-0.5)*(rTemp-lTemp)

	return Frustum(left, right, bottom, top, near, far)
}

// CorrectTarget returns target, nudged away from eye by a cyclic
// permutation of up's components when the two coincide. This is a
// long-standing guard against the NaNs a degenerate look-at produces;
// the permutation is arbitrary but kept stable so saved configurations
// reproduce exactly.
func CorrectTarget(eye, target, up Vector3) Vector3 {
	if eye != target {
		return target
	}
	return Vector3{eye.X + up.Y, eye.Y + up.Z, eye.Z + up.X}
}

// LookAt returns the right-handed look-at view matrix.
// Callers should guard a degenerate eye==target with [CorrectTarget].
func LookAt(eye, target, up Vector3) Matrix4 {
	f := target.Sub(eye).Normal()
	s := f.Cross(up).Normal()
	u := s.Cross(f)

	m := Identity4()
	m.Set(0, 0, s.X)
	m.Set(0, 1, s.Y)
	m.Set(0, 2, s.Z)
	m.Set(1, 0, u.X)
	m.Set(1, 1, u.Y)
	m.Set(1, 2, u.Z)
	m.Set(2, 0, -f.X)
	m.Set(2, 1, -f.Y)
	m.Set(2, 2, -f.Z)
	m.Set(0, 3, -s.Dot(eye))
	m.Set(1, 3, -u.Dot(eye))
	m.Set(2, 3, f.Dot(eye))
	return m
}

// View returns the look-at view matrix for the pose, correcting a
// degenerate target first.
func View(eye, target, up Vector3) Matrix4 {
	return LookAt(eye, CorrectTarget(eye, target, up), up)
}

// Viewport describes a pixel viewport for [Project] and [Unproject].
type Viewport struct {
	X, Y, Width, Height float64
}

// Vp returns a viewport at origin with the given size.
func Vp(width, height float64) Viewport {
	return Viewport{0, 0, width, height}
}

// Project maps the world-space point through the given view (or
// model-view) and projection matrices into window coordinates within
// the viewport, with depth in [0, 1] as the Z component.
func Project(obj Vector3, view, proj Matrix4, vp Viewport) Vector3 {
	tmp := proj.MulVector4(view.MulVector4(Vec4(obj.X, obj.Y, obj.Z, 1)))
	if tmp.W != 0 {
		tmp = tmp.MulScalar(1 / tmp.W)
	}
	return Vector3{
		(tmp.X*0.5+0.5)*vp.Width + vp.X,
		(tmp.Y*0.5+0.5)*vp.Height + vp.Y,
		tmp.Z*0.5 + 0.5,
	}
}

// Unproject maps window coordinates (with depth in [0, 1] as Z) back
// into world space, with ok=false when the combined matrix is singular.
func Unproject(win Vector3, view, proj Matrix4, vp Viewport) (Vector3, bool) {
	inv, ok := proj.Mul(view).Inverse()
	if !ok {
		return Vector3{}, false
	}
	ndc := Vec4(
		(win.X-vp.X)/vp.Width*2-1,
		(win.Y-vp.Y)/vp.Height*2-1,
		win.Z*2-1,
		1,
	)
	obj := inv.MulVector4(ndc)
	if obj.W == 0 {
		return Vector3{}, false
	}
	return obj.MulScalar(1 / obj.W).Vec3(), true
}
