// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import "math"

// Vector2 is a 2D vector with float64 elements; calibration runs in
// double precision throughout.
type Vector2 struct {
	X, Y float64
}

// Vec2 returns a new [Vector2] with the given x and y components.
func Vec2(x, y float64) Vector2 {
	return Vector2{x, y}
}

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{v.X - o.X, v.Y - o.Y} }

func (v Vector2) MulScalar(s float64) Vector2 { return Vector2{v.X * s, v.Y * s} }

func (v Vector2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Vector3 is a 3D vector with float64 elements.
type Vector3 struct {
	X, Y, Z float64
}

// Vec3 returns a new [Vector3] with the given components.
func Vec3(x, y, z float64) Vector3 {
	return Vector3{x, y, z}
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vector3) MulScalar(s float64) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }

func (v Vector3) Negate() Vector3 { return Vector3{-v.X, -v.Y, -v.Z} }

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normal returns the unit-length version of the vector.
// The zero vector is returned unchanged.
func (v Vector3) Normal() Vector3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.MulScalar(1 / l)
}

// Angle returns the angle in radians between this vector and the other.
func (v Vector3) Angle(o Vector3) float64 {
	d := v.Normal().Dot(o.Normal())
	return math.Acos(math.Max(-1, math.Min(1, d)))
}

// Vector4 is a 4D vector / homogeneous point with float64 elements.
type Vector4 struct {
	X, Y, Z, W float64
}

// Vec4 returns a new [Vector4] with the given components.
func Vec4(x, y, z, w float64) Vector4 {
	return Vector4{x, y, z, w}
}

func (v Vector4) Add(o Vector4) Vector4 {
	return Vector4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W}
}

func (v Vector4) MulScalar(s float64) Vector4 {
	return Vector4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}

// Vec3 returns the X, Y, Z components as a [Vector3], dropping W.
func (v Vector4) Vec3() Vector3 {
	return Vector3{v.X, v.Y, v.Z}
}
