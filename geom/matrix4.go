// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix4 is a 4x4 column-major transformation matrix with float64
// elements, following OpenGL conventions: element (row, col) is at
// index col*4+row.
type Matrix4 [16]float64

// Identity4 returns the identity matrix.
func Identity4() Matrix4 {
	var m Matrix4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// At returns the element at the given row and column.
func (m Matrix4) At(row, col int) float64 {
	return m[col*4+row]
}

// Set sets the element at the given row and column.
func (m *Matrix4) Set(row, col int, v float64) {
	m[col*4+row] = v
}

// Mul returns m * o.
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var r Matrix4
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			s := 0.0
			for k := 0; k < 4; k++ {
				s += m[k*4+row] * o[c*4+k]
			}
			r[c*4+row] = s
		}
	}
	return r
}

// MulVector4 returns m * v.
func (m Matrix4) MulVector4(v Vector4) Vector4 {
	return Vector4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// MulVector4T returns the row-vector product v * m, used by the
// interactive rotation operators.
func (m Matrix4) MulVector4T(v Vector4) Vector4 {
	return Vector4{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3]*v.W,
		m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7]*v.W,
		m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11]*v.W,
		m[12]*v.X + m[13]*v.Y + m[14]*v.Z + m[15]*v.W,
	}
}

// Column returns the given column as a [Vector4].
func (m Matrix4) Column(col int) Vector4 {
	return Vector4{m[col*4], m[col*4+1], m[col*4+2], m[col*4+3]}
}

// Inverse returns the inverse of the matrix, with ok=false for a
// singular matrix (the identity is returned in that case).
func (m Matrix4) Inverse() (Matrix4, bool) {
	a := mat.NewDense(4, 4, nil)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			a.Set(row, col, m.At(row, col))
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return Identity4(), false
	}
	var r Matrix4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			r.Set(row, col, inv.At(row, col))
		}
	}
	return r, true
}

// Rotate returns the rotation matrix of angle radians about axis,
// following the OpenGL convention.
func Rotate(angle float64, axis Vector3) Matrix4 {
	a := axis.Normal()
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c

	m := Identity4()
	m.Set(0, 0, c+a.X*a.X*t)
	m.Set(1, 0, a.Y*a.X*t+a.Z*s)
	m.Set(2, 0, a.Z*a.X*t-a.Y*s)
	m.Set(0, 1, a.X*a.Y*t-a.Z*s)
	m.Set(1, 1, c+a.Y*a.Y*t)
	m.Set(2, 1, a.Z*a.Y*t+a.X*s)
	m.Set(0, 2, a.X*a.Z*t+a.Y*s)
	m.Set(1, 2, a.Y*a.Z*t-a.X*s)
	m.Set(2, 2, c+a.Z*a.Z*t)
	return m
}

// RotateVector rotates the vector by angle radians about axis.
func RotateVector(v Vector3, angle float64, axis Vector3) Vector3 {
	return Rotate(angle, axis).MulVector4(Vec4(v.X, v.Y, v.Z, 0)).Vec3()
}

// YawPitchRoll returns the rotation matrix built from yaw, pitch and
// roll angles in radians, applied in that order.
func YawPitchRoll(yaw, pitch, roll float64) Matrix4 {
	ch := math.Cos(yaw)
	sh := math.Sin(yaw)
	cp := math.Cos(pitch)
	sp := math.Sin(pitch)
	cb := math.Cos(roll)
	sb := math.Sin(roll)

	var m Matrix4
	m.Set(0, 0, ch*cb+sh*sp*sb)
	m.Set(1, 0, sb*cp)
	m.Set(2, 0, -sh*cb+ch*sp*sb)
	m.Set(0, 1, -ch*sb+sh*sp*cb)
	m.Set(1, 1, cb*cp)
	m.Set(2, 1, sb*sh+ch*sp*cb)
	m.Set(0, 2, sh*cp)
	m.Set(1, 2, -sp)
	m.Set(2, 2, ch*cp)
	m.Set(3, 3, 1)
	return m
}
