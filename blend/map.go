// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blend computes multi-projector blending maps. Each camera
// contributes a per-texel weight into a shared map over the UV atlas;
// overlapping projectors fade into each other according to
// distance-to-edge weights (Lancelle et al. 2011, "Soft Edge and Soft
// Corner Blending").
//
// Cells use a packed encoding that downstream consumers rely on: the
// low 12 bits hold the smooth blend factor (0-256 used), and each
// camera claiming the texel adds another 4096 on top, so the high bits
// count coverage.
package blend

import (
	"errors"
	"image"
)

const (
	// FullWeight is the blend factor of a texel fully inside a
	// projector's soft-edge region.
	FullWeight = 256

	// CoverageStep is added once per claiming camera; bits above it
	// encode the projector count.
	CoverageStep = 4096

	weightMask = CoverageStep - 1
)

// ErrBadFormat reports a shared map that is not 16-bit unsigned.
var ErrBadFormat = errors.New("blend: shared map is not 16-bit unsigned")

// Map is one camera's contribution grid, one packed uint16 cell per
// world texel of the shared UV atlas.
type Map struct {
	Width, Height int

	cells []uint16
	set   []bool
}

// NewMap returns an empty contribution map of the given dimensions.
func NewMap(width, height int) *Map {
	return &Map{
		Width:  width,
		Height: height,
		cells:  make([]uint16, width*height),
		set:    make([]bool, width*height),
	}
}

// At returns the packed cell value at (x, y).
func (m *Map) At(x, y int) uint16 {
	return m.cells[y*m.Width+x]
}

// IsSet reports whether the cell was claimed (directly or by hole
// filling).
func (m *Map) IsSet(x, y int) bool {
	return m.set[y*m.Width+x]
}

// SetCell stores a packed value and marks the cell claimed.
func (m *Map) SetCell(x, y int, v uint16) {
	i := y*m.Width + x
	m.cells[i] = v
	m.set[i] = true
}

// Coverage returns how many cameras claim the cell.
func Coverage(cell uint16) int { return int(cell / CoverageStep) }

// Weight returns the smooth blend factor of the cell.
func Weight(cell uint16) int { return int(cell & weightMask) }

// AccumulateInto adds this contribution into the shared map. Addition
// is commutative, so camera order does not matter. The shared map must
// be 16-bit unsigned ([image.Gray16]) with matching dimensions;
// anything else is rejected with [ErrBadFormat] and left untouched.
func (m *Map) AccumulateInto(shared image.Image) error {
	dst, ok := shared.(*image.Gray16)
	if !ok {
		return ErrBadFormat
	}
	b := dst.Bounds()
	if b.Dx() != m.Width || b.Dy() != m.Height {
		return ErrBadFormat
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := dst.PixOffset(b.Min.X+x, b.Min.Y+y)
			cur := uint16(dst.Pix[i])<<8 | uint16(dst.Pix[i+1])
			cur += m.At(x, y)
			dst.Pix[i] = uint8(cur >> 8)
			dst.Pix[i+1] = uint8(cur)
		}
	}
	return nil
}

// FillHoles interpolates unclaimed cells row-major: a run of unset
// cells strictly between two set cells is filled with the linear ramp
// between their values, proportional to horizontal position. Holes
// touching a row edge, with no bracketing set cell on both sides, are
// left at zero.
func (m *Map) FillHoles() {
	for y := 0; y < m.Height; y++ {
		last := -1 // index of the last set cell seen
		for x := 0; x < m.Width; x++ {
			if !m.IsSet(x, y) {
				continue
			}
			if last >= 0 && x > last+1 {
				lo := int(m.At(last, y))
				hi := int(m.At(x, y))
				span := x - last
				for xx := last + 1; xx < x; xx++ {
					step := (hi - lo) * (xx - last) / span
					m.SetCell(xx, y, uint16(lo+step))
				}
			}
			last = x
		}
	}
}
