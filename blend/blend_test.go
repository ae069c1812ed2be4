// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blend

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUV(t *testing.T) {
	assert.Equal(t, 0, DecodeUV(0, 0, 64))
	// p1 carries the fractional byte: 128/256 of the extent.
	assert.Equal(t, 32, DecodeUV(0, 128, 64))
	assert.Equal(t, 64, DecodeUV(1, 0, 64))
}

func TestEdgeWeightFlatWithoutBlending(t *testing.T) {
	sz := image.Point{100, 100}
	assert.Equal(t, uint16(FullWeight), EdgeWeight(0, 0, sz, 0))
	assert.Equal(t, uint16(FullWeight), EdgeWeight(50, 50, sz, 0))
}

func TestEdgeWeightFallsOffTowardEdges(t *testing.T) {
	sz := image.Point{100, 100}
	center := EdgeWeight(50, 50, sz, 0.2)
	edge := EdgeWeight(0, 50, sz, 0.2)
	corner := EdgeWeight(0, 0, sz, 0.2)
	assert.Equal(t, uint16(0), edge, "edge pixel has zero soft weight")
	assert.Equal(t, uint16(0), corner)
	assert.Greater(t, center, edge)
	assert.LessOrEqual(t, center, uint16(FullWeight))
}

func TestFillHolesLinearRamp(t *testing.T) {
	m := NewMap(10, 1)
	m.SetCell(0, 0, 100)
	m.SetCell(9, 0, 200)
	m.FillHoles()

	prev := m.At(0, 0)
	for x := 1; x <= 8; x++ {
		cur := m.At(x, 0)
		assert.Greater(t, cur, prev, "ramp must be strictly monotonic at %d", x)
		prev = cur
	}
	assert.Equal(t, uint16(200), m.At(9, 0))
	// Exact linear interpolation values.
	assert.Equal(t, uint16(100+100*4/9), m.At(4, 0))
}

func TestFillHolesLeavesUnbracketedHoles(t *testing.T) {
	m := NewMap(8, 2)
	// Row 0: single set cell, nothing to bracket against.
	m.SetCell(3, 0, 150)
	// Row 1: set cells at 2 and 5 bracket 3..4; 0..1 and 6..7 stay 0.
	m.SetCell(2, 1, 100)
	m.SetCell(5, 1, 160)
	m.FillHoles()

	for x := 0; x < 8; x++ {
		if x != 3 {
			assert.Equal(t, uint16(0), m.At(x, 0))
		}
	}
	assert.Equal(t, uint16(120), m.At(3, 1))
	assert.Equal(t, uint16(140), m.At(4, 1))
	assert.Equal(t, uint16(0), m.At(0, 1))
	assert.Equal(t, uint16(0), m.At(7, 1))
}

func TestAccumulateCommutative(t *testing.T) {
	a := NewMap(4, 4)
	b := NewMap(4, 4)
	a.SetCell(1, 1, 200+CoverageStep)
	a.SetCell(2, 2, 64+CoverageStep)
	b.SetCell(1, 1, 100+CoverageStep)
	b.SetCell(3, 0, 256+CoverageStep)

	ab := image.NewGray16(image.Rect(0, 0, 4, 4))
	ba := image.NewGray16(image.Rect(0, 0, 4, 4))
	require.NoError(t, a.AccumulateInto(ab))
	require.NoError(t, b.AccumulateInto(ab))
	require.NoError(t, b.AccumulateInto(ba))
	require.NoError(t, a.AccumulateInto(ba))

	assert.Equal(t, ab.Pix, ba.Pix)

	cell := ab.Gray16At(1, 1).Y
	assert.Equal(t, 2, Coverage(cell), "two cameras claim (1,1)")
	assert.Equal(t, 300, Weight(cell))
}

func TestAccumulateRejectsBadFormat(t *testing.T) {
	m := NewMap(4, 4)
	err := m.AccumulateInto(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.ErrorIs(t, err, ErrBadFormat)

	err = m.AccumulateInto(image.NewGray16(image.Rect(0, 0, 2, 2)))
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestFromUVSkipsSentinelAndCountsOnce(t *testing.T) {
	// 2x2 readback: one pixel decodes to the (0,0) sentinel, two
	// pixels decode to the same cell (counted once), one to another.
	sz := image.Point{2, 2}
	uv := make([]uint16, 2*2*4)
	set := func(px, py int, p0, p1, p2, p3 uint16) {
		i := (py*2 + px) * 4
		uv[i], uv[i+1], uv[i+2], uv[i+3] = p0, p1, p2, p3
	}
	set(0, 0, 0, 0, 0, 0)     // sentinel
	set(1, 0, 0, 128, 0, 128) // cell (2,2) of 4x4
	set(0, 1, 0, 128, 0, 128) // same cell again
	set(1, 1, 0, 64, 0, 128)  // cell (1,2)

	m := FromUV(uv, sz, 4, 4, 0)
	assert.False(t, m.IsSet(0, 0))
	assert.Equal(t, 1, Coverage(m.At(2, 2)), "duplicate pixels count once")
	assert.Equal(t, FullWeight, Weight(m.At(2, 2)))
	assert.Equal(t, 1, Coverage(m.At(1, 2)))
}
