// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blend

import (
	"image"
	"math"
)

// DecodeUV decodes one packed texture coordinate from two 16-bit
// channels into a cell index along an axis of the given extent:
// floor((p0*65536 + p1*256) * 2^-16 * extent).
func DecodeUV(p0, p1 uint16, extent int) int {
	return int(math.Floor((float64(p0)*65536.0 + float64(p1)*256.0) / 65536.0 * float64(extent)))
}

// EdgeWeight returns the smooth blend factor for the readback pixel
// (px, py) in a buffer of the given size: the harmonic combination of
// the normalized distances to the nearest horizontal and vertical
// edges, squared, scaled to [0, FullWeight]. A zero blendWidth means
// no soft edge: every claimed texel contributes the full weight.
func EdgeWeight(px, py int, size image.Point, blendWidth float64) uint16 {
	if blendWidth <= 0 {
		return FullWeight
	}
	distX := float64(min(px, size.X-1-px)) / float64(size.X) / blendWidth
	distY := float64(min(py, size.Y-1-py)) / float64(size.Y) / blendWidth
	distX = math.Min(math.Max(distX, 0), 1)
	distY = math.Min(math.Max(distY, 0), 1)

	w := 1.0 / (1.0/distX + 1.0/distY)
	smooth := math.Pow(math.Min(math.Max(w, 0), 1), 2) * FullWeight
	return uint16(smooth)
}

// FromUV builds one camera's contribution map from an RGBA16 UV-pass
// readback. Channels 0-1 of each pixel pack the U coordinate and
// channels 2-3 the V coordinate; the (0, 0) cell is the "no geometry"
// sentinel and is skipped, as is any cell already claimed by this
// camera (each camera counts a texel once). Holes are filled before
// returning, so the result is ready to accumulate.
func FromUV(uv []uint16, size image.Point, mapWidth, mapHeight int, blendWidth float64) *Map {
	m := NewMap(mapWidth, mapHeight)
	for py := 0; py < size.Y; py++ {
		for px := 0; px < size.X; px++ {
			i := (py*size.X + px) * 4
			if i+3 >= len(uv) {
				return m
			}
			x := DecodeUV(uv[i], uv[i+1], mapWidth)
			y := DecodeUV(uv[i+2], uv[i+3], mapHeight)
			if x < 0 || x >= mapWidth || y < 0 || y >= mapHeight {
				continue
			}
			if (x == 0 && y == 0) || m.IsSet(x, y) {
				continue
			}
			cell := EdgeWeight(px, py, size, blendWidth) + CoverageStep
			m.SetCell(x, y, cell)
		}
	}
	m.FillHoles()
	return m
}
