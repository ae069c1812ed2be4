// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blend

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Preview renders a packed shared map as a color image for
// inspection: brightness is the blend weight, the channel mix shows
// coverage (one projector green, two yellow, three or more red). The
// result is scaled down to fit within maxDim on the longer side,
// preserving aspect; maxDim <= 0 disables scaling.
func Preview(shared *image.Gray16, maxDim int) *image.RGBA {
	b := shared.Bounds()
	full := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := shared.PixOffset(b.Min.X+x, b.Min.Y+y)
			cell := uint16(shared.Pix[i])<<8 | uint16(shared.Pix[i+1])
			v := uint8(min(Weight(cell)*255/FullWeight, 255))
			var c color.RGBA
			c.A = 255
			switch Coverage(cell) {
			case 0:
			case 1:
				c.G = v
			case 2:
				c.R, c.G = v, v
			default:
				c.R = v
			}
			full.SetRGBA(x, y, c)
		}
	}
	long := max(b.Dx(), b.Dy())
	if maxDim <= 0 || long <= maxDim {
		return full
	}
	w := max(b.Dx()*maxDim/long, 1)
	h := max(b.Dy()*maxDim/long, 1)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), full, full.Bounds(), draw.Src, nil)
	return out
}
