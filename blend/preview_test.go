// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blend

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCell16(img *image.Gray16, x, y int, cell uint16) {
	img.SetGray16(x, y, color.Gray16{Y: cell})
}

func TestPreviewColors(t *testing.T) {
	shared := image.NewGray16(image.Rect(0, 0, 4, 1))
	setCell16(shared, 0, 0, 0)                           // unclaimed
	setCell16(shared, 1, 0, CoverageStep+FullWeight)     // one camera, full
	setCell16(shared, 2, 0, 2*CoverageStep+FullWeight/2) // two cameras, half
	setCell16(shared, 3, 0, 3*CoverageStep+FullWeight)   // three cameras

	out := Preview(shared, 0)
	require.Equal(t, image.Rect(0, 0, 4, 1), out.Bounds())

	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, out.RGBAAt(1, 0))
	half := out.RGBAAt(2, 0)
	assert.Equal(t, half.R, half.G, "two-camera texels are yellow")
	assert.InDelta(t, 127, half.R, 2)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(3, 0))
}

func TestPreviewScalesToFit(t *testing.T) {
	shared := image.NewGray16(image.Rect(0, 0, 400, 100))
	out := Preview(shared, 100)
	assert.Equal(t, image.Rect(0, 0, 100, 25), out.Bounds())

	// Already small enough: returned unscaled.
	small := image.NewGray16(image.Rect(0, 0, 40, 10))
	assert.Equal(t, image.Rect(0, 0, 40, 10), Preview(small, 100).Bounds())
}
