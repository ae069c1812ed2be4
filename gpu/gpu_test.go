// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismap/prismap/render"
)

// Device-backed behavior needs real hardware; these cover the pure
// encoding helpers.

func TestTextureFormatMapping(t *testing.T) {
	for _, f := range []render.Format{render.RGBA16, render.SRGBA8, render.Depth32} {
		_, err := textureFormatFor(f)
		assert.NoError(t, err)
	}
	_, err := textureFormatFor(render.UndefinedFormat)
	assert.Error(t, err)

	assert.Equal(t, 8, bytesPerPixel(render.RGBA16))
	assert.Equal(t, 4, bytesPerPixel(render.SRGBA8))
	assert.Equal(t, 4, bytesPerPixel(render.Depth32))
}

func TestSolidPixelsRGBA16(t *testing.T) {
	pix := solidPixels(render.RGBA16, 1, 0.5, 0, 2, 3)
	require.Len(t, pix, 3*8)
	assert.Equal(t, uint16(65535), binary.LittleEndian.Uint16(pix[0:]))
	assert.InDelta(t, 32767, binary.LittleEndian.Uint16(pix[2:]), 1)
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(pix[4:]))
	// Out-of-range components clamp.
	assert.Equal(t, uint16(65535), binary.LittleEndian.Uint16(pix[6:]))
	// All pixels identical.
	assert.Equal(t, pix[:8], pix[8:16])
}

func TestSolidPixelsDepthUnsupported(t *testing.T) {
	assert.Nil(t, solidPixels(render.Depth32, 0, 0, 0, 0, 1))
}

func TestReadbackStrideAlignment(t *testing.T) {
	for _, tc := range []struct{ rowBytes, want int }{
		{1, 256}, {256, 256}, {257, 512}, {8 * 300, 2560},
	} {
		stride := (tc.rowBytes + readbackAlign - 1) &^ (readbackAlign - 1)
		assert.Equal(t, tc.want, stride)
	}
}
