// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render_test

import (
	"image"
	"testing"

	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/render/rendertest"
	"github.com/prismap/prismap/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetAttachments(t *testing.T) {
	dev := rendertest.NewDevice()
	tg, err := render.NewTarget(dev, 2)
	require.NoError(t, err)

	assert.Len(t, tg.Colors, 2)
	require.NotNil(t, tg.Depth)
	assert.Equal(t, render.Depth32, tg.Depth.Format().Format)
	for _, c := range tg.Colors {
		assert.Equal(t, render.RGBA16, c.Format().Format)
		assert.False(t, c.Format().Filtering)
	}

	// Growing keeps the shared depth attachment.
	depth := tg.Depth
	require.NoError(t, tg.SetOutputCount(3))
	assert.Len(t, tg.Colors, 3)
	assert.Same(t, depth, tg.Depth)

	// Shrinking detaches trailing color attachments.
	require.NoError(t, tg.SetOutputCount(1))
	assert.Len(t, tg.Colors, 1)
	_, has := dev.FB.ColorAttachments[2]
	assert.False(t, has)
}

func TestTargetResize(t *testing.T) {
	dev := rendertest.NewDevice()
	tg, err := render.NewTarget(dev, 2)
	require.NoError(t, err)

	tg.SetSize(1920, 1080)
	assert.Equal(t, image.Point{1920, 1080}, tg.Size())
	assert.Equal(t, image.Point{1920, 1080}, tg.Depth.Format().Size)
	for _, c := range tg.Colors {
		assert.Equal(t, image.Point{1920, 1080}, c.Format().Size)
	}

	// Zero dimensions are ignored.
	tg.SetSize(0, 600)
	assert.Equal(t, image.Point{1920, 1080}, tg.Size())

	// Explicit resize still works with auto-resize off, and the
	// resizable flag is restored afterwards.
	tg.SetAutoResize(false)
	tg.SetSize(640, 480)
	assert.Equal(t, image.Point{640, 480}, tg.Depth.Format().Size)
	assert.False(t, tg.Colors[0].(*rendertest.Texture).Resizable)
}

func TestTargetSyncSize(t *testing.T) {
	dev := rendertest.NewDevice()
	tg, err := render.NewTarget(dev, 2)
	require.NoError(t, err)

	// A downstream window resizes the first color attachment through
	// its texture attribute; SyncSize pulls the rest along.
	tg.Colors[0].SetAttribute("size", values.Floats(1280, 720))
	tg.SyncSize()
	assert.Equal(t, image.Point{1280, 720}, tg.Size())
	assert.Equal(t, image.Point{1280, 720}, tg.Depth.Format().Size)
	assert.Equal(t, image.Point{1280, 720}, tg.Colors[1].Format().Size)

	// With auto-resize off the attachment change is not adopted.
	tg.SetAutoResize(true)
	tg.SetSize(640, 480)
	tg.SetAutoResize(false)
	tg.Colors[0].SetAttribute("resizable", values.Floats(1))
	tg.Colors[0].SetAttribute("size", values.Floats(800, 600))
	tg.SyncSize()
	assert.Equal(t, image.Point{640, 480}, tg.Size())
}
