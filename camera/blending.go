// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"image"
	"log/slog"

	"github.com/prismap/prismap/blend"
	"github.com/prismap/prismap/values"
)

// renderState captures the display flags a blend pass overrides.
type renderState struct {
	drawFrame          bool
	displayCalibration bool
	size               image.Point
	fills              []values.Values
}

// saveRenderState disables the overlays, records the output size, and
// switches every object's fill mode, returning what restoreRenderState
// needs to undo it.
func (c *Camera) saveRenderState(fill string) renderState {
	st := renderState{
		drawFrame:          c.drawFrame,
		displayCalibration: c.displayCalibration,
		size:               c.out.Size(),
	}
	c.drawFrame = false
	c.displayCalibration = false
	for _, obj := range c.objects() {
		prev, _ := obj.GetAttribute("fill")
		st.fills = append(st.fills, prev)
		obj.SetAttribute("fill", values.Values{values.String(fill)})
	}
	return st
}

func (c *Camera) restoreRenderState(st renderState) {
	c.drawFrame = st.drawFrame
	c.displayCalibration = st.displayCalibration
	c.SetOutputSize(st.size.X, st.size.Y)
	for i, obj := range c.objects() {
		if i < len(st.fills) && st.fills[i] != nil {
			obj.SetAttribute("fill", st.fills[i])
		}
	}
}

// ComputeBlendingMap renders this camera's view in UV fill mode,
// decodes the packed texture coordinates from the readback, and
// accumulates the weighted coverage into the shared map. The shared
// image must be 16-bit grayscale with one texel per blend-map cell;
// anything else is rejected with a logged warning and ErrBadFormat.
//
// The pass renders at a quarter of the largest viewport the device
// supports (aspect preserved) so the UV sampling outresolves the map.
func (c *Camera) ComputeBlendingMap(shared image.Image) error {
	img, ok := shared.(*image.Gray16)
	if !ok {
		slog.Warn("camera: blending map needs a 16-bit grayscale image", "camera", c.Name)
		return blend.ErrBadFormat
	}
	bounds := img.Bounds()

	// One normal pass first, so deferred sizing is applied before the
	// render state is saved and the pass cannot swallow it.
	if err := c.Render(); err != nil {
		return err
	}

	st := c.saveRenderState("uv")
	defer c.restoreRenderState(st)

	dims := fitToMaxViewport(st.size, c.dev.MaxViewportDims())
	c.SetOutputSize(dims.X/4, dims.Y/4)

	if err := c.Render(); err != nil {
		return err
	}
	uv, readSize, err := c.out.Framebuffer().ReadColor16(0)
	if err != nil {
		return err
	}

	m := blend.FromUV(uv, readSize, bounds.Dx(), bounds.Dy(), c.blendWidth)
	return m.AccumulateInto(img)
}

// ComputeBlendingContribution updates per-vertex blending attributes
// on every linked object for this camera's view.
func (c *Camera) ComputeBlendingContribution() {
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	for _, obj := range c.objects() {
		obj.ComputeVisibility(view, proj, c.blendWidth)
	}
}

// ComputeVertexVisibility renders the scene with per-primitive ID
// fill, then has each object transfer the visibility information from
// the bound output texture back into its vertex attributes.
func (c *Camera) ComputeVertexVisibility() error {
	if err := c.Render(); err != nil {
		return err
	}

	st := c.saveRenderState("primitiveId")
	defer c.restoreRenderState(st)

	if err := c.Render(); err != nil {
		return err
	}

	size := c.out.Size()
	if len(c.out.Colors) > 0 {
		c.out.Colors[0].Bind()
		defer c.out.Colors[0].Unbind()
	}
	for _, obj := range c.objects() {
		obj.TransferVisibilityFromTexture(size.X, size.Y)
	}
	return nil
}

// TessellateForCamera subdivides every linked object's geometry along
// this camera's blending edges.
func (c *Camera) TessellateForCamera() {
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	for _, obj := range c.objects() {
		obj.TessellateForCamera(view, proj, c.blendWidth, c.blendPrecision)
	}
}
