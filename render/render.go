// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render defines the contracts between the mapping core and
// its GPU collaborators: drawable objects, textures, framebuffers, and
// the multi-attachment output target cameras and windows render into.
// The core never talks to the GPU API directly; the gpu package
// provides the wgpu-backed implementations and tests use in-memory
// fakes.
package render

import (
	"image"

	"github.com/prismap/prismap/geom"
	"github.com/prismap/prismap/values"
)

// Format enumerates the texture formats the core needs.
type Format int32

const (
	UndefinedFormat Format = iota

	// RGBA16 is 16 bits per channel unsigned, used for camera outputs
	// so the blend pass can decode packed UV coordinates.
	RGBA16

	// SRGBA8 is the standard 8-bit sRGB format used for window targets.
	SRGBA8

	// Depth32 is a float32 depth buffer.
	Depth32
)

// TextureFormat describes the size and format of a texture.
type TextureFormat struct {
	Size      image.Point
	Format    Format
	Filtering bool
}

// Texture is the contract for a GPU texture. Implementations must
// honor the "size", "resizable", and "filtering" attributes: a size
// change reallocates the texture only while resizable is enabled.
type Texture interface {
	// TexID returns an opaque identifier for the underlying GPU object,
	// for debugging and layout bookkeeping.
	TexID() uintptr

	Bind()
	Unbind()

	// Reset reallocates the texture with the given format.
	Reset(f TextureFormat) error

	// Format returns the current format and dimensions.
	Format() TextureFormat

	// SetAttribute applies one of the texture attributes:
	// "size" [w h], "resizable" [0|1], "filtering" [0|1].
	SetAttribute(name string, args values.Values) bool
}

// Framebuffer is the contract for a GPU framebuffer object with
// color and depth attachments.
type Framebuffer interface {
	AttachColor(index int, tx Texture) error
	AttachDepth(tx Texture) error

	Bind()
	Unbind()

	// Clear clears every color attachment to the given color and the
	// depth attachment to 1.0, within the current scissor if one is set.
	Clear(r, g, b, a float64)

	// Viewport sets the drawing viewport in pixels.
	Viewport(width, height int)

	// Scissor restricts subsequent clears and draws to the given
	// rectangle. A non-positive width or height disables scissoring.
	Scissor(x, y, width, height int)

	// ReadDepth returns the depth value at the given pixel, 1.0 where
	// no geometry was rendered.
	ReadDepth(x, y int) float32

	// ReadColor16 reads back the given color attachment as packed
	// RGBA16 (4 uint16 per pixel, row-major from the bottom row).
	ReadColor16(index int) ([]uint16, image.Point, error)

	Release()
}

// Device creates GPU resources for a target. One device wraps one GPU
// context; all resources it creates share that context.
type Device interface {
	NewTexture(f TextureFormat) (Texture, error)
	NewFramebuffer() (Framebuffer, error)

	// MaxViewportDims returns the largest framebuffer dimensions the
	// device supports, used to size blend-map readbacks.
	MaxViewportDims() image.Point
}

// Shader is the uniform-injection surface of a renderable's shader.
type Shader interface {
	SetAttribute(name string, args values.Values) bool
}

// Renderable is the contract the core expects from drawable 3D
// objects. Renderables own their geometry, shader, and textures; the
// core only activates, configures, and draws them.
type Renderable interface {
	Activate()
	Deactivate()
	Draw()

	SetViewProjection(view, proj geom.Matrix4)
	SetModelMatrix(m geom.Matrix4)
	ModelMatrix() geom.Matrix4

	Shader() Shader

	// ComputeVisibility updates per-vertex visibility for blending.
	ComputeVisibility(view, proj geom.Matrix4, blendWidth float64)

	// TessellateForCamera subdivides geometry along blending edges for
	// this camera's view.
	TessellateForCamera(view, proj geom.Matrix4, blendWidth, blendPrecision float64)

	// TransferVisibilityFromTexture moves visibility data from the
	// currently bound texture into vertex attributes.
	TransferVisibilityFromTexture(width, height int)

	// PickVertex returns the closest vertex to the given object-space
	// point and its distance.
	PickVertex(p geom.Vector3) (closest geom.Vector3, dist float64)

	CalibrationPoints() []geom.Vector3
	AddCalibrationPoint(world geom.Vector3)
	RemoveCalibrationPoint(world geom.Vector3)

	// SetAttribute / GetAttribute expose the renderable's named
	// attributes; the core uses "fill" to swap shader fill modes.
	SetAttribute(name string, args values.Values) bool
	GetAttribute(name string) (values.Values, bool)
}
