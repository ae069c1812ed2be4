// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image"
	"log/slog"

	"github.com/prismap/prismap/values"
)

// targetDefaultSize is the initial allocation for lazily-created
// attachments, replaced on the first real resize.
var targetDefaultSize = image.Point{512, 512}

// Target is a multi-attachment output target: 1..N color textures plus
// one shared depth texture on a single framebuffer. All attachments
// always share the same dimensions; they are resized together and only
// reallocated while the resizable flag is on.
type Target struct {
	// Colors holds the color attachments, RGBA16 and unfiltered so the
	// blend pass can read packed UV coordinates back.
	Colors []Texture

	// Depth is the shared depth attachment, created lazily with the
	// first color attachment.
	Depth Texture

	dev        Device
	fb         Framebuffer
	size       image.Point
	autoResize bool
}

// NewTarget returns a target on the given device with the requested
// number of color attachments (at least 1).
func NewTarget(dev Device, outputs int) (*Target, error) {
	t := &Target{dev: dev, size: targetDefaultSize, autoResize: true}
	fb, err := dev.NewFramebuffer()
	if err != nil {
		return nil, err
	}
	t.fb = fb
	if outputs < 1 {
		outputs = 1
	}
	if err := t.SetOutputCount(outputs); err != nil {
		return nil, err
	}
	return t, nil
}

// Framebuffer returns the underlying framebuffer.
func (t *Target) Framebuffer() Framebuffer { return t.fb }

// Size returns the current attachment dimensions.
func (t *Target) Size() image.Point { return t.size }

// AutoResize reports whether the target follows upstream size changes.
func (t *Target) AutoResize() bool { return t.autoResize }

// SetAutoResize sets whether attachments follow upstream size changes.
// Disabled automatically when an explicit size is configured.
func (t *Target) SetAutoResize(on bool) {
	t.autoResize = on
	for _, tx := range t.Colors {
		tx.SetAttribute("resizable", values.Floats(boolFloat(on)))
	}
	if t.Depth != nil {
		t.Depth.SetAttribute("resizable", values.Floats(boolFloat(on)))
	}
}

// SetOutputCount grows or shrinks the color attachments to n,
// creating the shared depth attachment on first use. Attachment
// failures are logged and leave the target usable in degraded form.
func (t *Target) SetOutputCount(n int) error {
	if n < 1 || n == len(t.Colors) {
		return nil
	}
	if t.Depth == nil {
		depth, err := t.dev.NewTexture(TextureFormat{Size: t.size, Format: Depth32})
		if err != nil {
			return err
		}
		t.Depth = depth
		if err := t.fb.AttachDepth(depth); err != nil {
			slog.Warn("render target: depth attach failed", "err", err)
		}
	}
	if n < len(t.Colors) {
		for i := n; i < len(t.Colors); i++ {
			t.fb.AttachColor(i, nil)
		}
		t.Colors = t.Colors[:n]
		return nil
	}
	for i := len(t.Colors); i < n; i++ {
		tx, err := t.dev.NewTexture(TextureFormat{Size: t.size, Format: RGBA16})
		if err != nil {
			return err
		}
		tx.SetAttribute("filtering", values.Floats(0))
		t.Colors = append(t.Colors, tx)
		if err := t.fb.AttachColor(i, tx); err != nil {
			slog.Warn("render target: color attach failed", "index", i, "err", err)
		}
	}
	return nil
}

// SetSize resizes every attachment to the given dimensions, forcing
// the resizable flag on for the duration and restoring it afterwards,
// so explicit resizes always win over a disabled auto-resize.
func (t *Target) SetSize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	size := values.Floats(float64(width), float64(height))
	on := values.Floats(1)
	restore := values.Floats(boolFloat(t.autoResize))
	if t.Depth != nil {
		t.Depth.SetAttribute("resizable", on)
		t.Depth.SetAttribute("size", size)
		t.Depth.SetAttribute("resizable", restore)
	}
	for _, tx := range t.Colors {
		tx.SetAttribute("resizable", on)
		tx.SetAttribute("size", size)
		tx.SetAttribute("resizable", restore)
	}
	t.size = image.Point{width, height}
}

// SyncSize adopts a size change made directly on the first color
// attachment (windows back-propagate their drawable size through the
// texture's "size" attribute) and resizes the remaining attachments to
// match. No-op while auto-resize is off.
func (t *Target) SyncSize() {
	if !t.autoResize || len(t.Colors) == 0 {
		return
	}
	size := t.Colors[0].Format().Size
	if size == t.size || size.X <= 0 || size.Y <= 0 {
		return
	}
	t.SetSize(size.X, size.Y)
}

// Bind binds the framebuffer for drawing.
func (t *Target) Bind() { t.fb.Bind() }

// Unbind releases the framebuffer.
func (t *Target) Unbind() { t.fb.Unbind() }

// Release frees the framebuffer. Textures are released by the device.
func (t *Target) Release() {
	if t.fb != nil {
		t.fb.Release()
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
