// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu is the WebGPU backend for the mapping engine. It
// implements the render package contracts (Device, Texture,
// Framebuffer) and the window package contracts (Surface, Fencer) on
// top of cogentcore.org/core/gpu and wgpu, so the core never touches
// the GPU API directly.
package gpu

import (
	"image"

	core "cogentcore.org/core/gpu"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/prismap/prismap/render"
)

// Device wraps one WebGPU adapter and logical device. Every texture,
// framebuffer, and surface of one engine instance shares one Device.
type Device struct {
	// GP is the underlying GPU with adapter properties and limits.
	GP *core.GPU

	// Dev is the logical device and its queue.
	Dev *core.Device

	// bound is the stack of currently bound sampled textures, filled
	// by Texture.Bind and consumed by renderables when they assemble
	// bind groups for a draw.
	bound []*Texture

	// target is the currently bound framebuffer, if any.
	target *Framebuffer
}

// New opens the default adapter and creates a logical device on it.
func New(name string) (*Device, error) {
	gp := core.NewGPU()
	gp.Config(name)
	dev, err := core.NewDevice(gp)
	if err != nil {
		gp.Release()
		return nil, err
	}
	return &Device{GP: gp, Dev: dev}, nil
}

// NewTexture creates a texture with the given format.
func (d *Device) NewTexture(f render.TextureFormat) (render.Texture, error) {
	return newTexture(d, f)
}

// NewFramebuffer creates an empty framebuffer; attach textures before
// drawing.
func (d *Device) NewFramebuffer() (render.Framebuffer, error) {
	return &Framebuffer{dev: d}, nil
}

// MaxViewportDims returns the largest 2D texture dimensions the
// adapter supports.
func (d *Device) MaxViewportDims() image.Point {
	n := int(d.GP.Limits.Limits.MaxTextureDimension2D)
	return image.Point{n, n}
}

// InsertFence returns a function that blocks until all GPU work
// submitted so far has completed. The wait is conservative: it covers
// everything in the queue at wait time, which always includes the
// work the fence was inserted after.
func (d *Device) InsertFence() func() {
	return d.Dev.WaitDone
}

// Bound returns the currently bound sampled textures, in bind order.
func (d *Device) Bound() []*Texture { return d.bound }

// Target returns the currently bound framebuffer, or nil when drawing
// goes to a window surface.
func (d *Device) Target() *Framebuffer { return d.target }

// Release frees the device and adapter. All resources created from
// the device must be released first.
func (d *Device) Release() {
	d.Dev.Release()
	d.GP.Release()
}

func (d *Device) bindTexture(tx *Texture) {
	d.bound = append(d.bound, tx)
}

func (d *Device) unbindTexture(tx *Texture) {
	for i, b := range d.bound {
		if b == tx {
			d.bound = append(d.bound[:i], d.bound[i+1:]...)
			return
		}
	}
}

// encode starts a command encoder on the device.
func (d *Device) encode() (*wgpu.CommandEncoder, error) {
	return d.Dev.Device.CreateCommandEncoder(nil)
}

// submit finishes the encoder and submits it to the queue.
func (d *Device) submit(cmd *wgpu.CommandEncoder) error {
	cmdBuffer, err := cmd.Finish(nil)
	if err != nil {
		return err
	}
	d.Dev.Queue.Submit(cmdBuffer)
	cmdBuffer.Release()
	cmd.Release()
	return nil
}
