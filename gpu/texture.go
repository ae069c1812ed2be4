// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/values"
)

// texIDs hands out process-unique texture identifiers.
var texIDs atomic.Uintptr

// Texture is a WebGPU texture with its view, implementing
// render.Texture. Textures are created renderable, sampleable, and
// copyable so the same object can serve as camera output, window
// input, and readback source.
type Texture struct {
	dev       *Device
	id        uintptr
	fmt       render.TextureFormat
	resizable bool

	tx   *wgpu.Texture
	view *wgpu.TextureView
}

func newTexture(d *Device, f render.TextureFormat) (*Texture, error) {
	tx := &Texture{dev: d, id: texIDs.Add(1), resizable: true}
	if err := tx.Reset(f); err != nil {
		return nil, err
	}
	return tx, nil
}

// TexID returns the process-unique identifier of this texture.
func (tx *Texture) TexID() uintptr { return tx.id }

// View returns the texture view, for attaching and bind groups.
func (tx *Texture) View() *wgpu.TextureView { return tx.view }

// Bind pushes the texture onto the device's bound-texture stack.
func (tx *Texture) Bind() { tx.dev.bindTexture(tx) }

// Unbind removes the texture from the device's bound-texture stack.
func (tx *Texture) Unbind() { tx.dev.unbindTexture(tx) }

// Format returns the current format and dimensions.
func (tx *Texture) Format() render.TextureFormat { return tx.fmt }

// Reset reallocates the texture with the given format.
func (tx *Texture) Reset(f render.TextureFormat) error {
	if f.Size.X <= 0 || f.Size.Y <= 0 {
		return fmt.Errorf("gpu: invalid texture size %v", f.Size)
	}
	wf, err := textureFormatFor(f.Format)
	if err != nil {
		return err
	}
	tx.release()
	t, err := tx.dev.Dev.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: fmt.Sprintf("texture%d", tx.id),
		Size: wgpu.Extent3D{
			Width:              uint32(f.Size.X),
			Height:             uint32(f.Size.Y),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wf,
		Usage: wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc |
			wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return err
	}
	view, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return err
	}
	tx.tx = t
	tx.view = view
	tx.fmt = f
	return nil
}

// SetAttribute applies the "size", "resizable", and "filtering"
// texture attributes. A size change reallocates only while resizable
// is on.
func (tx *Texture) SetAttribute(name string, args values.Values) bool {
	switch name {
	case "size":
		if len(args) < 2 {
			return false
		}
		if !tx.resizable {
			return true
		}
		size := image.Point{args[0].Int(), args[1].Int()}
		if size == tx.fmt.Size {
			return true
		}
		f := tx.fmt
		f.Size = size
		return tx.Reset(f) == nil
	case "resizable":
		if len(args) < 1 {
			return false
		}
		tx.resizable = args[0].Bool()
		return true
	case "filtering":
		if len(args) < 1 {
			return false
		}
		tx.fmt.Filtering = args[0].Bool()
		return true
	}
	return false
}

// Release frees the texture and its view.
func (tx *Texture) Release() { tx.release() }

func (tx *Texture) release() {
	if tx.view != nil {
		tx.view.Release()
		tx.view = nil
	}
	if tx.tx != nil {
		tx.tx.Release()
		tx.tx = nil
	}
}

func textureFormatFor(f render.Format) (wgpu.TextureFormat, error) {
	switch f {
	case render.RGBA16:
		return wgpu.TextureFormatRGBA16Uint, nil
	case render.SRGBA8:
		return wgpu.TextureFormatRGBA8UnormSrgb, nil
	case render.Depth32:
		return wgpu.TextureFormatDepth32Float, nil
	}
	return 0, fmt.Errorf("gpu: unsupported texture format %d", f)
}

// bytesPerPixel returns the packed pixel size of a color format.
func bytesPerPixel(f render.Format) int {
	switch f {
	case render.RGBA16:
		return 8
	case render.SRGBA8:
		return 4
	case render.Depth32:
		return 4
	}
	return 0
}
