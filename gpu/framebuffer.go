// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	core "cogentcore.org/core/gpu"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/prismap/prismap/render"
)

// readbackAlign is the WebGPU row alignment for texture-to-buffer
// copies.
const readbackAlign = 256

// Framebuffer is a set of color attachments plus an optional depth
// attachment, implementing render.Framebuffer. Coordinates follow the
// bottom-left origin convention of the core: scissor rectangles and
// readback pixels are flipped to texture rows internally.
type Framebuffer struct {
	dev    *Device
	colors []*Texture
	depth  *Texture

	viewport  image.Point
	scissor   image.Rectangle
	scissorOn bool
}

// AttachColor sets the color attachment at the given index; a nil
// texture detaches it.
func (f *Framebuffer) AttachColor(index int, tx render.Texture) error {
	if index < 0 {
		return fmt.Errorf("gpu: color attachment index %d", index)
	}
	for index >= len(f.colors) {
		f.colors = append(f.colors, nil)
	}
	if tx == nil {
		f.colors[index] = nil
		return nil
	}
	gt, ok := tx.(*Texture)
	if !ok {
		return fmt.Errorf("gpu: foreign texture attached")
	}
	f.colors[index] = gt
	return nil
}

// AttachDepth sets the depth attachment.
func (f *Framebuffer) AttachDepth(tx render.Texture) error {
	if tx == nil {
		f.depth = nil
		return nil
	}
	gt, ok := tx.(*Texture)
	if !ok {
		return fmt.Errorf("gpu: foreign texture attached")
	}
	f.depth = gt
	return nil
}

// Bind makes this the device's current draw target.
func (f *Framebuffer) Bind() { f.dev.target = f }

// Unbind releases the draw target.
func (f *Framebuffer) Unbind() {
	if f.dev.target == f {
		f.dev.target = nil
	}
}

// Viewport sets the drawing viewport in pixels.
func (f *Framebuffer) Viewport(width, height int) {
	f.viewport = image.Point{width, height}
}

// CurrentViewport returns the viewport set for this framebuffer.
func (f *Framebuffer) CurrentViewport() image.Point { return f.viewport }

// Scissor restricts clears and draws to the given rectangle, with a
// bottom-left origin. A non-positive width or height disables
// scissoring.
func (f *Framebuffer) Scissor(x, y, width, height int) {
	if width <= 0 || height <= 0 {
		f.scissorOn = false
		return
	}
	f.scissor = image.Rect(x, y, x+width, y+height)
	f.scissorOn = true
}

// CurrentScissor returns the scissor rectangle and whether scissoring
// is enabled.
func (f *Framebuffer) CurrentScissor() (image.Rectangle, bool) {
	return f.scissor, f.scissorOn
}

// Colors returns the color attachments, for renderables building
// render passes against this framebuffer.
func (f *Framebuffer) Colors() []*Texture { return f.colors }

// DepthTexture returns the depth attachment, or nil.
func (f *Framebuffer) DepthTexture() *Texture { return f.depth }

// Clear clears the attachments to the given color. Without a scissor
// this is a load-op clear of every color attachment and a depth clear
// to 1.0. With a scissor only the color attachments are filled,
// within the rectangle.
func (f *Framebuffer) Clear(r, g, b, a float64) {
	if f.scissorOn {
		f.clearScissored(r, g, b, a)
		return
	}
	var atts []wgpu.RenderPassColorAttachment
	for _, tx := range f.colors {
		if tx == nil {
			continue
		}
		atts = append(atts, wgpu.RenderPassColorAttachment{
			View:       tx.view,
			LoadOp:     wgpu.LoadOpClear,
			ClearValue: wgpu.Color{R: r, G: g, B: b, A: a},
			StoreOp:    wgpu.StoreOpStore,
		})
	}
	rpd := &wgpu.RenderPassDescriptor{ColorAttachments: atts}
	if f.depth != nil {
		rpd.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            f.depth.view,
			DepthClearValue: 1,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
		}
	}
	cmd, err := f.dev.encode()
	if err != nil {
		return
	}
	rp := cmd.BeginRenderPass(rpd)
	rp.End()
	rp.Release()
	f.dev.submit(cmd)
}

// clearScissored fills the scissor rectangle of each color attachment
// with the solid color by uploading pixel data, which avoids a
// dedicated fill pipeline. The depth attachment is left untouched.
func (f *Framebuffer) clearScissored(r, g, b, a float64) {
	for _, tx := range f.colors {
		if tx == nil {
			continue
		}
		rect := f.scissor.Intersect(image.Rectangle{Max: tx.fmt.Size})
		if rect.Empty() {
			continue
		}
		pix := solidPixels(tx.fmt.Format, r, g, b, a, rect.Dx()*rect.Dy())
		if pix == nil {
			continue
		}
		// Scissor origin is bottom-left; texture rows start at the top.
		texY := tx.fmt.Size.Y - rect.Max.Y
		f.dev.Dev.Queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Aspect:   wgpu.TextureAspectAll,
				Texture:  tx.tx,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{X: uint32(rect.Min.X), Y: uint32(texY)},
			},
			pix,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(rect.Dx() * bytesPerPixel(tx.fmt.Format)),
				RowsPerImage: uint32(rect.Dy()),
			},
			&wgpu.Extent3D{
				Width:              uint32(rect.Dx()),
				Height:             uint32(rect.Dy()),
				DepthOrArrayLayers: 1,
			},
		)
	}
}

// ReadDepth returns the depth value at the given pixel (bottom-left
// origin), or 1.0 when there is no depth attachment or the pixel is
// out of range.
func (f *Framebuffer) ReadDepth(x, y int) float32 {
	if f.depth == nil {
		return 1
	}
	size := f.depth.fmt.Size
	if x < 0 || y < 0 || x >= size.X || y >= size.Y {
		return 1
	}
	texY := size.Y - 1 - y
	data, _, err := f.readTexture(f.depth, image.Point{x, texY}, image.Point{1, 1})
	if err != nil || len(data) < 4 {
		return 1
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

// ReadColor16 reads back the given color attachment as packed RGBA16,
// 4 uint16 per pixel, rows bottom-first.
func (f *Framebuffer) ReadColor16(index int) ([]uint16, image.Point, error) {
	if index < 0 || index >= len(f.colors) || f.colors[index] == nil {
		return nil, image.Point{}, fmt.Errorf("gpu: no color attachment %d", index)
	}
	tx := f.colors[index]
	if tx.fmt.Format != render.RGBA16 {
		return nil, image.Point{}, fmt.Errorf("gpu: attachment %d is not RGBA16", index)
	}
	size := tx.fmt.Size
	data, stride, err := f.readTexture(tx, image.Point{}, size)
	if err != nil {
		return nil, image.Point{}, err
	}
	out := make([]uint16, size.X*size.Y*4)
	for row := 0; row < size.Y; row++ {
		src := data[(size.Y-1-row)*stride:]
		dst := out[row*size.X*4:]
		for i := 0; i < size.X*4; i++ {
			dst[i] = binary.LittleEndian.Uint16(src[i*2:])
		}
	}
	return out, size, nil
}

// readTexture copies a texture region into a mappable buffer and
// returns the raw bytes with their row stride.
func (f *Framebuffer) readTexture(tx *Texture, origin, size image.Point) ([]byte, int, error) {
	rowBytes := size.X * bytesPerPixel(tx.fmt.Format)
	stride := (rowBytes + readbackAlign - 1) &^ (readbackAlign - 1)
	bufSize := stride * size.Y
	buf, err := f.dev.Dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  uint64(bufSize),
		Label: "readback",
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, 0, err
	}
	defer buf.Release()

	cmd, err := f.dev.encode()
	if err != nil {
		return nil, 0, err
	}
	err = cmd.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  tx.tx,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(origin.X), Y: uint32(origin.Y)},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(stride),
				RowsPerImage: uint32(size.Y),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(size.X),
			Height:             uint32(size.Y),
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return nil, 0, err
	}
	if err := f.dev.submit(cmd); err != nil {
		return nil, 0, err
	}
	if err := core.BufferReadSync(f.dev.Dev, bufSize, buf); err != nil {
		return nil, 0, err
	}
	mapped := buf.GetMappedRange(0, uint(bufSize))
	data := make([]byte, len(mapped))
	copy(data, mapped)
	buf.Unmap()
	return data, stride, nil
}

// Release drops the attachment references; the textures themselves
// are released by their owner.
func (f *Framebuffer) Release() {
	f.colors = nil
	f.depth = nil
}

// solidPixels encodes n pixels of the given color in the packed
// layout of the format. Depth formats are not fillable this way.
func solidPixels(f render.Format, r, g, b, a float64, n int) []byte {
	clamp16 := func(v float64) uint16 {
		return uint16(min(max(v, 0), 1) * math.MaxUint16)
	}
	switch f {
	case render.RGBA16:
		px := make([]byte, 8)
		binary.LittleEndian.PutUint16(px[0:], clamp16(r))
		binary.LittleEndian.PutUint16(px[2:], clamp16(g))
		binary.LittleEndian.PutUint16(px[4:], clamp16(b))
		binary.LittleEndian.PutUint16(px[6:], clamp16(a))
		return repeatPixel(px, n)
	case render.SRGBA8:
		px := []byte{
			uint8(min(max(r, 0), 1) * math.MaxUint8),
			uint8(min(max(g, 0), 1) * math.MaxUint8),
			uint8(min(max(b, 0), 1) * math.MaxUint8),
			uint8(min(max(a, 0), 1) * math.MaxUint8),
		}
		return repeatPixel(px, n)
	}
	return nil
}

func repeatPixel(px []byte, n int) []byte {
	out := make([]byte, len(px)*n)
	for i := 0; i < n; i++ {
		copy(out[i*len(px):], px)
	}
	return out
}
