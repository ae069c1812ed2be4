// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	_ "embed"
	"image"
	"log/slog"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/prismap/prismap/geom"
	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/values"
)

//go:embed screen.wgsl
var screenWGSL string

// screenUniforms matches the Params block in screen.wgsl.
type screenUniforms struct {
	WindowSize [2]float32
	Gamma      [2]float32
	Layout     [4]float32
	SwapTest   float32
	DrawGui    float32
	Aux        [2]float32
}

// ScreenQuad is the fullscreen quad a window composites its inputs
// with, drawing into the window's surface. It implements
// render.Renderable; the geometry-related operations are no-ops since
// the quad has no scene geometry.
type ScreenQuad struct {
	dev *Device
	sf  *Surface

	uniforms screenUniforms

	pipeline *wgpu.RenderPipeline
	bgl      *wgpu.BindGroupLayout
	sampler  *wgpu.Sampler
	vtx      *wgpu.Buffer
	uni      [2]*wgpu.Buffer

	// blank16 and blank8 fill unused texture slots so the bind group
	// is always complete.
	blank16 *Texture
	blank8  *Texture

	cmd     *wgpu.CommandEncoder
	rp      *wgpu.RenderPassEncoder
	pending []*wgpu.BindGroup
	draws   int
	skip    bool
}

// NewScreenQuad returns the compositing quad for the given surface.
func NewScreenQuad(dev *Device, sf *Surface) (*ScreenQuad, error) {
	q := &ScreenQuad{dev: dev, sf: sf}
	q.uniforms.Gamma = [2]float32{1, 2.2}
	q.uniforms.SwapTest = -1
	if err := q.build(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *ScreenQuad) build() error {
	dev := q.dev.Dev.Device

	var err error
	q.blank16, err = newTexture(q.dev, render.TextureFormat{
		Size: image.Point{1, 1}, Format: render.RGBA16})
	if err != nil {
		return err
	}
	q.blank8, err = newTexture(q.dev, render.TextureFormat{
		Size: image.Point{1, 1}, Format: render.SRGBA8})
	if err != nil {
		return err
	}

	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "screen",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: screenWGSL},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	entries := []wgpu.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
	}}
	for i := 0; i < 4; i++ {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(1 + i),
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeUint,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		})
	}
	entries = append(entries,
		wgpu.BindGroupLayoutEntry{
			Binding:    5,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
		wgpu.BindGroupLayoutEntry{
			Binding:    6,
			Visibility: wgpu.ShaderStageFragment,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		},
	)
	q.bgl, err = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "screen",
		Entries: entries,
	})
	if err != nil {
		return err
	}
	layout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "screen",
		BindGroupLayouts: []*wgpu.BindGroupLayout{q.bgl},
	})
	if err != nil {
		return err
	}
	defer layout.Release()

	q.sampler, err = dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "screen",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	// Two triangles covering clip space, with bottom-left uv origin.
	q.vtx, err = dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label: "screen-vertices",
		Contents: wgpu.ToBytes([]float32{
			-1, -1, 0, 0,
			1, -1, 1, 0,
			1, 1, 1, 1,
			-1, -1, 0, 0,
			1, 1, 1, 1,
			-1, 1, 0, 1,
		}),
		Usage: wgpu.BufferUsageVertex,
	})
	if err != nil {
		return err
	}
	for i := range q.uni {
		q.uni[i], err = dev.CreateBuffer(&wgpu.BufferDescriptor{
			Size:  uint64(len(wgpu.ToBytes([]screenUniforms{q.uniforms}))),
			Label: "screen-uniforms",
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
	}

	q.pipeline, err = dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "screen",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 16,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				},
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: q.sf.sf.Format.Format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
	})
	return err
}

// Activate acquires the surface frame and opens the render pass.
func (q *ScreenQuad) Activate() {
	view, err := q.sf.sf.GetCurrentTexture()
	if err != nil {
		slog.Warn("gpu: surface texture unavailable", "err", err)
		q.skip = true
		return
	}
	cmd, err := q.dev.encode()
	if err != nil {
		q.skip = true
		return
	}
	q.cmd = cmd
	q.rp = cmd.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			ClearValue: wgpu.Color{A: 1},
			StoreOp:    wgpu.StoreOpStore,
		}},
	})
	q.skip = false
	q.draws = 0
}

// Draw composites the currently bound textures with the current
// uniforms.
func (q *ScreenQuad) Draw() {
	if q.skip || q.rp == nil {
		return
	}
	bound := q.dev.Bound()
	inputs := [4]*Texture{q.blank16, q.blank16, q.blank16, q.blank16}
	gui := q.blank8
	if q.uniforms.DrawGui > 0 {
		if n := len(bound); n > 0 && bound[n-1].fmt.Format == render.SRGBA8 {
			gui = bound[n-1]
		}
	} else {
		n := 0
		for _, tx := range bound {
			if n >= len(inputs) {
				break
			}
			if tx.fmt.Format == render.RGBA16 {
				inputs[n] = tx
				n++
			}
		}
		q.uniforms.Aux[0] = float32(n)
	}

	uni := q.uni[q.draws%len(q.uni)]
	q.dev.Dev.Queue.WriteBuffer(uni, 0, wgpu.ToBytes([]screenUniforms{q.uniforms}))

	entries := []wgpu.BindGroupEntry{{
		Binding: 0,
		Buffer:  uni,
		Size:    uint64(len(wgpu.ToBytes([]screenUniforms{q.uniforms}))),
	}}
	for i, tx := range inputs {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(1 + i), TextureView: tx.view,
		})
	}
	entries = append(entries,
		wgpu.BindGroupEntry{Binding: 5, TextureView: gui.view},
		wgpu.BindGroupEntry{Binding: 6, Sampler: q.sampler},
	)
	bg, err := q.dev.Dev.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "screen",
		Layout:  q.bgl,
		Entries: entries,
	})
	if err != nil {
		slog.Warn("gpu: screen bind group failed", "err", err)
		return
	}
	q.pending = append(q.pending, bg)

	q.rp.SetPipeline(q.pipeline)
	q.rp.SetBindGroup(0, bg, nil)
	q.rp.SetVertexBuffer(0, q.vtx, 0, wgpu.WholeSize)
	q.rp.Draw(6, 1, 0, 0)
	q.draws++
}

// Deactivate closes the render pass and submits the frame. The
// surface presents it on the next SwapBuffers.
func (q *ScreenQuad) Deactivate() {
	if q.rp != nil {
		q.rp.End()
		q.rp.Release()
		q.rp = nil
	}
	if q.cmd != nil {
		q.dev.submit(q.cmd)
		q.cmd = nil
	}
	for _, bg := range q.pending {
		bg.Release()
	}
	q.pending = nil
}

// Shader returns the uniform-injection surface of the quad.
func (q *ScreenQuad) Shader() render.Shader { return q }

// SetAttribute applies a compositing uniform.
func (q *ScreenQuad) SetAttribute(name string, args values.Values) bool {
	switch name {
	case "_windowSize":
		if len(args) < 2 {
			return false
		}
		q.uniforms.WindowSize = [2]float32{float32(args[0].Float()), float32(args[1].Float())}
	case "_gamma":
		if len(args) < 2 {
			return false
		}
		q.uniforms.Gamma = [2]float32{float32(args[0].Float()), float32(args[1].Float())}
	case "_layout":
		if len(args) < 4 {
			return false
		}
		for i := 0; i < 4; i++ {
			q.uniforms.Layout[i] = float32(args[i].Float())
		}
	case "_swapTest":
		if len(args) < 1 {
			return false
		}
		q.uniforms.SwapTest = float32(args[0].Float())
	case "_drawGui":
		if len(args) < 1 {
			return false
		}
		q.uniforms.DrawGui = float32(args[0].Float())
	default:
		return false
	}
	return true
}

// GetAttribute is unused for the screen quad.
func (q *ScreenQuad) GetAttribute(name string) (values.Values, bool) { return nil, false }

// The quad has no scene geometry; the geometry operations of the
// renderable contract are no-ops.

func (q *ScreenQuad) SetViewProjection(view, proj geom.Matrix4) {}
func (q *ScreenQuad) SetModelMatrix(m geom.Matrix4)             {}
func (q *ScreenQuad) ModelMatrix() geom.Matrix4                 { return geom.Identity4() }

func (q *ScreenQuad) ComputeVisibility(view, proj geom.Matrix4, blendWidth float64) {}
func (q *ScreenQuad) TessellateForCamera(view, proj geom.Matrix4, blendWidth, blendPrecision float64) {
}
func (q *ScreenQuad) TransferVisibilityFromTexture(width, height int) {}

func (q *ScreenQuad) PickVertex(p geom.Vector3) (geom.Vector3, float64) {
	return geom.Vector3{}, math.Inf(1)
}

func (q *ScreenQuad) CalibrationPoints() []geom.Vector3         { return nil }
func (q *ScreenQuad) AddCalibrationPoint(world geom.Vector3)    {}
func (q *ScreenQuad) RemoveCalibrationPoint(world geom.Vector3) {}

// Release frees the quad's GPU resources.
func (q *ScreenQuad) Release() {
	if q.pipeline != nil {
		q.pipeline.Release()
	}
	if q.bgl != nil {
		q.bgl.Release()
	}
	if q.sampler != nil {
		q.sampler.Release()
	}
	if q.vtx != nil {
		q.vtx.Release()
	}
	for _, u := range q.uni {
		if u != nil {
			u.Release()
		}
	}
	if q.blank16 != nil {
		q.blank16.Release()
	}
	if q.blank8 != nil {
		q.blank8.Release()
	}
}
