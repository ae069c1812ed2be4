// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismap/prismap/geom"
	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/render/rendertest"
	"github.com/prismap/prismap/values"
)

func newTestCamera(t *testing.T) (*Camera, *rendertest.Device, *render.Arena) {
	t.Helper()
	dev := rendertest.NewDevice()
	arena := render.NewArena()
	c, err := New("cam", dev, arena)
	require.NoError(t, err)
	return c, dev, arena
}

func TestRenderHiddenDrawsNothing(t *testing.T) {
	c, dev, _ := newTestCamera(t)
	c.Attributes().Set("hide", values.Floats(1))
	require.NoError(t, c.Render())
	assert.Empty(t, dev.FB.Clears)
}

func TestRenderClearsAndDraws(t *testing.T) {
	c, dev, arena := newTestCamera(t)
	obj := rendertest.NewRenderable(geom.Vec3(0, 0, 0))
	c.Link(arena.Add(obj))

	require.NoError(t, c.Render())
	require.Len(t, dev.FB.Clears, 1)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, dev.FB.Clears[0])
	assert.Equal(t, 1, obj.DrawCount)
	assert.False(t, obj.ActiveNow, "object deactivated after draw")

	// Camera uniforms reach the object's shader.
	assert.Contains(t, obj.Shdr.Uniforms, "_cameraAttributes")
	assert.Contains(t, obj.Shdr.Uniforms, "_fovAndColorBalance")
	assert.Contains(t, obj.Shdr.Uniforms, "_brightness")
}

func TestRenderFlashBackground(t *testing.T) {
	c, dev, _ := newTestCamera(t)
	c.Attributes().Set("flashBG", values.Floats(1))
	require.NoError(t, c.Render())
	require.Len(t, dev.FB.Clears, 1)
	assert.Equal(t, flashColor, dev.FB.Clears[0])
}

func TestRenderFrameScissors(t *testing.T) {
	c, dev, _ := newTestCamera(t)
	c.Attributes().Set("frame", values.Floats(1))
	require.NoError(t, c.Render())

	// Background, border, inner clear.
	require.Len(t, dev.FB.Clears, 3)
	assert.Equal(t, frameColor, dev.FB.Clears[1])
	assert.False(t, dev.FB.ScissorOn, "scissor disabled after the frame")
	assert.Equal(t, image.Rect(frameWidth, frameWidth, 512-frameWidth, 512-frameWidth),
		dev.FB.ScissorRect)
}

func TestRenderAppliesPendingResize(t *testing.T) {
	c, _, _ := newTestCamera(t)
	c.Attributes().Set("size", values.Floats(1920, 1080))
	assert.Equal(t, image.Point{512, 512}, c.Target().Size(), "resize deferred")

	require.NoError(t, c.Render())
	assert.Equal(t, image.Point{1920, 1080}, c.Target().Size())
}

func TestRenderFollowsUpstreamTextureResize(t *testing.T) {
	c, dev, _ := newTestCamera(t)

	// A linked window back-propagates its drawable size through the
	// output texture's size attribute.
	c.Target().Colors[0].SetAttribute("size", values.Floats(1280, 720))
	require.NoError(t, c.Render())
	assert.Equal(t, image.Point{1280, 720}, c.Target().Size())
	assert.Equal(t, image.Point{1280, 720}, dev.FB.ViewportRect)
}

func TestDrawModelOnce(t *testing.T) {
	c, _, _ := newTestCamera(t)
	marker := rendertest.NewRenderable()
	c.SetModel("axes", marker)
	c.DrawModelOnce("axes", geom.Identity4())

	require.NoError(t, c.Render())
	assert.Equal(t, 1, marker.DrawCount)

	// Drained after one frame.
	require.NoError(t, c.Render())
	assert.Equal(t, 1, marker.DrawCount)
}

func TestCalibrationMarkerColors(t *testing.T) {
	c, _, _ := newTestCamera(t)
	m3 := rendertest.NewRenderable()
	m2 := rendertest.NewRenderable()
	c.SetModel(Marker3D, m3)
	c.SetModel(Marker2D, m2)
	c.Attributes().Set("displayCalibration", values.Floats(1))

	c.AddCalibrationPoint(geom.Vec3(1, 0, 0))
	c.SetCalibrationPoint(geom.Vec2(0.1, 0.1))
	c.AddCalibrationPoint(geom.Vec3(0, 1, 0)) // selected, not set
	require.NoError(t, c.Render())

	// One world marker per point, one screen marker for the set point.
	assert.Equal(t, 2, m3.DrawCount)
	assert.Equal(t, 1, m2.DrawCount)
	// Last world marker drawn is the selected one.
	assert.Equal(t, values.Floats(markerSelected[0], markerSelected[1], markerSelected[2], markerSelected[3]),
		m3.Attrs["color"])
}

func TestLinkPropagatesPoints(t *testing.T) {
	c, _, arena := newTestCamera(t)
	c.AddCalibrationPoint(geom.Vec3(1, 2, 3))

	obj := rendertest.NewRenderable()
	h := arena.Add(obj)
	c.Link(h)
	assert.Equal(t, []geom.Vector3{geom.Vec3(1, 2, 3)}, obj.CalibPoints)

	c.Unlink(h)
	assert.Empty(t, obj.CalibPoints)
}

func TestDeadHandleSkipped(t *testing.T) {
	c, _, arena := newTestCamera(t)
	obj := rendertest.NewRenderable()
	h := arena.Add(obj)
	c.Link(h)
	arena.Remove(h)

	require.NoError(t, c.Render())
	assert.Equal(t, 0, obj.DrawCount)
}

func TestPickVertex(t *testing.T) {
	c, dev, arena := newTestCamera(t)
	obj := rendertest.NewRenderable(geom.Vec3(0, 0, 0), geom.Vec3(2, 0, 0))
	c.Link(arena.Add(obj))

	// No geometry under the cursor: depth reads the 1.0 sentinel.
	_, ok := c.PickVertex(0.5, 0.5)
	assert.False(t, ok)

	dev.FB.DepthData[image.Point{256, 256}] = 0.5
	v, ok := c.PickVertex(0.5, 0.5)
	require.True(t, ok)
	assert.Contains(t, []geom.Vector3{geom.Vec3(0, 0, 0), geom.Vec3(2, 0, 0)}, v)
}

func TestPickFragment(t *testing.T) {
	c, dev, _ := newTestCamera(t)
	_, _, ok := c.PickFragment(0.5, 0.5)
	assert.False(t, ok)

	dev.FB.DepthData[image.Point{256, 256}] = 0.5
	pos, fragDepth, ok := c.PickFragment(0.5, 0.5)
	require.True(t, ok)
	assert.Less(t, fragDepth, 0.0, "view-space depth is negative in front of the camera")
	assert.NotEqual(t, geom.Vector3{}, pos)
}

func TestComputeBlendingMap(t *testing.T) {
	c, dev, arena := newTestCamera(t)
	obj := rendertest.NewRenderable()
	c.Link(arena.Add(obj))

	// 2x2 UV readback mapping into a 4x4 blend map.
	uv := make([]uint16, 2*2*4)
	set := func(px, py int, p0, p1, p2, p3 uint16) {
		i := (py*2 + px) * 4
		uv[i], uv[i+1], uv[i+2], uv[i+3] = p0, p1, p2, p3
	}
	set(0, 0, 0, 0, 0, 0)
	set(1, 0, 0, 128, 0, 128)
	set(0, 1, 0, 128, 0, 128)
	set(1, 1, 0, 64, 0, 128)
	dev.FB.ColorData[0] = uv
	dev.FB.ColorSize = image.Point{2, 2}

	shared := image.NewGray16(image.Rect(0, 0, 4, 4))
	require.NoError(t, c.ComputeBlendingMap(shared))
	assert.NotZero(t, shared.Gray16At(2, 2).Y)

	// Fill mode and output size restored after the pass.
	assert.Equal(t, image.Point{512, 512}, c.Target().Size())
	require.NotEmpty(t, obj.FillHistory)
	assert.Equal(t, "uv", obj.FillHistory[0][0].Str())
	assert.Equal(t, "texture", obj.Attrs["fill"][0].Str())
}

func TestBlendPassKeepsPendingResize(t *testing.T) {
	c, dev, arena := newTestCamera(t)
	obj := rendertest.NewRenderable()
	c.Link(arena.Add(obj))
	dev.FB.ColorData[0] = make([]uint16, 2*2*4)
	dev.FB.ColorSize = image.Point{2, 2}

	c.Attributes().Set("size", values.Floats(1920, 1080))
	shared := image.NewGray16(image.Rect(0, 0, 4, 4))
	require.NoError(t, c.ComputeBlendingMap(shared))

	// The UV pass ran at a quarter of the device maximum with the
	// requested aspect, not at the requested size.
	assert.Equal(t, image.Point{512, 288}, dev.FB.ViewportRect)
	// The resize requested before the pass survives it.
	assert.Equal(t, image.Point{1920, 1080}, c.Target().Size())
}

func TestComputeBlendingMapRejectsBadFormat(t *testing.T) {
	c, _, _ := newTestCamera(t)
	err := c.ComputeBlendingMap(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.Error(t, err)
}

func TestComputeVertexVisibility(t *testing.T) {
	c, _, arena := newTestCamera(t)
	obj := rendertest.NewRenderable()
	c.Link(arena.Add(obj))

	require.NoError(t, c.ComputeVertexVisibility())
	assert.Equal(t, 1, obj.TransferCalls)
	require.NotEmpty(t, obj.FillHistory)
	assert.Equal(t, "primitiveId", obj.FillHistory[0][0].Str())
	assert.Equal(t, "texture", obj.Attrs["fill"][0].Str())
}

func TestVertexVisibilityKeepsPendingResize(t *testing.T) {
	c, _, arena := newTestCamera(t)
	c.Link(arena.Add(rendertest.NewRenderable()))

	c.Attributes().Set("size", values.Floats(1024, 768))
	require.NoError(t, c.ComputeVertexVisibility())
	assert.Equal(t, image.Point{1024, 768}, c.Target().Size())
}

func TestTessellateForCamera(t *testing.T) {
	c, _, arena := newTestCamera(t)
	obj := rendertest.NewRenderable()
	c.Link(arena.Add(obj))

	c.TessellateForCamera()
	c.ComputeBlendingContribution()
	assert.Equal(t, 1, obj.TessellateCalls)
	assert.Equal(t, 1, obj.VisibilityCalls)
}

func TestColorTemperatureClamped(t *testing.T) {
	c, _, _ := newTestCamera(t)
	require.True(t, c.Attributes().Set("colorTemperature", values.Floats(500)))
	v, _ := c.Attributes().Get("colorTemperature")
	assert.Equal(t, 1000.0, v[0].Float())

	require.True(t, c.Attributes().Set("colorTemperature", values.Floats(20000)))
	v, _ = c.Attributes().Get("colorTemperature")
	assert.Equal(t, 15000.0, v[0].Float())
}

func TestColorBalanceFromTemperature(t *testing.T) {
	// Neutral-ish around 6600K, warm below, cool above.
	r, b := colorBalanceFromTemperature(6600)
	assert.InDelta(t, 1.0, r, 0.1)
	assert.InDelta(t, 1.0, b, 0.1)

	r, b = colorBalanceFromTemperature(2000)
	assert.Greater(t, r, 1.0)
	assert.Less(t, b, 1.0)

	r, b = colorBalanceFromTemperature(12000)
	assert.Less(t, r, 1.0)
	assert.Greater(t, b, 1.0)
}

func TestColorLUTArity(t *testing.T) {
	c, _, _ := newTestCamera(t)
	assert.False(t, c.Attributes().Set("colorLUT", values.Floats(1, 2, 3)))

	lut := make([]float64, 768)
	assert.True(t, c.Attributes().Set("colorLUT", values.Floats(lut...)))
	assert.True(t, c.Attributes().Set("activateColorLUT", values.Floats(1)))
	v, _ := c.Attributes().Get("activateColorLUT")
	assert.True(t, v[0].Bool())

	// 2 toggles.
	assert.True(t, c.Attributes().Set("activateColorLUT", values.Floats(2)))
	v, _ = c.Attributes().Get("activateColorLUT")
	assert.False(t, v[0].Bool())
}

func TestPoseOperators(t *testing.T) {
	c, _, _ := newTestCamera(t)
	eye0, target0, _ := c.Pose()

	c.MoveEye(1, 0, 0)
	eye, _, _ := c.Pose()
	assert.Equal(t, eye0.Add(geom.Vec3(1, 0, 0)), eye)

	c.Pan(0, 0, 1)
	eye1, target1, _ := c.Pose()
	assert.InDelta(t, 1.0, eye1.Sub(eye).Length(), 1e-9, "pan keeps eye-target distance")
	assert.InDelta(t, 1.0, target1.Sub(target0).Length(), 1e-9)

	// Orbit keeps the eye-target distance.
	_, target, _ := c.Pose()
	dist := eye1.Sub(target).Length()
	c.RotateAroundTarget(0.3, 0.1)
	eye2, target2, _ := c.Pose()
	assert.Equal(t, target, target2)
	assert.InDelta(t, dist, eye2.Sub(target2).Length(), 1e-9)
}

func TestRotateAroundTargetPoleGuard(t *testing.T) {
	c, _, _ := newTestCamera(t)
	c.Attributes().Set("eye", values.Floats(0, 5, 0))
	c.Attributes().Set("target", values.Floats(0, 0, 0))

	// A moderate elevation is accepted.
	eyeBefore, _, _ := c.Pose()
	c.RotateAroundTarget(0, 0.3)
	eyeAfter, _, _ := c.Pose()
	assert.NotEqual(t, eyeBefore, eyeAfter)

	// An elevation that would bring the view nearly vertical is dropped.
	eyeBefore = eyeAfter
	c.RotateAroundTarget(0, 1.2)
	eyeAfter, _, _ = c.Pose()
	assert.Equal(t, eyeBefore, eyeAfter)
}

func TestProjectionAttributeRoundtrip(t *testing.T) {
	c, _, _ := newTestCamera(t)
	require.True(t, c.Attributes().Set("principalPoint", values.Floats(0.3, 0.7)))
	_, cx, cy := c.Lens()
	assert.Equal(t, 0.3, cx)
	assert.Equal(t, 0.7, cy)

	// Out of range values clamp.
	c.Attributes().Set("principalPoint", values.Floats(-1, 2))
	_, cx, cy = c.Lens()
	assert.Equal(t, 0.0, cx)
	assert.Equal(t, 1.0, cy)
}
