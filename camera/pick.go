// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"math"

	"github.com/prismap/prismap/geom"
)

// pickDepth reads the depth under the normalized position, with
// ok=false where no geometry was rendered (depth 1.0 sentinel).
func (c *Camera) pickDepth(x, y float64) (px, py, depth float64, ok bool) {
	w, h := c.viewportSize()
	px, py = x*w, y*h
	d := c.out.Framebuffer().ReadDepth(int(px), int(py))
	if d == 1 {
		return 0, 0, 0, false
	}
	return px, py, float64(d), true
}

// PickVertex returns the world position of the mesh vertex closest to
// the geometry under the normalized screen position (x, y in [0, 1]),
// with ok=false where no geometry was rendered.
func (c *Camera) PickVertex(x, y float64) (geom.Vector3, bool) {
	px, py, depth, ok := c.pickDepth(x, y)
	if !ok {
		return geom.Vector3{}, false
	}

	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	w, h := c.viewportSize()
	vp := geom.Vp(w, h)
	win := geom.Vec3(px, py, depth)

	found := false
	best := geom.Vector3{}
	bestDist := math.Inf(1)
	for _, obj := range c.objects() {
		model := obj.ModelMatrix()
		// Unproject into object space so PickVertex compares against
		// untransformed mesh vertices.
		local, ok := geom.Unproject(win, view.Mul(model), proj, vp)
		if !ok {
			continue
		}
		closest, dist := obj.PickVertex(local)
		if dist < bestDist {
			bestDist = dist
			best = model.MulVector4(geom.Vec4(closest.X, closest.Y, closest.Z, 1)).Vec3()
			found = true
		}
	}
	return best, found
}

// PickFragment returns the world position and view-space depth of the
// exact fragment under the normalized screen position.
func (c *Camera) PickFragment(x, y float64) (pos geom.Vector3, fragDepth float64, ok bool) {
	px, py, depth, ok := c.pickDepth(x, y)
	if !ok {
		return geom.Vector3{}, 0, false
	}

	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	w, h := c.viewportSize()
	pos, ok = geom.Unproject(geom.Vec3(px, py, depth), view, proj, geom.Vp(w, h))
	if !ok {
		return geom.Vector3{}, 0, false
	}
	fragDepth = view.MulVector4(geom.Vec4(pos.X, pos.Y, pos.Z, 1)).Z
	return pos, fragDepth, true
}

// PickCalibrationPoint returns the world position of the calibration
// point whose projection is closest to the normalized screen position
// (x, y in [0, 1]), selecting it. ok=false when the camera has no
// points.
func (c *Camera) PickCalibrationPoint(x, y float64) (geom.Vector3, bool) {
	i := c.nearestPoint(geom.Vec2(x*2-1, y*2-1))
	if i < 0 {
		return geom.Vector3{}, false
	}
	c.selected = i
	return c.points[i].World, true
}

// PickVertexOrCalibrationPoint returns whichever is closer to the
// cursor: the nearest pickable vertex or the nearest calibration
// point. A calibration point wins ties so an operator can always
// re-grab a point sitting exactly on a vertex.
func (c *Camera) PickVertexOrCalibrationPoint(x, y float64) (geom.Vector3, bool) {
	w, h := c.viewportSize()
	cursor := geom.Vec2(x*w, y*h)
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	vp := geom.Vp(w, h)

	vertex, vertexOK := c.PickVertex(x, y)
	vertexDist := math.Inf(1)
	if vertexOK {
		p := geom.Project(vertex, view, proj, vp)
		vertexDist = geom.Vec2(p.X, p.Y).Sub(cursor).Length()
	}

	pointDist := math.Inf(1)
	pointIdx := c.nearestPoint(geom.Vec2(x*2-1, y*2-1))
	if pointIdx >= 0 {
		p := geom.Project(c.points[pointIdx].World, view, proj, vp)
		pointDist = geom.Vec2(p.X, p.Y).Sub(cursor).Length()
	}

	switch {
	case pointIdx >= 0 && pointDist <= vertexDist:
		c.selected = pointIdx
		return c.points[pointIdx].World, true
	case vertexOK:
		return vertex, true
	}
	return geom.Vector3{}, false
}
