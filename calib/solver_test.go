// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package calib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismap/prismap/geom"
)

// synthetic builds correspondence pairs by projecting world points
// through a known ground-truth pose.
func synthetic(truth Params, cfg Config, worlds []geom.Vector3) []Correspondence {
	target, up := truth.Orientation()
	view := geom.LookAt(truth.Eye, truth.Eye.Add(target), up)
	proj := geom.Projection(truth.Fov, truth.Cx, truth.Cy, cfg.Width, cfg.Height, cfg.Near, cfg.Far)
	vp := geom.Vp(cfg.Width, cfg.Height)

	pts := make([]Correspondence, len(worlds))
	for i, w := range worlds {
		p := geom.Project(w, view, proj, vp)
		pts[i] = Correspondence{
			World:  w,
			Screen: geom.Vec2(p.X/cfg.Width*2-1, p.Y/cfg.Height*2-1),
		}
	}
	return pts
}

func testWorlds() []geom.Vector3 {
	return []geom.Vector3{
		geom.Vec3(5, -1.5, -1),
		geom.Vec3(5, 1.5, -1),
		geom.Vec3(5, -1.5, 1),
		geom.Vec3(5, 1.5, 1),
		geom.Vec3(7, -2, 0.5),
		geom.Vec3(7, 2, -0.5),
		geom.Vec3(6, 0, 1.5),
		geom.Vec3(6, 0.5, -1.5),
	}
}

func TestSolveRecoversGroundTruth(t *testing.T) {
	cfg := Config{Width: 800, Height: 600, Near: 0.1, Far: 100, Seed: 7}
	truth := Params{Fov: 40, Cx: 0.5, Cy: 0.5, Eye: geom.Vec3(0, 0, 0)}
	pts := synthetic(truth, cfg, testWorlds())
	cfg.Eye = truth.Eye

	res, err := Solve(pts, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	// Bounded reprojection error below the acceptance floor.
	assert.Less(t, res.Objective, objectiveFloor)
	// fov within a few percent of ground truth.
	assert.InDelta(t, truth.Fov, res.Fov, truth.Fov*0.05)
	// eye within a small fraction of scene scale (points ~6 away).
	assert.InDelta(t, truth.Eye.X, res.Eye.X, 0.5)
	assert.InDelta(t, truth.Eye.Y, res.Eye.Y, 0.5)
	assert.InDelta(t, truth.Eye.Z, res.Eye.Z, 0.5)
}

func TestSolveInsufficientData(t *testing.T) {
	cfg := Config{Width: 800, Height: 600, Near: 0.1, Far: 100, Seed: 3}
	truth := Params{Fov: 40, Cx: 0.5, Cy: 0.5}
	pts := synthetic(truth, cfg, testWorlds())[:5]

	_, err := Solve(pts, cfg)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSolveWarnsAtSixPoints(t *testing.T) {
	cfg := Config{Width: 800, Height: 600, Near: 0.1, Far: 100, Seed: 11}
	truth := Params{Fov: 40, Cx: 0.5, Cy: 0.5}
	pts := synthetic(truth, cfg, testWorlds())[:6]
	cfg.Eye = truth.Eye

	res, err := Solve(pts, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)
}

func TestContractConstants(t *testing.T) {
	// These values are part of the calibration protocol.
	assert.Equal(t, 10000, maxIterations)
	assert.Equal(t, 1e-6, simplexSizeTol)
	assert.Equal(t, 0.5, objectiveFloor)
	assert.Equal(t, 4, coarseWorkers)
	assert.Equal(t, 8, refineRuns)

	assert.Equal(t, [nParams]float64{10, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}, coarseSteps)
	assert.Equal(t, [nParams]float64{1, 0.05, 0.05, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01}, fineSteps)
}

func TestObjectiveZeroAtTruth(t *testing.T) {
	cfg := Config{Width: 800, Height: 600, Near: 0.1, Far: 100}
	truth := Params{Fov: 40, Cx: 0.5, Cy: 0.5, Eye: geom.Vec3(0, 0, 0)}
	pts := synthetic(truth, cfg, testWorlds())

	x := []float64{truth.Fov, truth.Cx, truth.Cy, 0, 0, 0, 0, 0, 0}
	assert.InDelta(t, 0, Objective(x, pts, cfg), 1e-9)

	// Perturbing the pose must raise the objective.
	x[0] = 50
	assert.Greater(t, Objective(x, pts, cfg), 1.0)
}

func TestOrientationCanonical(t *testing.T) {
	p := Params{}
	target, up := p.Orientation()
	assert.InDelta(t, 1, target.X, 1e-12)
	assert.InDelta(t, 0, target.Y, 1e-12)
	assert.InDelta(t, 0, target.Z, 1e-12)
	assert.InDelta(t, 1, up.Z, 1e-12)

	// A solve result must always hand back unit vectors.
	p = Params{Euler: geom.Vec3(0.3, -0.2, 0.1)}
	target, up = p.Orientation()
	assert.InDelta(t, 1, target.Length(), 1e-12)
	assert.InDelta(t, 1, up.Length(), 1e-12)
	assert.False(t, math.IsNaN(target.X))
}
