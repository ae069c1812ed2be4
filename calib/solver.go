// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package calib recovers camera pose and lens parameters from sparse
// 3D/2D correspondence pairs by derivative-free minimization of the
// mean squared reprojection error.
//
// The objective is highly non-convex: rotational ambiguity creates
// many local minima, so a coarse multi-start stage runs four
// concurrent simplex searches over a grid of principal-point starts
// with randomized field-of-view, and the globally best candidate seeds
// a sequential refinement stage with tighter steps.
package calib

import (
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"

	"github.com/prismap/prismap/geom"
)

// Solver contract values. These are part of the calibration protocol,
// not tuning suggestions: changing them changes which poses the solver
// finds.
const (
	// MinPoints is the hard minimum of set correspondence pairs.
	MinPoints = 6

	// RecommendedPoints is the count below which results are usable
	// but a warning is emitted.
	RecommendedPoints = 7

	nParams = 9 // fov, cx, cy, eye xyz, euler xyz

	maxIterations  = 10000
	simplexSizeTol = 1e-6
	objectiveFloor = 0.5

	coarseWorkers = 4
	refineRuns    = 8

	// The coarse stage sweeps cx/cy starts over [0,1] in gridStep
	// increments (36 starts per worker) and randomizes fov within
	// fovSpread degrees of fovAnchor.
	gridStep  = 0.2
	fovAnchor = 35.0
	fovSpread = 16.0
)

var (
	coarseSteps = [nParams]float64{10.0, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	fineSteps   = [nParams]float64{1.0, 0.05, 0.05, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01}
)

var (
	// ErrInsufficientData reports fewer than MinPoints set pairs.
	ErrInsufficientData = errors.New("calib: needs at least 6 set calibration points")

	// ErrCalibrationFailed reports that no simplex run produced a
	// finite objective.
	ErrCalibrationFailed = errors.New("calib: no solver run produced a finite result")
)

// Correspondence pairs a 3D scene point with its observed normalized
// ([-1,1]) screen position.
type Correspondence struct {
	World  geom.Vector3
	Screen geom.Vector2
}

// Config carries the fixed camera parameters the solve runs against.
type Config struct {
	// Width, Height is the camera viewport in pixels.
	Width, Height float64

	// Near, Far are the projection planes, held fixed.
	Near, Far float64

	// Eye is the current camera position, used as the position start
	// for every coarse search.
	Eye geom.Vector3

	// Seed seeds the fov randomization; 0 draws a random seed.
	// Fixed seeds make solves reproducible.
	Seed uint64
}

// Params is the 9-parameter solution vector.
type Params struct {
	Fov, Cx, Cy float64
	Eye         geom.Vector3
	Euler       geom.Vector3
}

// Orientation converts the Euler-like rotation parameters to the
// normalized target direction and up vector of a camera pose, by
// applying the yaw-pitch-roll rotation to the canonical forward and up
// vectors.
func (p Params) Orientation() (target, up geom.Vector3) {
	rot := geom.YawPitchRoll(p.Euler.X, p.Euler.Y, p.Euler.Z)
	target = rot.MulVector4(geom.Vec4(1, 0, 0, 0)).Vec3().Normal()
	up = rot.MulVector4(geom.Vec4(0, 0, 1, 0)).Vec3().Normal()
	return target, up
}

// Result is a converged solution and its objective value.
type Result struct {
	Params

	// Objective is the mean squared reprojection error in pixels².
	Objective float64

	// Warning is non-empty when the solve succeeded with fewer than
	// RecommendedPoints pairs.
	Warning string
}

func paramsFromVector(x []float64) Params {
	return Params{
		Fov: x[0], Cx: x[1], Cy: x[2],
		Eye:   geom.Vec3(x[3], x[4], x[5]),
		Euler: geom.Vec3(x[6], x[7], x[8]),
	}
}

// Objective returns the mean squared pixel distance between the
// projected world points and the observed screen points for the given
// parameter vector.
func Objective(x []float64, points []Correspondence, cfg Config) float64 {
	p := paramsFromVector(x)
	target, up := p.Orientation()
	view := geom.LookAt(p.Eye, p.Eye.Add(target), up)
	proj := geom.Projection(p.Fov, p.Cx, p.Cy, cfg.Width, cfg.Height, cfg.Near, cfg.Far)
	vp := geom.Vp(cfg.Width, cfg.Height)

	sum := 0.0
	for _, pt := range points {
		projected := geom.Project(pt.World, view, proj, vp)
		ix := (pt.Screen.X + 1) / 2 * cfg.Width
		iy := (pt.Screen.Y + 1) / 2 * cfg.Height
		dx := ix - projected.X
		dy := iy - projected.Y
		sum += dx*dx + dy*dy
	}
	return sum / float64(len(points))
}

// Solve recovers the 9 camera parameters from the given set pairs.
// Callers must pass only pairs whose screen position has been set.
// A new Solve must not be issued while one is in flight.
func Solve(points []Correspondence, cfg Config) (Result, error) {
	if len(points) < MinPoints {
		return Result{}, ErrInsufficientData
	}
	warning := ""
	if len(points) < RecommendedPoints {
		warning = "for better calibration results, use at least 7 points"
		slog.Info("calib: " + warning)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return Objective(x, points, cfg)
		},
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	var mu sync.Mutex
	best := math.Inf(1)
	bestX := make([]float64, nParams)

	// Coarse stage: concurrent multi-start grid sweeps.
	var g errgroup.Group
	for w := 0; w < coarseWorkers; w++ {
		rng := rand.New(rand.NewPCG(seed, uint64(w)))
		g.Go(func() error {
			for s := 0.0; s <= 1.0; s += gridStep {
				for t := 0.0; t <= 1.0; t += gridStep {
					x0 := []float64{
						fovAnchor + (rng.Float64()*2-1)*fovSpread,
						s, t,
						cfg.Eye.X, cfg.Eye.Y, cfg.Eye.Z,
						0, 0, 0,
					}
					x, f, err := runSimplex(problem, x0, coarseSteps)
					if err != nil {
						slog.Warn("calib: minimization error, discarding start", "err", err)
						continue
					}
					mu.Lock()
					if f < best {
						best = f
						copy(bestX, x)
					}
					mu.Unlock()
				}
			}
			return nil
		})
	}
	// Workers log and discard their own failed starts; the group never
	// carries an error.
	_ = g.Wait()

	if math.IsInf(best, 1) || math.IsNaN(best) {
		return Result{}, ErrCalibrationFailed
	}

	// Refinement stage: sequential restarts from the global best with
	// tighter initial steps.
	for i := 0; i < refineRuns; i++ {
		x0 := make([]float64, nParams)
		copy(x0, bestX)
		x, f, err := runSimplex(problem, x0, fineSteps)
		if err != nil {
			slog.Warn("calib: minimization error, discarding refinement", "err", err)
			continue
		}
		if f < best {
			best = f
			copy(bestX, x)
		}
	}

	slog.Info("calib: minimum found",
		"fov", bestX[0], "cx", bestX[1], "cy", bestX[2], "objective", best)

	return Result{
		Params:    paramsFromVector(bestX),
		Objective: best,
		Warning:   warning,
	}, nil
}

// runSimplex runs one bounded Nelder-Mead search from x0, with the
// initial simplex spanned by the given per-parameter step sizes.
func runSimplex(problem optimize.Problem, x0 []float64, steps [nParams]float64) ([]float64, float64, error) {
	verts := make([][]float64, nParams+1)
	vals := make([]float64, nParams+1)
	for i := range verts {
		v := make([]float64, nParams)
		copy(v, x0)
		if i > 0 {
			v[i-1] += steps[i-1]
		}
		verts[i] = v
		vals[i] = problem.Func(v)
	}

	method := &optimize.NelderMead{
		InitialVertices: verts,
		InitialValues:   vals,
	}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		Converger: &floorConverger{
			floor: objectiveFloor,
			size: optimize.FunctionConverge{
				Absolute:   simplexSizeTol,
				Iterations: 100,
			},
		},
	}
	res, err := optimize.Minimize(problem, x0, settings, method)
	if err != nil {
		return nil, math.Inf(1), err
	}
	return res.X, res.F, nil
}

// floorConverger stops a run early once the objective drops below the
// acceptance floor, and otherwise applies the simplex-shrink tolerance
// through function-value convergence.
type floorConverger struct {
	floor float64
	size  optimize.FunctionConverge
}

func (c *floorConverger) Init(dim int) { c.size.Init(dim) }

func (c *floorConverger) Converged(loc *optimize.Location) optimize.Status {
	if loc.F <= c.floor {
		return optimize.FunctionConvergence
	}
	return c.size.Converged(loc)
}
