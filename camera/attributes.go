// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package camera

import (
	"math"

	"github.com/prismap/prismap/geom"
	"github.com/prismap/prismap/values"
)

// registerAttributes wires every tunable of the camera into its
// attribute registry. Setters do arity checks only; clamping happens
// where a value has hard limits (color temperature, principal point).
func (c *Camera) registerAttributes() {
	r := &c.attrs

	r.Add("eye", func(args values.Values) bool {
		if len(args) < 3 {
			return false
		}
		f := args.AsFloats()
		c.eye = geom.Vec3(f[0], f[1], f[2])
		return true
	}, func() values.Values {
		return values.Floats(c.eye.X, c.eye.Y, c.eye.Z)
	})

	r.Add("target", func(args values.Values) bool {
		if len(args) < 3 {
			return false
		}
		f := args.AsFloats()
		c.target = geom.Vec3(f[0], f[1], f[2])
		return true
	}, func() values.Values {
		return values.Floats(c.target.X, c.target.Y, c.target.Z)
	})

	r.Add("up", func(args values.Values) bool {
		if len(args) < 3 {
			return false
		}
		f := args.AsFloats()
		c.up = geom.Vec3(f[0], f[1], f[2])
		return true
	}, func() values.Values {
		return values.Floats(c.up.X, c.up.Y, c.up.Z)
	})

	r.Add("fov", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		c.fov = args[0].Float()
		return true
	}, func() values.Values {
		return values.Floats(c.fov)
	})

	r.Add("principalPoint", func(args values.Values) bool {
		if len(args) < 2 {
			return false
		}
		c.cx = clamp(args[0].Float(), 0, 1)
		c.cy = clamp(args[1].Float(), 0, 1)
		return true
	}, func() values.Values {
		return values.Floats(c.cx, c.cy)
	})

	// Size changes are deferred to the next Render so attachments are
	// never reallocated mid-frame.
	r.Add("size", func(args values.Values) bool {
		if len(args) < 2 {
			return false
		}
		c.newWidth = args[0].Int()
		c.newHeight = args[1].Int()
		return true
	}, func() values.Values {
		size := c.out.Size()
		return values.Floats(float64(size.X), float64(size.Y))
	})

	// Interactive pose operators, write-only.
	r.Add("moveEye", vec3Setter(c.MoveEye), nil)
	r.Add("moveTarget", vec3Setter(c.MoveTarget), nil)
	r.Add("pan", vec3Setter(c.Pan), nil)

	r.Add("rotateAroundTarget", func(args values.Values) bool {
		if len(args) < 2 {
			return false
		}
		c.RotateAroundTarget(args[0].Float(), args[1].Float())
		return true
	}, nil)

	r.Add("rotateAroundPoint", func(args values.Values) bool {
		if len(args) < 5 {
			return false
		}
		f := args.AsFloats()
		c.RotateAroundPoint(f[0], f[1], geom.Vec3(f[2], f[3], f[4]))
		return true
	}, nil)

	r.Add("forward", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		c.Forward(args[0].Float())
		return true
	}, nil)

	// Calibration point management.
	r.Add("addCalibrationPoint", func(args values.Values) bool {
		if len(args) < 3 {
			return false
		}
		f := args.AsFloats()
		c.AddCalibrationPoint(geom.Vec3(f[0], f[1], f[2]))
		return true
	}, nil)

	r.Add("setCalibrationPoint", func(args values.Values) bool {
		if len(args) < 2 {
			return false
		}
		return c.SetCalibrationPoint(geom.Vec2(args[0].Float(), args[1].Float()))
	}, nil)

	r.Add("moveCalibrationPoint", func(args values.Values) bool {
		if len(args) < 2 {
			return false
		}
		return c.MoveCalibrationPoint(args[0].Float(), args[1].Float())
	}, nil)

	// removeCalibrationPoint accepts either a world position (3 args,
	// optional 4th "unless set" flag) or a normalized screen position
	// (2 args) that removes the nearest point.
	r.Add("removeCalibrationPoint", func(args values.Values) bool {
		switch {
		case len(args) >= 3:
			f := args.AsFloats()
			unlessSet := len(args) >= 4 && args[3].Bool()
			c.RemoveCalibrationPoint(geom.Vec3(f[0], f[1], f[2]), unlessSet)
			return true
		case len(args) == 2:
			c.RemoveNearestCalibrationPoint(geom.Vec2(args[0].Float(), args[1].Float()))
			return true
		}
		return false
	}, nil)

	r.Add("selectNextCalibrationPoint", func(args values.Values) bool {
		c.SelectNextCalibrationPoint()
		return true
	}, nil)

	r.Add("selectPreviousCalibrationPoint", func(args values.Values) bool {
		c.SelectPreviousCalibrationPoint()
		return true
	}, nil)

	r.Add("deselectCalibrationPoint", func(args values.Values) bool {
		c.DeselectCalibrationPoint()
		return true
	}, nil)

	r.Add("calibrationPoints",
		c.setCalibrationPointsValues,
		c.calibrationPointsValues)

	r.Add("calibrate", func(args values.Values) bool {
		return c.Calibrate() == nil
	}, nil)

	// Blending and color.
	r.Add("blendWidth", floatSetter(&c.blendWidth), floatGetter(&c.blendWidth))
	r.Add("blendPrecision", floatSetter(&c.blendPrecision), floatGetter(&c.blendPrecision))
	r.Add("blackLevel", floatSetter(&c.blackLevel), floatGetter(&c.blackLevel))
	r.Add("brightness", floatSetter(&c.brightness), floatGetter(&c.brightness))

	r.Add("colorTemperature", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		c.colorTemperature = clamp(args[0].Float(), 1000, 15000)
		return true
	}, func() values.Values {
		return values.Floats(c.colorTemperature)
	})

	r.Add("colorLUT", func(args values.Values) bool {
		if len(args) != 768 || !args.AllFloats() {
			return false
		}
		c.colorLUT = args
		return true
	}, func() values.Values {
		return c.colorLUT
	})

	r.Add("activateColorLUT", func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		// 2 toggles, 1/0 set directly.
		switch args[0].Int() {
		case 2:
			c.lutActive = !c.lutActive
		default:
			c.lutActive = args[0].Bool()
		}
		return true
	}, func() values.Values {
		return values.Floats(boolFloat(c.lutActive))
	})

	r.Add("colorMixMatrix", func(args values.Values) bool {
		if len(args) != 9 || !args.AllFloats() {
			return false
		}
		c.colorMixMatrix = args
		return true
	}, func() values.Values {
		return c.colorMixMatrix
	})

	// Display options.
	r.Add("clearColor", func(args values.Values) bool {
		if len(args) < 4 {
			return false
		}
		f := args.AsFloats()
		c.clearColor = [4]float64{f[0], f[1], f[2], f[3]}
		return true
	}, func() values.Values {
		return values.Floats(c.clearColor[0], c.clearColor[1], c.clearColor[2], c.clearColor[3])
	})

	r.Add("frame", boolSetter(&c.drawFrame), boolGetter(&c.drawFrame))
	r.Add("hide", boolSetter(&c.hidden), boolGetter(&c.hidden))
	r.Add("flashBG", boolSetter(&c.flashBG), boolGetter(&c.flashBG))
	r.Add("displayCalibration", boolSetter(&c.displayCalibration), boolGetter(&c.displayCalibration))
	r.Add("displayAllCalibrations", boolSetter(&c.displayAllCalibrations), boolGetter(&c.displayAllCalibrations))
	r.Add("showAllCalibrationPoints", boolSetter(&c.showAllCalibrationPoints), boolGetter(&c.showAllCalibrationPoints))
}

func vec3Setter(f func(x, y, z float64)) values.SetFunc {
	return func(args values.Values) bool {
		if len(args) < 3 {
			return false
		}
		v := args.AsFloats()
		f(v[0], v[1], v[2])
		return true
	}
}

func floatSetter(dst *float64) values.SetFunc {
	return func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		*dst = args[0].Float()
		return true
	}
}

func floatGetter(src *float64) values.GetFunc {
	return func() values.Values { return values.Floats(*src) }
}

func boolSetter(dst *bool) values.SetFunc {
	return func(args values.Values) bool {
		if len(args) < 1 {
			return false
		}
		*dst = args[0].Bool()
		return true
	}
}

func boolGetter(src *bool) values.GetFunc {
	return func() values.Values { return values.Floats(boolFloat(*src)) }
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
