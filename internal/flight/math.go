package flight

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Gravity is the standard gravitational acceleration in m/s².
const Gravity = 9.81

// Clamp limits value to the closed range [lo, hi].
func Clamp[T constraints.Float](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Clamp01 limits value to [0, 1].
func Clamp01[T constraints.Float](value T) T {
	return Clamp(value, 0, 1)
}

// ClampAbs limits value to [-limit, limit].
func ClampAbs[T constraints.Float](value, limit T) T {
	return Clamp(value, -limit, limit)
}

// NormalizeAngle wraps an angle in degrees into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}

// NormalizeAngles applies NormalizeAngle to every component.
func NormalizeAngles(v Vec3) Vec3 {
	return Vec3{NormalizeAngle(v.X), NormalizeAngle(v.Y), NormalizeAngle(v.Z)}
}

// SanitizeFinite returns 0 for NaN and ±Inf, x otherwise.
func SanitizeFinite(x float64) float64 {
	if !isFinite(x) {
		return 0
	}
	return x
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
