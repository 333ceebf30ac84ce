package flight

import (
	"math"
)

// Vec2 is a planar vector. For stick input X is the roll (left/right) axis and
// Y is the pitch (forward/back) axis.
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (v Vec2) Add(other Vec2) Vec2     { return Vec2{v.X + other.X, v.Y + other.Y} }
func (v Vec2) Sub(other Vec2) Vec2     { return Vec2{v.X - other.X, v.Y - other.Y} }
func (v Vec2) Mul(scalar float64) Vec2 { return Vec2{v.X * scalar, v.Y * scalar} }

func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Vec3 is a body-frame vector. For rotations and rates X is pitch, Y is yaw
// and Z is roll.
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

func (v Vec3) Add(other Vec3) Vec3     { return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z} }
func (v Vec3) Sub(other Vec3) Vec3     { return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z} }
func (v Vec3) Mul(scalar float64) Vec3 { return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar} }

func (v Vec3) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Pitch, Yaw and Roll name the components of a rotation or rate vector.
func (v Vec3) Pitch() float64 { return v.X }
func (v Vec3) Yaw() float64   { return v.Y }
func (v Vec3) Roll() float64  { return v.Z }

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Sanitize replaces NaN and infinite components with zero.
func (v Vec3) Sanitize() Vec3 {
	return Vec3{SanitizeFinite(v.X), SanitizeFinite(v.Y), SanitizeFinite(v.Z)}
}

// Sanitize replaces NaN and infinite components with zero.
func (v Vec2) Sanitize() Vec2 {
	return Vec2{SanitizeFinite(v.X), SanitizeFinite(v.Y)}
}
