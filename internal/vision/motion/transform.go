// Package motion provides the geometric value types and robust estimation
// used to turn matched feature correspondences into per-frame camera motion.
//
// The central type is Transform, a similarity transform stored in component
// form (translation, rotation, scale). Component form makes the trajectory
// algebra cheap and well behaved: transforms add, subtract, scale and lerp
// componentwise, which is exactly what windowed convolution of a camera path
// needs.
package motion

import (
	"math"

	"golang.org/x/image/math/f64"

	"github.com/steadyframe/stabilise/internal/vision/spatial"
)

// Transform is an invertible 2D similarity map in component form. The
// equivalent matrix is built on demand by Matrix or Apply.
//
// Arithmetic on transforms is componentwise, so a Transform doubles as a
// point on the camera's accumulated trajectory: displacement transforms are
// running sums of velocity transforms.
type Transform struct {
	Translation spatial.Point
	Rotation    float64 // radians
	Scale       float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Add returns the componentwise sum of two transforms.
func (t Transform) Add(o Transform) Transform {
	return Transform{
		Translation: t.Translation.Add(o.Translation),
		Rotation:    t.Rotation + o.Rotation,
		Scale:       t.Scale + o.Scale,
	}
}

// Sub returns the componentwise difference of two transforms.
func (t Transform) Sub(o Transform) Transform {
	return Transform{
		Translation: t.Translation.Sub(o.Translation),
		Rotation:    t.Rotation - o.Rotation,
		Scale:       t.Scale - o.Scale,
	}
}

// Mul returns the transform scaled componentwise by s.
func (t Transform) Mul(s float64) Transform {
	return Transform{
		Translation: t.Translation.Scale(s),
		Rotation:    t.Rotation * s,
		Scale:       t.Scale * s,
	}
}

// Lerp linearly interpolates from a toward b by fraction frac.
func Lerp(a, b Transform, frac float64) Transform {
	return a.Mul(1 - frac).Add(b.Mul(frac))
}

// Apply maps the point p through the transform.
func (t Transform) Apply(p spatial.Point) spatial.Point {
	sin, cos := math.Sincos(t.Rotation)
	return spatial.Point{
		X: t.Scale*(p.X*cos-p.Y*sin) + t.Translation.X,
		Y: t.Scale*(p.X*sin+p.Y*cos) + t.Translation.Y,
	}
}

// Matrix returns the row-major 2x3 affine matrix form, suitable for warp
// application via golang.org/x/image/draw.
func (t Transform) Matrix() f64.Aff3 {
	sin, cos := math.Sincos(t.Rotation)
	return f64.Aff3{
		t.Scale * cos, -t.Scale * sin, t.Translation.X,
		t.Scale * sin, t.Scale * cos, t.Translation.Y,
	}
}

// Invert returns the inverse transform. Panics if the scale is zero, which
// only a malformed transform can produce.
func (t Transform) Invert() Transform {
	if t.Scale == 0 {
		panic("motion: cannot invert transform with zero scale")
	}
	inv := Transform{Rotation: -t.Rotation, Scale: 1 / t.Scale}
	neg := inv.Apply(t.Translation)
	inv.Translation = spatial.Point{X: -neg.X, Y: -neg.Y}
	return inv
}

// FrameVector pairs the instantaneous frame-to-frame motion (velocity) with
// the running sum of velocities (displacement), i.e. the camera's absolute
// path position at one frame.
type FrameVector struct {
	Displacement Transform
	Velocity     Transform
}

// IdentityVector returns a frame vector with identity displacement and
// velocity.
func IdentityVector() FrameVector {
	return FrameVector{Displacement: Identity(), Velocity: Identity()}
}

// Add returns the componentwise sum of two frame vectors.
func (v FrameVector) Add(o FrameVector) FrameVector {
	return FrameVector{
		Displacement: v.Displacement.Add(o.Displacement),
		Velocity:     v.Velocity.Add(o.Velocity),
	}
}

// Mul returns the frame vector scaled componentwise by s.
func (v FrameVector) Mul(s float64) FrameVector {
	return FrameVector{
		Displacement: v.Displacement.Mul(s),
		Velocity:     v.Velocity.Mul(s),
	}
}
