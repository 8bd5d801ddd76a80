package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an affine transform with its cached inverse
type Transform struct {
	m    mgl64.Mat4
	mInv mgl64.Mat4
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{m: mgl64.Ident4(), mInv: mgl64.Ident4()}
}

// NewTransform creates a transform from a matrix. A singular matrix gets a zero inverse.
func NewTransform(m mgl64.Mat4) Transform {
	return Transform{m: m, mInv: m.Inv()}
}

// Translate returns a translation by delta
func Translate(delta Vec3) Transform {
	return NewTransform(mgl64.Translate3D(delta.X, delta.Y, delta.Z))
}

// Scale returns a non-uniform scale
func Scale(x, y, z float64) Transform {
	return NewTransform(mgl64.Scale3D(x, y, z))
}

// Rotate returns a rotation of angle degrees around axis
func Rotate(angleDegrees float64, axis Vec3) Transform {
	a := axis.Normalize()
	return NewTransform(mgl64.HomogRotate3D(mgl64.DegToRad(angleDegrees), mgl64.Vec3{a.X, a.Y, a.Z}))
}

// Compose returns t * other, which applies other first
func (t Transform) Compose(other Transform) Transform {
	return Transform{m: t.m.Mul4(other.m), mInv: other.mInv.Mul4(t.mInv)}
}

// Inverse returns the inverse transform
func (t Transform) Inverse() Transform {
	return Transform{m: t.mInv, mInv: t.m}
}

// IsIdentity reports whether the transform is the identity up to rounding
func (t Transform) IsIdentity() bool {
	return t.m.ApproxFuncEqual(mgl64.Ident4(), func(a, b float64) bool {
		return math.Abs(a-b) < 1e-9
	})
}

// ApplyPoint transforms a point
func (t Transform) ApplyPoint(p Vec3) Vec3 {
	return applyPoint(t.m, p)
}

// ApplyVector transforms a direction, ignoring translation
func (t Transform) ApplyVector(v Vec3) Vec3 {
	return applyVector(t.m, v)
}

// ApplyInverseRay transforms a ray by the inverse transform.
// The direction is not renormalized, so parametric distances are preserved.
func (t Transform) ApplyInverseRay(r Ray) Ray {
	return Ray{
		Origin:    applyPoint(t.mInv, r.Origin),
		Direction: applyVector(t.mInv, r.Direction),
		Time:      r.Time,
	}
}

func applyPoint(m mgl64.Mat4, p Vec3) Vec3 {
	h := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if h[3] == 1 || h[3] == 0 {
		return Vec3{h[0], h[1], h[2]}
	}
	return Vec3{h[0] / h[3], h[1] / h[3], h[2] / h[3]}
}

func applyVector(m mgl64.Mat4, v Vec3) Vec3 {
	h := m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 0})
	return Vec3{h[0], h[1], h[2]}
}
