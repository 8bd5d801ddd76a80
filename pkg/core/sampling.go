package core

import (
	"math"
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// SampleExponential inverts the CDF of the exponential distribution with rate a.
// u in [0,1) maps to [0, +Inf).
func SampleExponential(u, a float64) float64 {
	return -math.Log(1-u) / a
}

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	return NewVec3(x, y, z)
}

// CoordinateSystem builds two unit vectors that complete an orthonormal basis with v.
// v must be normalized.
func CoordinateSystem(v Vec3) (Vec3, Vec3) {
	sign := math.Copysign(1, v.Z)
	a := -1 / (sign + v.Z)
	b := v.X * v.Y * a
	v2 := NewVec3(1+sign*v.X*v.X*a, sign*b, -sign*v.X)
	v3 := NewVec3(b, sign+v.Y*v.Y*a, -v.Y)
	return v2, v3
}

// SphericalDirection converts spherical coordinates to a unit vector in the local frame
func SphericalDirection(sinTheta, cosTheta, phi float64) Vec3 {
	sinTheta = Clamp(sinTheta, -1, 1)
	return NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), Clamp(cosTheta, -1, 1))
}

// FromFrame maps a local-frame vector onto the basis (x, y, z)
func FromFrame(v, x, y, z Vec3) Vec3 {
	return x.Multiply(v.X).Add(y.Multiply(v.Y)).Add(z.Multiply(v.Z))
}
