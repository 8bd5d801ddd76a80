package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	lo := points[0]
	hi := points[0]
	for _, point := range points[1:] {
		lo = lo.Min(point)
		hi = hi.Max(point)
	}

	return AABB{Min: lo, Max: hi}
}

// IntersectP clips the ray segment [0, tMax] against the box using the slab method.
// It returns the parametric entry and exit distances of the overlap.
func (aabb AABB) IntersectP(origin, direction Vec3, tMax float64) (t0, t1 float64, hit bool) {
	t0, t1 = 0, tMax
	for axis := 0; axis < 3; axis++ {
		invDir := 1 / direction.Index(axis)
		tNear := (aabb.Min.Index(axis) - origin.Index(axis)) * invDir
		tFar := (aabb.Max.Index(axis) - origin.Index(axis)) * invDir
		if tNear > tFar {
			tNear, tFar = tFar, tNear
		}
		// Conservative exit distance absorbs rounding error
		tFar *= 1 + 2*gamma3

		// NaN comparisons fail, so a parallel ray on the slab plane keeps the interval
		if tNear > t0 {
			t0 = tNear
		}
		if tFar < t1 {
			t1 = tFar
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// gamma3 bounds the relative error of three floating point operations
const gamma3 = 3 * epsilon / (1 - 3*epsilon)

const epsilon = 0x1p-53

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Diagonal returns the extent of the AABB along each axis
func (aabb AABB) Diagonal() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// Offset returns the position of p relative to the box corners,
// (0,0,0) at Min and (1,1,1) at Max
func (aabb AABB) Offset(p Vec3) Vec3 {
	o := p.Subtract(aabb.Min)
	if aabb.Max.X > aabb.Min.X {
		o.X /= aabb.Max.X - aabb.Min.X
	}
	if aabb.Max.Y > aabb.Min.Y {
		o.Y /= aabb.Max.Y - aabb.Min.Y
	}
	if aabb.Max.Z > aabb.Min.Z {
		o.Z /= aabb.Max.Z - aabb.Min.Z
	}
	return o
}

// Lerp maps a point in [0,1]^3 to the corresponding point inside the box
func (aabb AABB) Lerp(t Vec3) Vec3 {
	return Vec3{
		X: Lerp(t.X, aabb.Min.X, aabb.Max.X),
		Y: Lerp(t.Y, aabb.Min.Y, aabb.Max.Y),
		Z: Lerp(t.Z, aabb.Min.Z, aabb.Max.Z),
	}
}

// Inside reports whether p lies in the closed box
func (aabb AABB) Inside(p Vec3) bool {
	return p.X >= aabb.Min.X && p.X <= aabb.Max.X &&
		p.Y >= aabb.Min.Y && p.Y <= aabb.Max.Y &&
		p.Z >= aabb.Min.Z && p.Z <= aabb.Max.Z
}

// IsDegenerate reports whether the box has zero or negative volume
func (aabb AABB) IsDegenerate() bool {
	d := aabb.Diagonal()
	return !(d.X > 0 && d.Y > 0 && d.Z > 0) || math.IsInf(d.X+d.Y+d.Z, 0)
}
