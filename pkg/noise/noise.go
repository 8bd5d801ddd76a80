// Package noise implements deterministic 3D gradient noise.
package noise

import (
	"math"
	"math/rand"

	"github.com/df07/go-participating-media/pkg/core"
)

const permSize = 256

// perm is the doubled permutation table, fixed for the life of the process
var perm = buildPermutation(1)

func buildPermutation(seed int64) [2 * permSize]int {
	var table [2 * permSize]int
	p := rand.New(rand.NewSource(seed)).Perm(permSize)
	for i := 0; i < 2*permSize; i++ {
		table[i] = p[i%permSize]
	}
	return table
}

// Noise returns gradient noise at p in roughly [-1, 1]. It is zero at every integer lattice point.
func Noise(p core.Vec3) float64 {
	return noise3(p.X, p.Y, p.Z)
}

func noise3(x, y, z float64) float64 {
	// Lattice cell containing the point
	ix, iy, iz := math.Floor(x), math.Floor(y), math.Floor(z)
	dx, dy, dz := x-ix, y-iy, z-iz
	i := int(ix) & (permSize - 1)
	j := int(iy) & (permSize - 1)
	k := int(iz) & (permSize - 1)

	w000 := grad(i, j, k, dx, dy, dz)
	w100 := grad(i+1, j, k, dx-1, dy, dz)
	w010 := grad(i, j+1, k, dx, dy-1, dz)
	w110 := grad(i+1, j+1, k, dx-1, dy-1, dz)
	w001 := grad(i, j, k+1, dx, dy, dz-1)
	w101 := grad(i+1, j, k+1, dx-1, dy, dz-1)
	w011 := grad(i, j+1, k+1, dx, dy-1, dz-1)
	w111 := grad(i+1, j+1, k+1, dx-1, dy-1, dz-1)

	wx, wy, wz := smoothStep(dx), smoothStep(dy), smoothStep(dz)
	x00 := core.Lerp(wx, w000, w100)
	x10 := core.Lerp(wx, w010, w110)
	x01 := core.Lerp(wx, w001, w101)
	x11 := core.Lerp(wx, w011, w111)
	y0 := core.Lerp(wy, x00, x10)
	y1 := core.Lerp(wy, x01, x11)
	return core.Lerp(wz, y0, y1)
}

func grad(x, y, z int, dx, dy, dz float64) float64 {
	h := perm[perm[perm[x]+y]+z] & 15
	var u, v float64
	if h < 8 || h == 12 || h == 13 {
		u = dx
	} else {
		u = dy
	}
	if h < 4 || h == 12 || h == 13 {
		v = dy
	} else {
		v = dz
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// smoothStep is the quintic fade curve 6t^5 - 15t^4 + 10t^3
func smoothStep(t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 6*t3*t2 - 15*t2*t2 + 10*t3
}

const dnoiseDelta = 0.01

// DNoise returns a finite-difference estimate of the gradient of Noise at p
func DNoise(p core.Vec3) core.Vec3 {
	n := Noise(p)
	return core.NewVec3(
		(noise3(p.X+dnoiseDelta, p.Y, p.Z)-n)/dnoiseDelta,
		(noise3(p.X, p.Y+dnoiseDelta, p.Z)-n)/dnoiseDelta,
		(noise3(p.X, p.Y, p.Z+dnoiseDelta)-n)/dnoiseDelta,
	)
}
