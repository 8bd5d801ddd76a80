// Package volume holds regular voxel lattices sampled over the unit cube.
package volume

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
)

// ErrGridSize is returned when a lattice's value count does not match its resolution
var ErrGridSize = errors.New("grid size mismatch")

// SampledGrid is a scalar lattice of nx*ny*nz samples with x varying fastest.
// Samples sit at voxel centers of [0,1]^3 and are reconstructed with trilinear filtering.
type SampledGrid struct {
	nx, ny, nz int
	values     []float64
}

// NewSampledGrid creates a lattice from values laid out x-fastest
func NewSampledGrid(values []float64, nx, ny, nz int) (*SampledGrid, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("%w: resolution %dx%dx%d", ErrGridSize, nx, ny, nz)
	}
	if len(values) != nx*ny*nz {
		return nil, fmt.Errorf("%w: have %d values, need %d", ErrGridSize, len(values), nx*ny*nz)
	}
	return &SampledGrid{nx: nx, ny: ny, nz: nz, values: append([]float64(nil), values...)}, nil
}

// Resolution returns the lattice dimensions
func (g *SampledGrid) Resolution() core.Point3i {
	return core.NewPoint3i(g.nx, g.ny, g.nz)
}

// At returns the sample at integer coordinates, or zero outside the lattice
func (g *SampledGrid) At(x, y, z int) float64 {
	if x < 0 || x >= g.nx || y < 0 || y >= g.ny || z < 0 || z >= g.nz {
		return 0
	}
	return g.values[(z*g.ny+y)*g.nx+x]
}

// Lookup returns the trilinearly filtered value at p in [0,1]^3
func (g *SampledGrid) Lookup(p core.Vec3) float64 {
	// Compute sample coordinates and offsets for p
	ps := core.NewVec3(p.X*float64(g.nx)-0.5, p.Y*float64(g.ny)-0.5, p.Z*float64(g.nz)-0.5)
	pf := ps.Floor()
	d := ps.Subtract(pf)
	x, y, z := int(pf.X), int(pf.Y), int(pf.Z)

	d00 := core.Lerp(d.X, g.At(x, y, z), g.At(x+1, y, z))
	d10 := core.Lerp(d.X, g.At(x, y+1, z), g.At(x+1, y+1, z))
	d01 := core.Lerp(d.X, g.At(x, y, z+1), g.At(x+1, y, z+1))
	d11 := core.Lerp(d.X, g.At(x, y+1, z+1), g.At(x+1, y+1, z+1))
	return core.Lerp(d.Z, core.Lerp(d.Y, d00, d10), core.Lerp(d.Y, d01, d11))
}

// MaxValue returns an upper bound of Lookup over bounds, a sub-box of [0,1]^3.
// It scans every sample whose filter footprint can reach the box.
func (g *SampledGrid) MaxValue(bounds core.AABB) float64 {
	x0, x1 := sampleRange(bounds.Min.X, bounds.Max.X, g.nx)
	y0, y1 := sampleRange(bounds.Min.Y, bounds.Max.Y, g.ny)
	z0, z1 := sampleRange(bounds.Min.Z, bounds.Max.Z, g.nz)

	maxValue := 0.0
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			row := (z*g.ny + y) * g.nx
			for x := x0; x <= x1; x++ {
				maxValue = max(maxValue, g.values[row+x])
			}
		}
	}
	return maxValue
}

func sampleRange(lo, hi float64, n int) (int, int) {
	i0 := max(int(math.Floor(lo*float64(n)-0.5)), 0)
	i1 := min(int(math.Floor(hi*float64(n)-0.5))+1, n-1)
	return i0, i1
}

// RGBGrid is a lattice of unbounded linear RGB values, converted to spectra on lookup
type RGBGrid struct {
	r, g, b *SampledGrid
}

// NewRGBGrid creates an RGB lattice from interleaved r,g,b triples laid out x-fastest
func NewRGBGrid(rgb []float64, nx, ny, nz int) (*RGBGrid, error) {
	if len(rgb) != 3*nx*ny*nz {
		return nil, fmt.Errorf("%w: have %d rgb values, need %d", ErrGridSize, len(rgb), 3*nx*ny*nz)
	}
	n := nx * ny * nz
	r, g, b := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		r[i], g[i], b[i] = rgb[3*i], rgb[3*i+1], rgb[3*i+2]
	}
	grid := &RGBGrid{}
	var err error
	if grid.r, err = NewSampledGrid(r, nx, ny, nz); err != nil {
		return nil, err
	}
	grid.g, _ = NewSampledGrid(g, nx, ny, nz)
	grid.b, _ = NewSampledGrid(b, nx, ny, nz)
	return grid, nil
}

// Lookup returns the filtered spectrum at p in [0,1]^3 sampled at lambda.
// The RGB reconstruction is linear, so filtering RGB before conversion is exact.
func (g *RGBGrid) Lookup(p core.Vec3, lambda spectrum.SampledWavelengths) spectrum.SampledSpectrum {
	s := spectrum.NewRGBUnboundedSpectrum(g.r.Lookup(p), g.g.Lookup(p), g.b.Lookup(p))
	return spectrum.Sample(s, lambda)
}

// MaxValue returns an upper bound of every spectral sample of Lookup over bounds
func (g *RGBGrid) MaxValue(bounds core.AABB) float64 {
	return max(g.r.MaxValue(bounds), g.g.MaxValue(bounds), g.b.MaxValue(bounds))
}
