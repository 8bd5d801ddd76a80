package media

import (
	"fmt"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
	"github.com/df07/go-participating-media/pkg/volume"
)

const defaultGridMajorantRes = 16

// GridConfig selects the lattices of a GridProvider. Exactly one of Density,
// the SigmaA/SigmaS pair, or RGB must be set.
type GridConfig struct {
	Bounds  core.AABB
	Density *volume.SampledGrid
	SigmaA  *volume.SampledGrid
	SigmaS  *volume.SampledGrid
	RGB     *volume.RGBGrid
	Le      spectrum.Spectrum   // Optional emission spectrum
	LeScale *volume.SampledGrid // Optional spatial emission multiplier
}

// GridProvider reads density from regular lattices spanning its bounds
type GridProvider struct {
	bounds  core.AABB
	density *volume.SampledGrid
	sigmaA  *volume.SampledGrid
	sigmaS  *volume.SampledGrid
	rgb     *volume.RGBGrid
	le      *spectrum.DenselySampledSpectrum
	leScale *volume.SampledGrid
}

// NewGridProvider validates cfg and creates the provider
func NewGridProvider(cfg GridConfig) (*GridProvider, error) {
	set := 0
	if cfg.Density != nil {
		set++
	}
	if cfg.SigmaA != nil || cfg.SigmaS != nil {
		if cfg.SigmaA == nil || cfg.SigmaS == nil {
			return nil, fmt.Errorf("%w: sigma_a and sigma_s grids must be given together", ErrInvalidParameter)
		}
		set++
	}
	if cfg.RGB != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one of density, sigma_a/sigma_s or rgb grids is required, got %d", ErrInvalidParameter, set)
	}

	p := &GridProvider{
		bounds:  cfg.Bounds,
		density: cfg.Density,
		sigmaA:  cfg.SigmaA,
		sigmaS:  cfg.SigmaS,
		rgb:     cfg.RGB,
		le:      spectrum.NewDenselySampledSpectrum(cfg.Le),
		leScale: cfg.LeScale,
	}
	return p, nil
}

// Bounds returns the box the lattice is stretched over
func (g *GridProvider) Bounds() core.AABB { return g.bounds }

// Density interpolates whichever lattice the provider was built with at p
func (g *GridProvider) Density(p core.Vec3, lambda spectrum.SampledWavelengths) MediumDensity {
	p = g.bounds.Offset(p)
	switch {
	case g.density != nil:
		return NewMediumDensity(g.density.Lookup(p))
	case g.rgb != nil:
		s := g.rgb.Lookup(p, lambda)
		return MediumDensity{SigmaA: s, SigmaS: s}
	default:
		return MediumDensity{
			SigmaA: spectrum.NewSampledSpectrum(g.sigmaA.Lookup(p)),
			SigmaS: spectrum.NewSampledSpectrum(g.sigmaS.Lookup(p)),
		}
	}
}

// Le returns the emission spectrum, optionally scaled by the LeScale lattice
func (g *GridProvider) Le(p core.Vec3, lambda spectrum.SampledWavelengths) spectrum.SampledSpectrum {
	if !g.IsEmissive() {
		return spectrum.SampledSpectrum{}
	}
	le := g.le.Sample(lambda)
	if g.leScale != nil {
		le = le.Scale(g.leScale.Lookup(g.bounds.Offset(p)))
	}
	return le
}

// IsEmissive reports whether the emission spectrum is nonzero anywhere
func (g *GridProvider) IsEmissive() bool {
	return g.le.MaxValue() > 0
}

// MaxDensityGrid bounds the lattice values reachable from each cell; 16^3 by default
func (g *GridProvider) MaxDensityGrid(res core.Point3i) *MajorantGrid {
	if res.IsZero() {
		res = core.NewPoint3i(defaultGridMajorantRes, defaultGridMajorantRes, defaultGridMajorantRes)
	}
	grid := NewMajorantGrid(g.bounds, res)
	for z := 0; z < grid.Res.Z; z++ {
		for y := 0; y < grid.Res.Y; y++ {
			for x := 0; x < grid.Res.X; x++ {
				grid.Set(x, y, z, g.maxValue(grid.CellBounds(x, y, z)))
			}
		}
	}
	return grid
}

func (g *GridProvider) maxValue(bounds core.AABB) float64 {
	switch {
	case g.density != nil:
		return g.density.MaxValue(bounds)
	case g.rgb != nil:
		return g.rgb.MaxValue(bounds)
	default:
		return g.sigmaA.MaxValue(bounds) + g.sigmaS.MaxValue(bounds)
	}
}
