package media

import (
	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
)

// ConstantProvider fills a box with a single density value
type ConstantProvider struct {
	bounds  core.AABB
	density float64
}

// NewConstantProvider creates a provider with the given non-negative density over bounds
func NewConstantProvider(bounds core.AABB, density float64) *ConstantProvider {
	return &ConstantProvider{bounds: bounds, density: max(0, density)}
}

// Bounds returns the filled box
func (c *ConstantProvider) Bounds() core.AABB { return c.bounds }

// Density is the constant inside the box and zero outside it
func (c *ConstantProvider) Density(p core.Vec3, lambda spectrum.SampledWavelengths) MediumDensity {
	if !c.bounds.Inside(p) {
		return NewMediumDensity(0)
	}
	return NewMediumDensity(c.density)
}

// Le is always zero
func (c *ConstantProvider) Le(p core.Vec3, lambda spectrum.SampledWavelengths) spectrum.SampledSpectrum {
	return spectrum.SampledSpectrum{}
}

// IsEmissive is always false
func (c *ConstantProvider) IsEmissive() bool { return false }

// MaxDensityGrid fills every cell with the density; the default is a single cell
func (c *ConstantProvider) MaxDensityGrid(res core.Point3i) *MajorantGrid {
	if res.IsZero() {
		res = core.NewPoint3i(1, 1, 1)
	}
	grid := NewMajorantGrid(c.bounds, res)
	for i := range grid.voxels {
		grid.voxels[i] = c.density
	}
	return grid
}
