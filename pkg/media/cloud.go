package media

import (
	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/noise"
	"github.com/df07/go-participating-media/pkg/spectrum"
)

// CloudProvider is a procedural cloud built from warped multi-octave gradient noise.
// Density thins with height and a solid floor fills the region below y = 0.5.
type CloudProvider struct {
	bounds    core.AABB
	density   float64
	wispiness float64
	frequency float64
}

// NewCloudProvider creates a cloud over bounds
func NewCloudProvider(bounds core.AABB, density, wispiness, frequency float64) *CloudProvider {
	return &CloudProvider{bounds: bounds, density: density, wispiness: wispiness, frequency: frequency}
}

// Bounds returns the box the cloud occupies
func (c *CloudProvider) Bounds() core.AABB { return c.bounds }

// Density evaluates the noise field at p. Points outside the box are empty.
func (c *CloudProvider) Density(p core.Vec3, lambda spectrum.SampledWavelengths) MediumDensity {
	if !c.bounds.Inside(p) {
		return NewMediumDensity(0)
	}
	pp := p.Multiply(c.frequency)

	// Warp the lookup point to make the cloud wispy
	if c.wispiness > 0 {
		vomega, vlambda := 0.05*c.wispiness, 10.0
		for i := 0; i < 2; i++ {
			pp = pp.Add(noise.DNoise(pp.Multiply(vlambda)).Multiply(vomega))
			vomega *= 0.5
			vlambda *= 1.99
		}
	}

	// Sum octaves of noise
	d := 0.0
	omega, lambdaN := 0.5, 1.0
	for i := 0; i < 5; i++ {
		d += omega * noise.Noise(pp.Multiply(lambdaN))
		omega *= 0.5
		lambdaN *= 1.99
	}

	d = core.Clamp((1-p.Y)*4.5*c.density*d, 0, 1)
	d += 2 * max(0, 0.5-p.Y)
	return NewMediumDensity(core.Clamp(d, 0, 1))
}

// Le is always zero
func (c *CloudProvider) Le(p core.Vec3, lambda spectrum.SampledWavelengths) spectrum.SampledSpectrum {
	return spectrum.SampledSpectrum{}
}

// IsEmissive is always false
func (c *CloudProvider) IsEmissive() bool { return false }

// MaxDensityGrid returns a single cell bounded by 1, the clamp ceiling of Density.
// The requested resolution is ignored.
func (c *CloudProvider) MaxDensityGrid(res core.Point3i) *MajorantGrid {
	grid := NewMajorantGrid(c.bounds, core.NewPoint3i(1, 1, 1))
	grid.Set(0, 0, 0, 1)
	return grid
}
