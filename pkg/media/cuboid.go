package media

import (
	"io"
	"math"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
)

// CuboidMedium is a heterogeneous medium over the bounded region of a density provider.
// Coefficients are sigma_a and sigma_s scaled by the provider's local density; a majorant
// grid built once at construction bounds the density for free-flight sampling.
type CuboidMedium struct {
	provider         DensityProvider
	bounds           core.AABB
	renderFromMedium core.Transform
	sigmaA           *spectrum.DenselySampledSpectrum
	sigmaS           *spectrum.DenselySampledSpectrum
	phase            HGPhaseFunction
	majorantGrid     *MajorantGrid
}

// NewCuboidMedium wraps provider, placing its medium space with renderFromMedium.
// majorantRes selects the majorant grid resolution; zero uses the provider default.
func NewCuboidMedium(provider DensityProvider, sigmaA, sigmaS spectrum.Spectrum, sigmaScale, g float64,
	renderFromMedium core.Transform, majorantRes core.Point3i) *CuboidMedium {
	m := &CuboidMedium{
		provider:         provider,
		bounds:           provider.Bounds(),
		renderFromMedium: renderFromMedium,
		sigmaA:           spectrum.NewDenselySampledSpectrum(sigmaA),
		sigmaS:           spectrum.NewDenselySampledSpectrum(sigmaS),
		phase:            NewHGPhaseFunction(g),
		majorantGrid:     provider.MaxDensityGrid(majorantRes),
	}
	m.sigmaA.Scale(sigmaScale)
	m.sigmaS.Scale(sigmaScale)
	return m
}

// Provider returns the density provider
func (m *CuboidMedium) Provider() DensityProvider {
	return m.provider
}

// MajorantGrid returns the cached majorant grid
func (m *CuboidMedium) MajorantGrid() *MajorantGrid {
	return m.majorantGrid
}

// IsEmissive defers to the density provider
func (m *CuboidMedium) IsEmissive() bool {
	return m.provider.IsEmissive()
}

// Sample maps p into medium space and scales sigma_a and sigma_s by the local density
func (m *CuboidMedium) Sample(p core.Vec3, lambda spectrum.SampledWavelengths) MediumProperties {
	p = m.renderFromMedium.Inverse().ApplyPoint(p)
	d := m.provider.Density(p, lambda)
	return MediumProperties{
		SigmaA: m.sigmaA.Sample(lambda).Mul(d.SigmaA),
		SigmaS: m.sigmaS.Sample(lambda).Mul(d.SigmaS),
		Phase:  m.phase,
		Le:     m.provider.Le(p, lambda),
	}
}

// SampleTmaj clips the ray to the provider bounds and walks the majorant grid, drawing
// exponential steps at each cell's majorant and reporting every candidate point.
// Cells with a zero majorant are crossed without sampling.
func (m *CuboidMedium) SampleTmaj(rRender core.Ray, raytMax, u float64, rng core.Sampler,
	lambda spectrum.SampledWavelengths, callback func(MediumSample) bool) spectrum.SampledSpectrum {
	one := spectrum.NewSampledSpectrum(1)

	// Transform the ray into medium space and normalize its direction
	ray := m.renderFromMedium.ApplyInverseRay(rRender)
	dirLen := ray.Direction.Length()
	if dirLen == 0 || m.bounds.IsDegenerate() {
		return one
	}
	raytMax *= dirLen
	ray.Direction = ray.Direction.Multiply(1 / dirLen)
	if math.IsInf(raytMax, 1) {
		raytMax = math.MaxFloat64
	}

	tMin, tMax, hit := m.bounds.IntersectP(ray.Origin, ray.Direction, raytMax)
	if !hit {
		return one
	}

	sigmaA := m.sigmaA.Sample(lambda)
	sigmaS := m.sigmaS.Sample(lambda)
	sigmaT := sigmaA.Add(sigmaS)
	if sigmaT.IsZero() {
		return one
	}

	wo := rRender.Direction.Normalize().Negate()
	dda := newDDAIterator(ray, tMin, tMax, m.majorantGrid)
	tmajAccum := one
	for seg, ok := dda.Next(); ok; seg, ok = dda.Next() {
		sigmaMaj := sigmaT.Scale(seg.MaxDensity)

		// Cross cells with a zero hero-wavelength majorant in closed form
		if sigmaMaj[0] == 0 {
			tmajAccum = tmajAccum.Mul(spectrum.Exp(sigmaMaj.Scale(-(seg.TMax - seg.TMin))))
			continue
		}

		t0 := seg.TMin
		for {
			t := t0 + core.SampleExponential(u, sigmaMaj[0])
			u = rng.Get1D()
			if t >= seg.TMax {
				tmajAccum = tmajAccum.Mul(spectrum.Exp(sigmaMaj.Scale(-(seg.TMax - t0))))
				break
			}

			if t < tMax {
				tmaj := spectrum.Exp(sigmaMaj.Scale(-(t - t0))).Mul(tmajAccum)
				tmajAccum = one

				p := ray.At(t)
				d := m.provider.Density(p, lambda)
				intr := MediumInteraction{
					P:        m.renderFromMedium.ApplyPoint(p),
					Wo:       wo,
					Time:     rRender.Time,
					SigmaA:   sigmaA.Mul(d.SigmaA),
					SigmaS:   sigmaS.Mul(d.SigmaS),
					SigmaMaj: sigmaMaj,
					Le:       m.provider.Le(p, lambda),
					Medium:   m,
					Phase:    m.phase,
				}
				if !callback(MediumSample{Intr: intr, Tmaj: tmaj}) {
					return one
				}
			}
			t0 = t
		}
	}
	return tmajAccum
}

// Close releases the provider's resources if it holds any
func (m *CuboidMedium) Close() error {
	if c, ok := m.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
