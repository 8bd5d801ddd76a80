package media

import (
	"math"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
)

// HomogeneousMedium has spatially constant coefficients and emission.
// It is unbounded; callers clip rays to the region it fills.
type HomogeneousMedium struct {
	sigmaA *spectrum.DenselySampledSpectrum
	sigmaS *spectrum.DenselySampledSpectrum
	le     *spectrum.DenselySampledSpectrum
	phase  HGPhaseFunction
}

// NewHomogeneousMedium creates a medium with sigma_a and sigma_s scaled by sigmaScale and
// emission le scaled by leScale. A nil le means no emission.
func NewHomogeneousMedium(sigmaA, sigmaS spectrum.Spectrum, sigmaScale float64, le spectrum.Spectrum, leScale, g float64) *HomogeneousMedium {
	m := &HomogeneousMedium{
		sigmaA: spectrum.NewDenselySampledSpectrum(sigmaA),
		sigmaS: spectrum.NewDenselySampledSpectrum(sigmaS),
		le:     spectrum.NewDenselySampledSpectrum(le),
		phase:  NewHGPhaseFunction(g),
	}
	m.sigmaA.Scale(sigmaScale)
	m.sigmaS.Scale(sigmaScale)
	m.le.Scale(leScale)
	return m
}

// IsEmissive reports whether the scaled emission is nonzero
func (m *HomogeneousMedium) IsEmissive() bool {
	return m.le.MaxValue() > 0
}

// Sample returns the same coefficients at every point
func (m *HomogeneousMedium) Sample(p core.Vec3, lambda spectrum.SampledWavelengths) MediumProperties {
	return MediumProperties{
		SigmaA: m.sigmaA.Sample(lambda),
		SigmaS: m.sigmaS.Sample(lambda),
		Phase:  m.phase,
		Le:     m.le.Sample(lambda),
	}
}

// SampleTmaj draws a single exponential distance at the hero wavelength's extinction.
// Since the majorant is exact, at most one candidate is reported.
func (m *HomogeneousMedium) SampleTmaj(ray core.Ray, tMax, u float64, rng core.Sampler,
	lambda spectrum.SampledWavelengths, callback func(MediumSample) bool) spectrum.SampledSpectrum {
	// Normalize the direction and rescale tMax so distances are metric
	dirLen := ray.Direction.Length()
	if dirLen == 0 {
		return spectrum.NewSampledSpectrum(1)
	}
	tMax *= dirLen
	ray.Direction = ray.Direction.Multiply(1 / dirLen)
	if math.IsInf(tMax, 1) {
		tMax = math.MaxFloat64
	}

	sigmaA := m.sigmaA.Sample(lambda)
	sigmaS := m.sigmaS.Sample(lambda)
	sigmaMaj := sigmaA.Add(sigmaS)
	if sigmaMaj[0] == 0 {
		return spectrum.Exp(sigmaMaj.Scale(-tMax))
	}

	t := core.SampleExponential(u, sigmaMaj[0])
	if t < tMax {
		intr := MediumInteraction{
			P:        ray.At(t),
			Wo:       ray.Direction.Negate(),
			Time:     ray.Time,
			SigmaA:   sigmaA,
			SigmaS:   sigmaS,
			SigmaMaj: sigmaMaj,
			Le:       m.le.Sample(lambda),
			Medium:   m,
			Phase:    m.phase,
		}
		callback(MediumSample{Intr: intr, Tmaj: spectrum.Exp(sigmaMaj.Scale(-t))})
		return spectrum.NewSampledSpectrum(1)
	}
	return spectrum.Exp(sigmaMaj.Scale(-tMax))
}
