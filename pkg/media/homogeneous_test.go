package media

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWavelengths = spectrum.NewSampledWavelengths([spectrum.NSpectrumSamples]float64{450, 500, 550, 600})

func newTestSampler() core.Sampler {
	return core.NewRandomSampler(rand.New(rand.NewSource(42)))
}

func constant(c float64) spectrum.Spectrum {
	return spectrum.NewConstantSpectrum(c)
}

func TestHomogeneousMedium_Sample(t *testing.T) {
	m := NewHomogeneousMedium(constant(0.5), constant(1.5), 2, constant(3), 0.5, 0.3)
	props := m.Sample(core.NewVec3(10, -4, 2), testWavelengths)

	assert.Equal(t, spectrum.NewSampledSpectrum(1), props.SigmaA)
	assert.Equal(t, spectrum.NewSampledSpectrum(3), props.SigmaS)
	assert.Equal(t, spectrum.NewSampledSpectrum(1.5), props.Le)
	assert.True(t, m.IsEmissive())
	assert.False(t, NewHomogeneousMedium(constant(1), constant(1), 1, nil, 1, 0).IsEmissive())
}

func TestHomogeneousMedium_SampleTmajDeterministic(t *testing.T) {
	// sigma_t = 2 everywhere
	m := NewHomogeneousMedium(constant(1), constant(1), 1, nil, 1, 0)
	ray := core.NewRayWithTime(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 2), 0.5)

	var samples []MediumSample
	T := m.SampleTmaj(ray, 10, 0.5, newTestSampler(), testWavelengths, func(ms MediumSample) bool {
		samples = append(samples, ms)
		return true
	})

	require.Len(t, samples, 1)
	tEvent := math.Ln2 / 2
	intr := samples[0].Intr
	assert.InDelta(t, tEvent, intr.P.Z, 1e-12)
	assert.Equal(t, core.NewVec3(0, 0, -1), intr.Wo)
	assert.Equal(t, 0.5, intr.Time)
	assert.Equal(t, spectrum.NewSampledSpectrum(2), intr.SigmaMaj)
	assert.Equal(t, m, intr.Medium)
	assert.InDelta(t, 0.5, samples[0].Tmaj[0], 1e-12)
	assert.Equal(t, spectrum.NewSampledSpectrum(1), T)
}

func TestHomogeneousMedium_NoEventBeforeTMax(t *testing.T) {
	m := NewHomogeneousMedium(constant(1), constant(1), 1, nil, 1, 0)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0))

	called := false
	// u = 0.99 gives t = -ln(0.01)/2 > 1
	T := m.SampleTmaj(ray, 1, 0.99, newTestSampler(), testWavelengths, func(MediumSample) bool {
		called = true
		return true
	})
	assert.False(t, called)
	assert.InDelta(t, math.Exp(-2), T[0], 1e-12)
}

func TestHomogeneousMedium_ZeroMajorant(t *testing.T) {
	m := NewHomogeneousMedium(constant(0), constant(0), 1, nil, 1, 0)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0))

	T := m.SampleTmaj(ray, math.Inf(1), 0.5, newTestSampler(), testWavelengths, func(MediumSample) bool {
		t.Fatal("no candidates expected in a vacuum")
		return true
	})
	assert.Equal(t, spectrum.NewSampledSpectrum(1), T)
}

func TestHomogeneousMedium_DirectionScaleInvariance(t *testing.T) {
	m := NewHomogeneousMedium(constant(0.2), constant(0.3), 1, nil, 1, 0)
	unit := core.NewRay(core.NewVec3(1, 2, 3), core.NewVec3(0, 1, 0))
	long := core.NewRay(core.NewVec3(1, 2, 3), core.NewVec3(0, 4, 0))

	var pUnit, pLong core.Vec3
	m.SampleTmaj(unit, 8, 0.3, newTestSampler(), testWavelengths, func(ms MediumSample) bool {
		pUnit = ms.Intr.P
		return true
	})
	m.SampleTmaj(long, 2, 0.3, newTestSampler(), testWavelengths, func(ms MediumSample) bool {
		pLong = ms.Intr.P
		return true
	})
	assert.InDelta(t, 0, pUnit.Subtract(pLong).Length(), 1e-12)
}

func TestHomogeneousMedium_EventProbability(t *testing.T) {
	m := NewHomogeneousMedium(constant(0.25), constant(0.75), 1, nil, 1, 0)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	sampler := newTestSampler()

	const n = 100000
	events := 0
	for i := 0; i < n; i++ {
		m.SampleTmaj(ray, 0.7, sampler.Get1D(), sampler, testWavelengths, func(MediumSample) bool {
			events++
			return true
		})
	}
	assert.InDelta(t, 1-math.Exp(-0.7), float64(events)/n, 0.005)
}
