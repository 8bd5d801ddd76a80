// Package media implements participating media for spectral light transport:
// a Henyey-Greenstein phase function, homogeneous media, and heterogeneous
// media driven by pluggable density providers and sampled with a majorant
// grid, a 3D DDA walk and null-scattering free-flight sampling.
package media

import (
	"errors"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
)

var (
	// ErrMediumNotFound is returned when a named medium is referenced but never defined
	ErrMediumNotFound = errors.New("medium not found")
	// ErrUnknownMedium is returned for an unsupported medium type
	ErrUnknownMedium = errors.New("unknown medium type")
	// ErrInvalidParameter is returned for missing or malformed construction parameters
	ErrInvalidParameter = errors.New("invalid medium parameter")
)

// Medium is the interface every participating medium implements.
// Media are immutable after construction and safe for concurrent use.
type Medium interface {
	// IsEmissive reports whether the medium can emit light
	IsEmissive() bool

	// Sample returns the local optical properties at a render-space point
	Sample(p core.Vec3, lambda spectrum.SampledWavelengths) MediumProperties

	// SampleTmaj samples candidate interactions along ray up to parametric distance tMax
	// using majorant-rate exponential steps. u is the first uniform sample; rng supplies
	// the rest. callback is invoked for each candidate and returns false to stop.
	// The return value is the majorant transmittance from the last reported candidate
	// (or the ray origin) to tMax, or 1 if the callback stopped sampling.
	SampleTmaj(ray core.Ray, tMax, u float64, rng core.Sampler, lambda spectrum.SampledWavelengths,
		callback func(MediumSample) bool) spectrum.SampledSpectrum
}

// MediumProperties are the optical properties at a point
type MediumProperties struct {
	SigmaA spectrum.SampledSpectrum
	SigmaS spectrum.SampledSpectrum
	Phase  PhaseFunction
	Le     spectrum.SampledSpectrum
}

// MediumInteraction describes a candidate scattering point inside a medium
type MediumInteraction struct {
	P        core.Vec3 // Render-space position
	Wo       core.Vec3 // Unit vector pointing back along the incoming ray
	Time     float64
	SigmaA   spectrum.SampledSpectrum // True local absorption
	SigmaS   spectrum.SampledSpectrum // True local scattering
	SigmaMaj spectrum.SampledSpectrum // Majorant used to sample this point
	Le       spectrum.SampledSpectrum
	Medium   Medium
	Phase    PhaseFunction
}

// SigmaN returns the null-collision coefficient, sigma_maj - sigma_a - sigma_s, clamped at zero
func (mi MediumInteraction) SigmaN() spectrum.SampledSpectrum {
	var s spectrum.SampledSpectrum
	for i := range s {
		s[i] = max(0, mi.SigmaMaj[i]-mi.SigmaA[i]-mi.SigmaS[i])
	}
	return s
}

// MediumSample is handed to SampleTmaj callbacks
type MediumSample struct {
	Intr MediumInteraction
	// Tmaj is the majorant transmittance from the previous candidate to this one
	Tmaj spectrum.SampledSpectrum
}

// MediumDensity holds the per-wavelength multipliers applied to the base coefficients
type MediumDensity struct {
	SigmaA spectrum.SampledSpectrum
	SigmaS spectrum.SampledSpectrum
}

// NewMediumDensity returns the same scalar density for absorption and scattering
func NewMediumDensity(d float64) MediumDensity {
	s := spectrum.NewSampledSpectrum(d)
	return MediumDensity{SigmaA: s, SigmaS: s}
}

// DensityProvider is a spatial density field over a bounded region in medium space
type DensityProvider interface {
	// Bounds returns the region where the density may be non-zero
	Bounds() core.AABB

	// Density returns non-negative absorption and scattering multipliers at p
	Density(p core.Vec3, lambda spectrum.SampledWavelengths) MediumDensity

	// Le returns emitted radiance at p
	Le(p core.Vec3, lambda spectrum.SampledWavelengths) spectrum.SampledSpectrum

	// IsEmissive reports whether Le can be non-zero
	IsEmissive() bool

	// MaxDensityGrid builds a majorant grid whose cells bound the density over their
	// sub-box of Bounds. A zero res selects the provider's default resolution.
	MaxDensityGrid(res core.Point3i) *MajorantGrid
}
