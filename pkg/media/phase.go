package media

import (
	"math"

	"github.com/df07/go-participating-media/pkg/core"
)

const inv4Pi = 1 / (4 * math.Pi)

// PhaseFunction describes the angular distribution of scattered light.
// Both wo and wi point away from the scattering point.
type PhaseFunction interface {
	P(wo, wi core.Vec3) float64
	SampleP(wo core.Vec3, u core.Vec2) (PhaseFunctionSample, bool)
	PDF(wo, wi core.Vec3) float64
}

// PhaseFunctionSample is a sampled incident direction with its value and density
type PhaseFunctionSample struct {
	P   float64
	Wi  core.Vec3
	PDF float64
}

// HGPhaseFunction is the Henyey-Greenstein phase function with asymmetry g.
// Positive g favors forward scattering.
type HGPhaseFunction struct {
	g float64
}

// NewHGPhaseFunction creates a phase function with asymmetry g in (-1, 1)
func NewHGPhaseFunction(g float64) HGPhaseFunction {
	return HGPhaseFunction{g: g}
}

// G returns the asymmetry parameter
func (hg HGPhaseFunction) G() float64 {
	return hg.g
}

// P evaluates the phase function for the pair of directions
func (hg HGPhaseFunction) P(wo, wi core.Vec3) float64 {
	return HenyeyGreenstein(wo.Dot(wi), hg.g)
}

// SampleP samples wi proportionally to P. The sampled value and pdf are equal.
func (hg HGPhaseFunction) SampleP(wo core.Vec3, u core.Vec2) (PhaseFunctionSample, bool) {
	wi, pdf := SampleHenyeyGreenstein(wo, hg.g, u)
	return PhaseFunctionSample{P: pdf, Wi: wi, PDF: pdf}, true
}

// PDF returns the density of sampling wi, which equals P
func (hg HGPhaseFunction) PDF(wo, wi core.Vec3) float64 {
	return hg.P(wo, wi)
}

// HenyeyGreenstein evaluates the HG distribution for the cosine between wo and wi
func HenyeyGreenstein(cosTheta, g float64) float64 {
	g = core.Clamp(g, -.99, .99)
	denom := 1 + g*g + 2*g*cosTheta
	return inv4Pi * (1 - g*g) / (denom * math.Sqrt(max(0, denom)))
}

// SampleHenyeyGreenstein samples an incident direction around wo and returns it with its pdf
func SampleHenyeyGreenstein(wo core.Vec3, g float64, u core.Vec2) (core.Vec3, float64) {
	// The inversion is unstable as |g| approaches 1
	g = core.Clamp(g, -.99, .99)

	var cosTheta float64
	if math.Abs(g) < 1e-3 {
		cosTheta = 1 - 2*u.X
	} else {
		sq := (1 - g*g) / (1 + g - 2*g*u.X)
		cosTheta = -1 / (2 * g) * (1 + g*g - sq*sq)
	}
	cosTheta = core.Clamp(cosTheta, -1, 1)

	sinTheta := math.Sqrt(max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * u.Y
	x, y := core.CoordinateSystem(wo)
	wi := core.FromFrame(core.SphericalDirection(sinTheta, cosTheta, phi), x, y, wo)

	return wi, HenyeyGreenstein(cosTheta, g)
}
