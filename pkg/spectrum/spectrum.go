package spectrum

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Spectrum is a continuous spectral distribution
type Spectrum interface {
	// Evaluate returns the value at lambda nanometers
	Evaluate(lambda float64) float64
	// MaxValue returns an upper bound over the visible range
	MaxValue() float64
}

// Sample evaluates s at each wavelength of lambda
func Sample(s Spectrum, lambda SampledWavelengths) SampledSpectrum {
	if d, ok := s.(*DenselySampledSpectrum); ok {
		return d.Sample(lambda)
	}
	var out SampledSpectrum
	for i := range out {
		out[i] = s.Evaluate(lambda.Lambda(i))
	}
	return out
}

// ConstantSpectrum has the same value at every wavelength
type ConstantSpectrum struct {
	C float64
}

// NewConstantSpectrum creates a constant spectrum
func NewConstantSpectrum(c float64) *ConstantSpectrum {
	return &ConstantSpectrum{C: c}
}

// Evaluate returns C at every wavelength
func (s *ConstantSpectrum) Evaluate(float64) float64 { return s.C }

// MaxValue returns C
func (s *ConstantSpectrum) MaxValue() float64 { return s.C }

// PiecewiseLinearSpectrum interpolates between (lambda, value) pairs and is zero outside them
type PiecewiseLinearSpectrum struct {
	lambdas []float64
	values  []float64
}

// NewPiecewiseLinearFromInterleaved parses [lambda0 v0 lambda1 v1 ...]
func NewPiecewiseLinearFromInterleaved(interleaved []float64) (*PiecewiseLinearSpectrum, bool) {
	if len(interleaved) < 2 || len(interleaved)%2 != 0 {
		return nil, false
	}
	n := len(interleaved) / 2
	lambdas := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		lambdas[i] = interleaved[2*i]
		values[i] = interleaved[2*i+1]
		if i > 0 && lambdas[i] <= lambdas[i-1] {
			return nil, false
		}
	}
	return &PiecewiseLinearSpectrum{lambdas: lambdas, values: values}, true
}

// Evaluate interpolates linearly between the two nearest samples
func (s *PiecewiseLinearSpectrum) Evaluate(lambda float64) float64 {
	n := len(s.lambdas)
	if n == 0 || lambda < s.lambdas[0] || lambda > s.lambdas[n-1] {
		return 0
	}
	i := sort.SearchFloat64s(s.lambdas, lambda)
	if i == 0 {
		return s.values[0]
	}
	t := (lambda - s.lambdas[i-1]) / (s.lambdas[i] - s.lambdas[i-1])
	return (1-t)*s.values[i-1] + t*s.values[i]
}

// MaxValue returns the largest sample value
func (s *PiecewiseLinearSpectrum) MaxValue() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return floats.Max(s.values)
}

// BlackbodySpectrum is Planck's law at temperature T, normalized so its peak is 1
type BlackbodySpectrum struct {
	T                   float64
	normalizationFactor float64
}

// NewBlackbodySpectrum creates a normalized blackbody emitter at T kelvin
func NewBlackbodySpectrum(T float64) *BlackbodySpectrum {
	if T <= 0 {
		return &BlackbodySpectrum{T: T}
	}
	lambdaMax := 2.8977721e-3 / T
	return &BlackbodySpectrum{T: T, normalizationFactor: 1 / Blackbody(lambdaMax*1e9, T)}
}

// Blackbody returns emitted radiance at lambda nanometers for temperature T kelvin
func Blackbody(lambda, T float64) float64 {
	if T <= 0 {
		return 0
	}
	const (
		c  = 299792458.0
		h  = 6.62606957e-34
		kb = 1.3806488e-23
	)
	l := lambda * 1e-9
	return (2 * h * c * c) / (math.Pow(l, 5) * (math.Exp((h*c)/(l*kb*T)) - 1))
}

// Evaluate returns the normalized emitted radiance at lambda in nanometers
func (s *BlackbodySpectrum) Evaluate(lambda float64) float64 {
	return Blackbody(lambda, s.T) * s.normalizationFactor
}

// MaxValue is 1 after normalization
func (s *BlackbodySpectrum) MaxValue() float64 { return 1 }

// RGBUnboundedSpectrum reconstructs a smooth spectrum from linear RGB with no upper bound.
// The reconstruction blends three overlapping hat functions centered at 450, 550
// and 650 nm that sum to one, so (c,c,c) maps to the constant c.
type RGBUnboundedSpectrum struct {
	R, G, B float64
}

// NewRGBUnboundedSpectrum creates a spectrum from non-negative linear RGB
func NewRGBUnboundedSpectrum(r, g, b float64) *RGBUnboundedSpectrum {
	return &RGBUnboundedSpectrum{R: max(r, 0), G: max(g, 0), B: max(b, 0)}
}

// Evaluate blends R, G and B with the hat weights at lambda
func (s *RGBUnboundedSpectrum) Evaluate(lambda float64) float64 {
	wr, wg, wb := rgbWeights(lambda)
	return wr*s.R + wg*s.G + wb*s.B
}

// MaxValue is the largest channel, since the weights sum to one
func (s *RGBUnboundedSpectrum) MaxValue() float64 {
	return max(s.R, s.G, s.B)
}

func rgbWeights(lambda float64) (r, g, b float64) {
	switch {
	case lambda <= 450:
		return 0, 0, 1
	case lambda <= 550:
		t := (lambda - 450) / 100
		return 0, t, 1 - t
	case lambda <= 650:
		t := (lambda - 550) / 100
		return t, 1 - t, 0
	default:
		return 1, 0, 0
	}
}

// DenselySampledSpectrum tabulates another spectrum at every integer wavelength
type DenselySampledSpectrum struct {
	lambdaMin int
	values    []float64
}

// NewDenselySampledSpectrum tabulates s over [LambdaMin, LambdaMax]
func NewDenselySampledSpectrum(s Spectrum) *DenselySampledSpectrum {
	d := &DenselySampledSpectrum{
		lambdaMin: LambdaMin,
		values:    make([]float64, LambdaMax-LambdaMin+1),
	}
	if s == nil {
		return d
	}
	for i := range d.values {
		d.values[i] = s.Evaluate(float64(d.lambdaMin + i))
	}
	return d
}

// Scale multiplies every tabulated value by f
func (d *DenselySampledSpectrum) Scale(f float64) {
	floats.Scale(f, d.values)
}

// Evaluate looks up the nearest whole-nanometer sample
func (d *DenselySampledSpectrum) Evaluate(lambda float64) float64 {
	offset := int(math.Round(lambda)) - d.lambdaMin
	if offset < 0 || offset >= len(d.values) {
		return 0
	}
	return d.values[offset]
}

// MaxValue returns the largest stored sample
func (d *DenselySampledSpectrum) MaxValue() float64 {
	return floats.Max(d.values)
}

// Sample evaluates the table at each wavelength of lambda
func (d *DenselySampledSpectrum) Sample(lambda SampledWavelengths) SampledSpectrum {
	var s SampledSpectrum
	for i := range s {
		s[i] = d.Evaluate(lambda.Lambda(i))
	}
	return s
}
