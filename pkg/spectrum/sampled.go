// Package spectrum provides the spectral quantities used by the media code:
// a small set of sampled wavelengths carried along each ray, spectra sampled
// at those wavelengths, and continuous spectrum representations.
package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// NSpectrumSamples is the number of wavelengths carried per ray
	NSpectrumSamples = 4

	// LambdaMin and LambdaMax bound the visible range in nanometers
	LambdaMin = 360
	LambdaMax = 830
)

// SampledSpectrum holds spectral values at the wavelengths of a SampledWavelengths
type SampledSpectrum [NSpectrumSamples]float64

// NewSampledSpectrum returns a spectrum with every sample set to c
func NewSampledSpectrum(c float64) SampledSpectrum {
	var s SampledSpectrum
	for i := range s {
		s[i] = c
	}
	return s
}

// Add returns s + o
func (s SampledSpectrum) Add(o SampledSpectrum) SampledSpectrum {
	for i := range s {
		s[i] += o[i]
	}
	return s
}

// Sub returns s - o
func (s SampledSpectrum) Sub(o SampledSpectrum) SampledSpectrum {
	for i := range s {
		s[i] -= o[i]
	}
	return s
}

// Mul returns the component-wise product
func (s SampledSpectrum) Mul(o SampledSpectrum) SampledSpectrum {
	for i := range s {
		s[i] *= o[i]
	}
	return s
}

// Scale returns s * f
func (s SampledSpectrum) Scale(f float64) SampledSpectrum {
	for i := range s {
		s[i] *= f
	}
	return s
}

// Div returns the component-wise quotient, with zero where o is zero
func (s SampledSpectrum) Div(o SampledSpectrum) SampledSpectrum {
	for i := range s {
		if o[i] != 0 {
			s[i] /= o[i]
		} else {
			s[i] = 0
		}
	}
	return s
}

// MaxValue returns the largest sample
func (s SampledSpectrum) MaxValue() float64 {
	return floats.Max(s[:])
}

// MinValue returns the smallest sample
func (s SampledSpectrum) MinValue() float64 {
	return floats.Min(s[:])
}

// Average returns the mean of the samples
func (s SampledSpectrum) Average() float64 {
	return floats.Sum(s[:]) / NSpectrumSamples
}

// IsZero reports whether every sample is zero
func (s SampledSpectrum) IsZero() bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

// Exp returns e^s component-wise
func Exp(s SampledSpectrum) SampledSpectrum {
	for i := range s {
		s[i] = math.Exp(s[i])
	}
	return s
}

// SampledWavelengths is the set of wavelengths carried by a ray and their sampling densities
type SampledWavelengths struct {
	lambda [NSpectrumSamples]float64
	pdf    [NSpectrumSamples]float64
}

// SampleUniformWavelengths stratifies NSpectrumSamples wavelengths over
// [LambdaMin, LambdaMax] starting from a uniform sample u
func SampleUniformWavelengths(u float64) SampledWavelengths {
	return sampleUniform(u, LambdaMin, LambdaMax)
}

func sampleUniform(u, lambdaMin, lambdaMax float64) SampledWavelengths {
	var swl SampledWavelengths
	swl.lambda[0] = (1-u)*lambdaMin + u*lambdaMax
	delta := (lambdaMax - lambdaMin) / NSpectrumSamples
	for i := 1; i < NSpectrumSamples; i++ {
		swl.lambda[i] = swl.lambda[i-1] + delta
		if swl.lambda[i] > lambdaMax {
			swl.lambda[i] = lambdaMin + (swl.lambda[i] - lambdaMax)
		}
	}
	for i := range swl.pdf {
		swl.pdf[i] = 1 / (lambdaMax - lambdaMin)
	}
	return swl
}

// NewSampledWavelengths creates a wavelength set from explicit values with uniform density
func NewSampledWavelengths(lambda [NSpectrumSamples]float64) SampledWavelengths {
	swl := SampledWavelengths{lambda: lambda}
	for i := range swl.pdf {
		swl.pdf[i] = 1.0 / (LambdaMax - LambdaMin)
	}
	return swl
}

// Lambda returns the i-th wavelength in nanometers
func (w SampledWavelengths) Lambda(i int) float64 {
	return w.lambda[i]
}

// PDF returns the sampling density of each wavelength
func (w SampledWavelengths) PDF() SampledSpectrum {
	return SampledSpectrum(w.pdf)
}
