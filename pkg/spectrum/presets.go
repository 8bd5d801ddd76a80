package spectrum

import "strings"

// measuredMedium holds reduced scattering and absorption coefficients in mm^-1
// for linear RGB, from Jensen et al. 2001 "A Practical Model for Subsurface Light Transport"
type measuredMedium struct {
	name        string
	sigmaPrimeS [3]float64
	sigmaA      [3]float64
}

var measuredMedia = []measuredMedium{
	{"Apple", [3]float64{2.29, 2.39, 1.97}, [3]float64{0.0030, 0.0034, 0.046}},
	{"Chicken1", [3]float64{0.15, 0.21, 0.38}, [3]float64{0.015, 0.077, 0.19}},
	{"Chicken2", [3]float64{0.19, 0.25, 0.32}, [3]float64{0.018, 0.088, 0.20}},
	{"Cream", [3]float64{7.38, 5.47, 3.15}, [3]float64{0.0002, 0.0028, 0.0163}},
	{"Ketchup", [3]float64{0.18, 0.07, 0.03}, [3]float64{0.061, 0.97, 1.45}},
	{"Marble", [3]float64{2.19, 2.62, 3.00}, [3]float64{0.0021, 0.0041, 0.0071}},
	{"Potato", [3]float64{0.68, 0.70, 0.55}, [3]float64{0.0024, 0.0090, 0.12}},
	{"Skimmilk", [3]float64{0.70, 1.22, 1.90}, [3]float64{0.0014, 0.0025, 0.0142}},
	{"Skin1", [3]float64{0.74, 0.88, 1.01}, [3]float64{0.032, 0.17, 0.48}},
	{"Skin2", [3]float64{1.09, 1.59, 1.79}, [3]float64{0.013, 0.070, 0.145}},
	{"Spectralon", [3]float64{11.6, 20.4, 14.9}, [3]float64{0.00, 0.00, 0.00}},
	{"Wholemilk", [3]float64{2.55, 3.21, 3.77}, [3]float64{0.0011, 0.0024, 0.014}},
}

// GetMediumScatteringProperties looks up a measured medium by name (case-insensitive)
// and returns its absorption and scattering spectra
func GetMediumScatteringProperties(name string) (sigmaA, sigmaS Spectrum, ok bool) {
	for _, m := range measuredMedia {
		if strings.EqualFold(m.name, name) {
			sigmaA = NewRGBUnboundedSpectrum(m.sigmaA[0], m.sigmaA[1], m.sigmaA[2])
			sigmaS = NewRGBUnboundedSpectrum(m.sigmaPrimeS[0], m.sigmaPrimeS[1], m.sigmaPrimeS[2])
			return sigmaA, sigmaS, true
		}
	}
	return nil, nil, false
}

// MediumPresetNames lists the names accepted by GetMediumScatteringProperties
func MediumPresetNames() []string {
	names := make([]string, len(measuredMedia))
	for i, m := range measuredMedia {
		names[i] = m.name
	}
	return names
}
