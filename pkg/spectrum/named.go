package spectrum

// namedSpectra are the spectra that can be referenced by name in medium descriptions
var namedSpectra = map[string]func() Spectrum{
	// Equal-energy illuminant
	"stdillum-E": func() Spectrum { return NewConstantSpectrum(1) },
	// CIE illuminant A is a Planckian radiator at 2856 K
	"stdillum-A": func() Spectrum { return NewBlackbodySpectrum(2856) },
}

// GetNamedSpectrum returns the spectrum registered under name
func GetNamedSpectrum(name string) (Spectrum, bool) {
	f, ok := namedSpectra[name]
	if !ok {
		return nil, false
	}
	return f(), true
}
