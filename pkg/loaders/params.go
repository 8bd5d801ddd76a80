package loaders

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
)

// PBRTParam represents a parameter with type and value(s)
type PBRTParam struct {
	Type   string   // Parameter type (float, integer, string, rgb, spectrum, blackbody, point3)
	Values []string // Parameter values as strings
}

// ParameterDictionary holds the typed parameters of a statement. Getters return the
// default when a parameter is absent; a malformed value also yields the default and
// is recorded so Err reports it.
type ParameterDictionary struct {
	params map[string]PBRTParam
	used   map[string]bool
	err    error
}

// NewParameterDictionary creates an empty dictionary
func NewParameterDictionary() *ParameterDictionary {
	return &ParameterDictionary{
		params: make(map[string]PBRTParam),
		used:   make(map[string]bool),
	}
}

// Set stores a parameter, replacing any previous value with the same name
func (d *ParameterDictionary) Set(typ, name string, values ...string) {
	d.params[name] = PBRTParam{Type: typ, Values: values}
}

// AddFloat stores a float parameter
func (d *ParameterDictionary) AddFloat(name string, values ...float64) {
	d.Set("float", name, formatFloats(values)...)
}

// AddInt stores an integer parameter
func (d *ParameterDictionary) AddInt(name string, values ...int) {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.Itoa(v)
	}
	d.Set("integer", name, strs...)
}

// AddString stores a string parameter
func (d *ParameterDictionary) AddString(name, value string) {
	d.Set("string", name, value)
}

// AddRGB stores one or more rgb triples
func (d *ParameterDictionary) AddRGB(name string, values ...float64) {
	d.Set("rgb", name, formatFloats(values)...)
}

// AddPoint3 stores a point
func (d *ParameterDictionary) AddPoint3(name string, p core.Vec3) {
	d.Set("point3", name, formatFloats([]float64{p.X, p.Y, p.Z})...)
}

// AddBlackbody stores a blackbody emitter temperature in kelvin
func (d *ParameterDictionary) AddBlackbody(name string, temperature float64) {
	d.Set("blackbody", name, formatFloats([]float64{temperature})...)
}

func formatFloats(values []float64) []string {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strs
}

// Has reports whether a parameter with the given name exists
func (d *ParameterDictionary) Has(name string) bool {
	_, ok := d.params[name]
	return ok
}

// Type returns the declared type of a parameter, or "" if absent
func (d *ParameterDictionary) Type(name string) string {
	return d.params[name].Type
}

// Err returns the first malformed parameter encountered by a getter
func (d *ParameterDictionary) Err() error {
	return d.err
}

// Unused returns the sorted names of parameters no getter has read
func (d *ParameterDictionary) Unused() []string {
	var names []string
	for name := range d.params {
		if !d.used[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (d *ParameterDictionary) fail(name string, format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: parameter %q: %s", ErrSyntax, name, fmt.Sprintf(format, args...))
	}
}

// lookup returns the parameter if it exists with one of the accepted types
func (d *ParameterDictionary) lookup(name string, types ...string) (PBRTParam, bool) {
	param, ok := d.params[name]
	if !ok {
		return PBRTParam{}, false
	}
	d.used[name] = true
	for _, t := range types {
		if param.Type == t {
			return param, true
		}
	}
	d.fail(name, "type %q, expected %s", param.Type, strings.Join(types, " or "))
	return PBRTParam{}, false
}

func (d *ParameterDictionary) floats(name string, param PBRTParam) ([]float64, bool) {
	values := make([]float64, len(param.Values))
	for i, s := range param.Values {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			d.fail(name, "invalid number %q", s)
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// GetOneFloat returns the first value of a float parameter
func (d *ParameterDictionary) GetOneFloat(name string, def float64) float64 {
	param, ok := d.lookup(name, "float")
	if !ok {
		return def
	}
	values, ok := d.floats(name, param)
	if !ok || len(values) == 0 {
		if ok {
			d.fail(name, "no value")
		}
		return def
	}
	return values[0]
}

// GetFloatArray returns every value of a float parameter, or nil if absent
func (d *ParameterDictionary) GetFloatArray(name string) []float64 {
	param, ok := d.lookup(name, "float")
	if !ok {
		return nil
	}
	values, _ := d.floats(name, param)
	return values
}

// GetOneInt returns the first value of an integer parameter
func (d *ParameterDictionary) GetOneInt(name string, def int) int {
	param, ok := d.lookup(name, "integer")
	if !ok {
		return def
	}
	if len(param.Values) == 0 {
		d.fail(name, "no value")
		return def
	}
	v, err := strconv.Atoi(param.Values[0])
	if err != nil {
		d.fail(name, "invalid integer %q", param.Values[0])
		return def
	}
	return v
}

// GetOneString returns the first value of a string parameter with its quotes removed
func (d *ParameterDictionary) GetOneString(name string, def string) string {
	param, ok := d.lookup(name, "string")
	if !ok {
		return def
	}
	if len(param.Values) == 0 {
		d.fail(name, "no value")
		return def
	}
	return unquote(param.Values[0])
}

// GetStringArray returns every value of a string parameter with quotes removed
func (d *ParameterDictionary) GetStringArray(name string) []string {
	param, ok := d.lookup(name, "string")
	if !ok {
		return nil
	}
	values := make([]string, len(param.Values))
	for i, v := range param.Values {
		values[i] = unquote(v)
	}
	return values
}

// GetOnePoint3 returns a point3 parameter
func (d *ParameterDictionary) GetOnePoint3(name string, def core.Vec3) core.Vec3 {
	param, ok := d.lookup(name, "point3", "point")
	if !ok {
		return def
	}
	values, ok := d.floats(name, param)
	if !ok {
		return def
	}
	if len(values) != 3 {
		d.fail(name, "point needs 3 values, got %d", len(values))
		return def
	}
	return core.NewVec3(values[0], values[1], values[2])
}

// GetRGBArray returns every triple of an rgb parameter, or nil if absent
func (d *ParameterDictionary) GetRGBArray(name string) [][3]float64 {
	param, ok := d.lookup(name, "rgb")
	if !ok {
		return nil
	}
	values, ok := d.floats(name, param)
	if !ok {
		return nil
	}
	if len(values)%3 != 0 {
		d.fail(name, "rgb values must come in triples, got %d", len(values))
		return nil
	}
	triples := make([][3]float64, len(values)/3)
	for i := range triples {
		triples[i] = [3]float64{values[3*i], values[3*i+1], values[3*i+2]}
	}
	return triples
}

// GetOneSpectrum returns a spectrum given as rgb, blackbody, interleaved
// (lambda, value) pairs, or the quoted name of a named spectrum
func (d *ParameterDictionary) GetOneSpectrum(name string, def spectrum.Spectrum) spectrum.Spectrum {
	param, ok := d.lookup(name, "rgb", "blackbody", "spectrum")
	if !ok {
		return def
	}

	if param.Type == "spectrum" && len(param.Values) == 1 && strings.HasPrefix(param.Values[0], "\"") {
		s, ok := spectrum.GetNamedSpectrum(unquote(param.Values[0]))
		if !ok {
			d.fail(name, "unknown named spectrum %s", param.Values[0])
			return def
		}
		return s
	}

	values, ok := d.floats(name, param)
	if !ok {
		return def
	}
	switch param.Type {
	case "rgb":
		if len(values) != 3 {
			d.fail(name, "rgb needs 3 values, got %d", len(values))
			return def
		}
		return spectrum.NewRGBUnboundedSpectrum(values[0], values[1], values[2])
	case "blackbody":
		if len(values) != 1 {
			d.fail(name, "blackbody needs 1 temperature, got %d", len(values))
			return def
		}
		return spectrum.NewBlackbodySpectrum(values[0])
	default:
		s, ok := spectrum.NewPiecewiseLinearFromInterleaved(values)
		if !ok {
			d.fail(name, "spectrum needs sorted (lambda, value) pairs")
			return def
		}
		return s
	}
}

func unquote(s string) string {
	return strings.Trim(s, "\"")
}
