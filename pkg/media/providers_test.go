package media

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/spectrum"
	"github.com/df07/go-participating-media/pkg/vdb"
	"github.com/df07/go-participating-media/pkg/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMajorantBounds samples random points of the provider and checks every
// density channel against the bound of the cell holding the point
func assertMajorantBounds(t *testing.T, provider DensityProvider, res core.Point3i) *MajorantGrid {
	t.Helper()
	grid := provider.MaxDensityGrid(res)
	bounds := provider.Bounds()
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 20000; i++ {
		u := core.NewVec3(random.Float64(), random.Float64(), random.Float64())
		p := bounds.Lerp(u)
		x := core.ClampInt(int(u.X*float64(grid.Res.X)), 0, grid.Res.X-1)
		y := core.ClampInt(int(u.Y*float64(grid.Res.Y)), 0, grid.Res.Y-1)
		z := core.ClampInt(int(u.Z*float64(grid.Res.Z)), 0, grid.Res.Z-1)

		d := provider.Density(p, testWavelengths)
		bound := grid.Lookup(x, y, z)
		if got := max(d.SigmaA.MaxValue(), d.SigmaS.MaxValue()); got > bound+1e-6 {
			t.Fatalf("density %v at %v exceeds cell (%d,%d,%d) bound %v", got, p, x, y, z, bound)
		}
	}
	return grid
}

func randomValues(random *rand.Rand, n int, scale float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = scale * random.Float64()
	}
	return values
}

func TestConstantProvider(t *testing.T) {
	box := core.NewAABB(core.NewVec3(-1, 0, 2), core.NewVec3(1, 3, 4))
	p := NewConstantProvider(box, 2.5)

	assert.Equal(t, box, p.Bounds())
	assert.Equal(t, spectrum.NewSampledSpectrum(2.5), p.Density(core.NewVec3(0, 1, 3), testWavelengths).SigmaA)
	assert.True(t, p.Density(core.NewVec3(5, 1, 3), testWavelengths).SigmaS.IsZero())
	assert.False(t, p.IsEmissive())

	grid := assertMajorantBounds(t, p, core.NewPoint3i(2, 3, 4))
	assert.Equal(t, 24, grid.Len())
	assert.Equal(t, 2.5, grid.Lookup(1, 2, 3))
	assert.Equal(t, 1, p.MaxDensityGrid(core.Point3i{}).Len())

	assert.Equal(t, 0.0, NewConstantProvider(box, -1).MaxDensityGrid(core.Point3i{}).MaxValue())
}

func TestGridProvider_Validation(t *testing.T) {
	density, err := volume.NewSampledGrid([]float64{1}, 1, 1, 1)
	require.NoError(t, err)
	rgb, err := volume.NewRGBGrid([]float64{1, 2, 3}, 1, 1, 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  GridConfig
	}{
		{"nothing", GridConfig{}},
		{"density and rgb", GridConfig{Density: density, RGB: rgb}},
		{"sigma_a alone", GridConfig{SigmaA: density}},
		{"sigma_s alone", GridConfig{SigmaS: density}},
		{"density and pair", GridConfig{Density: density, SigmaA: density, SigmaS: density}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGridProvider(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestGridProvider_MajorantBounds(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	box := core.NewAABB(core.NewVec3(-2, 0, 1), core.NewVec3(2, 1, 3))
	nx, ny, nz := 5, 3, 7
	n := nx * ny * nz

	density, err := volume.NewSampledGrid(randomValues(random, n, 4), nx, ny, nz)
	require.NoError(t, err)
	sigmaA, err := volume.NewSampledGrid(randomValues(random, n, 1), nx, ny, nz)
	require.NoError(t, err)
	sigmaS, err := volume.NewSampledGrid(randomValues(random, n, 2), nx, ny, nz)
	require.NoError(t, err)
	rgb, err := volume.NewRGBGrid(randomValues(random, 3*n, 3), nx, ny, nz)
	require.NoError(t, err)

	configs := map[string]GridConfig{
		"density": {Bounds: box, Density: density},
		"pair":    {Bounds: box, SigmaA: sigmaA, SigmaS: sigmaS},
		"rgb":     {Bounds: box, RGB: rgb},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			p, err := NewGridProvider(cfg)
			require.NoError(t, err)
			for _, res := range []core.Point3i{{}, core.NewPoint3i(1, 1, 1), core.NewPoint3i(4, 9, 2)} {
				assertMajorantBounds(t, p, res)
			}
			assert.Equal(t, 16*16*16, p.MaxDensityGrid(core.Point3i{}).Len())
		})
	}
}

func TestGridProvider_SigmaPairs(t *testing.T) {
	sigmaA, err := volume.NewSampledGrid([]float64{0.5}, 1, 1, 1)
	require.NoError(t, err)
	sigmaS, err := volume.NewSampledGrid([]float64{2}, 1, 1, 1)
	require.NoError(t, err)
	p, err := NewGridProvider(GridConfig{Bounds: unitBox(), SigmaA: sigmaA, SigmaS: sigmaS})
	require.NoError(t, err)

	d := p.Density(core.NewVec3(0.5, 0.5, 0.5), testWavelengths)
	assert.Equal(t, spectrum.NewSampledSpectrum(0.5), d.SigmaA)
	assert.Equal(t, spectrum.NewSampledSpectrum(2), d.SigmaS)
	assert.Equal(t, 2.5, p.MaxDensityGrid(core.NewPoint3i(1, 1, 1)).Lookup(0, 0, 0))
}

func TestGridProvider_Emission(t *testing.T) {
	density, err := volume.NewSampledGrid([]float64{1}, 1, 1, 1)
	require.NoError(t, err)
	leScale, err := volume.NewSampledGrid([]float64{0, 4}, 2, 1, 1)
	require.NoError(t, err)

	p, err := NewGridProvider(GridConfig{Bounds: unitBox(), Density: density, Le: constant(0.5), LeScale: leScale})
	require.NoError(t, err)
	assert.True(t, p.IsEmissive())
	assert.Equal(t, 0.0, p.Le(core.NewVec3(0.25, 0.5, 0.5), testWavelengths)[0])
	assert.InDelta(t, 2, p.Le(core.NewVec3(0.75, 0.5, 0.5), testWavelengths)[0], 1e-12)
	assert.InDelta(t, 1, p.Le(core.NewVec3(0.5, 0.5, 0.5), testWavelengths)[0], 1e-12)

	dark, err := NewGridProvider(GridConfig{Bounds: unitBox(), Density: density})
	require.NoError(t, err)
	assert.False(t, dark.IsEmissive())
	assert.True(t, dark.Le(core.NewVec3(0.5, 0.5, 0.5), testWavelengths).IsZero())
}

func TestCloudProvider(t *testing.T) {
	box := core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(2, 1, 2))
	p := NewCloudProvider(box, 1, 1, 5)

	grid := assertMajorantBounds(t, p, core.NewPoint3i(8, 8, 8))
	assert.Equal(t, core.NewPoint3i(1, 1, 1), grid.Res, "requested resolution is ignored")
	assert.Equal(t, 1.0, grid.Lookup(0, 0, 0))

	random := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		floor := p.Density(core.NewVec3(2*random.Float64(), 0, 2*random.Float64()), testWavelengths)
		assert.Equal(t, 1.0, floor.SigmaA[0], "the floor is solid")
	}
	assert.False(t, p.IsEmissive())

	for _, outside := range []core.Vec3{
		core.NewVec3(1, -0.5, 1),
		core.NewVec3(-1, 0.25, 1),
		core.NewVec3(1, 0.25, 3),
	} {
		d := p.Density(outside, testWavelengths)
		assert.Equal(t, 0.0, d.SigmaA[0], "outside the box at %v", outside)
	}
}

func buildVDB(t *testing.T, builders ...*vdb.Builder) *vdb.GridHandle {
	t.Helper()
	h, err := vdb.Build(builders...)
	require.NoError(t, err)
	return h
}

func randomBlobBuilder(random *rand.Rand, name string, background float32) *vdb.Builder {
	b := vdb.NewBuilder(name, background).SetTransform(core.NewVec3(0.1, 0.2, 0.1), core.NewVec3(1, -1, 0))
	for z := int32(-12); z <= 12; z++ {
		for y := int32(-12); y <= 12; y++ {
			for x := int32(-12); x <= 12; x++ {
				if x*x+y*y+z*z <= 144 {
					b.SetValue(vdb.Coord{X: x, Y: y, Z: z}, float32(2*random.Float64()))
				}
			}
		}
	}
	return b
}

func TestNanoVDBProvider_MajorantBounds(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	h := buildVDB(t, randomBlobBuilder(random, "density", 0))
	defer h.Close()

	p, err := NewNanoVDBProvider(NanoVDBConfig{Density: h.Grid("density"), Workers: 4})
	require.NoError(t, err)

	for _, res := range []core.Point3i{core.NewPoint3i(1, 1, 1), core.NewPoint3i(7, 16, 5), {}} {
		assertMajorantBounds(t, p, res)
	}
	assert.Equal(t, 64*64*64, p.MaxDensityGrid(core.Point3i{}).Len())
}

func TestNanoVDBProvider_BackgroundInMajorant(t *testing.T) {
	b := vdb.NewBuilder("density", 0.75)
	b.Fill(vdb.CoordBBox{Min: vdb.Coord{X: 0, Y: 0, Z: 0}, Max: vdb.Coord{X: 7, Y: 7, Z: 7}}, 0.25)
	h := buildVDB(t, b)
	defer h.Close()

	p, err := NewNanoVDBProvider(NanoVDBConfig{Density: h.Grid("density")})
	require.NoError(t, err)

	// Boundary cells filter against the background outside the active region
	grid := assertMajorantBounds(t, p, core.NewPoint3i(4, 4, 4))
	assert.Equal(t, 0.75, grid.Lookup(0, 0, 0))
	assert.Equal(t, 0.75, grid.Lookup(3, 3, 3))
}

func TestNanoVDBProvider_BoundsAndEmission(t *testing.T) {
	density := vdb.NewBuilder("density", 0)
	density.Fill(vdb.CoordBBox{Min: vdb.Coord{X: 0, Y: 0, Z: 0}, Max: vdb.Coord{X: 9, Y: 9, Z: 9}}, 1)
	temperature := vdb.NewBuilder("temperature", 0)
	temperature.Fill(vdb.CoordBBox{Min: vdb.Coord{X: 5, Y: 5, Z: 5}, Max: vdb.Coord{X: 19, Y: 9, Z: 9}}, 1500)
	h := buildVDB(t, density, temperature)

	p, err := NewNanoVDBProvider(NanoVDBConfig{
		Density:          h.Grid("density"),
		Temperature:      h.Grid("temperature"),
		LeScale:          2,
		TemperatureScale: 1,
		Owned:            []*vdb.GridHandle{h},
	})
	require.NoError(t, err)

	assert.Equal(t, core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(20, 10, 10)), p.Bounds())
	assert.True(t, p.IsEmissive())

	hot := core.NewVec3(12, 7, 7)
	le := p.Le(hot, testWavelengths)
	expected := spectrum.Sample(spectrum.NewBlackbodySpectrum(1500), testWavelengths).Scale(2)
	for i := range le {
		assert.InDelta(t, expected[i], le[i], 1e-9)
	}
	assert.True(t, p.Le(core.NewVec3(2, 2, 2), testWavelengths).IsZero(), "cold region")

	// Scaled temperatures at or below 100K do not emit
	p.temperatureScale = 0.05
	assert.True(t, p.Le(hot, testWavelengths).IsZero())
	p.temperatureScale = 1
	p.temperatureCutoff = 1000
	assert.False(t, p.Le(hot, testWavelengths).IsZero())

	require.NoError(t, p.Close())
	assert.Equal(t, 0.0, p.Density(core.NewVec3(5, 5, 5), testWavelengths).SigmaA[0], "buffers released")
	assert.NoError(t, p.Close())
}

func TestNanoVDBProvider_RequiresDensity(t *testing.T) {
	_, err := NewNanoVDBProvider(NanoVDBConfig{})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	h := buildVDB(t, vdb.NewBuilder("density", 0))
	defer h.Close()
	p, err := NewNanoVDBProvider(NanoVDBConfig{Density: h.Grid("density")})
	require.NoError(t, err)
	assert.False(t, p.IsEmissive())
	assert.Equal(t, 0.0, p.MaxDensityGrid(core.NewPoint3i(2, 2, 2)).MaxValue())
}

func TestNanoVDBProvider_EmptyDensityUsesBackground(t *testing.T) {
	temperature := vdb.NewBuilder("temperature", 0)
	temperature.Fill(vdb.CoordBBox{Min: vdb.Coord{X: 0, Y: 0, Z: 0}, Max: vdb.Coord{X: 7, Y: 7, Z: 7}}, 1000)
	h := buildVDB(t, vdb.NewBuilder("density", 0.5), temperature)
	defer h.Close()

	p, err := NewNanoVDBProvider(NanoVDBConfig{
		Density:     h.Grid("density"),
		Temperature: h.Grid("temperature"),
		Workers:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(8, 8, 8)), p.Bounds())
	assert.InDelta(t, 0.5, p.Density(core.NewVec3(4, 4, 4), testWavelengths).SigmaA[0], 1e-6)

	grid := assertMajorantBounds(t, p, core.NewPoint3i(4, 4, 4))
	for i := 0; i < grid.Len(); i++ {
		x, y, z := grid.Cell(i)
		assert.InDelta(t, 0.5, grid.Lookup(x, y, z), 1e-6)
	}

	m := NewCuboidMedium(p, constant(0.5), constant(0.5), 1, 0, core.IdentityTransform(), core.NewPoint3i(4, 4, 4))
	ray := core.NewRay(core.NewVec3(-1, 4, 4), core.NewVec3(1, 0, 0))
	events := 0
	m.SampleTmaj(ray, math.Inf(1), 0.5, newTestSampler(), testWavelengths, func(MediumSample) bool {
		events++
		return true
	})
	assert.Greater(t, events, 0)

	sampler := newTestSampler()
	const n = 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += ratioTracking(t, m, ray, math.Inf(1), sampler)
	}
	assert.InDelta(t, math.Exp(-4), sum/n, 0.01)
}
