package media

import (
	"fmt"
	"path/filepath"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/loaders"
	"github.com/df07/go-participating-media/pkg/spectrum"
	"github.com/df07/go-participating-media/pkg/vdb"
	"github.com/df07/go-participating-media/pkg/volume"
)

// CreateOptions carries the shared resources used while constructing media
type CreateOptions struct {
	Logger core.Logger

	// Assets shares sparse grid files between media. When nil each medium
	// owns the buffers it loads and releases them on Close.
	Assets *vdb.AssetStore

	// MajorantResolution overrides the provider default when non-zero
	MajorantResolution core.Point3i

	// Workers bounds majorant build parallelism; <= 0 uses every CPU
	Workers int

	// BaseDir resolves relative asset filenames
	BaseDir string
}

func (o CreateOptions) withDefaults() CreateOptions {
	if o.Logger == nil {
		o.Logger = core.NewNopLogger()
	}
	return o
}

func (o CreateOptions) resolve(filename string) string {
	if o.BaseDir == "" || filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(o.BaseDir, filename)
}

// CreateMedium builds a medium of the given kind from its parameters.
// Supported kinds are homogeneous, uniformgrid, cloud, nanovdb and constant.
func CreateMedium(kind string, params *loaders.ParameterDictionary, renderFromMedium core.Transform, opts CreateOptions) (Medium, error) {
	opts = opts.withDefaults()

	var medium Medium
	var err error
	switch kind {
	case "homogeneous":
		medium = createHomogeneous(params, opts)
	case "constant", "uniformgrid", "cloud", "nanovdb":
		medium, err = createCuboid(kind, params, renderFromMedium, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMedium, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s medium: %w", kind, err)
	}
	if err := params.Err(); err != nil {
		if c, ok := medium.(*CuboidMedium); ok {
			c.Close()
		}
		return nil, fmt.Errorf("failed to create %s medium: %w: %w", kind, ErrInvalidParameter, err)
	}

	for _, name := range params.Unused() {
		opts.Logger.Warnf("%s medium: parameter %q is unused", kind, name)
	}
	return medium, nil
}

// scatteringProperties reads the coefficients shared by every medium kind.
// A named preset takes precedence over explicit sigma_a and sigma_s.
func scatteringProperties(params *loaders.ParameterDictionary, logger core.Logger) (sigmaA, sigmaS spectrum.Spectrum, sigmaScale, g float64) {
	if preset := params.GetOneString("preset", ""); preset != "" {
		var ok bool
		if sigmaA, sigmaS, ok = spectrum.GetMediumScatteringProperties(preset); !ok {
			logger.Warnf("Material preset %q not found", preset)
		}
	}
	if sigmaA == nil {
		sigmaA = params.GetOneSpectrum("sigma_a", spectrum.NewConstantSpectrum(1))
	}
	if sigmaS == nil {
		sigmaS = params.GetOneSpectrum("sigma_s", spectrum.NewConstantSpectrum(1))
	}
	sigmaScale = params.GetOneFloat("scale", 1)
	g = params.GetOneFloat("g", 0)
	return sigmaA, sigmaS, sigmaScale, g
}

func createHomogeneous(params *loaders.ParameterDictionary, opts CreateOptions) *HomogeneousMedium {
	sigmaA, sigmaS, sigmaScale, g := scatteringProperties(params, opts.Logger)
	le := params.GetOneSpectrum("Le", nil)
	leScale := params.GetOneFloat("Lescale", 1)
	return NewHomogeneousMedium(sigmaA, sigmaS, sigmaScale, le, leScale, g)
}

func createCuboid(kind string, params *loaders.ParameterDictionary, renderFromMedium core.Transform, opts CreateOptions) (*CuboidMedium, error) {
	var provider DensityProvider
	var err error
	switch kind {
	case "constant":
		provider = NewConstantProvider(readBounds(params), params.GetOneFloat("density", 1))
	case "uniformgrid":
		provider, err = createGridProvider(params, opts)
	case "cloud":
		provider = NewCloudProvider(readBounds(params),
			params.GetOneFloat("density", 1),
			params.GetOneFloat("wispiness", 1),
			params.GetOneFloat("frequency", 5))
	case "nanovdb":
		provider, err = createNanoVDBProvider(params, opts)
	}
	if err != nil {
		return nil, err
	}

	sigmaA, sigmaS, sigmaScale, g := scatteringProperties(params, opts.Logger)
	return NewCuboidMedium(provider, sigmaA, sigmaS, sigmaScale, g, renderFromMedium, opts.MajorantResolution), nil
}

func readBounds(params *loaders.ParameterDictionary) core.AABB {
	p0 := params.GetOnePoint3("p0", core.NewVec3(0, 0, 0))
	p1 := params.GetOnePoint3("p1", core.NewVec3(1, 1, 1))
	return core.NewAABBFromPoints(p0, p1)
}

func createGridProvider(params *loaders.ParameterDictionary, opts CreateOptions) (*GridProvider, error) {
	nx := params.GetOneInt("nx", 1)
	ny := params.GetOneInt("ny", 1)
	nz := params.GetOneInt("nz", 1)
	cfg := GridConfig{Bounds: readBounds(params)}

	var err error
	switch {
	case params.Has("densityslices"):
		files := params.GetStringArray("densityslices")
		for i := range files {
			files[i] = opts.resolve(files[i])
		}
		if cfg.Density, err = volume.LoadSliceStack(files); err != nil {
			return nil, err
		}
		res := cfg.Density.Resolution()
		nx, ny, nz = res.X, res.Y, res.Z
	case params.Type("density") == "rgb":
		var rgb []float64
		for _, c := range params.GetRGBArray("density") {
			rgb = append(rgb, c[0], c[1], c[2])
		}
		if cfg.RGB, err = volume.NewRGBGrid(rgb, nx, ny, nz); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
	case params.Has("density"):
		if cfg.Density, err = volume.NewSampledGrid(params.GetFloatArray("density"), nx, ny, nz); err != nil {
			return nil, fmt.Errorf("%w: density: %w", ErrInvalidParameter, err)
		}
	case params.Has("sigma_a_density") || params.Has("sigma_s_density"):
		if cfg.SigmaA, err = volume.NewSampledGrid(params.GetFloatArray("sigma_a_density"), nx, ny, nz); err != nil {
			return nil, fmt.Errorf("%w: sigma_a_density: %w", ErrInvalidParameter, err)
		}
		if cfg.SigmaS, err = volume.NewSampledGrid(params.GetFloatArray("sigma_s_density"), nx, ny, nz); err != nil {
			return nil, fmt.Errorf("%w: sigma_s_density: %w", ErrInvalidParameter, err)
		}
	default:
		return nil, fmt.Errorf("%w: no density values provided for grid medium", ErrInvalidParameter)
	}

	// Lescale is either one scalar or a lattice matching the density resolution
	if le := params.GetOneSpectrum("Le", nil); le != nil {
		dense := spectrum.NewDenselySampledSpectrum(le)
		cfg.Le = dense
		switch leScale := params.GetFloatArray("Lescale"); len(leScale) {
		case 0:
		case 1:
			dense.Scale(leScale[0])
		default:
			if cfg.LeScale, err = volume.NewSampledGrid(leScale, nx, ny, nz); err != nil {
				return nil, fmt.Errorf("%w: Lescale: %w", ErrInvalidParameter, err)
			}
		}
	}
	return NewGridProvider(cfg)
}

func createNanoVDBProvider(params *loaders.ParameterDictionary, opts CreateOptions) (*NanoVDBProvider, error) {
	filename := params.GetOneString("filename", "")
	if filename == "" {
		return nil, fmt.Errorf("%w: must supply \"filename\" to nanovdb medium", ErrInvalidParameter)
	}
	filename = opts.resolve(filename)

	var handle *vdb.GridHandle
	var owned []*vdb.GridHandle
	var err error
	if opts.Assets != nil {
		handle, _, err = opts.Assets.Load(filename)
	} else {
		handle, err = vdb.Load(filename)
		owned = []*vdb.GridHandle{handle}
	}
	if err != nil {
		return nil, err
	}

	density := handle.Grid("density")
	if density == nil {
		if owned != nil {
			handle.Close()
		}
		return nil, fmt.Errorf("%w: %s: no \"density\" grid", ErrInvalidParameter, filename)
	}

	return NewNanoVDBProvider(NanoVDBConfig{
		Density:           density,
		Temperature:       handle.Grid("temperature"),
		LeScale:           params.GetOneFloat("Lescale", 1),
		TemperatureCutoff: params.GetOneFloat("temperaturecutoff", 0),
		TemperatureScale:  params.GetOneFloat("temperaturescale", 1),
		Owned:             owned,
		Workers:           opts.Workers,
		Logger:            opts.Logger,
	})
}
