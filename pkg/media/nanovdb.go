package media

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/df07/go-participating-media/pkg/parallel"
	"github.com/df07/go-participating-media/pkg/spectrum"
	"github.com/df07/go-participating-media/pkg/vdb"
)

const (
	defaultVDBMajorantRes = 64

	// Temperatures at or below this many kelvin are treated as non-emissive
	minEmissiveTemperature = 100
)

// NanoVDBConfig describes the sparse grids of a NanoVDBProvider
type NanoVDBConfig struct {
	Density           *vdb.FloatGrid
	Temperature       *vdb.FloatGrid // Optional, drives blackbody emission
	LeScale           float64
	TemperatureCutoff float64
	TemperatureScale  float64

	// Handles released when the provider is closed. Leave empty when the
	// grids belong to an AssetStore.
	Owned []*vdb.GridHandle

	Workers int // Majorant build parallelism, <= 0 uses every CPU
	Logger  core.Logger
}

// NanoVDBProvider samples density and temperature from sparse voxel grids in world space
type NanoVDBProvider struct {
	bounds            core.AABB
	density           *vdb.FloatGrid
	temperature       *vdb.FloatGrid
	leScale           float64
	temperatureCutoff float64
	temperatureScale  float64
	owned             []*vdb.GridHandle
	pool              *parallel.WorkerPool
	logger            core.Logger
}

// NewNanoVDBProvider creates a provider over the union of the grids' world bounds
func NewNanoVDBProvider(cfg NanoVDBConfig) (*NanoVDBProvider, error) {
	if cfg.Density == nil {
		return nil, fmt.Errorf("%w: density grid is required", ErrInvalidParameter)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = core.NewNopLogger()
	}

	bounds := cfg.Density.WorldBBox()
	if cfg.Temperature != nil {
		bounds = bounds.Union(cfg.Temperature.WorldBBox())
	}
	return &NanoVDBProvider{
		bounds:            bounds,
		density:           cfg.Density,
		temperature:       cfg.Temperature,
		leScale:           cfg.LeScale,
		temperatureCutoff: cfg.TemperatureCutoff,
		temperatureScale:  cfg.TemperatureScale,
		owned:             cfg.Owned,
		pool:              parallel.NewWorkerPool(cfg.Workers),
		logger:            logger,
	}, nil
}

// Bounds returns the union of the density and temperature world boxes
func (n *NanoVDBProvider) Bounds() core.AABB { return n.bounds }

// Density samples the density grid with trilinear filtering
func (n *NanoVDBProvider) Density(p core.Vec3, lambda spectrum.SampledWavelengths) MediumDensity {
	return NewMediumDensity(n.density.Accessor().SampleTrilinear(n.density.WorldToIndex(p)))
}

// Le converts the local temperature to blackbody emission
func (n *NanoVDBProvider) Le(p core.Vec3, lambda spectrum.SampledWavelengths) spectrum.SampledSpectrum {
	if n.temperature == nil {
		return spectrum.SampledSpectrum{}
	}
	temp := n.temperature.Accessor().SampleTrilinear(n.temperature.WorldToIndex(p))
	temp = (temp - n.temperatureCutoff) * n.temperatureScale
	if temp <= minEmissiveTemperature {
		return spectrum.SampledSpectrum{}
	}
	return spectrum.Sample(spectrum.NewBlackbodySpectrum(temp), lambda).Scale(n.leScale)
}

// IsEmissive reports whether a temperature grid is present with a positive scale
func (n *NanoVDBProvider) IsEmissive() bool {
	return n.temperature != nil && n.leScale > 0
}

// MaxDensityGrid computes each cell's bound from the voxels its world box touches,
// padded by one voxel for the trilinear filter. Cells are processed in parallel.
func (n *NanoVDBProvider) MaxDensityGrid(res core.Point3i) *MajorantGrid {
	if res.IsZero() {
		res = core.NewPoint3i(defaultVDBMajorantRes, defaultVDBMajorantRes, defaultVDBMajorantRes)
	}
	grid := NewMajorantGrid(n.bounds, res)

	start := time.Now()
	n.logger.Debugf("Starting majorant grid %dx%dx%d for %q", grid.Res.X, grid.Res.Y, grid.Res.Z, n.density.Name())

	indexBBox := n.density.IndexBBox()
	background := max(0, float64(n.density.Background()))
	if indexBBox.IsEmpty() {
		// No active voxels, so every lookup returns the background
		for i := range grid.voxels {
			grid.voxels[i] = background
		}
		n.logger.Debugf("Density grid %q has no active voxels, majorant is the background %g", n.density.Name(), background)
		return grid
	}
	n.pool.For(grid.Len(), func(i int) {
		x, y, z := grid.Cell(i)
		wb := grid.WorldCellBounds(x, y, z)
		i0 := n.density.WorldToIndex(wb.Min)
		i1 := n.density.WorldToIndex(wb.Max)

		// Voxels outside the active region hold the background value
		maxValue := 0.0
		lo := vdb.Coord{X: floorCoord(i0.X - 1), Y: floorCoord(i0.Y - 1), Z: floorCoord(i0.Z - 1)}
		hi := vdb.Coord{X: floorCoord(i1.X + 1), Y: floorCoord(i1.Y + 1), Z: floorCoord(i1.Z + 1)}
		if lo.X < indexBBox.Min.X || lo.Y < indexBBox.Min.Y || lo.Z < indexBBox.Min.Z ||
			hi.X > indexBBox.Max.X || hi.Y > indexBBox.Max.Y || hi.Z > indexBBox.Max.Z {
			maxValue = background
		}
		lo = vdb.Coord{X: max(lo.X, indexBBox.Min.X), Y: max(lo.Y, indexBBox.Min.Y), Z: max(lo.Z, indexBBox.Min.Z)}
		hi = vdb.Coord{X: min(hi.X, indexBBox.Max.X), Y: min(hi.Y, indexBBox.Max.Y), Z: min(hi.Z, indexBBox.Max.Z)}

		acc := n.density.Accessor()
		for nz := lo.Z; nz <= hi.Z; nz++ {
			for ny := lo.Y; ny <= hi.Y; ny++ {
				for nx := lo.X; nx <= hi.X; nx++ {
					maxValue = max(maxValue, float64(acc.Value(vdb.Coord{X: nx, Y: ny, Z: nz})))
				}
			}
		}
		// Each cell is written by exactly one worker
		grid.Set(x, y, z, maxValue)
	})

	n.logger.Debugf("Finished majorant grid in %v", time.Since(start))
	return grid
}

func floorCoord(v float64) int32 {
	v = math.Floor(v)
	if v < math.MinInt32 {
		return math.MinInt32
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

// Close releases the owned grid handles
func (n *NanoVDBProvider) Close() error {
	var errs []error
	for _, h := range n.owned {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	n.owned = nil
	return errors.Join(errs...)
}
