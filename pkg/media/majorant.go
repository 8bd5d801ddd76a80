package media

import (
	"math"

	"github.com/df07/go-participating-media/pkg/core"
)

// MajorantGrid stores an upper bound on density for each cell of a regular
// subdivision of Bounds. Cells are laid out x-fastest.
type MajorantGrid struct {
	Bounds core.AABB
	Res    core.Point3i
	voxels []float64
}

// NewMajorantGrid allocates a zeroed grid over bounds
func NewMajorantGrid(bounds core.AABB, res core.Point3i) *MajorantGrid {
	res = core.NewPoint3i(max(1, res.X), max(1, res.Y), max(1, res.Z))
	return &MajorantGrid{Bounds: bounds, Res: res, voxels: make([]float64, res.Volume())}
}

func (g *MajorantGrid) offset(x, y, z int) int {
	return x + g.Res.X*(y+g.Res.Y*z)
}

// Lookup returns the bound stored for cell (x, y, z)
func (g *MajorantGrid) Lookup(x, y, z int) float64 {
	return g.voxels[g.offset(x, y, z)]
}

// Set stores the bound for cell (x, y, z)
func (g *MajorantGrid) Set(x, y, z int, v float64) {
	g.voxels[g.offset(x, y, z)] = v
}

// Len returns the number of cells
func (g *MajorantGrid) Len() int {
	return len(g.voxels)
}

// Cell converts a linear cell index into cell coordinates
func (g *MajorantGrid) Cell(i int) (x, y, z int) {
	return i % g.Res.X, (i / g.Res.X) % g.Res.Y, i / (g.Res.X * g.Res.Y)
}

// CellBounds returns the unit-cube sub-box covered by cell (x, y, z)
func (g *MajorantGrid) CellBounds(x, y, z int) core.AABB {
	return core.NewAABB(
		core.NewVec3(float64(x)/float64(g.Res.X), float64(y)/float64(g.Res.Y), float64(z)/float64(g.Res.Z)),
		core.NewVec3(float64(x+1)/float64(g.Res.X), float64(y+1)/float64(g.Res.Y), float64(z+1)/float64(g.Res.Z)),
	)
}

// WorldCellBounds returns the medium-space box covered by cell (x, y, z)
func (g *MajorantGrid) WorldCellBounds(x, y, z int) core.AABB {
	cb := g.CellBounds(x, y, z)
	return core.NewAABB(g.Bounds.Lerp(cb.Min), g.Bounds.Lerp(cb.Max))
}

// MaxValue returns the largest bound in the grid
func (g *MajorantGrid) MaxValue() float64 {
	m := 0.0
	for _, v := range g.voxels {
		m = max(m, v)
	}
	return m
}

// majorantSegment is a stretch of the ray inside one grid cell
type majorantSegment struct {
	TMin, TMax float64
	MaxDensity float64
}

// cmpToAxis maps the three pairwise comparisons of the next crossing
// distances to the axis with the nearest crossing
var cmpToAxis = [8]int{2, 1, 2, 1, 2, 2, 0, 0}

// ddaIterator walks the cells of a majorant grid along a ray in front-to-back order
type ddaIterator struct {
	grid          *MajorantGrid
	tMin, tMax    float64
	nextCrossingT [3]float64
	deltaT        [3]float64
	step          [3]int
	voxelLimit    [3]int
	voxel         [3]int
	done          bool
}

// newDDAIterator starts a walk over [tMin, tMax] of ray, both in medium space.
// The ray direction must be normalized and [tMin, tMax] must lie inside grid.Bounds.
func newDDAIterator(ray core.Ray, tMin, tMax float64, grid *MajorantGrid) *ddaIterator {
	it := &ddaIterator{grid: grid, tMin: tMin, tMax: tMax}

	// Express the ray in grid space where the bounds map to [0,1]^3
	diag := grid.Bounds.Diagonal()
	gridOrigin := grid.Bounds.Offset(ray.Origin)
	gridDir := ray.Direction.DivideVec(diag)
	gridIntersect := gridOrigin.Add(gridDir.Multiply(tMin))
	res := [3]int{grid.Res.X, grid.Res.Y, grid.Res.Z}

	for axis := 0; axis < 3; axis++ {
		n := float64(res[axis])
		it.voxel[axis] = core.ClampInt(int(gridIntersect.Index(axis)*n), 0, res[axis]-1)

		d := gridDir.Index(axis)
		if d == 0 {
			// Also turns -0 into +0
			d = 0
		}
		it.deltaT[axis] = 1 / math.Abs(d*n)

		if d == 0 {
			it.nextCrossingT[axis] = math.Inf(1)
			it.step[axis] = 1
			it.voxelLimit[axis] = res[axis]
		} else if d > 0 {
			nextVoxelPos := float64(it.voxel[axis]+1) / n
			it.nextCrossingT[axis] = tMin + (nextVoxelPos-gridIntersect.Index(axis))/d
			it.step[axis] = 1
			it.voxelLimit[axis] = res[axis]
		} else {
			nextVoxelPos := float64(it.voxel[axis]) / n
			it.nextCrossingT[axis] = tMin + (nextVoxelPos-gridIntersect.Index(axis))/d
			it.step[axis] = -1
			it.voxelLimit[axis] = -1
		}
	}
	return it
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Next returns the next segment, or false once the walk has left the grid or passed tMax
func (it *ddaIterator) Next() (majorantSegment, bool) {
	if it.done {
		return majorantSegment{}, false
	}

	// Find the axis whose cell boundary the ray crosses first
	n := it.nextCrossingT
	bits := b2i(n[0] < n[1])<<2 + b2i(n[0] < n[2])<<1 + b2i(n[1] < n[2])
	stepAxis := cmpToAxis[bits]

	tVoxelExit := it.tMax
	if n[stepAxis] < tVoxelExit {
		tVoxelExit = n[stepAxis]
	}
	seg := majorantSegment{
		TMin:       it.tMin,
		TMax:       tVoxelExit,
		MaxDensity: it.grid.Lookup(it.voxel[0], it.voxel[1], it.voxel[2]),
	}
	it.tMin = tVoxelExit

	// Advance to the neighboring cell
	if n[stepAxis] > it.tMax {
		it.done = true
	}
	it.voxel[stepAxis] += it.step[stepAxis]
	if it.voxel[stepAxis] == it.voxelLimit[stepAxis] {
		it.done = true
	}
	it.nextCrossingT[stepAxis] += it.deltaT[stepAxis]
	return seg, true
}
