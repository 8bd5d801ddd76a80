// Package vdb implements a sparse hierarchical voxel grid asset in the spirit of
// NanoVDB: a root table of internal nodes, each spanning 128^3 voxels through
// 16^3 child slots, each child an 8^3 leaf brick. Leaf values are read in place
// from the owning Buffer.
package vdb

import (
	"encoding/binary"
	"math"

	"github.com/df07/go-participating-media/pkg/core"
)

// Node dimensions
const (
	LeafLog2Dim  = 3 // 8^3 voxels per leaf
	LowerLog2Dim = 4 // 16^3 leaves per internal node

	LeafDim       = 1 << LeafLog2Dim
	LowerDim      = 1 << LowerLog2Dim
	LowerTotalDim = LowerDim * LeafDim // 128 voxels

	LeafValues    = LeafDim * LeafDim * LeafDim
	LowerChildren = LowerDim * LowerDim * LowerDim
)

// Coord is an integer index-space voxel coordinate
type Coord struct {
	X, Y, Z int32
}

// CoordBBox is an index-space bounding box, inclusive on both ends
type CoordBBox struct {
	Min, Max Coord
}

// NewEmptyBBox returns a box that any Expand call will overwrite
func NewEmptyBBox() CoordBBox {
	return CoordBBox{
		Min: Coord{math.MaxInt32, math.MaxInt32, math.MaxInt32},
		Max: Coord{math.MinInt32, math.MinInt32, math.MinInt32},
	}
}

// IsEmpty reports whether the box contains no voxels
func (b CoordBBox) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Expand grows the box to include c
func (b *CoordBBox) Expand(c Coord) {
	b.Min = Coord{min(b.Min.X, c.X), min(b.Min.Y, c.Y), min(b.Min.Z, c.Z)}
	b.Max = Coord{max(b.Max.X, c.X), max(b.Max.Y, c.Y), max(b.Max.Z, c.Z)}
}

func leafOrigin(c Coord) Coord {
	const mask = ^int32(LeafDim - 1)
	return Coord{c.X & mask, c.Y & mask, c.Z & mask}
}

func lowerOrigin(c Coord) Coord {
	const mask = ^int32(LowerTotalDim - 1)
	return Coord{c.X & mask, c.Y & mask, c.Z & mask}
}

func leafOffset(c Coord) int {
	return int(c.X&(LeafDim-1))<<(2*LeafLog2Dim) | int(c.Y&(LeafDim-1))<<LeafLog2Dim | int(c.Z&(LeafDim-1))
}

func lowerOffset(c Coord) int {
	x := int(c.X&(LowerTotalDim-1)) >> LeafLog2Dim
	y := int(c.Y&(LowerTotalDim-1)) >> LeafLog2Dim
	z := int(c.Z&(LowerTotalDim-1)) >> LeafLog2Dim
	return x<<(2*LowerLog2Dim) | y<<LowerLog2Dim | z
}

// Mask512 is the active-voxel bitmask of a leaf
type Mask512 [8]uint64

// IsOn reports whether bit i is set
func (m *Mask512) IsOn(i int) bool {
	return m[i>>6]&(1<<(uint(i)&63)) != 0
}

// SetOn sets bit i
func (m *Mask512) SetOn(i int) {
	m[i>>6] |= 1 << (uint(i) & 63)
}

// leafNode points at a leaf brick inside the owning buffer
type leafNode struct {
	origin Coord
	mask   Mask512
	values int // byte offset of the 512 little-endian float32 values
}

// lowerNode maps the 16^3 leaf slots of a 128^3 region to leaf indices, -1 when empty
type lowerNode struct {
	children [LowerChildren]int32
}

// Map is the index-to-world transform: world = Origin + index * VoxelSize
type Map struct {
	VoxelSize core.Vec3
	Origin    core.Vec3
}

// IndexToWorld maps a continuous index-space position to world space
func (m Map) IndexToWorld(p core.Vec3) core.Vec3 {
	return m.Origin.Add(p.MultiplyVec(m.VoxelSize))
}

// WorldToIndex maps a world-space position to continuous index space,
// where voxel centers sit on integer coordinates
func (m Map) WorldToIndex(p core.Vec3) core.Vec3 {
	return p.Subtract(m.Origin).DivideVec(m.VoxelSize)
}

// FloatGrid is a read-only sparse grid of float32 values
type FloatGrid struct {
	name       string
	xform      Map
	background float32
	buf        *Buffer
	root       map[Coord]*lowerNode
	leaves     []leafNode
	indexBBox  CoordBBox
	activeN    int
}

// Name returns the grid name stored in the asset
func (g *FloatGrid) Name() string { return g.name }

// Map returns the index-to-world transform
func (g *FloatGrid) Map() Map { return g.xform }

// Background returns the value of voxels not stored in the tree
func (g *FloatGrid) Background() float32 { return g.background }

// IndexBBox returns the inclusive bounding box of the active voxels
func (g *FloatGrid) IndexBBox() CoordBBox { return g.indexBBox }

// ActiveVoxelCount returns the number of active voxels
func (g *FloatGrid) ActiveVoxelCount() int { return g.activeN }

// LeafCount returns the number of leaf bricks
func (g *FloatGrid) LeafCount() int { return len(g.leaves) }

// WorldBBox returns the world-space box covering every active voxel,
// from the lower corner of the first voxel to the upper corner of the last
func (g *FloatGrid) WorldBBox() core.AABB {
	if g.indexBBox.IsEmpty() {
		return core.AABB{}
	}
	lo := core.NewVec3(float64(g.indexBBox.Min.X), float64(g.indexBBox.Min.Y), float64(g.indexBBox.Min.Z))
	hi := core.NewVec3(float64(g.indexBBox.Max.X)+1, float64(g.indexBBox.Max.Y)+1, float64(g.indexBBox.Max.Z)+1)
	return core.NewAABBFromPoints(g.xform.IndexToWorld(lo), g.xform.IndexToWorld(hi))
}

// WorldToIndex maps world space to continuous index space
func (g *FloatGrid) WorldToIndex(p core.Vec3) core.Vec3 {
	return g.xform.WorldToIndex(p)
}

func (g *FloatGrid) findLeaf(c Coord) *leafNode {
	lower, ok := g.root[lowerOrigin(c)]
	if !ok {
		return nil
	}
	idx := lower.children[lowerOffset(c)]
	if idx < 0 {
		return nil
	}
	return &g.leaves[idx]
}

func (g *FloatGrid) leafValue(leaf *leafNode, c Coord) float32 {
	i := leafOffset(c)
	if !leaf.mask.IsOn(i) {
		return g.background
	}
	data := g.buf.Bytes()
	if data == nil {
		return g.background
	}
	off := leaf.values + 4*i
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
}

// Value returns the voxel value at c, or the background for inactive voxels
func (g *FloatGrid) Value(c Coord) float32 {
	leaf := g.findLeaf(c)
	if leaf == nil {
		return g.background
	}
	return g.leafValue(leaf, c)
}

// Extrema returns the minimum and maximum active voxel values
func (g *FloatGrid) Extrema() (lo, hi float32) {
	if g.activeN == 0 {
		return g.background, g.background
	}
	lo, hi = math.MaxFloat32, -math.MaxFloat32
	for i := range g.leaves {
		leaf := &g.leaves[i]
		for v := 0; v < LeafValues; v++ {
			if !leaf.mask.IsOn(v) {
				continue
			}
			c := Coord{
				leaf.origin.X + int32(v>>(2*LeafLog2Dim)),
				leaf.origin.Y + int32((v>>LeafLog2Dim)&(LeafDim-1)),
				leaf.origin.Z + int32(v&(LeafDim-1)),
			}
			val := g.leafValue(leaf, c)
			lo, hi = min(lo, val), max(hi, val)
		}
	}
	return lo, hi
}

// Accessor caches the last visited leaf. Accessors are cheap and not safe for
// concurrent use; create one per goroutine.
type Accessor struct {
	grid   *FloatGrid
	leaf   *leafNode
	origin Coord
}

// Accessor returns a new accessor for g
func (g *FloatGrid) Accessor() *Accessor {
	return &Accessor{grid: g}
}

// Value returns the voxel value at c
func (a *Accessor) Value(c Coord) float32 {
	origin := leafOrigin(c)
	if a.leaf == nil || origin != a.origin {
		a.leaf = a.grid.findLeaf(c)
		a.origin = origin
		if a.leaf == nil {
			return a.grid.background
		}
	}
	return a.grid.leafValue(a.leaf, c)
}

// SampleTrilinear interpolates the eight voxels surrounding the index-space position p
func (a *Accessor) SampleTrilinear(p core.Vec3) float64 {
	pf := p.Floor()
	u, v, w := p.X-pf.X, p.Y-pf.Y, p.Z-pf.Z
	x, y, z := int32(pf.X), int32(pf.Y), int32(pf.Z)

	val := func(dx, dy, dz int32) float64 {
		return float64(a.Value(Coord{x + dx, y + dy, z + dz}))
	}
	v00 := core.Lerp(w, val(0, 0, 0), val(0, 0, 1))
	v01 := core.Lerp(w, val(0, 1, 0), val(0, 1, 1))
	v10 := core.Lerp(w, val(1, 0, 0), val(1, 0, 1))
	v11 := core.Lerp(w, val(1, 1, 0), val(1, 1, 1))
	return core.Lerp(u, core.Lerp(v, v00, v01), core.Lerp(v, v10, v11))
}

// SampleWorld trilinearly samples the grid at a world-space position
func (g *FloatGrid) SampleWorld(p core.Vec3) float64 {
	return g.Accessor().SampleTrilinear(g.WorldToIndex(p))
}

// release drops the tree so later lookups return the background
func (g *FloatGrid) release() {
	g.root = nil
	g.leaves = nil
}
