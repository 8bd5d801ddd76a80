package vdb

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/df07/go-participating-media/pkg/core"
)

type builderLeaf struct {
	mask   Mask512
	values [LeafValues]float32
}

// Builder accumulates voxels for one grid before encoding
type Builder struct {
	name       string
	xform      Map
	background float32
	leaves     map[Coord]*builderLeaf
}

// NewBuilder creates a builder for a named grid with unit voxels at the origin
func NewBuilder(name string, background float32) *Builder {
	return &Builder{
		name:       name,
		xform:      Map{VoxelSize: core.NewVec3(1, 1, 1)},
		background: background,
		leaves:     make(map[Coord]*builderLeaf),
	}
}

// SetTransform sets the index-to-world mapping
func (b *Builder) SetTransform(voxelSize, origin core.Vec3) *Builder {
	b.xform = Map{VoxelSize: voxelSize, Origin: origin}
	return b
}

// validate rejects transforms that Open would refuse to decode
func (b *Builder) validate() error {
	vs := b.xform.VoxelSize
	if !(vs.X > 0) || !(vs.Y > 0) || !(vs.Z > 0) {
		return fmt.Errorf("%w: grid %q has non-positive voxel size %v", ErrCorrupt, b.name, vs)
	}
	return nil
}

// SetValue stores an active voxel
func (b *Builder) SetValue(c Coord, v float32) {
	origin := leafOrigin(c)
	leaf, ok := b.leaves[origin]
	if !ok {
		leaf = &builderLeaf{}
		for i := range leaf.values {
			leaf.values[i] = b.background
		}
		b.leaves[origin] = leaf
	}
	i := leafOffset(c)
	leaf.values[i] = v
	leaf.mask.SetOn(i)
}

// Fill sets every voxel of the inclusive box to v
func (b *Builder) Fill(box CoordBBox, v float32) {
	for z := box.Min.Z; z <= box.Max.Z; z++ {
		for y := box.Min.Y; y <= box.Max.Y; y++ {
			for x := box.Min.X; x <= box.Max.X; x++ {
				b.SetValue(Coord{x, y, z}, v)
			}
		}
	}
}

func (b *Builder) sortedLeafOrigins() []Coord {
	origins := make([]Coord, 0, len(b.leaves))
	for c := range b.leaves {
		origins = append(origins, c)
	}
	sort.Slice(origins, func(i, j int) bool {
		a, c := origins[i], origins[j]
		if a.Z != c.Z {
			return a.Z < c.Z
		}
		if a.Y != c.Y {
			return a.Y < c.Y
		}
		return a.X < c.X
	})
	return origins
}

// Build encodes the given builders and opens the result as an in-memory handle
func Build(builders ...*Builder) (*GridHandle, error) {
	var out bytes.Buffer
	if err := Encode(&out, builders...); err != nil {
		return nil, err
	}
	return Open(NewBuffer(out.Bytes()))
}
