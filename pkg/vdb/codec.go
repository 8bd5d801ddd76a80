package vdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/df07/go-participating-media/pkg/core"
)

// Asset layout (little-endian):
//
//	magic [8]byte, version uint32, gridCount uint32
//	per grid: nameLen uint32, name, voxelSize [3]float64, origin [3]float64,
//	          background float32, leafCount uint32
//	per leaf: origin [3]int32, mask [8]uint64, values [512]float32
const (
	Magic   = "PMVDB001"
	Version = 1

	leafRecordSize = 3*4 + 8*8 + LeafValues*4
)

var (
	// ErrBadMagic is returned for data that is not a grid asset
	ErrBadMagic = errors.New("vdb: bad magic")
	// ErrCorrupt is returned for truncated or inconsistent assets
	ErrCorrupt = errors.New("vdb: corrupt asset")
)

// GridHandle owns a buffer and the grids decoded from it
type GridHandle struct {
	buf   *Buffer
	grids []*FloatGrid
}

// Grid returns the grid with the given name, or nil
func (h *GridHandle) Grid(name string) *FloatGrid {
	for _, g := range h.grids {
		if g.name == name {
			return g
		}
	}
	return nil
}

// Grids returns every grid in the asset, in file order
func (h *GridHandle) Grids() []*FloatGrid {
	return h.grids
}

// Size returns the number of bytes owned by the handle
func (h *GridHandle) Size() int {
	return h.buf.Len()
}

// Close releases the buffer. Grids from this handle return their background afterwards.
func (h *GridHandle) Close() error {
	for _, g := range h.grids {
		g.release()
	}
	return h.buf.Close()
}

type cursor struct {
	data []byte
	pos  int
	err  error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.data) {
		c.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrCorrupt, n, c.pos, len(c.data)-c.pos)
		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) u32() uint32 {
	if b := c.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (c *cursor) u64() uint64 {
	if b := c.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (c *cursor) f64() float64 {
	return math.Float64frombits(c.u64())
}

func (c *cursor) vec3() core.Vec3 {
	return core.NewVec3(c.f64(), c.f64(), c.f64())
}

// Open decodes every grid in buf. The handle takes ownership of buf.
func Open(buf *Buffer) (*GridHandle, error) {
	if buf.Closed() {
		return nil, ErrClosed
	}
	c := &cursor{data: buf.Bytes()}
	if magic := c.take(len(Magic)); c.err != nil || string(magic) != Magic {
		return nil, ErrBadMagic
	}
	if v := c.u32(); c.err == nil && v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	count := int(c.u32())
	if c.err != nil {
		return nil, c.err
	}

	h := &GridHandle{buf: buf}
	for i := 0; i < count; i++ {
		g, err := decodeGrid(c, buf)
		if err != nil {
			return nil, fmt.Errorf("grid %d: %w", i, err)
		}
		h.grids = append(h.grids, g)
	}
	return h, nil
}

// Load reads and decodes a grid asset file
func Load(filename string) (*GridHandle, error) {
	buf, err := LoadBuffer(filename)
	if err != nil {
		return nil, err
	}
	h, err := Open(buf)
	if err != nil {
		buf.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return h, nil
}

func decodeGrid(c *cursor, buf *Buffer) (*FloatGrid, error) {
	g := &FloatGrid{
		buf:       buf,
		root:      make(map[Coord]*lowerNode),
		indexBBox: NewEmptyBBox(),
	}
	g.name = string(c.take(int(c.u32())))
	g.xform.VoxelSize = c.vec3()
	g.xform.Origin = c.vec3()
	g.background = math.Float32frombits(c.u32())
	leafCount := int(c.u32())
	if c.err != nil {
		return nil, c.err
	}
	if g.xform.VoxelSize.X <= 0 || g.xform.VoxelSize.Y <= 0 || g.xform.VoxelSize.Z <= 0 {
		return nil, fmt.Errorf("%w: non-positive voxel size %v", ErrCorrupt, g.xform.VoxelSize)
	}
	if leafCount < 0 || leafCount > (len(c.data)-c.pos)/leafRecordSize {
		return nil, fmt.Errorf("%w: leaf count %d exceeds asset size", ErrCorrupt, leafCount)
	}

	g.leaves = make([]leafNode, leafCount)
	for i := range g.leaves {
		leaf := &g.leaves[i]
		leaf.origin = Coord{int32(c.u32()), int32(c.u32()), int32(c.u32())}
		for w := range leaf.mask {
			leaf.mask[w] = c.u64()
		}
		leaf.values = c.pos
		c.take(LeafValues * 4)
		if c.err != nil {
			return nil, c.err
		}
		if leafOrigin(leaf.origin) != leaf.origin {
			return nil, fmt.Errorf("%w: unaligned leaf origin %v", ErrCorrupt, leaf.origin)
		}

		lower, ok := g.root[lowerOrigin(leaf.origin)]
		if !ok {
			lower = &lowerNode{}
			for j := range lower.children {
				lower.children[j] = -1
			}
			g.root[lowerOrigin(leaf.origin)] = lower
		}
		slot := lowerOffset(leaf.origin)
		if lower.children[slot] >= 0 {
			return nil, fmt.Errorf("%w: duplicate leaf %v", ErrCorrupt, leaf.origin)
		}
		lower.children[slot] = int32(i)

		for v := 0; v < LeafValues; v++ {
			if !leaf.mask.IsOn(v) {
				continue
			}
			g.activeN++
			g.indexBBox.Expand(Coord{
				leaf.origin.X + int32(v>>(2*LeafLog2Dim)),
				leaf.origin.Y + int32((v>>LeafLog2Dim)&(LeafDim-1)),
				leaf.origin.Z + int32(v&(LeafDim-1)),
			})
		}
	}
	return g, nil
}

// Encode writes grids built by builders as a single asset
func Encode(w io.Writer, builders ...*Builder) error {
	le := binary.LittleEndian
	var out []byte
	out = append(out, Magic...)
	out = le.AppendUint32(out, Version)
	out = le.AppendUint32(out, uint32(len(builders)))

	for _, b := range builders {
		if err := b.validate(); err != nil {
			return err
		}
		out = le.AppendUint32(out, uint32(len(b.name)))
		out = append(out, b.name...)
		for _, v := range []float64{
			b.xform.VoxelSize.X, b.xform.VoxelSize.Y, b.xform.VoxelSize.Z,
			b.xform.Origin.X, b.xform.Origin.Y, b.xform.Origin.Z,
		} {
			out = le.AppendUint64(out, math.Float64bits(v))
		}
		out = le.AppendUint32(out, math.Float32bits(b.background))
		out = le.AppendUint32(out, uint32(len(b.leaves)))

		for _, origin := range b.sortedLeafOrigins() {
			leaf := b.leaves[origin]
			out = le.AppendUint32(out, uint32(origin.X))
			out = le.AppendUint32(out, uint32(origin.Y))
			out = le.AppendUint32(out, uint32(origin.Z))
			for _, word := range leaf.mask {
				out = le.AppendUint64(out, word)
			}
			for _, v := range leaf.values {
				out = le.AppendUint32(out, math.Float32bits(v))
			}
		}
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write grid asset: %w", err)
	}
	return nil
}
