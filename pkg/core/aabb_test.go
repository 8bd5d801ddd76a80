package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAABB_IntersectP(t *testing.T) {
	box := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))

	tests := []struct {
		name      string
		origin    Vec3
		direction Vec3
		tMax      float64
		hit       bool
		t0, t1    float64
	}{
		{
			name:      "Through the middle",
			origin:    NewVec3(-1, 0.5, 0.5),
			direction: NewVec3(1, 0, 0),
			tMax:      math.Inf(1),
			hit:       true, t0: 1, t1: 2,
		},
		{
			name:      "Origin inside",
			origin:    NewVec3(0.5, 0.5, 0.5),
			direction: NewVec3(0, 1, 0),
			tMax:      10,
			hit:       true, t0: 0, t1: 0.5,
		},
		{
			name:      "Clipped by tMax",
			origin:    NewVec3(-1, 0.5, 0.5),
			direction: NewVec3(1, 0, 0),
			tMax:      1.5,
			hit:       true, t0: 1, t1: 1.5,
		},
		{
			name:      "Segment ends before the box",
			origin:    NewVec3(-1, 0.5, 0.5),
			direction: NewVec3(1, 0, 0),
			tMax:      0.5,
			hit:       false,
		},
		{
			name:      "Pointing away",
			origin:    NewVec3(-1, 0.5, 0.5),
			direction: NewVec3(-1, 0, 0),
			tMax:      math.Inf(1),
			hit:       false,
		},
		{
			name:      "Parallel outside slab",
			origin:    NewVec3(-1, 2, 0.5),
			direction: NewVec3(1, 0, 0),
			tMax:      math.Inf(1),
			hit:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t0, t1, hit := box.IntersectP(tt.origin, tt.direction, tt.tMax)
			require.Equal(t, tt.hit, hit)
			if hit {
				assert.InDelta(t, tt.t0, t0, 1e-9)
				assert.InDelta(t, tt.t1, t1, 1e-9)
			}
		})
	}
}

func TestAABB_OffsetAndLerp(t *testing.T) {
	box := NewAABB(NewVec3(-1, 0, 2), NewVec3(1, 4, 3))

	assert.Equal(t, NewVec3(0, 0, 0), box.Offset(box.Min))
	assert.Equal(t, NewVec3(1, 1, 1), box.Offset(box.Max))
	assert.Equal(t, NewVec3(0.5, 0.5, 0.5), box.Offset(box.Center()))

	p := NewVec3(0.25, 0.75, 0.5)
	assert.InDelta(t, 0, box.Offset(box.Lerp(p)).Subtract(p).Length(), 1e-12)
}

func TestAABB_Union(t *testing.T) {
	a := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	b := NewAABB(NewVec3(-1, 0.5, 0.5), NewVec3(0.5, 2, 0.75))
	u := a.Union(b)
	assert.Equal(t, NewVec3(-1, 0, 0), u.Min)
	assert.Equal(t, NewVec3(1, 2, 1), u.Max)
	assert.True(t, u.Inside(NewVec3(0, 1.5, 0.5)))
	assert.False(t, u.IsDegenerate())
	assert.True(t, NewAABB(NewVec3(0, 0, 0), NewVec3(1, 0, 1)).IsDegenerate())
}
