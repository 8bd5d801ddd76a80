package loaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizePBRT(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple statement",
			input:    `MakeNamedMedium "fog"`,
			expected: []string{`MakeNamedMedium`, `"fog"`},
		},
		{
			name:     "statement with parameters",
			input:    `MakeNamedMedium "fog" "string type" "homogeneous" "float g" 0.3`,
			expected: []string{`MakeNamedMedium`, `"fog"`, `"string type"`, `"homogeneous"`, `"float g"`, `0.3`},
		},
		{
			name:     "statement with array",
			input:    `MakeNamedMedium "fog" "rgb sigma_a" [0.7 0.3 0.1]`,
			expected: []string{`MakeNamedMedium`, `"fog"`, `"rgb sigma_a"`, `[0.7 0.3 0.1]`},
		},
		{
			name:     "array of strings",
			input:    `"string densityslices" [ "a.png" "b.png" ]`,
			expected: []string{`"string densityslices"`, `[ "a.png" "b.png" ]`},
		},
		{
			name:     "transform",
			input:    `Translate 1 -2 3.5`,
			expected: []string{`Translate`, `1`, `-2`, `3.5`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tokenizePBRT(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("tokenizePBRT() length = %d, want %d", len(result), len(tt.expected))
				t.Errorf("got: %v", result)
				t.Errorf("want: %v", tt.expected)
				return
			}
			for i, token := range result {
				if token != tt.expected[i] {
					t.Errorf("tokenizePBRT()[%d] = %q, want %q", i, token, tt.expected[i])
				}
			}
		})
	}
}

func TestStripComment(t *testing.T) {
	assert.Equal(t, "Translate 1 2 3 ", stripComment("Translate 1 2 3 # move up"))
	assert.Equal(t, `"string filename" "a#b.pmvdb"`, stripComment(`"string filename" "a#b.pmvdb"`))
	assert.Equal(t, "", stripComment("# whole line"))
}

func TestParsePBRT_NamedMedia(t *testing.T) {
	content := `
# Media only; everything else is skipped
Camera "perspective" "float fov" 40
WorldBegin
MakeNamedMedium "fog" "string type" "homogeneous"
    "rgb sigma_a" [0.1 0.2 0.3]
    "float g" 0.5
Shape "sphere" "float radius" 1
MakeNamedMedium "smoke" "string type" "nanovdb" "string filename" "smoke.pmvdb"
`
	desc, err := ParsePBRT(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, desc.Media, 2)

	fog, ok := desc.Medium("fog")
	require.True(t, ok)
	assert.Equal(t, "homogeneous", fog.Kind)
	assert.Equal(t, 0.5, fog.Params.GetOneFloat("g", 0))
	assert.Equal(t, [][3]float64{{0.1, 0.2, 0.3}}, fog.Params.GetRGBArray("sigma_a"))
	assert.True(t, fog.RenderFromMedium.IsIdentity())
	assert.Empty(t, fog.Params.Unused(), "type is consumed by the parser")

	smoke, ok := desc.Medium("smoke")
	require.True(t, ok)
	assert.Equal(t, "smoke.pmvdb", smoke.Params.GetOneString("filename", ""))

	_, ok = desc.Medium("mist")
	assert.False(t, ok)
}

func TestParsePBRT_TransformScoping(t *testing.T) {
	content := `
Translate 100 0 0
WorldBegin
Translate 1 0 0
AttributeBegin
    Scale 2 2 2
    MakeNamedMedium "inner" "string type" "cloud"
    CoordinateSystem "scaled"
AttributeEnd
MakeNamedMedium "outer" "string type" "cloud"
TransformBegin
    Identity
    MakeNamedMedium "identity" "string type" "cloud"
TransformEnd
CoordSysTransform "scaled"
MakeNamedMedium "restored" "string type" "cloud"
`
	desc, err := ParsePBRT(strings.NewReader(content))
	require.NoError(t, err)

	p := core.NewVec3(1, 1, 1)
	apply := func(name string) core.Vec3 {
		m, ok := desc.Medium(name)
		require.True(t, ok, name)
		return m.RenderFromMedium.ApplyPoint(p)
	}
	assert.Equal(t, core.NewVec3(3, 2, 2), apply("inner"))
	assert.Equal(t, core.NewVec3(2, 1, 1), apply("outer"))
	assert.Equal(t, core.NewVec3(1, 1, 1), apply("identity"))
	assert.Equal(t, core.NewVec3(3, 2, 2), apply("restored"))
}

func TestParsePBRT_Matrices(t *testing.T) {
	content := `
Transform [1 0 0 0  0 1 0 0  0 0 1 0  5 6 7 1]
MakeNamedMedium "moved" "string type" "cloud"
ConcatTransform [2 0 0 0  0 2 0 0  0 0 2 0  0 0 0 1]
MakeNamedMedium "scaled" "string type" "cloud"
`
	desc, err := ParsePBRT(strings.NewReader(content))
	require.NoError(t, err)

	moved, _ := desc.Medium("moved")
	assert.Equal(t, core.NewVec3(6, 7, 8), moved.RenderFromMedium.ApplyPoint(core.NewVec3(1, 1, 1)))
	scaled, _ := desc.Medium("scaled")
	assert.Equal(t, core.NewVec3(7, 8, 9), scaled.RenderFromMedium.ApplyPoint(core.NewVec3(1, 1, 1)))
}

func TestParsePBRT_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing type", `MakeNamedMedium "fog" "float g" 0.5`},
		{"missing name", `MakeNamedMedium "string type" "cloud"`},
		{"redefined", "MakeNamedMedium \"a\" \"string type\" \"cloud\"\nMakeNamedMedium \"a\" \"string type\" \"cloud\""},
		{"non-string type", `MakeNamedMedium "fog" "float type" 1`},
		{"bad translate", `Translate 1 2`},
		{"bad number", `Scale 1 x 1`},
		{"unmatched end", `AttributeEnd`},
		{"unclosed begin", `AttributeBegin`},
		{"orphan continuation", `"float g" 0.5`},
		{"unknown coordinate system", `CoordSysTransform "camera"`},
		{"dangling parameter", `MakeNamedMedium "fog" "string type"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePBRT(strings.NewReader(tt.content))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParsePBRT_ErrorLine(t *testing.T) {
	content := "WorldBegin\n\nTranslate 1 2\n"
	_, err := ParsePBRT(strings.NewReader(content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoadPBRT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.pbrt")
	require.NoError(t, os.WriteFile(path, []byte(`MakeNamedMedium "fog" "string type" "homogeneous"`), 0o644))

	desc, err := LoadPBRT(path)
	require.NoError(t, err)
	assert.Equal(t, dir, desc.BaseDir)
	assert.Len(t, desc.Media, 1)

	_, err = LoadPBRT(filepath.Join(dir, "missing.pbrt"))
	assert.Error(t, err)
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"valid", "scenes/smoke.pbrt", false},
		{"upper case extension", "SMOKE.PBRT", false},
		{"empty", "", true},
		{"null byte", "smoke\x00.pbrt", true},
		{"wrong extension", "smoke.pmvdb", true},
		{"too long", strings.Repeat("a", 520) + ".pbrt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilePath(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
