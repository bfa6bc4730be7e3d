package resource

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MeshType is the value-type name of meshes in scene files.
const MeshType = "mesh"

// BuiltinPrefix marks mesh paths that name a primitive instead of a file.
const BuiltinPrefix = "builtin:"

// Mesh is triangle geometry with per-vertex texture coordinates.
type Mesh struct {
	Vertices [][3]float32 `yaml:"vertices" json:"vertices"`
	Indices  []int        `yaml:"indices" json:"indices"`
	UVs      [][2]float32 `yaml:"uvs" json:"uvs"`

	path string
}

func (m *Mesh) ResourcePath() string {
	if m == nil {
		return ""
	}
	return m.path
}

// Validate checks that every index addresses a vertex and that indices form
// whole triangles.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrBadMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d at %d out of range", ErrBadMesh, idx, i)
		}
	}
	return nil
}

// Interleave returns x, y, z, u, v per vertex. Missing UVs are zero.
func (m *Mesh) Interleave() []float32 {
	out := make([]float32, 0, len(m.Vertices)*5)
	for i, v := range m.Vertices {
		var uv [2]float32
		if i < len(m.UVs) {
			uv = m.UVs[i]
		}
		out = append(out, v[0], v[1], v[2], uv[0], uv[1])
	}
	return out
}

var builtins = map[string]Mesh{
	"triangle": {
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:  []int{0, 1, 2},
		UVs:      [][2]float32{{0, 0}, {1, 0}, {0, 1}},
	},
	"quad": {
		Vertices: [][3]float32{{1, 1, 0}, {1, 0, 0}, {0, 0, 0}, {0, 1, 0}},
		Indices:  []int{0, 1, 3, 1, 2, 3},
		UVs:      [][2]float32{{1, 1}, {1, 0}, {0, 0}, {0, 1}},
	},
}

// LoadMesh reads a YAML mesh, or a primitive for builtin: paths.
func LoadMesh(fsys fs.FS, path string) (Resource, error) {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		b, found := builtins[name]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBuiltin, name)
		}
		mesh := &Mesh{
			Vertices: append([][3]float32(nil), b.Vertices...),
			Indices:  append([]int(nil), b.Indices...),
			UVs:      append([][2]float32(nil), b.UVs...),
			path:     path,
		}
		return mesh, nil
	}

	if fsys == nil {
		return nil, errors.Errorf("no filesystem for %q", path)
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}

	mesh := &Mesh{path: path}
	if err = yaml.Unmarshal(data, mesh); err != nil {
		return nil, errors.Wrap(err, "parse mesh")
	}
	if err = mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// NewMesh returns a mesh that persists as path without loading it.
func NewMesh(path string, vertices [][3]float32, indices []int, uvs [][2]float32) *Mesh {
	return &Mesh{Vertices: vertices, Indices: indices, UVs: uvs, path: path}
}
