package resource

import (
	"context"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cubeYAML = `
vertices:
  - [0, 0, 0]
  - [1, 0, 0]
  - [0, 1, 0]
indices: [0, 1, 2]
uvs:
  - [0, 0]
  - [1, 0]
`

func newManager(t *testing.T, files fstest.MapFS) *Manager {
	t.Helper()
	m := NewManager(files, nil)
	require.NoError(t, m.Register(MeshType, LoadMesh))
	return m
}

func TestIsResource(t *testing.T) {
	path, ok := IsResource(NewMesh("meshes/a.yaml", nil, nil, nil))
	assert.True(t, ok)
	assert.Equal(t, "meshes/a.yaml", path)

	_, ok = IsResource(&Mesh{})
	assert.False(t, ok)

	_, ok = IsResource((*Mesh)(nil))
	assert.False(t, ok)

	_, ok = IsResource("meshes/a.yaml")
	assert.False(t, ok)
}

func TestLoadMeshFromFS(t *testing.T) {
	m := newManager(t, fstest.MapFS{"meshes/tri.yaml": {Data: []byte(cubeYAML)}})

	r, err := m.Load("meshes/tri.yaml", MeshType)
	require.NoError(t, err)

	mesh, ok := r.(*Mesh)
	require.True(t, ok)
	assert.Equal(t, "meshes/tri.yaml", mesh.ResourcePath())
	assert.Len(t, mesh.Vertices, 3)
	assert.Equal(t, []int{0, 1, 2}, mesh.Indices)
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 0}, mesh.Interleave())
}

func TestLoadCachesByTypeAndPath(t *testing.T) {
	var reads atomic.Int32
	m := NewManager(nil, nil)
	require.NoError(t, m.Register("blob", func(_ fs.FS, path string) (Resource, error) {
		reads.Add(1)
		return NewMesh(path, nil, nil, nil), nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Load("a", "blob")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	first, err := m.Load("a", "blob")
	require.NoError(t, err)
	second, err := m.Load("a", "blob")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.LessOrEqual(t, reads.Load(), int32(8))
	assert.Equal(t, 1, m.Cached())

	m.Forget()
	assert.Zero(t, m.Cached())
}

func TestLoadErrors(t *testing.T) {
	m := newManager(t, fstest.MapFS{
		"bad.yaml":    {Data: []byte("indices: [0, 1, 5]\nvertices: [[0,0,0]]")},
		"broken.yaml": {Data: []byte("vertices: {")},
	})

	_, err := m.Load("", MeshType)
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = m.Load("x", "texture")
	assert.ErrorIs(t, err, ErrNoLoader)

	_, err = m.Load("missing.yaml", MeshType)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = m.Load("bad.yaml", MeshType)
	assert.ErrorIs(t, err, ErrBadMesh)

	_, err = m.Load("broken.yaml", MeshType)
	assert.Error(t, err)

	assert.ErrorIs(t, m.Register(MeshType, LoadMesh), ErrLoaderExists)
	assert.Zero(t, m.Cached())
}

func TestPreload(t *testing.T) {
	m := newManager(t, fstest.MapFS{
		"a.yaml": {Data: []byte(cubeYAML)},
		"b.yaml": {Data: []byte(cubeYAML)},
	})

	require.NoError(t, m.Preload(context.Background(),
		Request{Path: "a.yaml", Type: MeshType},
		Request{Path: "b.yaml", Type: MeshType},
		Request{Path: BuiltinPrefix + "quad", Type: MeshType},
	))
	assert.Equal(t, 3, m.Cached())

	err := m.Preload(context.Background(), Request{Path: "missing.yaml", Type: MeshType})
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 3, m.Cached())
}

func TestBuiltinMeshes(t *testing.T) {
	m := newManager(t, nil)

	r, err := m.Load(BuiltinPrefix+"quad", MeshType)
	require.NoError(t, err)
	mesh := r.(*Mesh)
	assert.Equal(t, "builtin:quad", mesh.ResourcePath())
	assert.Len(t, mesh.Indices, 6)
	require.NoError(t, mesh.Validate())

	_, err = m.Load(BuiltinPrefix+"cone", MeshType)
	assert.ErrorIs(t, err, ErrUnknownBuiltin)
}
