package nodes

import "github.com/zeusync/nodetree/internal/core/resource"

// MeshContainer pairs a mesh resource with up to two texture paths.
type MeshContainer struct {
	Node3D
	Mesh *resource.Mesh

	textures [2]string
}

func NewMeshContainer() *MeshContainer {
	m := &MeshContainer{}
	m.init()
	return m
}

func (*MeshContainer) Kind() string {
	return TagMesh
}

func (m *MeshContainer) Texture0() string { return m.textures[0] }
func (m *MeshContainer) Texture1() string { return m.textures[1] }

func (m *MeshContainer) SetTexture0(path string) { m.textures[0] = path }
func (m *MeshContainer) SetTexture1(path string) { m.textures[1] = path }

func (m *MeshContainer) Textures() [2]string {
	return m.textures
}
