package nodes

import (
	"sync"

	"github.com/zeusync/nodetree/internal/core/props"
	"github.com/zeusync/nodetree/internal/core/resource"
	"github.com/zeusync/nodetree/internal/core/tree"
)

var (
	catalogOnce sync.Once
	catalog     *props.Catalog
	catalogErr  error
)

// Catalog returns the process-wide catalog of persisted kinds and value
// types. It is built on first use.
func Catalog() (*props.Catalog, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = NewCatalog()
	})
	return catalog, catalogErr
}

// NewCatalog builds a fresh catalog with every built-in kind.
func NewCatalog() (*props.Catalog, error) {
	c := props.NewCatalog()
	if err := registerValues(c); err != nil {
		return nil, err
	}

	tables := []struct {
		tag   string
		new   func() tree.Behavior
		props []props.Descriptor
	}{
		{TagNode, func() tree.Behavior { return NewNode() }, nil},
		{TagNode3D, func() tree.Behavior { return NewNode3D() }, spatialProps()},
		{TagCamera, func() tree.Behavior { return NewCamera() }, props.Extend(spatialProps(),
			props.Field("Fov", (*Camera).Fov, (*Camera).SetFov),
		)},
		{TagMesh, func() tree.Behavior { return NewMeshContainer() }, props.Extend(spatialProps(),
			props.Field("Mesh",
				func(m *MeshContainer) *resource.Mesh { return m.Mesh },
				func(m *MeshContainer, v *resource.Mesh) { m.Mesh = v },
			),
			props.Field("Texture0", (*MeshContainer).Texture0, (*MeshContainer).SetTexture0),
			props.Field("Texture1", (*MeshContainer).Texture1, (*MeshContainer).SetTexture1),
		)},
		{TagCollider, func() tree.Behavior { return NewCollider() }, props.Extend(spatialProps(),
			props.Field("Shape", (*Collider).Shape, (*Collider).SetShape),
			props.Field("ChangeShapeTransform",
				func(c *Collider) bool { return c.ChangeShapeTransform },
				func(c *Collider, v bool) { c.ChangeShapeTransform = v },
			),
		)},
		{TagRigidBody, func() tree.Behavior { return NewRigidBody() }, props.Extend(spatialProps(),
			props.Field("Mass",
				func(r *RigidBody) float32 { return r.Mass },
				func(r *RigidBody, v float32) { r.Mass = v },
			),
			props.Field("Gravity",
				func(r *RigidBody) float32 { return r.Gravity },
				func(r *RigidBody, v float32) { r.Gravity = v },
			),
			props.Field("AirResistance",
				func(r *RigidBody) float32 { return r.AirResistance },
				func(r *RigidBody, v float32) { r.AirResistance = v },
			),
			props.Field("Collider",
				func(r *RigidBody) tree.Handle { return r.Collider },
				func(r *RigidBody, v tree.Handle) { r.Collider = v },
			),
			props.ReadOnly("Acceleration", func(r *RigidBody) Vec3 { return r.Acceleration }),
		)},
		{TagMover, func() tree.Behavior { return NewMover() }, props.Extend(spatialProps(),
			props.Field("From",
				func(m *Mover) Vec3 { return m.From },
				func(m *Mover, v Vec3) { m.From = v },
			),
			props.Field("To",
				func(m *Mover) Vec3 { return m.To },
				func(m *Mover, v Vec3) { m.To = v },
			),
			props.Field("Speed",
				func(m *Mover) float32 { return m.Speed },
				func(m *Mover, v float32) { m.Speed = v },
			),
		)},
		{TagTrigger, func() tree.Behavior { return NewTrigger() }, props.Extend(spatialProps(),
			props.Field("Target",
				func(t *Trigger) tree.Handle { return t.Target },
				func(t *Trigger, v tree.Handle) { t.Target = v },
			),
			props.Field("Radius",
				func(t *Trigger) float32 { return t.Radius },
				func(t *Trigger, v float32) { t.Radius = v },
			),
		)},
	}

	for _, kind := range tables {
		table, err := props.NewTable(kind.tag, kind.new, kind.props...)
		if err != nil {
			return nil, err
		}
		if err = c.Register(table); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func spatialProps() []props.Descriptor {
	return []props.Descriptor{
		props.Field("Position",
			func(s Spatial) Vec3 { return s.Spatial().Position() },
			func(s Spatial, v Vec3) { s.Spatial().SetPosition(v) },
		),
		props.Field("Rotation",
			func(s Spatial) Vec3 { return s.Spatial().Rotation() },
			func(s Spatial, v Vec3) { s.Spatial().SetRotation(v) },
		),
		props.Field("Scale",
			func(s Spatial) Vec3 { return s.Spatial().Scale() },
			func(s Spatial, v Vec3) { s.Spatial().SetScale(v) },
		),
	}
}

func registerValues(c *props.Catalog) error {
	for _, register := range []func(*props.Catalog) error{
		func(c *props.Catalog) error { return props.Value[bool](c, "bool") },
		func(c *props.Catalog) error { return props.Value[string](c, "string") },
		func(c *props.Catalog) error { return props.Value[int](c, "int") },
		func(c *props.Catalog) error { return props.Value[int64](c, "int64") },
		func(c *props.Catalog) error { return props.Value[uint32](c, "uint32") },
		func(c *props.Catalog) error { return props.Value[float32](c, "float32") },
		func(c *props.Catalog) error { return props.Value[float64](c, "float64") },
		func(c *props.Catalog) error { return props.Value[[]string](c, "[]string") },
		func(c *props.Catalog) error { return props.Value[Vec3](c, "vec3") },
		func(c *props.Catalog) error { return props.Value[Shape](c, "shape") },
		func(c *props.Catalog) error { return props.Value[*Box](c, "shape.box") },
		func(c *props.Catalog) error { return props.Value[tree.Handle](c, "node") },
		func(c *props.Catalog) error { return props.Value[*resource.Mesh](c, resource.MeshType) },
	} {
		if err := register(c); err != nil {
			return err
		}
	}
	return nil
}

// RegisterLoaders installs the resource loaders for the built-in kinds.
func RegisterLoaders(m *resource.Manager) error {
	return m.Register(resource.MeshType, resource.LoadMesh)
}
