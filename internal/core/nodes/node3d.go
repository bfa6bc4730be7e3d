package nodes

import (
	"math"

	"github.com/zeusync/nodetree/internal/core/tree"
)

// Spatial is implemented by every kind built on Node3D.
type Spatial interface {
	tree.Behavior
	Spatial() *Node3D
}

// Node3D carries a local transform and a cached global one. Globals compose
// with the nearest spatial ancestor: positions and rotations add, scales
// multiply. The cache is refreshed for the node and its registered
// descendants whenever a local transform or the parent changes.
type Node3D struct {
	self *tree.Entity

	position, rotation, scale                   Vec3
	globalPosition, globalRotation, globalScale Vec3
	front, up, right                            Vec3

	// changed runs after every refresh of this node's globals.
	changed func()
}

func NewNode3D() *Node3D {
	n := &Node3D{}
	n.init()
	return n
}

func (n *Node3D) init() {
	n.scale = One
	n.globalScale = One
	n.front = Forward
	n.up = Up
	n.right = Right.Neg()
}

func (*Node3D) Kind() string {
	return TagNode3D
}

func (n *Node3D) Spatial() *Node3D {
	return n
}

func (n *Node3D) Bind(e *tree.Entity) {
	n.self = e
}

func (n *Node3D) Start(*tree.Entity) {
	n.refresh()
	n.updateVectors()
}

func (n *Node3D) OnParent(*tree.Entity, *tree.Entity) {
	n.refresh()
}

func (n *Node3D) Entity() *tree.Entity {
	return n.self
}

func (n *Node3D) Position() Vec3 { return n.position }
func (n *Node3D) Rotation() Vec3 { return n.rotation }
func (n *Node3D) Scale() Vec3    { return n.scale }

func (n *Node3D) GlobalPosition() Vec3 { return n.globalPosition }
func (n *Node3D) GlobalRotation() Vec3 { return n.globalRotation }
func (n *Node3D) GlobalScale() Vec3    { return n.globalScale }

func (n *Node3D) Front() Vec3 { return n.front }
func (n *Node3D) Up() Vec3    { return n.up }
func (n *Node3D) Right() Vec3 { return n.right }

func (n *Node3D) SetPosition(v Vec3) {
	n.position = v
	n.refresh()
}

func (n *Node3D) SetRotation(v Vec3) {
	n.rotation = v
	n.updateVectors()
	n.refresh()
}

func (n *Node3D) SetScale(v Vec3) {
	n.scale = v
	n.refresh()
}

// SetGlobalPosition moves the node so its global position becomes v.
func (n *Node3D) SetGlobalPosition(v Vec3) {
	origin := Zero
	if p := n.parentSpatial(); p != nil {
		origin = p.globalPosition
	}
	n.SetPosition(v.Sub(origin))
}

// Yaw is the rotation around X.
func (n *Node3D) Yaw() float32 { return n.rotation.X }

// Pitch is the rotation around Y.
func (n *Node3D) Pitch() float32 { return n.rotation.Y }

func (n *Node3D) SetYaw(v float32) {
	n.rotation.X = v
	n.updateVectors()
}

// SetPitch clamps to [-89, 89].
func (n *Node3D) SetPitch(v float32) {
	n.rotation.Y = min(max(v, -89), 89)
	n.updateVectors()
}

func (n *Node3D) parentSpatial() *Node3D {
	if n.self == nil || n.self.Tree() == nil {
		return nil
	}
	t := n.self.Tree()
	for p := t.Parent(n.self); p != nil; p = t.Parent(p) {
		if s, ok := p.Behavior().(Spatial); ok {
			return s.Spatial()
		}
	}
	return nil
}

func (n *Node3D) refresh() {
	pos, rot, scale := n.position, n.rotation, n.scale
	if p := n.parentSpatial(); p != nil {
		pos = p.globalPosition.Add(pos)
		rot = p.globalRotation.Add(rot)
		scale = p.globalScale.Mul(scale)
	}
	n.globalPosition, n.globalRotation, n.globalScale = pos, rot, scale

	if n.changed != nil {
		n.changed()
	}
	if n.self == nil || n.self.Tree() == nil {
		return
	}
	refreshBelow(n.self)
}

// refreshBelow reaches spatial nodes under a non-spatial one.
func refreshBelow(e *tree.Entity) {
	for _, child := range e.Tree().Children(e) {
		if s, ok := child.Behavior().(Spatial); ok {
			s.Spatial().refresh()
			continue
		}
		refreshBelow(child)
	}
}

func (n *Node3D) updateVectors() {
	pitch := float64(n.Pitch())
	yaw := float64(n.Yaw())
	front := Vec3{
		X: float32(math.Cos(pitch) * math.Cos(yaw)),
		Y: float32(math.Sin(pitch)),
		Z: float32(math.Cos(pitch) * math.Sin(yaw)),
	}
	n.front = front.Unit()
	n.right = Cross(n.front, Up).Unit()
	n.up = Cross(n.right, n.front).Unit()
}
