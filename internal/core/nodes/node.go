// Package nodes holds the concrete entity kinds and the catalog that
// persists them.
package nodes

const (
	TagNode       = "engine.node"
	TagNode3D     = "engine.node3d"
	TagCamera     = "engine.camera"
	TagMesh       = "engine.mesh-container"
	TagCollider   = "engine.collider"
	TagRigidBody  = "engine.rigid-body"
	TagMover      = "misc.mover"
	TagTrigger    = "misc.trigger"
	KindCameraRig = "engine.camera-rig"
)

// Node is an entity with no behavior of its own, used for grouping.
type Node struct{}

func NewNode() *Node {
	return &Node{}
}

func (*Node) Kind() string {
	return TagNode
}
