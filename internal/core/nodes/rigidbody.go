package nodes

import "github.com/zeusync/nodetree/internal/core/tree"

// RigidBody falls under gravity on the fixed-rate pass and is pushed out of
// any collider its own collider overlaps.
type RigidBody struct {
	Node3D
	Mass          float32
	Gravity       float32
	AirResistance float32
	Collider      tree.Handle

	Acceleration Vec3
}

func NewRigidBody() *RigidBody {
	r := &RigidBody{Mass: 1, Gravity: 9.8, AirResistance: 0.95}
	r.init()
	return r
}

func (*RigidBody) Kind() string {
	return TagRigidBody
}

func (r *RigidBody) UpdateFixed(e *tree.Entity) error {
	t := e.Tree()
	fall := Up.Neg().Scale(r.Mass * r.Gravity * r.AirResistance)
	r.Acceleration = fall.Scale(float32(t.FixedStep()))

	if out, ok := r.escape(t); ok {
		r.SetGlobalPosition(r.globalPosition.Add(out))
		return nil
	}
	r.SetGlobalPosition(r.globalPosition.Add(r.Acceleration))
	return nil
}

// escape averages the offsets from every touching collider to ours.
func (r *RigidBody) escape(t *tree.Tree) (Vec3, bool) {
	e, ok := t.Resolve(r.Collider)
	if !ok {
		return Zero, false
	}
	own, ok := tree.As[*Collider](e)
	if !ok {
		return Zero, false
	}
	touching := own.Touching()
	if len(touching) == 0 {
		return Zero, false
	}

	total := Zero
	for _, other := range touching {
		c, _ := tree.As[*Collider](other)
		total = total.Add(own.globalPosition.Sub(c.globalPosition))
	}
	return total.Scale(1 / float32(len(touching))), true
}
