package nodes

import "github.com/zeusync/nodetree/internal/core/tree"

// ShapeTransform places a collision shape in world space.
type ShapeTransform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// Shape is a collision volume.
type Shape interface {
	Bounds() Vec3
	Placement() *ShapeTransform
}

// Box is an axis-aligned box anchored at its position corner.
type Box struct {
	ShapeTransform
	Dimensions Vec3
}

func NewBox(dimensions Vec3) *Box {
	return &Box{
		ShapeTransform: ShapeTransform{Scale: One},
		Dimensions:     dimensions,
	}
}

func (b *Box) Bounds() Vec3 {
	return b.Dimensions
}

func (b *Box) Placement() *ShapeTransform {
	return &b.ShapeTransform
}

// Overlaps reports whether the scaled bounding boxes of a and b intersect.
// Touching faces count as overlapping.
func Overlaps(a, b Shape) bool {
	minA, maxA := extent(a)
	minB, maxB := extent(b)
	return minA.X <= maxB.X && maxA.X >= minB.X &&
		minA.Y <= maxB.Y && maxA.Y >= minB.Y &&
		minA.Z <= maxB.Z && maxA.Z >= minB.Z
}

func extent(s Shape) (lo, hi Vec3) {
	p := s.Placement()
	far := p.Position.Add(p.Scale.Mul(s.Bounds()))
	lo = Vec3{min(p.Position.X, far.X), min(p.Position.Y, far.Y), min(p.Position.Z, far.Z)}
	hi = Vec3{max(p.Position.X, far.X), max(p.Position.Y, far.Y), max(p.Position.Z, far.Z)}
	return lo, hi
}

// Collider tests its shape against every other registered collider on the
// fixed-rate pass.
type Collider struct {
	Node3D
	ChangeShapeTransform bool

	// OnCollision runs once per touching collider per fixed step.
	OnCollision func(self, other *tree.Entity)

	shape Shape
}

func NewCollider() *Collider {
	c := &Collider{ChangeShapeTransform: true}
	c.init()
	return c
}

func (*Collider) Kind() string {
	return TagCollider
}

func (c *Collider) Bind(e *tree.Entity) {
	c.Node3D.Bind(e)
	c.changed = c.placeShape
}

func (c *Collider) Shape() Shape {
	return c.shape
}

func (c *Collider) SetShape(s Shape) {
	c.shape = s
	c.placeShape()
}

func (c *Collider) placeShape() {
	if !c.ChangeShapeTransform || c.shape == nil {
		return
	}
	p := c.shape.Placement()
	p.Position = c.globalPosition
	p.Rotation = c.globalRotation
	p.Scale = c.globalScale
}

// Touching returns registered colliders whose shapes overlap this one.
func (c *Collider) Touching() []*tree.Entity {
	if c.shape == nil || c.self == nil {
		return nil
	}
	var out []*tree.Entity
	for _, e := range c.self.Tree().Nodes() {
		other, ok := tree.As[*Collider](e)
		if !ok || other == c || other.shape == nil {
			continue
		}
		if Overlaps(c.shape, other.shape) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Collider) UpdateFixed(e *tree.Entity) error {
	if c.OnCollision == nil {
		return nil
	}
	for _, other := range c.Touching() {
		c.OnCollision(e, other)
	}
	return nil
}
