package nodes

import "github.com/zeusync/nodetree/internal/core/tree"

// Mover travels back and forth between From and To at Speed units per
// second. From is reset to the starting global position.
type Mover struct {
	Node3D
	From  Vec3
	To    Vec3
	Speed float32
}

func NewMover() *Mover {
	m := &Mover{}
	m.init()
	return m
}

func (*Mover) Kind() string {
	return TagMover
}

func (m *Mover) Start(e *tree.Entity) {
	m.Node3D.Start(e)
	m.From = m.globalPosition
}

func (m *Mover) Update(_ *tree.Entity, delta float64) error {
	if m.From == m.To {
		return nil
	}
	dir := m.To.Sub(m.From).Unit()
	remaining := m.To.Sub(m.globalPosition).Magnitude()
	distance := min(float32(delta)*m.Speed, remaining)

	m.SetGlobalPosition(m.globalPosition.Add(dir.Scale(distance)))
	if distance == remaining {
		m.From, m.To = m.To, m.From
	}
	return nil
}
