package nodes

import (
	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/tree"
)

const EventTriggerEntered = "trigger.entered"

// TriggerInfo is the payload of trigger events.
type TriggerInfo struct {
	Trigger tree.EntityInfo `json:"trigger"`
	Target  tree.EntityInfo `json:"target"`
}

// Trigger fires once each time its target comes within Radius.
type Trigger struct {
	Node3D
	Target tree.Handle
	Radius float32

	inside bool
}

func NewTrigger() *Trigger {
	t := &Trigger{Radius: 1}
	t.init()
	return t
}

func (*Trigger) Kind() string {
	return TagTrigger
}

func (tr *Trigger) Inside() bool {
	return tr.inside
}

func (tr *Trigger) UpdateFixed(e *tree.Entity) error {
	t := e.Tree()
	target, ok := t.Resolve(tr.Target)
	if !ok {
		tr.inside = false
		return nil
	}
	s, ok := target.Behavior().(Spatial)
	if !ok {
		tr.inside = false
		return nil
	}

	near := s.Spatial().GlobalPosition().Sub(tr.globalPosition).Magnitude() <= tr.Radius
	entered := near && !tr.inside
	tr.inside = near
	if !entered || t.Bus() == nil {
		return nil
	}

	return t.Bus().Publish(bus.NewEvent(EventTriggerEntered, e.Name, TriggerInfo{
		Trigger: tree.Info(e),
		Target:  tree.Info(target),
	}))
}
