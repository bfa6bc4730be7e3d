package tree

import (
	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/observability/log"
)

const (
	EventRegistered   = "entity.registered"
	EventUnregistered = "entity.unregistered"
	EventReparented   = "entity.reparented"
)

// EntityInfo is the payload of entity events.
type EntityInfo struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Parent string `json:"parent"`
}

func Info(e *Entity) EntityInfo {
	return EntityInfo{
		ID:     e.id.String(),
		Handle: e.handle.String(),
		Name:   e.Name,
		Kind:   e.behavior.Kind(),
		Parent: e.parent.String(),
	}
}

func (t *Tree) publish(eventType string, e *Entity) {
	if t.bus == nil {
		return
	}
	if err := t.bus.Publish(bus.NewEvent(eventType, "tree", Info(e))); err != nil {
		t.logger.Warn("event handler failed",
			log.String("event", eventType),
			log.String("entity", e.String()),
			log.Error(err),
		)
	}
}
