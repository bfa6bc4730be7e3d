// Package scene saves a tree to the line-oriented scene format and loads it
// back.
package scene

import (
	"time"

	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/props"
	"github.com/zeusync/nodetree/internal/core/resource"
	"github.com/zeusync/nodetree/internal/core/tree"
)

const (
	EventSaved  = "scene.saved"
	EventLoaded = "scene.loaded"
)

// Info is the payload of scene events.
type Info struct {
	Path     string        `json:"path,omitempty"`
	Entities int           `json:"entities"`
	Bytes    int           `json:"bytes"`
	Took     time.Duration `json:"took"`
}

// Handler converts between a tree and scene files using the catalog's
// property tables.
type Handler struct {
	tree      *tree.Tree
	catalog   *props.Catalog
	resources *resource.Manager
	logger    log.Log
}

func NewHandler(t *tree.Tree, catalog *props.Catalog, resources *resource.Manager, logger log.Log) *Handler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Handler{
		tree:      t,
		catalog:   catalog,
		resources: resources,
		logger:    logger.With(log.String("component", "scene")),
	}
}

func (h *Handler) publish(eventType string, info Info) {
	b := h.tree.Bus()
	if b == nil {
		return
	}
	if err := b.Publish(bus.NewEvent(eventType, "scene", info)); err != nil {
		h.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
