package tree

import (
	"fmt"

	"github.com/zeusync/nodetree/internal/core/observability/log"
)

// PassStats summarises one update pass.
type PassStats struct {
	Visited int
	Failed  int
}

// Update runs the variable-rate pass over a snapshot of registered entities.
// Entities unregistered during the pass are skipped; failures are logged and
// do not stop the pass.
func (t *Tree) Update(delta float64) PassStats {
	var stats PassStats
	for _, e := range t.Nodes() {
		u, ok := e.behavior.(Updatable)
		if !ok || !e.registered {
			continue
		}
		stats.Visited++
		if err := t.safely(e, func() error { return u.Update(e, delta) }); err != nil {
			stats.Failed++
			t.logFailure("update", e, err)
		}
	}
	return stats
}

// FixedUpdate runs the fixed-rate pass, with the same guarantees as Update.
func (t *Tree) FixedUpdate() PassStats {
	var stats PassStats
	for _, e := range t.Nodes() {
		u, ok := e.behavior.(FixedUpdatable)
		if !ok || !e.registered {
			continue
		}
		stats.Visited++
		if err := t.safely(e, func() error { return u.UpdateFixed(e) }); err != nil {
			stats.Failed++
			t.logFailure("fixed_update", e, err)
		}
	}
	return stats
}

func (t *Tree) safely(e *Entity, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", e, r)
		}
	}()
	return fn()
}

func (t *Tree) logFailure(pass string, e *Entity, err error) {
	t.logger.Error("entity pass failed",
		log.String("pass", pass),
		log.String("entity", e.String()),
		log.Stringer("id", e.id),
		log.Error(err),
	)
}
