package scene

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/zeusync/nodetree/internal/core/codec"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/props"
	"github.com/zeusync/nodetree/internal/core/resource"
	"github.com/zeusync/nodetree/internal/core/tree"
)

type built struct {
	entity *tree.Entity
	table  *props.Table
	record *record
}

type deferredRef struct {
	owner *built
	desc  props.Descriptor
	prop  *property
}

// Load reads path and adds its entities to the tree.
func (h *Handler) Load(path string) ([]*tree.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scene")
	}
	return h.decode(path, data)
}

// Decode adds the entities described by data to the tree and returns them in
// file order. On failure nothing is registered and every entity built so far
// is released.
func (h *Handler) Decode(data []byte) ([]*tree.Entity, error) {
	return h.decode("", data)
}

func (h *Handler) decode(path string, data []byte) ([]*tree.Entity, error) {
	start := time.Now()

	records, err := parse(data)
	if err != nil {
		return nil, err
	}

	h.preload(records)

	entities, refs, err := h.construct(records)
	if err == nil {
		err = h.patch(entities, refs)
	}
	if err != nil {
		h.release(entities)
		return nil, err
	}

	out := make([]*tree.Entity, 0, len(entities))
	for i, b := range entities {
		e := b.entity
		if awaker, ok := e.Behavior().(tree.Awaker); ok {
			awaker.Awake(e)
		}
		if _, err = h.tree.Register(e); err != nil {
			h.rollback(out, entities[i:])
			return nil, &LoadError{Line: b.record.Line, LocalID: b.record.LocalID, Tag: b.record.Tag, Err: err}
		}
		if starter, ok := e.Behavior().(tree.Starter); ok {
			starter.Start(e)
		}
		out = append(out, e)
	}

	took := time.Since(start)
	h.logger.Info("scene loaded",
		log.String("path", path),
		log.Int("entities", len(out)),
		log.Duration("took", took),
	)
	h.publish(EventLoaded, Info{Path: path, Entities: len(out), Bytes: len(data), Took: took})
	return out, nil
}

// preload warms the resource cache for every resource property. Failures
// are reported again, with their line, by construct.
func (h *Handler) preload(records []record) {
	if h.resources == nil {
		return
	}
	var requests []resource.Request
	seen := make(map[resource.Request]bool)
	for _, rec := range records {
		for _, p := range rec.Props {
			r := resource.Request{Path: p.Value, Type: p.TypeName}
			if !p.Resource || p.Node || seen[r] {
				continue
			}
			seen[r] = true
			requests = append(requests, r)
		}
	}
	if len(requests) == 0 {
		return
	}
	if err := h.resources.Preload(context.Background(), requests...); err != nil {
		h.logger.Debug("resource preload failed", log.Error(err))
	}
}

// construct builds every record in file order and applies plain and resource
// properties. Node references are returned for the patch pass.
func (h *Handler) construct(records []record) ([]*built, []deferredRef, error) {
	var (
		entities []*built
		refs     []deferredRef
		byID     = make(map[uint32]*built, len(records))
	)

	for i := range records {
		rec := &records[i]
		fail := func(p *property, err error) error {
			le := &LoadError{Line: rec.Line, LocalID: rec.LocalID, Tag: rec.Tag, Err: err}
			if p != nil {
				le.Line, le.Property = p.Line, p.Name
			}
			return le
		}

		table, ok := h.catalog.Table(rec.Tag)
		if !ok {
			return entities, nil, fail(nil, ErrUnknownType)
		}
		if table.New == nil {
			return entities, nil, fail(nil, ErrNoConstructor)
		}
		if _, dup := byID[rec.LocalID]; dup || rec.LocalID == 0 {
			return entities, nil, fail(nil, ErrDuplicateID)
		}

		var parent *built
		if rec.ParentID != 0 {
			if parent, ok = byID[rec.ParentID]; !ok {
				return entities, nil, fail(nil, fmt.Errorf("%w: %d", ErrUnknownParent, rec.ParentID))
			}
		}

		behavior := table.New()
		if behavior == nil {
			return entities, nil, fail(nil, ErrNoConstructor)
		}
		e, err := h.tree.Construct(behavior, "")
		if err != nil {
			return entities, nil, fail(nil, err)
		}
		b := &built{entity: e, table: table, record: rec}
		entities = append(entities, b)

		if parent != nil {
			if err = h.tree.SetParent(e, parent.entity); err != nil {
				return entities, nil, fail(nil, err)
			}
		}

		for j := range rec.Props {
			p := &rec.Props[j]
			d, ok := table.Lookup(p.Name)
			if !ok {
				return entities, nil, fail(p, ErrUnknownProperty)
			}
			if d.ReadOnly() {
				return entities, nil, fail(p, ErrReadOnlyProperty)
			}
			typ, ok := h.catalog.ValueType(p.TypeName)
			if !ok {
				return entities, nil, &SyntaxError{Line: p.Line, Text: p.TypeName, Reason: "unknown value type"}
			}

			if p.Node {
				if p.Resource {
					h.logger.Warn("property flagged as resource and node reference, reading as reference",
						log.Int("line", p.Line),
						log.String("property", p.Name),
					)
				}
				refs = append(refs, deferredRef{owner: b, desc: d, prop: p})
				continue
			}

			var value any
			if p.Resource {
				if h.resources == nil {
					return entities, nil, fail(p, errors.New("no resource manager"))
				}
				value, err = h.resources.Load(p.Value, p.TypeName)
			} else {
				value, err = codec.Decode(p.Value, typ)
			}
			if err != nil {
				return entities, nil, fail(p, err)
			}
			if err = d.Set(e, value); err != nil {
				return entities, nil, fail(p, err)
			}
		}

		byID[rec.LocalID] = b
	}
	return entities, refs, nil
}

// patch resolves node references now that every record exists. Unknown
// targets keep the property's default.
func (h *Handler) patch(entities []*built, refs []deferredRef) error {
	byID := make(map[uint32]*tree.Entity, len(entities))
	for _, b := range entities {
		byID[b.record.LocalID] = b.entity
	}

	for _, ref := range refs {
		p := ref.prop
		if p.Value == Unresolved {
			h.logger.Warn("node reference saved unresolved",
				log.Uint32("record", ref.owner.record.LocalID),
				log.String("property", p.Name),
			)
			continue
		}
		id, err := strconv.ParseUint(p.Value, 10, 32)
		if err != nil {
			return &SyntaxError{Line: p.Line, Text: p.Value, Reason: "malformed node reference"}
		}
		if id == 0 {
			continue
		}
		target, ok := byID[uint32(id)]
		if !ok {
			h.logger.Warn("node reference target missing",
				log.Uint32("record", ref.owner.record.LocalID),
				log.String("property", p.Name),
				log.Uint64("target", id),
			)
			continue
		}
		if err = ref.desc.Set(ref.owner.entity, target.Handle()); err != nil {
			rec := ref.owner.record
			return &LoadError{Line: p.Line, LocalID: rec.LocalID, Tag: rec.Tag, Property: p.Name, Err: err}
		}
	}
	return nil
}

func (h *Handler) release(entities []*built) {
	for i := len(entities) - 1; i >= 0; i-- {
		if err := h.tree.Discard(entities[i].entity); err != nil {
			h.logger.Warn("release failed", log.String("entity", entities[i].entity.String()), log.Error(err))
		}
	}
}

// rollback undoes a partially activated load.
func (h *Handler) rollback(registered []*tree.Entity, rest []*built) {
	for i := len(registered) - 1; i >= 0; i-- {
		e := registered[i]
		if e.IsRegistered() {
			_ = h.tree.Unregister(e)
		}
		_ = h.tree.Discard(e)
	}
	h.release(rest)
}
