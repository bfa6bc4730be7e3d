package scene

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/zeusync/nodetree/internal/core/codec"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/resource"
	"github.com/zeusync/nodetree/internal/core/tree"
	"github.com/zeusync/nodetree/pkg/generic"
)

var buffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

type pendingRef struct {
	record int
	prop   int
	target tree.Handle
}

// Encode renders every archivable, persisted entity of the tree.
func (h *Handler) Encode() ([]byte, error) {
	data, _, err := h.encode()
	return data, err
}

func (h *Handler) encode() ([]byte, int, error) {
	nodes := h.tree.Nodes()
	depth := make(map[*tree.Entity]int, len(nodes))
	for _, e := range nodes {
		depth[e] = len(h.tree.Ancestors(e))
	}
	slices.SortStableFunc(nodes, func(a, b *tree.Entity) int {
		return depth[a] - depth[b]
	})

	var (
		records []record
		refs    []pendingRef
		ids     = make(map[tree.Handle]uint32, len(nodes))
	)

	for _, e := range nodes {
		table, ok := h.catalog.Table(e.Kind())
		if !ok || !h.tree.CanBeArchived(e) {
			continue
		}

		localID := uint32(len(records) + 1)
		ids[e.Handle()] = localID
		rec := record{Tag: table.Tag, LocalID: localID}

		if parent := h.tree.Parent(e); parent != nil {
			if id, found := ids[parent.Handle()]; found {
				rec.ParentID = id
			} else {
				h.logger.Warn("parent not persisted, saving as root",
					log.String("entity", e.String()),
					log.String("parent", parent.String()),
				)
			}
		}

		for _, d := range table.Props {
			if d.ReadOnly() {
				continue
			}
			v, err := d.Get(e)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "read %s.%s", e, d.Name)
			}
			p, target, isRef, err := h.classify(d.Type, d.Name, v)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "export %s", e)
			}
			if isRef {
				refs = append(refs, pendingRef{record: len(records), prop: len(rec.Props), target: target})
			}
			rec.Props = append(rec.Props, p)
		}
		records = append(records, rec)
	}

	for _, ref := range refs {
		p := &records[ref.record].Props[ref.prop]
		switch id, found := ids[ref.target]; {
		case ref.target.IsZero():
			p.Value = "0"
		case found:
			p.Value = strconv.FormatUint(uint64(id), 10)
		default:
			p.Value = Unresolved
			h.logger.Warn("node reference target not persisted",
				log.Uint32("record", records[ref.record].LocalID),
				log.String("property", p.Name),
				log.Stringer("target", ref.target),
			)
		}
	}

	buf := buffers.Get()
	defer buffers.Put(buf)
	buf.WriteString(formatMarker())
	for _, rec := range records {
		buf.WriteString(formatHeader(rec.Tag, rec.LocalID, rec.ParentID))
		for _, p := range rec.Props {
			buf.WriteString(formatProperty(p))
		}
	}
	buf.WriteString(formatChecksum(buf.Bytes()))
	return bytes.Clone(buf.Bytes()), len(records), nil
}

// classify decides how a value is written from its runtime type.
func (h *Handler) classify(declared reflect.Type, name string, v any) (property, tree.Handle, bool, error) {
	typ := declared
	if v != nil {
		typ = reflect.TypeOf(v)
	}
	typeName, ok := h.catalog.ValueName(typ)
	if !ok {
		return property{}, tree.Handle{}, false, fmt.Errorf("%w: %s has type %s", ErrUnknownValueType, name, typ)
	}
	p := property{TypeName: typeName, Name: name}

	if target, isRef := v.(tree.Handle); isRef {
		p.Node = true
		return p, target, true, nil
	}
	if path, isResource := resource.IsResource(v); isResource {
		p.Resource = true
		p.Value = path
		return p, tree.Handle{}, false, nil
	}

	text, err := codec.Encode(v)
	if err != nil {
		return property{}, tree.Handle{}, false, err
	}
	p.Value = text
	return p, tree.Handle{}, false, nil
}

// Save writes the scene to path. The file is replaced atomically, so a failed
// save leaves any previous file untouched.
func (h *Handler) Save(path string) error {
	start := time.Now()
	data, count, err := h.encode()
	if err != nil {
		return err
	}
	if err = writeAtomic(path, data); err != nil {
		return err
	}

	took := time.Since(start)
	h.logger.Info("scene saved",
		log.String("path", path),
		log.Int("entities", count),
		log.Int("bytes", len(data)),
		log.Duration("took", took),
	)
	h.publish(EventSaved, Info{Path: path, Entities: count, Bytes: len(data), Took: took})
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp scene file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(err, "write scene")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync scene")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close scene")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replace scene")
	}
	return nil
}
