package props

import (
	"fmt"

	"github.com/zeusync/nodetree/internal/core/tree"
)

// Table is the persistence description of one entity kind.
type Table struct {
	Tag   string
	New   func() tree.Behavior
	Props []Descriptor

	index map[string]int
}

// NewTable builds a table whose properties are the base entity properties
// followed by props in declaration order.
func NewTable(tag string, newFn func() tree.Behavior, props ...Descriptor) (*Table, error) {
	if tag == "" {
		return nil, ErrEmptyTag
	}

	all := append(Base(), props...)
	t := &Table{
		Tag:   tag,
		New:   newFn,
		Props: all,
		index: make(map[string]int, len(all)),
	}
	for i, d := range all {
		if _, dup := t.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateProp, tag, d.Name)
		}
		t.index[d.Name] = i
	}
	return t, nil
}

func (t *Table) Lookup(name string) (Descriptor, bool) {
	i, ok := t.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return t.Props[i], true
}

// Extend returns a copy of props followed by more, for kinds that build on
// another kind's property list.
func Extend(props []Descriptor, more ...Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(props)+len(more))
	out = append(out, props...)
	return append(out, more...)
}
