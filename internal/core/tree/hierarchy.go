package tree

// Queries below scan the registered snapshot; scenes hold hundreds of
// entities, not millions.

// Nodes returns a snapshot of registered entities in registration order.
func (t *Tree) Nodes() []*Entity {
	out := make([]*Entity, len(t.nodes))
	copy(out, t.nodes)
	return out
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Lookup resolves a handle to any live entity, registered or not.
func (t *Tree) Lookup(h Handle) (*Entity, bool) {
	return t.arena.get(h)
}

// Resolve resolves a handle to a registered entity.
func (t *Tree) Resolve(h Handle) (*Entity, bool) {
	e, ok := t.arena.get(h)
	if !ok || !e.registered {
		return nil, false
	}
	return e, true
}

func (t *Tree) IsRegistered(e *Entity) bool {
	return e != nil && e.tree == t && e.registered
}

// Parent returns the live parent of e, or nil for roots.
func (t *Tree) Parent(e *Entity) *Entity {
	if e == nil {
		return nil
	}
	p, _ := t.arena.get(e.parent)
	return p
}

// Ancestors walks from the parent up to the root.
func (t *Tree) Ancestors(e *Entity) []*Entity {
	var out []*Entity
	for p := t.Parent(e); p != nil; p = t.Parent(p) {
		out = append(out, p)
	}
	return out
}

// IsDescendantOf reports whether ancestor appears on e's parent chain.
func (t *Tree) IsDescendantOf(e, ancestor *Entity) bool {
	if e == nil || ancestor == nil {
		return false
	}
	for p := t.Parent(e); p != nil; p = t.Parent(p) {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Children returns registered entities whose parent is e. A nil e returns the
// registered roots.
func (t *Tree) Children(e *Entity) []*Entity {
	var h Handle
	if e != nil {
		h = e.handle
	}
	var out []*Entity
	for _, n := range t.nodes {
		if n.parent == h {
			out = append(out, n)
		}
	}
	return out
}

// Descendants returns every registered entity below e.
func (t *Tree) Descendants(e *Entity) []*Entity {
	var out []*Entity
	for _, n := range t.nodes {
		if t.IsDescendantOf(n, e) {
			out = append(out, n)
		}
	}
	return out
}

// CanBeArchived reports whether e and all of its ancestors are archivable.
func (t *Tree) CanBeArchived(e *Entity) bool {
	if e == nil || !e.Archive {
		return false
	}
	for _, a := range t.Ancestors(e) {
		if !a.Archive {
			return false
		}
	}
	return true
}

// FindFirstChild returns the first registered child of parent named name whose
// behavior is a B. A nil parent searches the roots.
func FindFirstChild[B Behavior](t *Tree, parent *Entity, name string) (*Entity, B, bool) {
	for _, child := range t.Children(parent) {
		if child.Name != name {
			continue
		}
		if b, ok := child.behavior.(B); ok {
			return child, b, true
		}
	}
	var zero B
	return nil, zero, false
}
