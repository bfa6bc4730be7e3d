package tree

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Entity is a node of the ownership graph. Parent links are handles into the
// owning tree's arena, so a destroyed parent simply stops resolving.
type Entity struct {
	Name    string
	Archive bool

	tree       *Tree
	handle     Handle
	id         uuid.UUID
	registered bool
	parent     Handle
	tags       []string
	behavior   Behavior
}

func (e *Entity) Handle() Handle {
	return e.handle
}

// ID is uuid.Nil until the entity is registered for the first time.
func (e *Entity) ID() uuid.UUID {
	return e.id
}

func (e *Entity) Tree() *Tree {
	return e.tree
}

func (e *Entity) Behavior() Behavior {
	return e.behavior
}

func (e *Entity) Kind() string {
	return e.behavior.Kind()
}

func (e *Entity) IsRegistered() bool {
	return e.registered
}

func (e *Entity) ParentHandle() Handle {
	return e.parent
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s %s", e.behavior.Kind(), e.Name)
}

// AddTag reports whether the tag was added.
func (e *Entity) AddTag(tag string) bool {
	if tag == "" {
		return false
	}
	i, found := slices.BinarySearch(e.tags, tag)
	if found {
		return false
	}
	e.tags = slices.Insert(e.tags, i, tag)
	return true
}

// RemoveTag reports whether the tag was present.
func (e *Entity) RemoveTag(tag string) bool {
	i, found := slices.BinarySearch(e.tags, tag)
	if !found {
		return false
	}
	e.tags = slices.Delete(e.tags, i, i+1)
	return true
}

func (e *Entity) HasTag(tag string) bool {
	_, found := slices.BinarySearch(e.tags, tag)
	return found
}

// Tags returns a sorted copy.
func (e *Entity) Tags() []string {
	return slices.Clone(e.tags)
}

// SetTags replaces the tag set.
func (e *Entity) SetTags(tags []string) {
	e.tags = nil
	for _, tag := range tags {
		e.AddTag(tag)
	}
}

// As returns the entity's behavior as B.
func As[B Behavior](e *Entity) (B, bool) {
	if e == nil {
		var zero B
		return zero, false
	}
	b, ok := e.behavior.(B)
	return b, ok
}
