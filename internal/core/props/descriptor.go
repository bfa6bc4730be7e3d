package props

import (
	"fmt"
	"reflect"

	"github.com/zeusync/nodetree/internal/core/tree"
)

// Descriptor exposes one persisted property of an entity. A nil Set marks the
// property read-only: it is skipped on save and rejected on load.
type Descriptor struct {
	Name string
	Type reflect.Type
	Get  func(e *tree.Entity) (any, error)
	Set  func(e *tree.Entity, v any) error
}

func (d Descriptor) ReadOnly() bool {
	return d.Set == nil
}

// Assign sets the property, failing for read-only descriptors.
func (d Descriptor) Assign(e *tree.Entity, v any) error {
	if d.Set == nil {
		return fmt.Errorf("%w: %s", ErrReadOnly, d.Name)
	}
	return d.Set(e, v)
}

// Field describes a property owned by behavior B.
func Field[B tree.Behavior, V any](name string, get func(B) V, set func(B, V)) Descriptor {
	d := ReadOnly[B](name, get)
	d.Set = func(e *tree.Entity, v any) error {
		b, ok := tree.As[B](e)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrBehaviorMismatch, e, name)
		}
		value, err := cast[V](name, v)
		if err != nil {
			return err
		}
		set(b, value)
		return nil
	}
	return d
}

// ReadOnly describes a property owned by B that can be inspected but never
// loaded.
func ReadOnly[B tree.Behavior, V any](name string, get func(B) V) Descriptor {
	return Descriptor{
		Name: name,
		Type: reflect.TypeOf((*V)(nil)).Elem(),
		Get: func(e *tree.Entity) (any, error) {
			b, ok := tree.As[B](e)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s", ErrBehaviorMismatch, e, name)
			}
			return get(b), nil
		},
	}
}

// EntityField describes a property stored on the entity itself.
func EntityField[V any](name string, get func(*tree.Entity) V, set func(*tree.Entity, V)) Descriptor {
	return Descriptor{
		Name: name,
		Type: reflect.TypeOf((*V)(nil)).Elem(),
		Get: func(e *tree.Entity) (any, error) {
			return get(e), nil
		},
		Set: func(e *tree.Entity, v any) error {
			value, err := cast[V](name, v)
			if err != nil {
				return err
			}
			set(e, value)
			return nil
		},
	}
}

func cast[V any](name string, v any) (V, error) {
	if v == nil {
		var zero V
		return zero, nil
	}
	value, ok := v.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s wants %s, got %T", ErrTypeMismatch, name, reflect.TypeOf((*V)(nil)).Elem(), v)
	}
	return value, nil
}

// Base lists the entity-level properties every table starts with.
func Base() []Descriptor {
	return []Descriptor{
		EntityField("Name",
			func(e *tree.Entity) string { return e.Name },
			func(e *tree.Entity, v string) { e.Name = v },
		),
		EntityField("Tags",
			func(e *tree.Entity) []string {
				if tags := e.Tags(); tags != nil {
					return tags
				}
				return []string{}
			},
			func(e *tree.Entity, v []string) { e.SetTags(v) },
		),
	}
}
