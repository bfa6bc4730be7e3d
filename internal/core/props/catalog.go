package props

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Catalog maps type tags to tables and on-disk value-type names to Go types.
// It is filled once at startup and read-only afterwards.
type Catalog struct {
	tables   map[string]*Table
	order    []string
	byName   map[string]reflect.Type
	byType   map[reflect.Type]string
	valueSeq []string
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[string]*Table),
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

func (c *Catalog) Register(t *Table) error {
	if t == nil || t.Tag == "" {
		return ErrEmptyTag
	}
	if _, dup := c.tables[t.Tag]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateTag, t.Tag)
	}
	c.tables[t.Tag] = t
	c.order = append(c.order, t.Tag)
	return nil
}

// RegisterValue names a value type for the scene file.
func (c *Catalog) RegisterValue(name string, typ reflect.Type) error {
	if _, dup := c.byName[name]; dup {
		return fmt.Errorf("%w: name %s", ErrDuplicateValue, name)
	}
	if prev, dup := c.byType[typ]; dup {
		return fmt.Errorf("%w: %s already named %s", ErrDuplicateValue, typ, prev)
	}
	c.byName[name] = typ
	c.byType[typ] = name
	c.valueSeq = append(c.valueSeq, name)
	return nil
}

// Value registers V under name.
func Value[V any](c *Catalog, name string) error {
	return c.RegisterValue(name, reflect.TypeOf((*V)(nil)).Elem())
}

func (c *Catalog) Table(tag string) (*Table, bool) {
	t, ok := c.tables[tag]
	return t, ok
}

// Tables returns tables in registration order.
func (c *Catalog) Tables() []*Table {
	out := make([]*Table, 0, len(c.order))
	for _, tag := range c.order {
		out = append(out, c.tables[tag])
	}
	return out
}

func (c *Catalog) ValueType(name string) (reflect.Type, bool) {
	typ, ok := c.byName[name]
	return typ, ok
}

func (c *Catalog) ValueName(typ reflect.Type) (string, bool) {
	name, ok := c.byType[typ]
	return name, ok
}

// ValueNames returns value-type names in registration order.
func (c *Catalog) ValueNames() []string {
	out := make([]string, len(c.valueSeq))
	copy(out, c.valueSeq)
	return out
}

// Schemas returns a JSON schema for every registered value type.
func (c *Catalog) Schemas() map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, len(c.byName))
	for name, typ := range c.byName {
		if typ.Kind() == reflect.Interface {
			continue
		}
		out[name] = jsonschema.ReflectFromType(typ)
	}
	return out
}
