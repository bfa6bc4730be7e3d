package tree

// Behavior is the per-kind payload carried by an Entity. Kind returns the
// type tag used for persistence lookups and diagnostics.
//
// Lifecycle hooks are optional capabilities: a behavior implements only the
// interfaces it needs.
type Behavior interface {
	Kind() string
}

// Binder receives its owning entity right after construction.
type Binder interface {
	Bind(e *Entity)
}

// Awaker runs before the entity is registered. It may construct other entities.
type Awaker interface {
	Awake(e *Entity)
}

// Starter runs right after the entity is registered.
type Starter interface {
	Start(e *Entity)
}

// Updatable takes part in the variable-rate pass.
type Updatable interface {
	Update(e *Entity, delta float64) error
}

// FixedUpdatable takes part in the fixed-rate pass.
type FixedUpdatable interface {
	UpdateFixed(e *Entity) error
}

// ParentObserver is notified after the entity's parent changed.
type ParentObserver interface {
	OnParent(e *Entity, parent *Entity)
}
