package tree

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/observability/log"
)

// DefaultFixedStep is the fixed-rate pass period used when none is configured.
const DefaultFixedStep = 20 * time.Millisecond

// open guards the one-tree-per-process rule.
var open atomic.Bool

// Tree is the registry of live entities and the arena that owns every
// constructed one. It is not safe for concurrent use: all calls must come from
// the goroutine driving the update passes.
type Tree struct {
	arena     arena
	nodes     []*Entity
	logger    log.Log
	bus       bus.EventBus
	fixedStep time.Duration
	closed    bool
}

type Option func(*Tree)

func WithLogger(logger log.Log) Option {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithEventBus(b bus.EventBus) Option {
	return func(t *Tree) {
		t.bus = b
	}
}

func WithFixedStep(step time.Duration) Option {
	return func(t *Tree) {
		if step > 0 {
			t.fixedStep = step
		}
	}
}

// Init creates the process tree. It fails while another tree is open; call
// Close to tear it down.
func Init(opts ...Option) (*Tree, error) {
	if !open.CompareAndSwap(false, true) {
		return nil, ErrTreeExists
	}

	t := &Tree{
		logger:    log.NewNop(),
		fixedStep: DefaultFixedStep,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(log.String("component", "tree"))

	return t, nil
}

// Close unregisters and releases every entity without running callbacks.
func (t *Tree) Close() error {
	if t.closed {
		return ErrTreeClosed
	}
	for _, e := range t.nodes {
		e.registered = false
	}
	for i := range t.arena.slots {
		t.arena.slots[i].entity = nil
	}
	t.nodes = nil
	t.closed = true
	open.Store(false)
	return nil
}

func (t *Tree) Logger() log.Log {
	return t.logger
}

func (t *Tree) Bus() bus.EventBus {
	return t.bus
}

// FixedStep is the fixed-rate pass period in seconds.
func (t *Tree) FixedStep() float64 {
	return t.fixedStep.Seconds()
}

func (t *Tree) FixedStepDuration() time.Duration {
	return t.fixedStep
}

// Construct allocates an unregistered entity. An empty name defaults to the
// behavior's kind.
func (t *Tree) Construct(b Behavior, name string) (*Entity, error) {
	if t.closed {
		return nil, ErrTreeClosed
	}
	if b == nil {
		return nil, ErrNilBehavior
	}
	if name == "" {
		name = b.Kind()
	}

	e := &Entity{
		Name:     name,
		Archive:  true,
		tree:     t,
		behavior: b,
	}
	e.handle = t.arena.alloc(e)

	if binder, ok := b.(Binder); ok {
		binder.Bind(e)
	}
	return e, nil
}

// New constructs, parents, wakes, registers and starts an entity.
func (t *Tree) New(b Behavior, parent *Entity, name string) (*Entity, error) {
	e, err := t.Construct(b, name)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		if err = t.SetParent(e, parent); err != nil {
			t.arena.release(e.handle)
			return nil, err
		}
	}

	if awaker, ok := b.(Awaker); ok {
		awaker.Awake(e)
	}
	if _, err = t.Register(e); err != nil {
		t.arena.release(e.handle)
		return nil, err
	}
	if starter, ok := b.(Starter); ok {
		starter.Start(e)
	}
	return e, nil
}

// Discard releases a constructed entity that was never registered, or was
// unregistered since.
func (t *Tree) Discard(e *Entity) error {
	if err := t.check(e); err != nil {
		return err
	}
	if e.registered {
		return fmt.Errorf("%w: %s", ErrStillRegistered, e)
	}
	t.arena.release(e.handle)
	return nil
}

// Register makes the entity visible to queries and passes and assigns its ID
// on first registration.
func (t *Tree) Register(e *Entity) (uuid.UUID, error) {
	if err := t.check(e); err != nil {
		return uuid.Nil, err
	}
	if e.registered {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, e)
	}

	if e.id == uuid.Nil {
		e.id = uuid.New()
	}
	e.registered = true
	t.nodes = append(t.nodes, e)

	t.logger.Debug("entity registered",
		log.String("entity", e.String()),
		log.Stringer("id", e.id),
	)
	t.publish(EventRegistered, e)
	return e.id, nil
}

// Unregister removes the entity from queries and passes. Children are left
// untouched.
func (t *Tree) Unregister(e *Entity) error {
	if err := t.check(e); err != nil {
		return err
	}
	if !e.registered {
		return fmt.Errorf("%w: %s", ErrNotRegistered, e)
	}

	if i := slices.Index(t.nodes, e); i >= 0 {
		t.nodes = slices.Delete(t.nodes, i, i+1)
	}
	e.registered = false

	t.logger.Debug("entity unregistered", log.String("entity", e.String()))
	t.publish(EventUnregistered, e)
	return nil
}

// SetParent links e under parent; nil makes e a root. It rejects self
// parenting and any link that would make e its own ancestor.
func (t *Tree) SetParent(e, parent *Entity) error {
	if err := t.check(e); err != nil {
		return err
	}

	if parent == nil {
		if e.parent.IsZero() {
			return nil
		}
		e.parent = Handle{}
		t.parentChanged(e, nil)
		return nil
	}

	if err := t.check(parent); err != nil {
		return err
	}
	if parent == e {
		return fmt.Errorf("%w: %s", ErrSelfParent, e)
	}
	if t.IsDescendantOf(parent, e) {
		return fmt.Errorf("%w: %s is a descendant of %s", ErrCycle, parent, e)
	}

	e.parent = parent.handle
	t.parentChanged(e, parent)
	return nil
}

// Destroy unregisters e and all of its registered descendants. Descendants are
// collected before anything changes, then each is detached and released.
func (t *Tree) Destroy(e *Entity) error {
	if err := t.check(e); err != nil {
		return err
	}
	if !e.registered {
		return fmt.Errorf("%w: %s", ErrNotRegistered, e)
	}

	descendants := t.Descendants(e)
	for _, d := range descendants {
		d.parent = Handle{}
		if d.registered {
			if err := t.Unregister(d); err != nil {
				return err
			}
		}
		t.arena.release(d.handle)
	}

	if err := t.Unregister(e); err != nil {
		return err
	}
	t.arena.release(e.handle)
	return nil
}

func (t *Tree) parentChanged(e, parent *Entity) {
	if observer, ok := e.behavior.(ParentObserver); ok {
		observer.OnParent(e, parent)
	}
	if e.registered {
		t.publish(EventReparented, e)
	}
}

func (t *Tree) check(e *Entity) error {
	if t.closed {
		return ErrTreeClosed
	}
	if e == nil {
		return ErrNilEntity
	}
	if e.tree != t {
		return fmt.Errorf("%w: %s", ErrForeignEntity, e)
	}
	if _, ok := t.arena.get(e.handle); !ok {
		return fmt.Errorf("%w: %s", ErrStaleEntity, e)
	}
	return nil
}
