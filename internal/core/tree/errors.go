package tree

import "errors"

var (
	// Registry lifecycle

	ErrTreeExists = errors.New("tree already exists")
	ErrTreeClosed = errors.New("tree is closed")

	// Entity state

	ErrNilEntity         = errors.New("entity is nil")
	ErrNilBehavior       = errors.New("behavior is nil")
	ErrForeignEntity     = errors.New("entity belongs to another tree")
	ErrStaleEntity       = errors.New("entity has been released")
	ErrAlreadyRegistered = errors.New("entity is already registered")
	ErrNotRegistered     = errors.New("entity is not registered")
	ErrStillRegistered   = errors.New("entity is still registered")

	// Hierarchy

	ErrSelfParent = errors.New("entity cannot be its own parent")
	ErrCycle      = errors.New("parent would create a cycle")
)
