package resource

import "errors"

var (
	ErrEmptyPath      = errors.New("resource: empty path")
	ErrNoLoader       = errors.New("resource: no loader for type")
	ErrLoaderExists   = errors.New("resource: loader already registered")
	ErrBadMesh        = errors.New("resource: malformed mesh")
	ErrUnknownBuiltin = errors.New("resource: unknown builtin")
)
