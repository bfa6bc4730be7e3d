package props

import "errors"

var (
	ErrEmptyTag         = errors.New("props: empty type tag")
	ErrDuplicateTag     = errors.New("props: type tag already registered")
	ErrDuplicateValue   = errors.New("props: value type already registered")
	ErrDuplicateProp    = errors.New("props: property declared twice")
	ErrReadOnly         = errors.New("props: property is read-only")
	ErrTypeMismatch     = errors.New("props: value type does not match property")
	ErrBehaviorMismatch = errors.New("props: entity behavior does not match property owner")
)
