package scene

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType       = errors.New("scene: unknown type tag")
	ErrNoConstructor     = errors.New("scene: type has no constructor")
	ErrDuplicateID       = errors.New("scene: duplicate or zero local id")
	ErrUnknownParent     = errors.New("scene: parent id not declared before child")
	ErrUnknownProperty   = errors.New("scene: unknown property")
	ErrReadOnlyProperty  = errors.New("scene: property is read-only")
	ErrUnknownValueType  = errors.New("scene: value type has no name")
	ErrChecksumMismatch  = errors.New("scene: checksum mismatch")
	ErrUnsupportedFormat = errors.New("scene: unsupported format version")
	ErrMalformed         = errors.New("scene: malformed line")
)

// SyntaxError reports a line that does not follow the scene grammar.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("scene: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}

// LoadError reports a record that could not be built.
type LoadError struct {
	Line     int
	LocalID  uint32
	Tag      string
	Property string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("scene: line %d: record %d (%s) property %s: %v", e.Line, e.LocalID, e.Tag, e.Property, e.Err)
	}
	return fmt.Sprintf("scene: line %d: record %d (%s): %v", e.Line, e.LocalID, e.Tag, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
