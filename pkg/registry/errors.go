package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNodeType indicates no spec or driver exists for a node type.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrDuplicateRegistration indicates a node type was registered twice.
	ErrDuplicateRegistration = errors.New("node type already registered")
)

// UnknownNodeTypeError names the node type that could not be resolved.
type UnknownNodeTypeError struct {
	Type string
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownNodeType, e.Type)
}

func (e *UnknownNodeTypeError) Is(target error) bool {
	return target == ErrUnknownNodeType
}

// IsUnknownNodeType checks if an error reports an unknown node type.
func IsUnknownNodeType(err error) bool {
	return errors.Is(err, ErrUnknownNodeType)
}
