package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all stores should use.
var (
	// ErrNotFound indicates no value is stored under the given key.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidKey indicates a key that cannot be stored, such as one escaping the file root.
	ErrInvalidKey = errors.New("invalid key")

	// ErrUnsupportedStore indicates a database URL with an unknown scheme.
	ErrUnsupportedStore = errors.New("unsupported store")
)

// StoreError wraps store errors with the operation and key involved.
type StoreError struct {
	Op  string // Operation being performed (e.g., "Get", "Put", "Delete")
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// IsNotFound checks if an error indicates a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
