package builder

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAutomation indicates the intent does not describe an automation.
	ErrNotAutomation = errors.New("intent is not an automation request")

	// ErrMissingRecipient indicates no recipient could be found for the action.
	ErrMissingRecipient = errors.New("no recipient found")

	// ErrEmptyEdit indicates an edit reply changed nothing recognizable.
	ErrEmptyEdit = errors.New("edit names no subject, body or recipient")
)

// BuildError names the field that prevented a workflow from being built.
type BuildError struct {
	Field string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cannot build workflow: %s: %v", e.Field, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsBuildError checks if an error is a build error.
func IsBuildError(err error) bool {
	var buildErr *BuildError

	return errors.As(err, &buildErr)
}
