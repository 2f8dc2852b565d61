package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

var (
	// ErrMissingParameters indicates required node parameters are absent.
	ErrMissingParameters = errors.New("missing required parameters")

	// ErrInvalidWorkflow indicates a structural problem with the workflow graph.
	ErrInvalidWorkflow = errors.New("invalid workflow")

	// ErrInvalidFormat indicates a parameter is present but malformed.
	ErrInvalidFormat = errors.New("invalid parameter format")
)

// MissingParametersError lists every node-id/field pair that is missing.
type MissingParametersError struct {
	Missing []models.MissingField
}

func (e *MissingParametersError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, m.NodeID+"."+m.Field)
	}

	return fmt.Sprintf("%v: %s", ErrMissingParameters, strings.Join(parts, ", "))
}

func (e *MissingParametersError) Is(target error) bool {
	return target == ErrMissingParameters
}

// WorkflowError describes a structural violation.
type WorkflowError struct {
	NodeID  string
	Message string
}

func (e *WorkflowError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidWorkflow, e.Message)
	}

	return fmt.Sprintf("%v: node %s: %s", ErrInvalidWorkflow, e.NodeID, e.Message)
}

func (e *WorkflowError) Is(target error) bool {
	return target == ErrInvalidWorkflow
}

// FormatError lists the format problems found on a node.
type FormatError struct {
	NodeID   string
	Problems []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: node %s: %s", ErrInvalidFormat, e.NodeID, strings.Join(e.Problems, "; "))
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// IsMissingParameters checks if an error reports missing parameters.
func IsMissingParameters(err error) bool {
	return errors.Is(err, ErrMissingParameters)
}
