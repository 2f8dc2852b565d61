package dispatcher

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotApproved indicates dispatch was requested before approval.
	ErrWorkflowNotApproved = errors.New("workflow is not approved")

	// ErrDriverRetryable marks a transient driver failure.
	ErrDriverRetryable = errors.New("driver failed with a retryable error")

	// ErrDriverFatal marks a permanent driver failure, or exhausted retries.
	ErrDriverFatal = errors.New("driver failed")

	// ErrExecutionCancelled indicates the context was cancelled mid-dispatch.
	ErrExecutionCancelled = errors.New("execution cancelled")
)

// RetryableError carries the reason of a single retryable attempt.
type RetryableError struct {
	NodeID string
	Reason string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Reason)
}

func (e *RetryableError) Is(target error) bool {
	return target == ErrDriverRetryable
}

// DriverFatalError names the node that failed the workflow.
type DriverFatalError struct {
	NodeID   string
	Type     string
	Reason   string
	Attempts int
}

func (e *DriverFatalError) Error() string {
	return fmt.Sprintf("%v: node %s (%s) after %d attempt(s): %s", ErrDriverFatal, e.NodeID, e.Type, e.Attempts, e.Reason)
}

func (e *DriverFatalError) Is(target error) bool {
	return target == ErrDriverFatal
}

// NotApprovedError reports the status found instead of approved.
type NotApprovedError struct {
	WorkflowID string
	Status     string
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("%v: workflow %s is %s", ErrWorkflowNotApproved, e.WorkflowID, e.Status)
}

func (e *NotApprovedError) Is(target error) bool {
	return target == ErrWorkflowNotApproved
}
