// Package approval implements the preview and approval lifecycle of workflows.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/autoflow/pkg/eventbus"
	"github.com/dukex/autoflow/pkg/events"
	"github.com/dukex/autoflow/pkg/models"
)

// ErrInvalidTransition indicates a status change outside the allowed graph.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// InvalidTransitionError names the rejected transition.
type InvalidTransitionError struct {
	WorkflowID string
	From       models.WorkflowStatus
	To         models.WorkflowStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%v: workflow %s cannot move from %s to %s", ErrInvalidTransition, e.WorkflowID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsInvalidTransition checks if an error is a rejected transition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// Machine is the only component that changes a workflow's status.
type Machine struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a machine. A nil publisher disables lifecycle events.
func New(publisher eventbus.EventPublisher, logger *slog.Logger) *Machine {
	return &Machine{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Transition moves the workflow to the target status, appends the change to
// its log and publishes a status change event.
func (m *Machine) Transition(ctx context.Context, workflow *models.Workflow, to models.WorkflowStatus, reason string) error {
	from := workflow.Status

	if !from.CanTransitionTo(to) {
		return &InvalidTransitionError{WorkflowID: workflow.ID, From: from, To: to}
	}

	transition := models.Transition{From: from, To: to, Reason: reason, At: m.now()}

	workflow.Status = to
	workflow.UpdatedAt = transition.At
	workflow.Transitions = append(workflow.Transitions, transition)

	m.logger.DebugContext(ctx, "Workflow transitioned",
		"workflow_id", workflow.ID,
		"from", from,
		"to", to,
		"reason", reason,
	)

	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, workflow.ID, events.NewWorkflowStatusChanged(workflow, transition)); err != nil {
			m.logger.WarnContext(ctx, "Failed to publish status change", "workflow_id", workflow.ID, "error", err)
		}
	}

	return nil
}

// Cancel moves any non-terminal workflow to cancelled.
func (m *Machine) Cancel(ctx context.Context, workflow *models.Workflow, reason string) error {
	return m.Transition(ctx, workflow, models.WorkflowStatusCancelled, reason)
}
