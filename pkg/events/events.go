// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "autoflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowStatusChangedEvent EventType = "workflow.status_changed"
	WorkflowScheduledEvent     EventType = "workflow.scheduled"
	NodeExecutedEvent          EventType = "node.executed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func newBase(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// WorkflowStatusChanged is published on every approval state machine transition.
type WorkflowStatusChanged struct {
	BaseEvent

	Owner  string                `json:"owner"`
	Agent  string                `json:"agent"`
	From   models.WorkflowStatus `json:"from"`
	To     models.WorkflowStatus `json:"to"`
	Reason string                `json:"reason,omitempty"`
}

func (e WorkflowStatusChanged) GetType() EventType {
	return WorkflowStatusChangedEvent
}

func NewWorkflowStatusChanged(workflow *models.Workflow, transition models.Transition) WorkflowStatusChanged {
	return WorkflowStatusChanged{
		BaseEvent: newBase(WorkflowStatusChangedEvent, workflow.ID),
		Owner:     workflow.Owner,
		Agent:     workflow.Agent,
		From:      transition.From,
		To:        transition.To,
		Reason:    transition.Reason,
	}
}

// WorkflowScheduled is published when an approved cron workflow is registered.
type WorkflowScheduled struct {
	BaseEvent

	Cron     string    `json:"cron"`
	Timezone string    `json:"timezone"`
	NextRun  time.Time `json:"next_run"`
}

func (e WorkflowScheduled) GetType() EventType {
	return WorkflowScheduledEvent
}

func NewWorkflowScheduled(workflowID, cron, timezone string, nextRun time.Time) WorkflowScheduled {
	return WorkflowScheduled{
		BaseEvent: newBase(WorkflowScheduledEvent, workflowID),
		Cron:      cron,
		Timezone:  timezone,
		NextRun:   nextRun,
	}
}

// NodeExecuted is published once per dispatched node.
type NodeExecuted struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	NodeID      string            `json:"node_id"`
	NodeType    string            `json:"node_type"`
	Status      models.NodeStatus `json:"status"`
	Attempts    int               `json:"attempts"`
	Reason      string            `json:"reason,omitempty"`
}

func (e NodeExecuted) GetType() EventType {
	return NodeExecutedEvent
}

func NewNodeExecuted(workflowID, executionID string, result models.NodeResult) NodeExecuted {
	return NodeExecuted{
		BaseEvent:   newBase(NodeExecutedEvent, workflowID),
		ExecutionID: executionID,
		NodeID:      result.NodeID,
		NodeType:    result.Type,
		Status:      result.Status,
		Attempts:    result.Attempts,
		Reason:      result.Reason,
	}
}
