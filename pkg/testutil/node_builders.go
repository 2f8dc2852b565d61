// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates an email_send action with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:   uuid.New().String(),
		Type: models.NodeTypeEmailSend,
		Role: models.RoleAction,
		Parameters: map[string]any{
			"toEmail": "ana@example.com",
			"subject": "Test subject",
			"body":    "Test body",
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a manual trigger.
func WithTriggerNode() func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeManual
		n.Role = models.RoleTrigger
		n.Parameters = map[string]any{}
	}
}

// WithCronTrigger configures the node as a cron trigger.
func WithCronTrigger(expr string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeCron
		n.Role = models.RoleTrigger
		n.Parameters = map[string]any{"cron": expr, "timezone": "UTC"}
	}
}

// WithParameters sets the node parameters.
func WithParameters(params map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Parameters = params
	}
}

// WithParameter sets a single parameter.
func WithParameter(name string, value any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Parameters[name] = value
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = nodeType
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// CreateTestWorkflow creates an empty draft workflow.
func CreateTestWorkflow() *models.Workflow {
	now := time.Now().UTC()

	return &models.Workflow{
		ID:          uuid.New().String(),
		Owner:       "test-user",
		Agent:       "test-agent",
		Status:      models.WorkflowStatusDraft,
		Nodes:       []*models.WorkflowNode{},
		Transitions: []models.Transition{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateTestWorkflowWithNodes creates a draft workflow with a manual trigger
// and one email action per recipient.
func CreateTestWorkflowWithNodes(recipients ...string) *models.Workflow {
	workflow := CreateTestWorkflow()

	if len(recipients) == 0 {
		recipients = []string{"ana@example.com"}
	}

	workflow.Nodes = append(workflow.Nodes, CreateTestNode(WithTriggerNode(), WithID("trigger")))

	for _, recipient := range recipients {
		workflow.Nodes = append(workflow.Nodes, CreateTestNode(WithParameter("toEmail", recipient)))
	}

	return workflow
}
