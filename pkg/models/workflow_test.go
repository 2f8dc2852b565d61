package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkflow() *Workflow {
	return &Workflow{
		ID:     "wf-1",
		Status: WorkflowStatusPreviewReady,
		Nodes: []*WorkflowNode{
			{ID: "trigger", Type: NodeTypeManual, Role: RoleTrigger, Parameters: map[string]any{}},
			{
				ID:         "check",
				Type:       NodeTypeIfElse,
				Role:       RoleAction,
				Parameters: map[string]any{"condition": "true"},
				Then: []*WorkflowNode{
					{ID: "send_email_1", Type: NodeTypeEmailSend, Role: RoleAction, Parameters: map[string]any{"toEmail": "ana@example.com"}},
				},
			},
		},
		ContentRequest: &ContentRequest{Prompt: "welcome"},
	}
}

func TestWorkflowStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to WorkflowStatus
		allowed  bool
	}{
		{WorkflowStatusDraft, WorkflowStatusPreviewReady, true},
		{WorkflowStatusDraft, WorkflowStatusAwaitingContentConfirmation, true},
		{WorkflowStatusDraft, WorkflowStatusApproved, false},
		{WorkflowStatusAwaitingContentConfirmation, WorkflowStatusPreviewReady, true},
		{WorkflowStatusPreviewReady, WorkflowStatusPreviewReady, true},
		{WorkflowStatusPreviewReady, WorkflowStatusApproved, true},
		{WorkflowStatusPreviewReady, WorkflowStatusExecuting, false},
		{WorkflowStatusApproved, WorkflowStatusExecuting, true},
		{WorkflowStatusExecuting, WorkflowStatusFailed, true},
		{WorkflowStatusExecuting, WorkflowStatusCancelled, true},
		{WorkflowStatusCompleted, WorkflowStatusCancelled, false},
		{WorkflowStatusCancelled, WorkflowStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestWorkflow_TriggerAndActions(t *testing.T) {
	wf := testWorkflow()

	require.NotNil(t, wf.Trigger())
	assert.Equal(t, "trigger", wf.Trigger().ID)

	actions := wf.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, "check", actions[0].ID)

	var visited []string
	wf.Walk(func(node *WorkflowNode) { visited = append(visited, node.ID) })
	assert.Equal(t, []string{"trigger", "check", "send_email_1"}, visited)

	assert.Nil(t, (&Workflow{}).Trigger())
}

func TestWorkflow_CloneIsDeep(t *testing.T) {
	wf := testWorkflow()
	clone := wf.Clone()

	clone.Nodes[1].Then[0].Parameters["toEmail"] = "bob@example.com"
	clone.Nodes = append(clone.Nodes, &WorkflowNode{ID: "extra"})
	clone.ContentRequest.Prompt = "changed"

	assert.Equal(t, "ana@example.com", wf.Nodes[1].Then[0].StringParam("toEmail"))
	assert.Len(t, wf.Nodes, 2)
	assert.Equal(t, "welcome", wf.ContentRequest.Prompt)
}

func TestWorkflowNode_Validation(t *testing.T) {
	validate := validator.New()

	valid := &WorkflowNode{ID: "send_email_1", Type: NodeTypeEmailSend, Role: RoleAction}
	require.NoError(t, validate.Struct(valid))

	invalid := &WorkflowNode{ID: "x", Type: NodeTypeEmailSend, Role: "sink"}
	err := validate.Struct(invalid)
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	assert.Equal(t, "Role", validationErrors[0].Field())
	assert.Equal(t, "oneof", validationErrors[0].Tag())
}

func TestWorkflowNode_StringParam(t *testing.T) {
	node := &WorkflowNode{Parameters: map[string]any{"subject": "Hi", "count": 3}}

	assert.Equal(t, "Hi", node.StringParam("subject"))
	assert.Empty(t, node.StringParam("count"))
	assert.Empty(t, node.StringParam("missing"))
}

func TestSession_RecentAndPending(t *testing.T) {
	session := NewSession("ana", "sales")
	assert.Empty(t, session.PendingStatus())

	for _, content := range []string{"one", "two", "three"} {
		session.Append(MessageRoleUser, content)
	}

	recent := session.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Content)
	assert.Len(t, session.Recent(10), 3)

	session.PendingWorkflow = testWorkflow()
	assert.Equal(t, WorkflowStatusPreviewReady, session.PendingStatus())
}
