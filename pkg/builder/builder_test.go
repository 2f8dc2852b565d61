package builder

import (
	"testing"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/dukex/autoflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func automationIntent(message string, entities models.Entities) models.ExtractedIntent {
	return models.ExtractedIntent{
		PrimaryIntent: models.IntentAutomationRequest,
		Confidence:    0.9,
		Message:       message,
		Entities:      entities,
	}
}

func TestBuild_NotAutomation(t *testing.T) {
	b := New(registry.DefaultNodeSpecs())

	workflow, err := b.Build(models.ExtractedIntent{PrimaryIntent: models.IntentChitchat}, "")

	require.Error(t, err)
	assert.Nil(t, workflow)
	assert.ErrorIs(t, err, ErrNotAutomation)
}

func TestBuild_ZeroRecipients(t *testing.T) {
	b := New(registry.DefaultNodeSpecs())

	workflow, err := b.Build(automationIntent("send the weekly report", models.Entities{}), "")

	require.Error(t, err)
	assert.Nil(t, workflow)
	assert.ErrorIs(t, err, ErrMissingRecipient)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "toEmail", buildErr.Field)
	assert.True(t, IsBuildError(err))
}

func TestBuild_SingleRecipientManualTrigger(t *testing.T) {
	specs := registry.DefaultNodeSpecs()
	b := New(specs)

	workflow, err := b.Build(automationIntent("send an email to slakshanand1105@gmail.com", models.Entities{
		RecipientEmails: []string{"slakshanand1105@gmail.com"},
	}), "")
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
	assert.NotEmpty(t, workflow.ID)
	assert.Nil(t, workflow.ContentRequest)
	require.Len(t, workflow.Nodes, 2)

	trigger := workflow.Trigger()
	require.NotNil(t, trigger)
	assert.Equal(t, models.NodeTypeManual, trigger.Type)

	action := workflow.Nodes[1]
	assert.Equal(t, models.NodeTypeEmailSend, action.Type)
	assert.Equal(t, "slakshanand1105@gmail.com", action.Parameters["toEmail"])
	assert.Equal(t, DefaultSubject, action.Parameters["subject"])
	assert.Equal(t, "send an email to slakshanand1105@gmail.com", action.Parameters["body"])
	// optional defaults
	assert.Equal(t, "", action.Parameters["cc"])

	require.NoError(t, validation.New(specs).ValidateWorkflow(workflow))
}

func TestBuild_FanOutPerRecipient(t *testing.T) {
	b := New(registry.DefaultNodeSpecs())
	recipients := []string{"a@example.com", "b@example.com", "c@example.com"}

	workflow, err := b.Build(automationIntent("send the launch note", models.Entities{
		RecipientEmails: recipients,
		SubjectHint:     "Launch",
	}), "We are live.")
	require.NoError(t, err)

	actions := workflow.Actions()
	require.Len(t, actions, 3)

	ids := make(map[string]bool)

	for i, action := range actions {
		assert.Equal(t, models.NodeTypeEmailSend, action.Type)
		assert.Equal(t, recipients[i], action.Parameters["toEmail"])
		assert.Equal(t, "Launch", action.Parameters["subject"])
		assert.Equal(t, "We are live.", action.Parameters["body"])

		ids[action.ID] = true
	}

	assert.Len(t, ids, 3)
	assert.Equal(t, "We are live.", workflow.Content)
}

func TestBuild_ScheduleUsesCronTrigger(t *testing.T) {
	b := New(registry.DefaultNodeSpecs())

	workflow, err := b.Build(automationIntent("email bob every day at 9am", models.Entities{
		RecipientEmails: []string{"bob@example.com"},
		ScheduleHint:    "0 9 * * *",
	}), "")
	require.NoError(t, err)

	trigger := workflow.Trigger()
	assert.Equal(t, models.NodeTypeCron, trigger.Type)
	assert.Equal(t, "0 9 * * *", trigger.Parameters["cron"])
	assert.Equal(t, "UTC", trigger.Parameters["timezone"])
}

func TestBuild_ContentRequestRecorded(t *testing.T) {
	b := New(registry.DefaultNodeSpecs())

	intent := automationIntent("Send a sales pitch for Acme's RocketCRM to bob@acme.com", models.Entities{
		RecipientEmails: []string{"bob@acme.com"},
		CompanyName:     "Acme",
		ProductName:     "RocketCRM",
	})
	intent.ContentRequested = true
	intent.ProviderHint = "openai"

	workflow, err := b.Build(intent, "")
	require.NoError(t, err)

	require.NotNil(t, workflow.ContentRequest)
	assert.Equal(t, intent.Message, workflow.ContentRequest.Prompt)
	assert.Equal(t, "outreach", workflow.ContentRequest.StyleHints.Purpose)
	assert.Equal(t, "Acme", workflow.ContentRequest.StyleHints.Company)
	assert.Equal(t, "RocketCRM", workflow.ContentRequest.StyleHints.Product)
	assert.Equal(t, "openai", workflow.ContentRequest.StyleHints.Provider)
	assert.Equal(t, "Introducing RocketCRM by Acme", workflow.Nodes[1].Parameters["subject"])
}

func TestWithDefaultSubject(t *testing.T) {
	b := New(registry.DefaultNodeSpecs(), WithDefaultSubject("Update"))

	workflow, err := b.Build(automationIntent("ping", models.Entities{RecipientEmails: []string{"a@example.com"}}), "")
	require.NoError(t, err)

	assert.Equal(t, "Update", workflow.Nodes[1].Parameters["subject"])
}
