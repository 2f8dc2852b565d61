package intent

import (
	"testing"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_EmptyInputIsChitchat(t *testing.T) {
	classifier := NewClassifier(DefaultWeights())

	for _, input := range []string{"", "   ", "\n\t"} {
		intent := classifier.Classify(input, SessionContext{})
		assert.Equal(t, models.IntentChitchat, intent.PrimaryIntent)
		assert.Zero(t, intent.Confidence)
	}
}

func TestClassify_Categories(t *testing.T) {
	classifier := NewClassifier(DefaultWeights())

	tests := []struct {
		name     string
		message  string
		session  SessionContext
		expected models.IntentType
		content  bool
	}{
		{
			name:     "plain email automation",
			message:  "send an email to slakshanand1105@gmail.com",
			expected: models.IntentAutomationRequest,
		},
		{
			name:     "sales pitch to a recipient",
			message:  "Send a sales pitch for Acme's RocketCRM to bob@acme.com",
			expected: models.IntentAutomationRequest,
			content:  true,
		},
		{
			name:     "standalone content",
			message:  "write a newsletter announcement for our launch",
			expected: models.IntentContentRequest,
			content:  true,
		},
		{
			name:     "greeting",
			message:  "hi there, how are you?",
			expected: models.IntentChitchat,
		},
		{
			name:     "affirmative reply to pending preview",
			message:  "yes",
			session:  SessionContext{PendingStatus: models.WorkflowStatusPreviewReady},
			expected: models.IntentConfirmation,
		},
		{
			name:     "yes without pending workflow",
			message:  "yes",
			expected: models.IntentChitchat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := classifier.Classify(tt.message, tt.session)
			assert.Equal(t, tt.expected, intent.PrimaryIntent)
			assert.Equal(t, tt.content, intent.ContentRequested)
			assert.GreaterOrEqual(t, intent.Confidence, 0.0)
			assert.LessOrEqual(t, intent.Confidence, 1.0)
		})
	}
}

func TestClassify_ProviderHintRequiresAIService(t *testing.T) {
	classifier := NewClassifier(DefaultWeights())

	intent := classifier.Classify("draft a pitch service:openai", SessionContext{})

	assert.Equal(t, models.IntentContentRequest, intent.PrimaryIntent)
	assert.True(t, intent.RequiresAIService)
	assert.Equal(t, "openai", intent.ProviderHint)
	assert.Equal(t, "draft a pitch", intent.Message)
}

func TestClassify_EmailInsideAddressIsNotAKeyword(t *testing.T) {
	classifier := NewClassifier(DefaultWeights())

	intent := classifier.Classify("my address is bob@mail.example.com", SessionContext{})

	// only the address signal counts
	assert.Equal(t, DefaultWeights().EmailAddress, intent.Scores[models.IntentAutomationRequest])
}

func TestClassify_ConfirmationReplies(t *testing.T) {
	classifier := NewClassifier(DefaultWeights())
	session := SessionContext{PendingStatus: models.WorkflowStatusAwaitingContentConfirmation}

	tests := map[string]models.ReplyKind{
		"yes please":                   models.ReplyAffirmative,
		"Sure.":                        models.ReplyAffirmative,
		"go ahead":                     models.ReplyAffirmative,
		"no":                           models.ReplyNegative,
		"cancel it":                    models.ReplyNegative,
		"change the subject to Launch": models.ReplyEdit,
		"subject: Big news":            models.ReplyEdit,
		"ok wait, don't send it yet":   models.ReplyHold,
	}

	for message, reply := range tests {
		intent := classifier.Classify(message, session)
		assert.Equal(t, models.IntentConfirmation, intent.PrimaryIntent, message)
		assert.Equal(t, reply, intent.Reply, message)
	}
}

func TestClassify_TieResolvesToChitchat(t *testing.T) {
	weights := DefaultWeights()
	weights.ChitchatBase = 1.0

	// one automation keyword against the chitchat baseline
	intent := NewClassifier(weights).Classify("remind", SessionContext{})

	assert.Equal(t, models.IntentChitchat, intent.PrimaryIntent)
	assert.Zero(t, intent.Confidence)
}

func TestClassify_WeightsAreConfigurable(t *testing.T) {
	weights := DefaultWeights()
	weights.ContentKeyword = 10

	intent := NewClassifier(weights).Classify("Send a sales pitch to bob@acme.com", SessionContext{})

	assert.Equal(t, models.IntentContentRequest, intent.PrimaryIntent)
}

func TestCheck(t *testing.T) {
	classifier := NewClassifier(DefaultWeights())

	err := classifier.Check(models.ExtractedIntent{PrimaryIntent: models.IntentAutomationRequest, Confidence: 0.05})
	require.Error(t, err)
	assert.True(t, IsAmbiguous(err))

	assert.NoError(t, classifier.Check(models.ExtractedIntent{PrimaryIntent: models.IntentAutomationRequest, Confidence: 0.9}))
	assert.NoError(t, classifier.Check(models.ExtractedIntent{PrimaryIntent: models.IntentChitchat}))
}

func TestDetectReply(t *testing.T) {
	assert.Equal(t, models.ReplyNone, DetectReply(""))
	assert.Equal(t, models.ReplyNone, DetectReply("nothing to see"))
	assert.Equal(t, models.ReplyNone, DetectReply("nobody"))
	assert.Equal(t, models.ReplyAffirmative, DetectReply("Looks good!"))
	assert.Equal(t, models.ReplyNegative, DetectReply("nope"))
}

func TestDetectReply_WholeMessage(t *testing.T) {
	tests := map[string]models.ReplyKind{
		"yes":                                    models.ReplyAffirmative,
		"Yes, send it now please!":               models.ReplyAffirmative,
		"ok thanks":                              models.ReplyAffirmative,
		"sounds good, go ahead":                  models.ReplyAffirmative,
		"ok wait, don't send it yet":             models.ReplyHold,
		"yes but not to bob":                     models.ReplyHold,
		"hold on":                                models.ReplyHold,
		"don’t send it":                          models.ReplyNegative,
		"no thanks":                              models.ReplyNegative,
		"sure, but change the subject to Launch": models.ReplyEdit,
		"yes, and set the body to Hi all":        models.ReplyEdit,
		"okay so what happens next":              models.ReplyNone,
		"yes I think":                            models.ReplyNone,
	}

	for message, reply := range tests {
		assert.Equal(t, reply, DetectReply(message), message)
	}
}
