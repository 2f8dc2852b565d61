package models

// IntentType is the primary category of an inbound message.
type IntentType string

const (
	IntentChitchat          IntentType = "chitchat"
	IntentContentRequest    IntentType = "content_request"
	IntentAutomationRequest IntentType = "automation_request"
	IntentConfirmation      IntentType = "confirmation"
)

// ReplyKind qualifies a confirmation message.
type ReplyKind string

const (
	ReplyNone        ReplyKind = ""
	ReplyAffirmative ReplyKind = "affirmative"
	ReplyNegative    ReplyKind = "negative"
	ReplyEdit        ReplyKind = "edit"
	// ReplyHold defers the decision without cancelling
	ReplyHold        ReplyKind = "hold"
)

// Entities are the structured values pulled out of a message.
// Absent entities are left empty.
type Entities struct {
	RecipientEmails []string `json:"recipient_emails,omitempty"`
	SubjectHint     string   `json:"subject_hint,omitempty"`
	CompanyName     string   `json:"company_name,omitempty"`
	ProductName     string   `json:"product_name,omitempty"`
	ScheduleHint    string   `json:"schedule_hint,omitempty"` // 5-field cron expression
}

// HasRecipients reports whether at least one recipient was extracted.
func (e Entities) HasRecipients() bool {
	return len(e.RecipientEmails) > 0
}

// ExtractedIntent is the classification of a single message.
type ExtractedIntent struct {
	PrimaryIntent     IntentType             `json:"primary_intent"`
	Confidence        float64                `json:"confidence"`
	RequiresAIService bool                   `json:"requires_ai_service"`
	ContentRequested  bool                   `json:"content_requested"`
	Reply             ReplyKind              `json:"reply,omitempty"`
	ProviderHint      string                 `json:"provider_hint,omitempty"`
	Message           string                 `json:"message"`
	Entities          Entities               `json:"entities"`
	Scores            map[IntentType]float64 `json:"scores,omitempty"`
}
