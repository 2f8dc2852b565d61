package intent

// Weights tune how much each signal contributes to a category score.
type Weights struct {
	EmailAddress      float64 `yaml:"email_address"       validate:"min=0"`
	AutomationKeyword float64 `yaml:"automation_keyword"  validate:"min=0"`
	SendToRecipient   float64 `yaml:"send_to_recipient"   validate:"min=0"`
	ContentKeyword    float64 `yaml:"content_keyword"     validate:"min=0"`
	ProviderHint      float64 `yaml:"provider_hint"       validate:"min=0"`
	PendingReply      float64 `yaml:"pending_reply"       validate:"min=0"`
	ChitchatBase      float64 `yaml:"chitchat_base"       validate:"gt=0"`
	MaxKeywordHits    int     `yaml:"max_keyword_hits"    validate:"min=1"`
	MinConfidence     float64 `yaml:"min_confidence"      validate:"min=0,max=1"`
}

func DefaultWeights() Weights {
	return Weights{
		EmailAddress:      2.0,
		AutomationKeyword: 1.0,
		SendToRecipient:   2.0,
		ContentKeyword:    1.0,
		ProviderHint:      2.0,
		PendingReply:      4.0,
		ChitchatBase:      0.5,
		MaxKeywordHits:    3,
		MinConfidence:     0.15,
	}
}
