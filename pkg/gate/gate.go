// Package gate decides whether content must be confirmed before it is generated.
package gate

import (
	"regexp"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

// Decision is the outcome of the content generation gate.
type Decision string

const (
	DecisionNoGate            Decision = "no_gate"
	DecisionNeedsConfirmation Decision = "needs_confirmation"
	DecisionAutoGenerate      Decision = "auto_generate"
)

// Policy controls when content may be generated without asking.
type Policy struct {
	// AutoGenerate allows generation without confirmation for messages with
	// no outreach framing and no stylistic ambiguity.
	AutoGenerate bool `yaml:"auto_generate"`
}

var (
	outreachWords = []string{"sales", "pitch", "marketing", "outreach", "promotion", "promotional", "campaign", "cold"}

	// words that leave tone or style open to interpretation
	ambiguityWords = []string{"catchy", "creative", "persuasive", "compelling", "fun", "witty", "tone", "style", "engaging", "punchy"}

	gateWordPattern = regexp.MustCompile(`[a-z]+`)
)

type Gate struct {
	policy Policy
}

func New(policy Policy) *Gate {
	return &Gate{policy: policy}
}

// Decide applies the policy to a classified message.
func (g *Gate) Decide(intent models.ExtractedIntent) Decision {
	if intent.PrimaryIntent != models.IntentAutomationRequest {
		return DecisionNoGate
	}

	if !intent.ContentRequested {
		return DecisionNoGate
	}

	// standalone content, nobody receives it
	if !intent.Entities.HasRecipients() {
		return DecisionNoGate
	}

	if g.policy.AutoGenerate && !HasOutreachFraming(intent.Message) && !hasAny(intent.Message, ambiguityWords) {
		return DecisionAutoGenerate
	}

	return DecisionNeedsConfirmation
}

// HasOutreachFraming reports whether the message asks for sales or marketing copy.
func HasOutreachFraming(message string) bool {
	return hasAny(message, outreachWords)
}

func hasAny(message string, words []string) bool {
	found := make(map[string]bool)
	for _, word := range gateWordPattern.FindAllString(strings.ToLower(message), -1) {
		found[word] = true
	}

	for _, word := range words {
		if found[word] {
			return true
		}
	}

	return false
}
