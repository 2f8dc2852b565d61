// Package intent classifies inbound messages and extracts the entities a workflow needs.
package intent

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

var (
	automationKeywords = []string{
		"send", "email", "mail", "notify", "schedule", "every", "webhook",
		"post", "remind", "forward", "automate", "trigger",
	}

	contentKeywords = []string{
		"write", "draft", "compose", "generate", "pitch", "copy", "marketing",
		"sales", "newsletter", "ai-generated", "blog", "announcement", "outreach",
	}

	affirmativeReplies = []string{
		"yes", "y", "yep", "yeah", "yup", "sure", "ok", "okay", "go ahead", "go",
		"confirm", "confirmed", "approve", "approved", "send it", "do it",
		"proceed", "looks good", "lgtm", "please do", "sounds good", "all good",
	}

	// politeFiller may follow an affirmative without changing its meaning
	politeFiller = []string{"please", "thanks", "thank you", "now", "then", "and"}

	negativeReplies = []string{
		"no", "n", "nope", "nah", "cancel", "stop", "abort", "don't", "do not",
		"never mind", "nevermind", "forget it", "reject",
	}

	// holdReplies put off a decision without cancelling
	holdReplies = []string{
		"wait", "hold", "hang on", "yet", "later", "before", "but", "pause",
		"not now", "not sure", "one sec", "one second", "moment",
	}

	editReplies = []string{
		"change", "edit", "update", "replace", "set the", "make the", "use subject", "instead",
	}

	editFieldPattern = regexp.MustCompile(`\b(?:subject|body|to):`)

	wordPattern = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)
)

// SessionContext is the part of the session the classifier looks at.
type SessionContext struct {
	PendingStatus models.WorkflowStatus
}

// awaitingReply reports whether a pending workflow is waiting on the user.
func (s SessionContext) awaitingReply() bool {
	return s.PendingStatus == models.WorkflowStatusAwaitingContentConfirmation ||
		s.PendingStatus == models.WorkflowStatusPreviewReady
}

// Classifier scores messages against weighted signals. It holds no state
// beyond its weights and is safe for concurrent use.
type Classifier struct {
	weights Weights
}

func NewClassifier(weights Weights) *Classifier {
	return &Classifier{weights: weights}
}

// Classify assigns the message to one category. It never fails: empty input
// is chitchat with zero confidence.
func (c *Classifier) Classify(message string, session SessionContext) models.ExtractedIntent {
	stripped, provider := StripProviderHints(message)

	intent := models.ExtractedIntent{
		PrimaryIntent: models.IntentChitchat,
		Message:       strings.TrimSpace(stripped),
		ProviderHint:  provider,
		Scores:        make(map[models.IntentType]float64),
	}

	if intent.Message == "" && provider == "" {
		return intent
	}

	emails := findEmails(intent.Message)
	words := wordSet(emailPattern.ReplaceAllString(strings.ToLower(intent.Message), " "))

	automationHits := countHits(words, automationKeywords)
	contentHits := countHits(words, contentKeywords)

	scores := intent.Scores
	scores[models.IntentChitchat] = c.weights.ChitchatBase
	scores[models.IntentAutomationRequest] = 0
	scores[models.IntentContentRequest] = 0
	scores[models.IntentConfirmation] = 0

	if len(emails) > 0 {
		scores[models.IntentAutomationRequest] += c.weights.EmailAddress
	}

	scores[models.IntentAutomationRequest] += float64(c.capped(automationHits)) * c.weights.AutomationKeyword

	if len(emails) > 0 && automationHits > 0 {
		scores[models.IntentAutomationRequest] += c.weights.SendToRecipient
	}

	scores[models.IntentContentRequest] += float64(c.capped(contentHits)) * c.weights.ContentKeyword

	if provider != "" {
		scores[models.IntentContentRequest] += c.weights.ProviderHint
		intent.RequiresAIService = true
	}

	if session.awaitingReply() {
		intent.Reply = DetectReply(intent.Message)
		if intent.Reply != models.ReplyNone {
			scores[models.IntentConfirmation] += c.weights.PendingReply
		}
	}

	intent.ContentRequested = contentHits > 0 || provider != ""
	intent.PrimaryIntent, intent.Confidence = pick(scores)

	if intent.PrimaryIntent == models.IntentContentRequest {
		intent.RequiresAIService = true
	}

	if intent.PrimaryIntent != models.IntentConfirmation {
		intent.Reply = models.ReplyNone
	}

	return intent
}

// Check returns an *AmbiguousError when a non-chitchat category won with a
// confidence below the configured minimum.
func (c *Classifier) Check(intent models.ExtractedIntent) error {
	if intent.PrimaryIntent == models.IntentChitchat {
		return nil
	}

	if intent.Confidence < c.weights.MinConfidence {
		return &AmbiguousError{Intent: intent.PrimaryIntent, Confidence: intent.Confidence}
	}

	return nil
}

func (c *Classifier) capped(hits int) int {
	if c.weights.MaxKeywordHits > 0 && hits > c.weights.MaxKeywordHits {
		return c.weights.MaxKeywordHits
	}

	return hits
}

// categories fixes the evaluation order so results are deterministic.
var categories = []models.IntentType{
	models.IntentChitchat,
	models.IntentConfirmation,
	models.IntentAutomationRequest,
	models.IntentContentRequest,
}

// pick returns the top category and its margin over the runner up. A tie for
// the top score resolves to chitchat.
func pick(scores map[models.IntentType]float64) (models.IntentType, float64) {
	top, runnerUp := 0.0, 0.0
	winner := models.IntentChitchat
	tied := false

	for _, category := range categories {
		score := scores[category]

		switch {
		case score > top:
			runnerUp = top
			top = score
			winner = category
			tied = false
		case score == top:
			runnerUp = score
			tied = true
		case score > runnerUp:
			runnerUp = score
		}
	}

	if top <= 0 {
		return models.IntentChitchat, 0
	}

	if tied {
		return models.IntentChitchat, 0
	}

	return winner, (top - runnerUp) / top
}

// DetectReply recognizes answers to a pending question. The whole message is
// searched for edits first, then for holds and negatives. A reply is
// affirmative only when it consists of nothing but affirmative phrases and
// polite filler.
func DetectReply(message string) models.ReplyKind {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.ReplaceAll(normalized, "’", "'")

	tokens := wordPattern.FindAllString(normalized, -1)
	if len(tokens) == 0 {
		return models.ReplyNone
	}

	switch {
	case editFieldPattern.MatchString(normalized) || containsAny(tokens, editReplies):
		return models.ReplyEdit
	case containsAny(tokens, holdReplies):
		return models.ReplyHold
	case containsAny(tokens, negativeReplies):
		return models.ReplyNegative
	case onlyAffirmative(tokens):
		return models.ReplyAffirmative
	default:
		return models.ReplyNone
	}
}

// containsAny reports whether one of phrases occurs as consecutive tokens.
func containsAny(tokens []string, phrases []string) bool {
	for _, phrase := range phrases {
		words := strings.Fields(phrase)

		for i := 0; i+len(words) <= len(tokens); i++ {
			if slices.Equal(tokens[i:i+len(words)], words) {
				return true
			}
		}
	}

	return false
}

// onlyAffirmative reports whether tokens are entirely covered by affirmative
// phrases and filler, with at least one affirmative.
func onlyAffirmative(tokens []string) bool {
	affirmed := false

	for i := 0; i < len(tokens); {
		if n := phraseAt(tokens, i, affirmativeReplies); n > 0 {
			affirmed = true
			i += n

			continue
		}

		if n := phraseAt(tokens, i, politeFiller); n > 0 {
			i += n

			continue
		}

		return false
	}

	return affirmed
}

// phraseAt returns the token length of the longest phrase starting at i.
func phraseAt(tokens []string, i int, phrases []string) int {
	longest := 0

	for _, phrase := range phrases {
		words := strings.Fields(phrase)
		if len(words) > longest && i+len(words) <= len(tokens) && slices.Equal(tokens[i:i+len(words)], words) {
			longest = len(words)
		}
	}

	return longest
}

func wordSet(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(text, -1) {
		words[strings.TrimRight(word, "'-")] = true
	}

	return words
}

func countHits(words map[string]bool, keywords []string) int {
	hits := 0

	for _, keyword := range keywords {
		if words[keyword] {
			hits++
		}
	}

	return hits
}
