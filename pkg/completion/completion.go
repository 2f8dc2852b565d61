// Package completion defines the boundary to the text completion service used
// for content generation and conversational replies.
package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

// Service generates text. Implementations translate provider failures into
// ErrServiceUnavailable or ErrRateLimited.
type Service interface {
	// Generate writes content for prompt following the style hints
	Generate(ctx context.Context, prompt string, hints models.StyleHints) (string, error)

	// Reply answers a conversational message given the recent history
	Reply(ctx context.Context, history []models.Message, message string) (string, error)
}

const systemPrompt = "You are an assistant that writes short, clear emails and answers questions about automations."

// SystemPrompt returns the system instruction used for every request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt turns a request and its style hints into the instruction sent
// to the model.
func BuildPrompt(prompt string, hints models.StyleHints) string {
	var b strings.Builder

	purpose := hints.Purpose
	if purpose == "" {
		purpose = "email"
	}

	fmt.Fprintf(&b, "Write the body of an %s", purpose)

	if hints.Tone != "" {
		fmt.Fprintf(&b, " in a %s tone", hints.Tone)
	}

	b.WriteString(".")

	if hints.Company != "" {
		fmt.Fprintf(&b, " The sender is %s.", hints.Company)
	}

	if hints.Product != "" {
		fmt.Fprintf(&b, " It is about the product %s.", hints.Product)
	}

	b.WriteString(" Reply with the body only, without a subject line.\n\nRequest: ")
	b.WriteString(strings.TrimSpace(prompt))

	return b.String()
}
