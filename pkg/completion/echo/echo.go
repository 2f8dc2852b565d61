// Package echo provides an offline completion service that composes replies
// from the request itself. It is used when no model is configured.
package echo

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

type Service struct{}

func New() *Service {
	return &Service{}
}

func (s *Service) Generate(ctx context.Context, prompt string, hints models.StyleHints) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("Hi,\n\n")

	switch {
	case hints.Product != "" && hints.Company != "":
		fmt.Fprintf(&b, "I'm reaching out from %s to introduce %s.\n\n", hints.Company, hints.Product)
	case hints.Product != "":
		fmt.Fprintf(&b, "I'd like to introduce %s.\n\n", hints.Product)
	case hints.Company != "":
		fmt.Fprintf(&b, "I'm reaching out from %s.\n\n", hints.Company)
	}

	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nBest regards")

	if hints.Company != "" {
		b.WriteString(",\n" + hints.Company)
	}

	return b.String(), nil
}

func (s *Service) Reply(ctx context.Context, _ []models.Message, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if strings.TrimSpace(message) == "" {
		return "How can I help? Ask me to send an email, for example \"send an email to ana@example.com\".", nil
	}

	return "I can automate emails and webhooks for you. Tell me who to send to and what to say.", nil
}
