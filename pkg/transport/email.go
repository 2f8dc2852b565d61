// Package transport provides outbound delivery for email_send nodes.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrTemporary marks a delivery failure that may succeed when retried.
var ErrTemporary = errors.New("temporary delivery failure")

// Email is a single outbound message.
type Email struct {
	From    string   `json:"from,omitempty"`
	To      []string `json:"to"                validate:"required,min=1,dive,email"`
	Cc      []string `json:"cc,omitempty"       validate:"omitempty,dive,email"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Recipients returns To followed by Cc.
func (e Email) Recipients() []string {
	return append(append([]string{}, e.To...), e.Cc...)
}

// EmailSender delivers emails. Implementations wrap ErrTemporary for failures
// worth retrying.
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// Temporary wraps err so that IsTemporary reports true.
func Temporary(err error) error {
	return fmt.Errorf("%w: %w", ErrTemporary, err)
}

// IsTemporary checks if an error is a retryable delivery failure.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTemporary)
}

// LogSender writes emails to the logger instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("sender", "log")}
}

func (s *LogSender) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return Temporary(err)
	}

	s.logger.InfoContext(ctx, "Email delivered to log",
		"to", strings.Join(email.To, ","),
		"cc", strings.Join(email.Cc, ","),
		"subject", email.Subject,
		"body_length", len(email.Body),
	)

	return nil
}
