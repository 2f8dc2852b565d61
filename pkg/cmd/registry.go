// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukex/autoflow/pkg/completion"
	"github.com/dukex/autoflow/pkg/completion/echo"
	"github.com/dukex/autoflow/pkg/completion/langchain"
	"github.com/dukex/autoflow/pkg/completion/ratelimit"
	"github.com/dukex/autoflow/pkg/config"
	"github.com/dukex/autoflow/pkg/dispatcher"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/dukex/autoflow/pkg/transport"
)

// NewEmailSender returns an SMTP sender, or a sender that only logs when no
// relay is configured.
func NewEmailSender(smtp *transport.SMTPConfig, logger *slog.Logger) transport.EmailSender {
	if smtp == nil || smtp.Host == "" {
		logger.Warn("No SMTP relay configured, emails will only be logged")

		return transport.NewLogSender(logger)
	}

	return transport.NewSMTPSender(*smtp, logger)
}

// NewCompletion builds the configured completion service behind the rate limiter.
func NewCompletion(cfg config.CompletionConfig) (completion.Service, error) {
	var service completion.Service

	switch cfg.Provider {
	case config.CompletionOpenAI:
		openai, err := langchain.NewOpenAI(cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("failed to create completion service: %w", err)
		}

		service = openai
	case "", config.CompletionEcho:
		service = echo.New()
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}

	if cfg.RateLimit != nil {
		service = ratelimit.New(service, *cfg.RateLimit)
	}

	return service, nil
}

// NewDrivers registers the built-in drivers.
func NewDrivers(sender transport.EmailSender, cfg dispatcher.Config) (*registry.Drivers, error) {
	return registry.DefaultDrivers(registry.DriverDeps{
		EmailSender:      sender,
		HTTPClient:       &http.Client{Timeout: cfg.AttemptTimeout},
		MaxTimerDuration: cfg.MaxTimerDuration,
	})
}
