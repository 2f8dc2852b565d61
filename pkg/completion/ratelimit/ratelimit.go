// Package ratelimit bounds how often the completion service is called.
package ratelimit

import (
	"context"
	"time"

	"github.com/dukex/autoflow/pkg/completion"
	"github.com/dukex/autoflow/pkg/models"
	"golang.org/x/time/rate"
)

type Config struct {
	MaxRequests int           `yaml:"max_requests" validate:"min=1"`
	Window      time.Duration `yaml:"window"       validate:"gt=0"`
	BurstSize   int           `yaml:"burst_size"   validate:"min=0"`
	// MaxWait is how long a caller may queue for a token before ErrRateLimited
	MaxWait time.Duration `yaml:"max_wait" validate:"min=0"`
}

// Service decorates a completion.Service with a client-side token bucket.
type Service struct {
	next    completion.Service
	limiter *rate.Limiter
	maxWait time.Duration
}

func New(next completion.Service, config Config) *Service {
	// Default burst size to MaxRequests if not set
	if config.BurstSize == 0 {
		config.BurstSize = config.MaxRequests
	}

	// Calculate rate as requests per second
	ratePerSecond := float64(config.MaxRequests) / config.Window.Seconds()

	return &Service{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), config.BurstSize),
		maxWait: config.MaxWait,
	}
}

func (s *Service) Generate(ctx context.Context, prompt string, hints models.StyleHints) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	return s.next.Generate(ctx, prompt, hints)
}

func (s *Service) Reply(ctx context.Context, history []models.Message, message string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	return s.next.Reply(ctx, history, message)
}

func (s *Service) wait(ctx context.Context) error {
	if s.maxWait <= 0 {
		if !s.limiter.Allow() {
			return &completion.ServiceError{Provider: "ratelimit", Kind: completion.ErrRateLimited}
		}

		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.maxWait)
	defer cancel()

	if err := s.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return &completion.ServiceError{Provider: "ratelimit", Kind: completion.ErrRateLimited, Cause: err}
	}

	return nil
}
