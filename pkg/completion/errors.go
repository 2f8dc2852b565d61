package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrServiceUnavailable indicates the completion service could not answer.
	ErrServiceUnavailable = errors.New("completion service unavailable")

	// ErrRateLimited indicates the request was refused by a rate limit.
	ErrRateLimited = errors.New("completion service rate limited")
)

// ServiceError names the provider that failed.
type ServiceError struct {
	Provider string
	Kind     error // ErrServiceUnavailable or ErrRateLimited
	Cause    error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Cause)
	}

	return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
}

func (e *ServiceError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// TranslateError classifies a provider error by its message. Errors that are
// already classified are returned unchanged.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimited) {
		return err
	}

	lowerMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests") || strings.Contains(lowerMsg, "429"):
		return &ServiceError{Provider: provider, Kind: ErrRateLimited, Cause: err}
	case errors.Is(err, context.Canceled):
		return err
	default:
		// timeouts, network failures, auth and server errors all mean no answer
		return &ServiceError{Provider: provider, Kind: ErrServiceUnavailable, Cause: err}
	}
}

// IsTryAgain reports whether the user should simply retry later.
func IsTryAgain(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimited)
}
