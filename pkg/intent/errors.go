package intent

import (
	"errors"
	"fmt"

	"github.com/dukex/autoflow/pkg/models"
)

var (
	// ErrClassificationAmbiguous indicates no category won by a clear margin.
	ErrClassificationAmbiguous = errors.New("classification is ambiguous")

	// ErrExtractionIncomplete indicates a cue was present but could not be normalized.
	ErrExtractionIncomplete = errors.New("extraction incomplete")
)

// AmbiguousError carries the scores that produced an ambiguous classification.
type AmbiguousError struct {
	Intent     models.IntentType
	Confidence float64
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%v: best guess %s with confidence %.2f", ErrClassificationAmbiguous, e.Intent, e.Confidence)
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrClassificationAmbiguous
}

// ExtractionIncompleteError names the entity that could not be extracted.
type ExtractionIncompleteError struct {
	Field string
	Cue   string
}

func (e *ExtractionIncompleteError) Error() string {
	if e.Cue != "" {
		return fmt.Sprintf("%v: could not understand %s %q", ErrExtractionIncomplete, e.Field, e.Cue)
	}

	return fmt.Sprintf("%v: %s", ErrExtractionIncomplete, e.Field)
}

func (e *ExtractionIncompleteError) Is(target error) bool {
	return target == ErrExtractionIncomplete
}

// IsAmbiguous checks if an error is an ambiguous classification.
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrClassificationAmbiguous)
}
