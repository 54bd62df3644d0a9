package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paisatrail/paisatrail/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidFeedback = errors.New("invalid feedback entry")
	ErrInvalidEvent    = errors.New("invalid event")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateFeedback validates a feedback entry before persisting it.
func validateFeedback(entry *model.FeedbackEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if strings.TrimSpace(entry.MerchantKey) == "" {
		return fmt.Errorf("%w: empty merchant key", ErrInvalidFeedback)
	}
	if !model.ValidCategory(entry.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidFeedback, entry.Category)
	}
	if entry.CorrectionCount < 0 {
		return fmt.Errorf("%w: negative correction count", ErrInvalidFeedback)
	}
	return nil
}

// validateIngestEvent validates the fields the schema depends on.
func validateIngestEvent(event *model.IngestEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if strings.TrimSpace(event.EventID) == "" {
		return fmt.Errorf("%w: empty event id", ErrInvalidEvent)
	}
	return nil
}
