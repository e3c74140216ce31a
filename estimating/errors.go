package estimating

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrConcurrencyConflict  = errors.New("estimate is locked by another operation")
	ErrDuplicationFailed    = errors.New("duplication failed")
	ErrPriceSyncUnavailable = errors.New("no price update available")
)

// ValidationError reports rejected input. Fields maps input names to
// their messages; Message is set for errors that are not field-specific.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %v", ErrValidation, e.Fields)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func invalidField(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NotFoundError names the missing entity. It is also returned when the
// entity exists but belongs to another parent.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// duplicationError wraps whatever broke a duplication so callers see one
// aggregate error while the cause stays inspectable.
type duplicationError struct {
	sourceID string
	cause    error
}

func (e *duplicationError) Error() string {
	return fmt.Sprintf("duplicate estimate %s: %v", e.sourceID, e.cause)
}

func (e *duplicationError) Is(target error) bool {
	return target == ErrDuplicationFailed
}

func (e *duplicationError) Unwrap() error {
	return e.cause
}
