package apperror

import (
	"errors"
	"fmt"
)

// ValidationError signals bad input (file limits, unsupported extension, malformed body).
// It is surfaced to the caller as-is and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals a missing record or an ownership mismatch. Both cases are
// reported identically so callers cannot probe for other users' resources.
type NotFoundError struct {
	Resource string
	Id       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Id)
}

func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, Id: id}
}

// TransientExternalError wraps a retryable failure from the external assistant service
// (timeout, rate limit, temporary unavailability).
type TransientExternalError struct {
	Cause error
}

func (e *TransientExternalError) Error() string {
	return fmt.Sprintf("transient external error: %v", e.Cause)
}

func (e *TransientExternalError) Unwrap() error {
	return e.Cause
}

func NewTransient(cause error) error {
	return &TransientExternalError{Cause: cause}
}

// PermanentExternalError wraps a failure that retrying cannot fix, e.g. the index
// file-count ceiling.
type PermanentExternalError struct {
	Cause error
}

func (e *PermanentExternalError) Error() string {
	return fmt.Sprintf("permanent external error: %v", e.Cause)
}

func (e *PermanentExternalError) Unwrap() error {
	return e.Cause
}

func NewPermanent(cause error) error {
	return &PermanentExternalError{Cause: cause}
}

// GenerationError is the only core failure that reaches the chat caller: the assistant
// could not produce a reply for an already-persisted user message.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate reply: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func NewGeneration(cause error) error {
	return &GenerationError{Cause: cause}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target *TransientExternalError
	return errors.As(err, &target)
}

func IsGeneration(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}
