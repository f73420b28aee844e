package service

import (
	"errors"

	"evoblast-be/internal/apperror"
	"evoblast-be/pkg/assistant"
)

// classifyAssistantError maps a raw provider failure onto the retryable /
// non-retryable split used by the backoff call sites.
func classifyAssistantError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *assistant.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Transient() {
			return apperror.NewTransient(err)
		}
		return apperror.NewPermanent(err)
	}
	// Unknown shapes (context deadline, connection reset) are worth one more try.
	return apperror.NewTransient(err)
}
