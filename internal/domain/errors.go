package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStoreNotConfigured   = errors.New("database is not configured")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrGatewayNotConfigured = errors.New("payment processor is not configured")
	ErrGatewayFailure       = errors.New("payment processor error")
	ErrWebhookNotConfigured = errors.New("webhook signing secret is not configured")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrEmailNotConfigured   = errors.New("email provider is not configured")
)

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// IsConfigurationError groups the errors caused by missing credentials.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrStoreNotConfigured) ||
		errors.Is(err, ErrGatewayNotConfigured) ||
		errors.Is(err, ErrWebhookNotConfigured) ||
		errors.Is(err, ErrEmailNotConfigured)
}
