package handlers

import (
	"errors"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	sharedHTTP "github.com/Frankish0014/baho-coffee-sub000/internal/shared/http"
	"github.com/gofiber/fiber/v2"
)

// respondError converts a service error into the JSON envelope.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return sharedHTTP.ValidationErrorResponse(c, validationErr.Message, map[string]interface{}{
			"field": validationErr.Field,
		})

	case errors.Is(err, domain.ErrInvalidSignature):
		return sharedHTTP.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed", nil)

	case errors.Is(err, domain.ErrPaymentNotFound):
		return sharedHTTP.NotFoundResponse(c, "Order not found")

	case domain.IsConfigurationError(err):
		log.Printf("CONFIGURATION ERROR: %s %s: %v", c.Method(), c.Path(), err)
		return sharedHTTP.ConfigurationErrorResponse(c, configurationMessage(err), nil)

	case errors.Is(err, domain.ErrGatewayFailure):
		log.Printf("Upstream error: %s %s: %v", c.Method(), c.Path(), err)
		return sharedHTTP.BadGatewayResponse(c, "The payment processor rejected the request. No payment was taken.", nil)

	default:
		log.Printf("Error: %s %s: %v", c.Method(), c.Path(), err)
		return sharedHTTP.InternalServerErrorResponse(c, "Internal server error", nil)
	}
}

func configurationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrStoreNotConfigured):
		return "Order storage is not configured (DATABASE_URL)"
	case errors.Is(err, domain.ErrGatewayNotConfigured):
		return "Card payments are not configured (STRIPE_SECRET_KEY)"
	case errors.Is(err, domain.ErrWebhookNotConfigured):
		return "Webhook signing secret is not configured (STRIPE_WEBHOOK_SECRET)"
	case errors.Is(err, domain.ErrEmailNotConfigured):
		return "Email delivery is not configured (SENDGRID_API_KEY)"
	default:
		return "Service is not configured"
	}
}
