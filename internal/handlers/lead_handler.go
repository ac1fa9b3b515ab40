package handlers

import (
	"context"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	sharedHTTP "github.com/Frankish0014/baho-coffee-sub000/internal/shared/http"
	"github.com/gofiber/fiber/v2"
)

type LeadAPI interface {
	SubmitContact(ctx context.Context, form domain.ContactForm) (*domain.LeadResult, error)
	SubmitQuotation(ctx context.Context, form domain.QuotationForm) (*domain.LeadResult, error)
}

type LeadHandler struct {
	leads LeadAPI
}

func NewLeadHandler(leads LeadAPI) *LeadHandler {
	return &LeadHandler{leads: leads}
}

func (h *LeadHandler) Contact(c *fiber.Ctx) error {
	var form domain.ContactForm

	if err := c.BodyParser(&form); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	if err := validateRequest(form); err != nil {
		return respondError(c, err)
	}

	result, err := h.leads.SubmitContact(c.UserContext(), form)
	if err != nil {
		return respondError(c, err)
	}

	return leadResponse(c, "Message received", result)
}

func (h *LeadHandler) Quotation(c *fiber.Ctx) error {
	var form domain.QuotationForm

	if err := c.BodyParser(&form); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	if err := validateRequest(form); err != nil {
		return respondError(c, err)
	}

	result, err := h.leads.SubmitQuotation(c.UserContext(), form)
	if err != nil {
		return respondError(c, err)
	}

	return leadResponse(c, "Quotation request received", result)
}

// leadResponse answers 201 only when the submission was stored.
func leadResponse(c *fiber.Ctx, message string, result *domain.LeadResult) error {
	if result.Saved {
		return sharedHTTP.CreatedResponse(c, message, result)
	}
	return sharedHTTP.SuccessResponse(c, message+" (not stored, forwarded by email)", result)
}
