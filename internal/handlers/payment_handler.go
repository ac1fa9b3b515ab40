package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/service"
	sharedHTTP "github.com/Frankish0014/baho-coffee-sub000/internal/shared/http"
	"github.com/gofiber/fiber/v2"
)

type CheckoutAPI interface {
	CreateIntent(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error)
	CreateBankTransfer(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error)
	Confirm(ctx context.Context, orderID string) (*domain.ConfirmationResult, error)
	GetPayment(ctx context.Context, orderID string) (*domain.PaymentRecord, error)
}

type WebhookAPI interface {
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*service.WebhookOutcome, error)
}

const signatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	checkout CheckoutAPI
	webhooks WebhookAPI
}

func NewPaymentHandler(checkout CheckoutAPI, webhooks WebhookAPI) *PaymentHandler {
	return &PaymentHandler{
		checkout: checkout,
		webhooks: webhooks,
	}
}

func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	var request domain.CheckoutRequest

	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	if err := validateRequest(request); err != nil {
		return respondError(c, err)
	}

	result, err := h.checkout.CreateIntent(c.UserContext(), request)
	if err != nil {
		return respondError(c, err)
	}

	if result.PaymentMethod == domain.PaymentMethodBank {
		return sharedHTTP.CreatedResponse(c, "Bank transfer order created", result)
	}
	return sharedHTTP.CreatedResponse(c, "Payment intent created", result)
}

func (h *PaymentHandler) CreateBankTransfer(c *fiber.Ctx) error {
	var request domain.CheckoutRequest

	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	if request.PaymentMethod == "" {
		request.PaymentMethod = domain.PaymentMethodBank
	}

	if err := validateRequest(request); err != nil {
		return respondError(c, err)
	}

	result, err := h.checkout.CreateBankTransfer(c.UserContext(), request)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.CreatedResponse(c, "Bank transfer order created", result)
}

func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	var request ConfirmPaymentRequest

	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	request.OrderID = strings.TrimSpace(request.OrderID)
	if err := validateRequest(request); err != nil {
		return respondError(c, err)
	}

	result, err := h.checkout.Confirm(c.UserContext(), request.OrderID)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Payment status retrieved", result)
}

// Webhook needs the raw body; the signature covers the exact bytes sent.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)

	outcome, err := h.webhooks.HandleWebhook(c.UserContext(), payload, c.Get(signatureHeader))
	if err != nil {
		if !domain.IsConfigurationError(err) {
			log.Printf("Webhook rejected: IP=%s: %v", c.IP(), err)
		}
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Webhook received", WebhookResponse{
		Received: true,
		Type:     outcome.EventType,
		Ignored:  outcome.Ignored,
	})
}

func (h *PaymentHandler) GetPaymentByOrderID(c *fiber.Ctx) error {
	orderID := strings.TrimSpace(c.Params("order_id"))
	if orderID == "" {
		return sharedHTTP.BadRequestResponse(c, "Invalid order ID", nil)
	}

	payment, err := h.checkout.GetPayment(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Payment retrieved successfully", mapPayment(payment))
}
