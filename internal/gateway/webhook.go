package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
)

// WebhookEvent is the verified subset of a processor event the backend acts on.
type WebhookEvent struct {
	ID             string
	Type           string
	IntentID       string
	OrderID        string
	FailureMessage string
}

func (e *WebhookEvent) IsPaymentIntentEvent() bool {
	return strings.HasPrefix(e.Type, "payment_intent.")
}

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Configured() bool {
	return v.secret != ""
}

// Verify checks the signature header against the raw body before anything in
// the payload is trusted.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	if !v.Configured() {
		return nil, domain.ErrWebhookNotConfigured
	}

	if signatureHeader == "" {
		log.Println("Webhook rejected: missing Stripe-Signature header")
		return nil, fmt.Errorf("%w: missing signature header", domain.ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Printf("Webhook rejected: signature verification failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	result := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if !result.IsPaymentIntentEvent() || event.Data == nil {
		return result, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("payment intent decode error: %w", err)
	}

	result.IntentID = pi.ID
	result.OrderID = pi.Metadata[domain.MetadataOrderID]
	if pi.LastPaymentError != nil {
		result.FailureMessage = pi.LastPaymentError.Msg
	}

	return result, nil
}
