package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/gateway"
	"github.com/Frankish0014/baho-coffee-sub000/internal/notification"
)

type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (*gateway.WebhookEvent, error)
}

// WebhookOutcome describes what a delivery did, for logging and tests.
type WebhookOutcome struct {
	EventType   string               `json:"eventType"`
	OrderID     string               `json:"orderId,omitempty"`
	Status      domain.PaymentStatus `json:"status,omitempty"`
	Ignored     bool                 `json:"ignored"`
	EmailQueued bool                 `json:"emailQueued"`
}

type WebhookService struct {
	verifier EventVerifier
	store    PaymentStore
	emails   *orderEmails
}

func NewWebhookService(verifier EventVerifier, store PaymentStore, notifier Notifier, templates *notification.Templates) *WebhookService {
	return &WebhookService{
		verifier: verifier,
		store:    store,
		emails:   &orderEmails{notifier: notifier, templates: templates},
	}
}

// HandleWebhook verifies the payload and applies the event. A returned error
// means the processor should retry; unknown orders and event types are
// acknowledged.
func (s *WebhookService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookOutcome, error) {
	event, err := s.verifier.Verify(payload, signatureHeader)
	if err != nil {
		return nil, err
	}

	outcome := &WebhookOutcome{EventType: event.Type, OrderID: event.OrderID}

	var status domain.PaymentStatus
	switch event.Type {
	case gateway.EventPaymentIntentSucceeded:
		status = domain.PaymentStatusSucceeded
	case gateway.EventPaymentIntentFailed:
		status = domain.PaymentStatusFailed
	default:
		log.Printf("Webhook event ignored: EventID=%s Type=%s", event.ID, event.Type)
		outcome.Ignored = true
		return outcome, nil
	}

	if event.OrderID == "" {
		log.Printf("Webhook event without %s metadata: EventID=%s IntentID=%s",
			domain.MetadataOrderID, event.ID, event.IntentID)
		outcome.Ignored = true
		return outcome, nil
	}

	var ref *string
	if event.IntentID != "" {
		ref = &event.IntentID
	}

	transition, err := s.store.UpdatePaymentStatus(ctx, event.OrderID, status, ref)
	if err != nil {
		if isNotFound(err) {
			log.Printf("Webhook for unknown order: OrderID=%s EventID=%s", event.OrderID, event.ID)
			outcome.Ignored = true
			return outcome, nil
		}
		return nil, fmt.Errorf("failed to update order %s: %w", event.OrderID, err)
	}

	outcome.Status = status
	log.Printf("Payment status updated: OrderID=%s %s -> %s", event.OrderID, transition.Previous, transition.Current)

	if status == domain.PaymentStatusFailed {
		if event.FailureMessage != "" {
			log.Printf("Payment failed: OrderID=%s Reason=%q", event.OrderID, event.FailureMessage)
		}
		return outcome, nil
	}

	if !transition.Entered(domain.PaymentStatusSucceeded) {
		log.Printf("Duplicate success event, emails already queued: OrderID=%s EventID=%s", event.OrderID, event.ID)
		return outcome, nil
	}

	outcome.EmailQueued = s.notifyPaid(ctx, event.OrderID)
	return outcome, nil
}

func (s *WebhookService) notifyPaid(ctx context.Context, orderID string) bool {
	return notifyPaid(ctx, s.store, s.emails, orderID)
}

// notifyPaid re-reads the record so the emails carry the stored order data.
func notifyPaid(ctx context.Context, store PaymentStore, emails *orderEmails, orderID string) bool {
	payment, err := store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		log.Printf("Paid order lookup error, emails skipped: OrderID=%s: %v", orderID, err)
		return false
	}
	return emails.paid(ctx, payment)
}
