package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/gateway"
	"github.com/Frankish0014/baho-coffee-sub000/internal/notification"
)

type PaymentStore interface {
	SavePayment(ctx context.Context, payment *domain.PaymentRecord) error
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, processorRef *string) (domain.StatusTransition, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error)
}

type CheckoutService struct {
	store    PaymentStore
	gateway  gateway.PaymentGateway
	emails   *orderEmails
	bank     domain.BankInstructions
	currency string
}

func NewCheckoutService(
	store PaymentStore,
	paymentGateway gateway.PaymentGateway,
	notifier Notifier,
	templates *notification.Templates,
	bank domain.BankInstructions,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		store:    store,
		gateway:  paymentGateway,
		emails:   &orderEmails{notifier: notifier, templates: templates},
		bank:     bank,
		currency: strings.ToLower(currency),
	}
}

// CreateIntent registers a pending order and, for card payments, opens a
// PaymentIntent for it. The record is always written before the processor is
// called.
func (s *CheckoutService) CreateIntent(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.PaymentMethod == domain.PaymentMethodBank {
		return s.createBankOrder(ctx, req)
	}

	if !s.gateway.Configured() {
		log.Println("Card checkout rejected: payment processor is not configured")
		return nil, domain.ErrGatewayNotConfigured
	}

	payment := domain.NewPaymentRecord(req, s.currency)

	if err := s.store.SavePayment(ctx, payment); err != nil {
		log.Printf("Pending payment save error: OrderID=%s: %v", payment.OrderID, err)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	log.Printf("Pending payment created: OrderID=%s PaymentID=%s Amount=%.2f %s",
		payment.OrderID, payment.ID, payment.Amount, payment.Currency)

	intent, err := s.gateway.CreatePaymentIntent(ctx, gateway.IntentRequest{
		OrderID:      payment.OrderID,
		PaymentID:    payment.ID,
		AmountMinor:  payment.AmountMinorUnits(),
		Currency:     payment.Currency,
		ReceiptEmail: payment.Customer.Email,
		Description:  fmt.Sprintf("Order %s", payment.OrderID),
	})
	if err != nil {
		s.compensate(ctx, payment.OrderID, err)
		return nil, fmt.Errorf("failed to create payment intent for order %s: %w", payment.OrderID, err)
	}

	payment.AttachProcessorReference(intent.IntentID)
	if err := s.store.SavePayment(ctx, payment); err != nil {
		// The intent carries the order id, so the webhook still correlates.
		log.Printf("Processor reference save error (ignored): OrderID=%s IntentID=%s: %v",
			payment.OrderID, intent.IntentID, err)
	}

	return &domain.CheckoutResult{
		OrderID:       payment.OrderID,
		PaymentID:     payment.ID,
		PaymentMethod: payment.PaymentMethod,
		PaymentStatus: payment.PaymentStatus,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		ClientSecret:  intent.ClientSecret,
	}, nil
}

// CreateBankTransfer registers a pending bank-transfer order and queues the
// transfer instructions. No processor call is made.
func (s *CheckoutService) CreateBankTransfer(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodBank
	}
	if req.PaymentMethod != domain.PaymentMethodBank {
		return nil, domain.NewValidationError("paymentMethod", "bank transfer orders must use paymentMethod bank")
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.createBankOrder(ctx, req)
}

func (s *CheckoutService) createBankOrder(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	payment := domain.NewPaymentRecord(req, s.currency)
	instructions := s.bank.ForOrder(payment.OrderID, payment.Amount, payment.Currency)

	payment.SetMetadata("paymentType", domain.PaymentTypeBankTransfer)
	payment.SetMetadata("bankInstructions", instructions.AsMetadata())
	payment.SetMetadata("reference", payment.OrderID)

	if err := s.store.SavePayment(ctx, payment); err != nil {
		log.Printf("Bank transfer order save error: OrderID=%s: %v", payment.OrderID, err)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	log.Printf("Bank transfer order created: OrderID=%s Amount=%.2f %s",
		payment.OrderID, payment.Amount, payment.Currency)

	emailQueued := s.emails.bankOrder(ctx, payment, instructions)

	return &domain.CheckoutResult{
		OrderID:          payment.OrderID,
		PaymentID:        payment.ID,
		PaymentMethod:    payment.PaymentMethod,
		PaymentStatus:    payment.PaymentStatus,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		BankInstructions: &instructions,
		EmailQueued:      emailQueued,
	}, nil
}

// Confirm reports the current status of an order and re-queues the customer
// confirmation when it has been paid. It never changes the status.
func (s *CheckoutService) Confirm(ctx context.Context, orderID string) (*domain.ConfirmationResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.NewValidationError("orderId", "orderId is required")
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &domain.ConfirmationResult{
		OrderID:       payment.OrderID,
		PaymentStatus: payment.PaymentStatus,
	}

	if payment.PaymentStatus == domain.PaymentStatusSucceeded {
		result.EmailQueued = s.emails.confirmation(ctx, payment)
	}

	return result, nil
}

func (s *CheckoutService) GetPayment(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	return s.store.GetPaymentByOrderID(ctx, strings.TrimSpace(orderID))
}

// compensate voids the pending record left behind by a failed processor
// call. Failures here are logged; reconciliation picks up what is left.
func (s *CheckoutService) compensate(ctx context.Context, orderID string, cause error) {
	log.Printf("Payment intent create error, canceling order: OrderID=%s: %v", orderID, cause)

	if _, err := s.store.UpdatePaymentStatus(ctx, orderID, domain.PaymentStatusCanceled, nil); err != nil {
		log.Printf("Compensation error: OrderID=%s: %v", orderID, err)
	}
}

// orderEmails renders and queues the order related emails.
type orderEmails struct {
	notifier  Notifier
	templates *notification.Templates
}

func (e *orderEmails) confirmation(ctx context.Context, p *domain.PaymentRecord) bool {
	return queueEmail(ctx, e.notifier, domain.NotificationOrderConfirmation, p.OrderID, e.templates.OrderConfirmation(p))
}

// paid queues the customer confirmation and the admin alert for a settled
// card order. It reports whether the customer email was accepted.
func (e *orderEmails) paid(ctx context.Context, p *domain.PaymentRecord) bool {
	queued := e.confirmation(ctx, p)
	e.admin(ctx, domain.NotificationAdminNewOrder, p.OrderID, func() domain.EmailMessage {
		return e.templates.AdminNewOrder(p)
	})
	return queued
}

func (e *orderEmails) bankOrder(ctx context.Context, p *domain.PaymentRecord, in domain.BankInstructions) bool {
	queued := queueEmail(ctx, e.notifier, domain.NotificationBankInstructions, p.OrderID, e.templates.BankInstructions(p, in))
	e.admin(ctx, domain.NotificationAdminBankOrder, p.OrderID, func() domain.EmailMessage {
		return e.templates.AdminBankOrder(p, in)
	})
	return queued
}

func (e *orderEmails) admin(ctx context.Context, kind domain.NotificationKind, referenceID string, render func() domain.EmailMessage) bool {
	if e.templates.AdminEmail() == "" {
		log.Printf("ADMIN_EMAIL not set, skipping %s for %s", kind, referenceID)
		return false
	}
	return queueEmail(ctx, e.notifier, kind, referenceID, render())
}

// isNotFound treats "no database" and "no record" alike on reads.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrPaymentNotFound)
}
