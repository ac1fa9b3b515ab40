package service

import (
	"context"
	"log"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/gateway"
	"github.com/Frankish0014/baho-coffee-sub000/internal/notification"
)

type ReconciliationStore interface {
	PaymentStore
	ListStalePending(ctx context.Context, method domain.PaymentMethod, before time.Time, after domain.PageCursor, limit int) ([]*domain.PaymentRecord, error)
}

type ReconcileReport struct {
	Checked   int `json:"checked"`
	Succeeded int `json:"succeeded"`
	Canceled  int `json:"canceled"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

// ReconciliationService settles card orders the webhook never resolved. Orders
// without a processor reference were orphaned by a failed intent call and
// are canceled. Intents still awaiting the customer past abandonAfter are
// canceled at the processor and locally.
type ReconciliationService struct {
	store        ReconciliationStore
	gateway      gateway.PaymentGateway
	emails       *orderEmails
	olderThan    time.Duration
	abandonAfter time.Duration
	batchSize    int
}

func NewReconciliationService(
	store ReconciliationStore,
	paymentGateway gateway.PaymentGateway,
	notifier Notifier,
	templates *notification.Templates,
	olderThan time.Duration,
	abandonAfter time.Duration,
) *ReconciliationService {
	return &ReconciliationService{
		store:        store,
		gateway:      paymentGateway,
		emails:       &orderEmails{notifier: notifier, templates: templates},
		olderThan:    olderThan,
		abandonAfter: abandonAfter,
		batchSize:    100,
	}
}

// Run walks every stale open card order page by page, so rows left pending
// by the processor never hide the ones behind them.
func (s *ReconciliationService) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	now := time.Now().UTC()
	cutoff := now.Add(-s.olderThan)

	var cursor domain.PageCursor
	for {
		payments, err := s.store.ListStalePending(ctx, domain.PaymentMethodCard, cutoff, cursor, s.batchSize)
		if err != nil {
			return report, err
		}

		for _, payment := range payments {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Checked++
			s.reconcile(ctx, payment, now, report)
		}

		if len(payments) < s.batchSize {
			break
		}
		cursor = domain.CursorAfter(payments[len(payments)-1])
	}

	log.Printf("Reconciliation done: Checked=%d Succeeded=%d Canceled=%d Updated=%d Errors=%d",
		report.Checked, report.Succeeded, report.Canceled, report.Updated, report.Errors)
	return report, nil
}

func (s *ReconciliationService) reconcile(ctx context.Context, payment *domain.PaymentRecord, now time.Time, report *ReconcileReport) {
	if payment.StripePaymentIntentID == "" {
		if _, err := s.store.UpdatePaymentStatus(ctx, payment.OrderID, domain.PaymentStatusCanceled, nil); err != nil {
			log.Printf("Reconcile cancel error: OrderID=%s: %v", payment.OrderID, err)
			report.Errors++
			return
		}
		log.Printf("Orphaned order canceled: OrderID=%s", payment.OrderID)
		report.Canceled++
		return
	}

	if !s.gateway.Configured() {
		report.Errors++
		return
	}

	remote, err := s.gateway.GetPaymentStatus(ctx, payment.StripePaymentIntentID)
	if err != nil {
		log.Printf("Reconcile status error: OrderID=%s IntentID=%s: %v", payment.OrderID, payment.StripePaymentIntentID, err)
		report.Errors++
		return
	}

	if remote.Status == domain.PaymentStatusPending {
		if s.abandoned(payment, now) {
			s.cancelAbandoned(ctx, payment, report)
		}
		return
	}
	if remote.Status == payment.PaymentStatus {
		return
	}

	ref := payment.StripePaymentIntentID
	transition, err := s.store.UpdatePaymentStatus(ctx, payment.OrderID, remote.Status, &ref)
	if err != nil {
		log.Printf("Reconcile update error: OrderID=%s: %v", payment.OrderID, err)
		report.Errors++
		return
	}

	log.Printf("Order reconciled: OrderID=%s %s -> %s", payment.OrderID, transition.Previous, transition.Current)

	switch remote.Status {
	case domain.PaymentStatusSucceeded:
		report.Succeeded++
		if transition.Entered(domain.PaymentStatusSucceeded) {
			notifyPaid(ctx, s.store, s.emails, payment.OrderID)
		}
	case domain.PaymentStatusCanceled:
		report.Canceled++
	default:
		report.Updated++
	}
}

func (s *ReconciliationService) abandoned(payment *domain.PaymentRecord, now time.Time) bool {
	return s.abandonAfter > 0 && payment.CreatedAt.Before(now.Add(-s.abandonAfter))
}

// cancelAbandoned cancels the intent first; a customer who pays in the
// meantime makes the processor refuse and the next sweep records the payment.
func (s *ReconciliationService) cancelAbandoned(ctx context.Context, payment *domain.PaymentRecord, report *ReconcileReport) {
	if err := s.gateway.CancelPaymentIntent(ctx, payment.StripePaymentIntentID); err != nil {
		log.Printf("Abandoned intent cancel error: OrderID=%s IntentID=%s: %v", payment.OrderID, payment.StripePaymentIntentID, err)
		report.Errors++
		return
	}

	ref := payment.StripePaymentIntentID
	if _, err := s.store.UpdatePaymentStatus(ctx, payment.OrderID, domain.PaymentStatusCanceled, &ref); err != nil {
		log.Printf("Reconcile cancel error: OrderID=%s: %v", payment.OrderID, err)
		report.Errors++
		return
	}

	log.Printf("Abandoned order canceled: OrderID=%s IntentID=%s", payment.OrderID, ref)
	report.Canceled++
}

// RunEvery runs a sweep on every tick until ctx is done.
func (s *ReconciliationService) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Reconciliation scheduled: Interval=%s OlderThan=%s AbandonAfter=%s", interval, s.olderThan, s.abandonAfter)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				log.Printf("Reconciliation error: %v", err)
			}
		}
	}
}
