package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPayment(store *memoryStore, orderID, ref string, method domain.PaymentMethod, status domain.PaymentStatus, age time.Duration) {
	created := time.Now().UTC().Add(-age)
	store.payments[orderID] = &domain.PaymentRecord{
		ID:                    "pay_" + orderID,
		OrderID:               orderID,
		Customer:              domain.Customer{Name: "Ada", Email: "ada@example.com"},
		PaymentMethod:         method,
		PaymentStatus:         status,
		StripePaymentIntentID: ref,
		Amount:                25,
		Currency:              "usd",
		CreatedAt:             created,
		UpdatedAt:             created,
	}
}

func TestReconciliationRun(t *testing.T) {
	store := newMemoryStore()
	gw := newStubGateway(store)
	notifier := &recordingNotifier{}

	seedPayment(store, "ORPHAN", "", domain.PaymentMethodCard, domain.PaymentStatusPending, 2*time.Hour)
	seedPayment(store, "PAID", "pi_paid", domain.PaymentMethodCard, domain.PaymentStatusPending, 2*time.Hour)
	seedPayment(store, "WAITING", "pi_waiting", domain.PaymentMethodCard, domain.PaymentStatusPending, 2*time.Hour)
	seedPayment(store, "ABANDONED", "pi_abandoned", domain.PaymentMethodCard, domain.PaymentStatusProcessing, 2*time.Hour)
	seedPayment(store, "FRESH", "", domain.PaymentMethodCard, domain.PaymentStatusPending, time.Minute)
	seedPayment(store, "BANK", "", domain.PaymentMethodBank, domain.PaymentStatusPending, 2*time.Hour)

	gw.remoteStatus["pi_paid"] = domain.PaymentStatusSucceeded
	gw.remoteStatus["pi_waiting"] = domain.PaymentStatusPending
	gw.remoteStatus["pi_abandoned"] = domain.PaymentStatusCanceled

	svc := NewReconciliationService(store, gw, notifier, testTemplates(), time.Hour, 24*time.Hour)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Canceled)
	assert.Zero(t, report.Errors)

	assert.Equal(t, domain.PaymentStatusCanceled, store.get("ORPHAN").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusSucceeded, store.get("PAID").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPending, store.get("WAITING").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusCanceled, store.get("ABANDONED").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPending, store.get("FRESH").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPending, store.get("BANK").PaymentStatus, "bank orders are reconciled by hand")

	assert.Equal(t, 1, notifier.count(domain.NotificationOrderConfirmation))

	// A second sweep finds nothing new to email.
	_, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.count(domain.NotificationOrderConfirmation))
}

func TestReconciliationCountsGatewayErrors(t *testing.T) {
	store := newMemoryStore()
	gw := newStubGateway(store)
	seedPayment(store, "LOST", "pi_lost", domain.PaymentMethodCard, domain.PaymentStatusPending, 2*time.Hour)

	report, err := NewReconciliationService(store, gw, &recordingNotifier{}, testTemplates(), time.Hour, 24*time.Hour).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, domain.PaymentStatusPending, store.get("LOST").PaymentStatus)
}

func TestReconciliationReachesOrdersBehindAFullBatch(t *testing.T) {
	store := newMemoryStore()
	gw := newStubGateway(store)

	for i := 0; i < 150; i++ {
		ref := fmt.Sprintf("pi_waiting_%03d", i)
		seedPayment(store, fmt.Sprintf("WAITING-%03d", i), ref, domain.PaymentMethodCard, domain.PaymentStatusPending, 5*time.Hour+time.Duration(i)*time.Second)
		gw.remoteStatus[ref] = domain.PaymentStatusPending
	}
	seedPayment(store, "ORPHAN", "", domain.PaymentMethodCard, domain.PaymentStatusPending, 2*time.Hour)
	seedPayment(store, "PAID", "pi_paid", domain.PaymentMethodCard, domain.PaymentStatusPending, 2*time.Hour)
	gw.remoteStatus["pi_paid"] = domain.PaymentStatusSucceeded

	notifier := &recordingNotifier{}
	svc := NewReconciliationService(store, gw, notifier, testTemplates(), time.Hour, 24*time.Hour)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 152, report.Checked)
	assert.Equal(t, 2, store.listCalls)
	assert.Equal(t, domain.PaymentStatusCanceled, store.get("ORPHAN").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusSucceeded, store.get("PAID").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPending, store.get("WAITING-000").PaymentStatus)
	assert.Empty(t, gw.canceled, "intents younger than the abandon deadline are left alone")
	assert.Equal(t, 1, notifier.count(domain.NotificationOrderConfirmation))
}

func TestReconciliationCancelsAbandonedIntents(t *testing.T) {
	store := newMemoryStore()
	gw := newStubGateway(store)

	seedPayment(store, "STALE", "pi_stale", domain.PaymentMethodCard, domain.PaymentStatusPending, 30*time.Hour)
	seedPayment(store, "RECENT", "pi_recent", domain.PaymentMethodCard, domain.PaymentStatusPending, 3*time.Hour)
	seedPayment(store, "SETTLING", "pi_settling", domain.PaymentMethodCard, domain.PaymentStatusProcessing, 30*time.Hour)
	gw.remoteStatus["pi_stale"] = domain.PaymentStatusPending
	gw.remoteStatus["pi_recent"] = domain.PaymentStatusPending
	gw.remoteStatus["pi_settling"] = domain.PaymentStatusProcessing

	report, err := NewReconciliationService(store, gw, &recordingNotifier{}, testTemplates(), time.Hour, 24*time.Hour).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Canceled)
	assert.Equal(t, []string{"pi_stale"}, gw.canceled)
	assert.Equal(t, domain.PaymentStatusCanceled, store.get("STALE").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusPending, store.get("RECENT").PaymentStatus)
	assert.Equal(t, domain.PaymentStatusProcessing, store.get("SETTLING").PaymentStatus)
}

func TestReconciliationKeepsOrderWhenCancelIsRefused(t *testing.T) {
	store := newMemoryStore()
	gw := newStubGateway(store)
	gw.cancelErr = fmt.Errorf("%w: intent already succeeded", domain.ErrGatewayFailure)

	seedPayment(store, "LATE", "pi_late", domain.PaymentMethodCard, domain.PaymentStatusPending, 30*time.Hour)
	gw.remoteStatus["pi_late"] = domain.PaymentStatusPending

	report, err := NewReconciliationService(store, gw, &recordingNotifier{}, testTemplates(), time.Hour, 24*time.Hour).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Errors)
	assert.Zero(t, report.Canceled)
	assert.Equal(t, domain.PaymentStatusPending, store.get("LATE").PaymentStatus)
}
