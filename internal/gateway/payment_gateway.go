package gateway

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/google/uuid"
)

// PaymentGateway is the external card processor.
type PaymentGateway interface {
	Configured() bool
	CreatePaymentIntent(ctx context.Context, request IntentRequest) (*IntentResponse, error)
	GetPaymentStatus(ctx context.Context, intentID string) (*IntentStatusResponse, error)
	CancelPaymentIntent(ctx context.Context, intentID string) error
}

type IntentRequest struct {
	OrderID      string `json:"orderId"`
	PaymentID    string `json:"paymentId"`
	AmountMinor  int64  `json:"amountMinor"`
	Currency     string `json:"currency"`
	ReceiptEmail string `json:"receiptEmail"`
	Description  string `json:"description"`
}

type IntentResponse struct {
	IntentID     string               `json:"intentId"`
	ClientSecret string               `json:"clientSecret"`
	Status       domain.PaymentStatus `json:"status"`
}

type IntentStatusResponse struct {
	IntentID    string               `json:"intentId"`
	OrderID     string               `json:"orderId"`
	Status      domain.PaymentStatus `json:"status"`
	AmountMinor int64                `json:"amountMinor"`
}

// Metadata is attached to every intent; webhook routing reads the order id
// back from it.
func (r IntentRequest) Metadata() map[string]string {
	return map[string]string{
		domain.MetadataOrderID:   r.OrderID,
		domain.MetadataPaymentID: r.PaymentID,
	}
}

// MockPaymentGateway keeps intents in memory. Used in development and tests.
type MockPaymentGateway struct {
	FailureRate float64 // 0.0 - 1.0

	mu      sync.Mutex
	intents map[string]*IntentStatusResponse
}

func NewMockPaymentGateway(failureRate float64) *MockPaymentGateway {
	return &MockPaymentGateway{
		FailureRate: failureRate,
		intents:     make(map[string]*IntentStatusResponse),
	}
}

func (m *MockPaymentGateway) Configured() bool {
	return true
}

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, request IntentRequest) (*IntentResponse, error) {
	log.Printf("Mock Payment Gateway: Creating intent for OrderID=%s AmountMinor=%d %s",
		request.OrderID, request.AmountMinor, request.Currency)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.FailureRate > 0 && rand.Float64() < m.FailureRate {
		return nil, fmt.Errorf("%w: card declined (mock)", domain.ErrGatewayFailure)
	}

	intentID := fmt.Sprintf("pi_mock_%d_%s", time.Now().UnixMilli(), strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	m.mu.Lock()
	m.intents[intentID] = &IntentStatusResponse{
		IntentID:    intentID,
		OrderID:     request.OrderID,
		Status:      domain.PaymentStatusPending,
		AmountMinor: request.AmountMinor,
	}
	m.mu.Unlock()

	return &IntentResponse{
		IntentID:     intentID,
		ClientSecret: intentID + "_secret_mock",
		Status:       domain.PaymentStatusPending,
	}, nil
}

func (m *MockPaymentGateway) GetPaymentStatus(_ context.Context, intentID string) (*IntentStatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("%w: no such intent %s", domain.ErrGatewayFailure, intentID)
	}

	copied := *intent
	return &copied, nil
}

func (m *MockPaymentGateway) CancelPaymentIntent(_ context.Context, intentID string) error {
	return m.SetStatus(intentID, domain.PaymentStatusCanceled)
}

// SetStatus simulates the customer completing or abandoning the payment.
func (m *MockPaymentGateway) SetStatus(intentID string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[intentID]
	if !ok {
		return fmt.Errorf("%w: no such intent %s", domain.ErrGatewayFailure, intentID)
	}
	intent.Status = status
	return nil
}

// unconfiguredGateway is used when no processor key is set.
type unconfiguredGateway struct{}

func (unconfiguredGateway) Configured() bool { return false }

func (unconfiguredGateway) CreatePaymentIntent(context.Context, IntentRequest) (*IntentResponse, error) {
	return nil, domain.ErrGatewayNotConfigured
}

func (unconfiguredGateway) GetPaymentStatus(context.Context, string) (*IntentStatusResponse, error) {
	return nil, domain.ErrGatewayNotConfigured
}

func (unconfiguredGateway) CancelPaymentIntent(context.Context, string) error {
	return domain.ErrGatewayNotConfigured
}

// New selects the processor implementation by name.
func New(kind, secretKey string, mockFailureRate float64) PaymentGateway {
	switch kind {
	case "mock":
		log.Printf("Using mock payment gateway: FailureRate=%.2f", mockFailureRate)
		return NewMockPaymentGateway(mockFailureRate)
	default:
		if secretKey == "" {
			log.Println("STRIPE_SECRET_KEY not set, card payments are disabled")
			return unconfiguredGateway{}
		}
		return NewStripeGateway(secretKey)
	}
}
