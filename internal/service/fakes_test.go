package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/gateway"
	"github.com/Frankish0014/baho-coffee-sub000/internal/notification"
)

// memoryStore mirrors the SQL repository semantics in memory.
type memoryStore struct {
	mu       sync.Mutex
	payments map[string]*domain.PaymentRecord
	writes    int
	listCalls int
	saveErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{payments: map[string]*domain.PaymentRecord{}}
}

func (m *memoryStore) SavePayment(_ context.Context, p *domain.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.writes++

	if existing, ok := m.payments[p.OrderID]; ok {
		existing.PaymentStatus = p.PaymentStatus
		if p.StripePaymentIntentID != "" {
			existing.StripePaymentIntentID = p.StripePaymentIntentID
		}
		existing.Metadata = p.Metadata
		return nil
	}

	copied := *p
	m.payments[p.OrderID] = &copied
	return nil
}

func (m *memoryStore) UpdatePaymentStatus(_ context.Context, orderID string, status domain.PaymentStatus, ref *string) (domain.StatusTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transition := domain.StatusTransition{OrderID: orderID, Current: status}
	p, ok := m.payments[orderID]
	if !ok {
		return transition, fmt.Errorf("%w: order %s", domain.ErrPaymentNotFound, orderID)
	}
	m.writes++

	transition.Previous = p.PaymentStatus
	p.PaymentStatus = status
	if ref != nil && *ref != "" {
		p.StripePaymentIntentID = *ref
	}
	return transition, nil
}

func (m *memoryStore) GetPaymentByOrderID(_ context.Context, orderID string) (*domain.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrPaymentNotFound, orderID)
	}
	copied := *p
	return &copied, nil
}

func (m *memoryStore) ListStalePending(_ context.Context, method domain.PaymentMethod, before time.Time, after domain.PageCursor, limit int) ([]*domain.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++

	var matched []*domain.PaymentRecord
	for _, p := range m.payments {
		open := p.PaymentStatus == domain.PaymentStatusPending || p.PaymentStatus == domain.PaymentStatusProcessing
		if p.PaymentMethod == method && open && p.CreatedAt.Before(before) && pastCursor(p, after) {
			copied := *p
			matched = append(matched, &copied)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func pastCursor(p *domain.PaymentRecord, after domain.PageCursor) bool {
	if p.CreatedAt.Equal(after.CreatedAt) {
		return p.ID > after.ID
	}
	return p.CreatedAt.After(after.CreatedAt)
}

func (m *memoryStore) get(orderID string) *domain.PaymentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[orderID]
}

func (m *memoryStore) only() *domain.PaymentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		return p
	}
	return nil
}

func (m *memoryStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// stubGateway records intent requests and what the store held at call time.
type stubGateway struct {
	store        *memoryStore
	configured   bool
	err          error
	calls        []gateway.IntentRequest
	seenStatus   domain.PaymentStatus
	remoteStatus map[string]domain.PaymentStatus
	canceled     []string
	cancelErr    error
}

func newStubGateway(store *memoryStore) *stubGateway {
	return &stubGateway{store: store, configured: true, remoteStatus: map[string]domain.PaymentStatus{}}
}

func (g *stubGateway) Configured() bool { return g.configured }

func (g *stubGateway) CreatePaymentIntent(_ context.Context, req gateway.IntentRequest) (*gateway.IntentResponse, error) {
	g.calls = append(g.calls, req)
	if p := g.store.get(req.OrderID); p != nil {
		g.seenStatus = p.PaymentStatus
	}
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.IntentResponse{
		IntentID:     "pi_" + req.PaymentID,
		ClientSecret: "pi_" + req.PaymentID + "_secret",
		Status:       domain.PaymentStatusPending,
	}, nil
}

func (g *stubGateway) GetPaymentStatus(_ context.Context, intentID string) (*gateway.IntentStatusResponse, error) {
	status, ok := g.remoteStatus[intentID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown intent", domain.ErrGatewayFailure)
	}
	return &gateway.IntentStatusResponse{IntentID: intentID, Status: status}, nil
}

func (g *stubGateway) CancelPaymentIntent(_ context.Context, intentID string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.canceled = append(g.canceled, intentID)
	g.remoteStatus[intentID] = domain.PaymentStatusCanceled
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	requests []domain.NotificationRequest
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, req domain.NotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.requests = append(n.requests, req)
	return nil
}

func (n *recordingNotifier) count(kind domain.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, r := range n.requests {
		if r.Kind == kind {
			total++
		}
	}
	return total
}

func testTemplates() *notification.Templates {
	return notification.NewTemplates("Baho Coffee", "admin@bahocoffee.com")
}

func testBank() domain.BankInstructions {
	return domain.BankInstructions{
		BankName:      "Bank of Kigali",
		AccountName:   "Baho Coffee Ltd",
		AccountNumber: "000123456",
		SwiftCode:     "BKIGRWRW",
	}
}

func validCheckout(method domain.PaymentMethod) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "1 Main St",
		ShippingCity:    "Kigali",
		ShippingCountry: "Rwanda",
		Items: []domain.CheckoutItem{
			{ProductID: "A", Name: "Nyungwe Washed", Quantity: 2, Price: 10},
			{ProductID: "B", Name: "Huye Natural", Quantity: 1, Price: 5},
		},
		Amount:        25,
		PaymentMethod: method,
	}
}
