package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nyungwe = Product{ID: "A", Name: "Nyungwe Washed", Price: 10}
	huye    = Product{ID: "B", Name: "Huye Natural", Price: 5}
)

func TestCartMutations(t *testing.T) {
	c := New()
	c.Add(nyungwe, 1)
	c.Add(huye, 1)
	c.Add(nyungwe, 1)

	assert.Equal(t, 2, c.Quantity("A"))
	assert.Equal(t, 3, c.Count())
	assert.Equal(t, 25.0, c.Total())

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].Product.ID, "insertion order is kept")
	assert.Equal(t, 20.0, lines[0].Total())

	c.Remove("A")
	assert.Equal(t, []Line{{Product: huye, Quantity: 1}}, c.Lines())

	c.Clear()
	assert.True(t, c.Empty())
	assert.Zero(t, c.Total())
}

func TestSetQuantityClamps(t *testing.T) {
	c := New()
	c.Add(nyungwe, 3)

	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{1, 1},
		{0, 1},
		{-4, 1},
	}
	for _, tt := range tests {
		require.True(t, c.SetQuantity("A", tt.in))
		assert.Equal(t, tt.want, c.Quantity("A"), "SetQuantity(%d)", tt.in)
	}

	assert.False(t, c.SetQuantity("missing", 2))
}

func TestCommitQuantityInput(t *testing.T) {
	c := New()
	c.Add(nyungwe, 3)

	tests := []struct {
		raw  string
		want int
	}{
		{"7", 7},
		{" 2 ", 2},
		{"abc", 2},
		{"", 2},
		{"1.5", 2},
		{"0", 1},
		{"-3", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.CommitQuantityInput("A", tt.raw), "input %q", tt.raw)
	}
	assert.Zero(t, c.CommitQuantityInput("missing", "3"))
}

func TestCartItems(t *testing.T) {
	c := New()
	c.Add(nyungwe, 2)
	c.Add(huye, 1)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, domain.CheckoutItem{ProductID: "A", Name: "Nyungwe Washed", Quantity: 2, Price: 10}, items[0])
	assert.Equal(t, 25.0, domain.SumItems(domain.PriceItems(items)))
}

type stubCreator struct {
	requests []domain.CheckoutRequest
	err      error
}

func (s *stubCreator) CreateIntent(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CheckoutResult{
		OrderID:       "BAHO-1",
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: domain.PaymentStatusPending,
		Amount:        req.Amount,
		ClientSecret:  "secret",
	}, nil
}

func details() Details {
	return Details{Name: "Ada", Email: "ada@example.com", Address: "1 Main St", City: "Kigali", Country: "Rwanda"}
}

func flowAtPayment(t *testing.T, method domain.PaymentMethod) *Flow {
	t.Helper()
	f := NewFlow()
	f.Cart.Add(nyungwe, 2)
	f.Cart.Add(huye, 1)
	f.OpenCart()
	require.NoError(t, f.BeginCheckout())
	require.NoError(t, f.SubmitDetails(details(), method))
	require.Equal(t, StagePayment, f.Stage())
	return f
}

func TestFlowCardPayment(t *testing.T) {
	f := flowAtPayment(t, domain.PaymentMethodCard)
	creator := &stubCreator{}

	require.ErrorIs(t, f.CompleteCardPayment(), ErrAwaitingPayment)

	result, err := f.Pay(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, "secret", result.ClientSecret)
	assert.Equal(t, StagePayment, f.Stage(), "card waits for processor confirmation")
	require.Len(t, creator.requests, 1)
	assert.Equal(t, 25.0, creator.requests[0].Amount)
	assert.Len(t, creator.requests[0].Items, 2)

	require.NoError(t, f.CompleteCardPayment())
	assert.Equal(t, StageConfirmation, f.Stage())
	assert.True(t, f.Cart.Empty())
}

func TestFlowPayTwiceRegistersOneOrder(t *testing.T) {
	f := flowAtPayment(t, domain.PaymentMethodCard)
	creator := &stubCreator{}

	first, err := f.Pay(context.Background(), creator)
	require.NoError(t, err)
	second, err := f.Pay(context.Background(), creator)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, creator.requests, 1)
	assert.Equal(t, StagePayment, f.Stage())

	f.Cancel()
	_, err = f.Pay(context.Background(), creator)
	assert.ErrorIs(t, err, ErrInvalidStage)
	assert.Len(t, creator.requests, 1)
}

func TestFlowBankPaymentCompletesImmediately(t *testing.T) {
	f := flowAtPayment(t, domain.PaymentMethodBank)

	_, err := f.Pay(context.Background(), &stubCreator{})
	require.NoError(t, err)
	assert.Equal(t, StageConfirmation, f.Stage())
	assert.Equal(t, "BAHO-1", f.Result().OrderID)
	assert.ErrorIs(t, f.CompleteCardPayment(), ErrAwaitingPayment)
}

func TestFlowPayFailureStaysOnPayment(t *testing.T) {
	f := flowAtPayment(t, domain.PaymentMethodCard)

	_, err := f.Pay(context.Background(), &stubCreator{err: errors.New("processor down")})
	assert.Error(t, err)
	assert.Equal(t, StagePayment, f.Stage())
	assert.False(t, f.Cart.Empty())
}

func TestFlowGates(t *testing.T) {
	f := NewFlow()
	f.OpenCart()
	assert.ErrorIs(t, f.BeginCheckout(), ErrEmptyCart)

	f.Cart.Add(nyungwe, 1)
	require.NoError(t, f.BeginCheckout())

	incomplete := details()
	incomplete.City = " "
	incomplete.Email = ""
	err := f.SubmitDetails(incomplete, domain.PaymentMethodCard)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	assert.Contains(t, verr.Message, "city")
	assert.Equal(t, StageCheckoutForm, f.Stage())

	_, err = f.Pay(context.Background(), &stubCreator{})
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestFlowCancelDiscardsState(t *testing.T) {
	f := flowAtPayment(t, domain.PaymentMethodCard)
	f.Cancel()

	assert.Equal(t, StageBrowsing, f.Stage())
	assert.True(t, f.Cart.Empty())
	assert.Equal(t, Details{}, f.Details())
	assert.Nil(t, f.Result())
}
