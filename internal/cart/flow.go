package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
)

type Stage string

const (
	StageBrowsing     Stage = "browsing"
	StageCart         Stage = "cart"
	StageCheckoutForm Stage = "checkout-form"
	StagePayment      Stage = "payment"
	StageConfirmation Stage = "confirmation"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidStage    = errors.New("action not allowed in current stage")
	ErrAwaitingPayment = errors.New("card payment has not been confirmed")
)

// IntentCreator registers the order on the server.
type IntentCreator interface {
	CreateIntent(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error)
}

// Details are the contact and shipping fields collected by the checkout form.
type Details struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Country string
	Zip     string
}

// Missing lists the required fields that are blank.
func (d Details) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", d.Name},
		{"email", d.Email},
		{"address", d.Address},
		{"city", d.City},
		{"country", d.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Flow drives one checkout session from browsing to confirmation. Nothing is
// persisted server-side before Pay, so Cancel only discards local state.
type Flow struct {
	Cart    *Cart
	stage   Stage
	details Details
	method  domain.PaymentMethod
	result  *domain.CheckoutResult
}

func NewFlow() *Flow {
	return &Flow{Cart: New(), stage: StageBrowsing}
}

func (f *Flow) Stage() Stage                   { return f.stage }
func (f *Flow) Details() Details               { return f.details }
func (f *Flow) Result() *domain.CheckoutResult { return f.result }

func (f *Flow) OpenCart() {
	if f.stage == StageBrowsing || f.stage == StageCheckoutForm {
		f.stage = StageCart
	}
}

func (f *Flow) ContinueShopping() {
	if f.stage == StageCart {
		f.stage = StageBrowsing
	}
}

func (f *Flow) BeginCheckout() error {
	if f.stage != StageCart {
		return fmt.Errorf("%w: %s", ErrInvalidStage, f.stage)
	}
	if f.Cart.Empty() {
		return ErrEmptyCart
	}
	f.stage = StageCheckoutForm
	return nil
}

// SubmitDetails moves to the payment step once every required field is set.
func (f *Flow) SubmitDetails(d Details, method domain.PaymentMethod) error {
	if f.stage != StageCheckoutForm {
		return fmt.Errorf("%w: %s", ErrInvalidStage, f.stage)
	}

	f.details = d
	if missing := d.Missing(); len(missing) > 0 {
		return domain.NewValidationError(missing[0], fmt.Sprintf("required fields missing: %s", strings.Join(missing, ", ")))
	}
	if method != domain.PaymentMethodCard && method != domain.PaymentMethodBank {
		return domain.NewValidationError("paymentMethod", "paymentMethod must be card or bank")
	}

	f.method = method
	f.stage = StagePayment
	return nil
}

// Pay registers the order. Bank orders complete immediately; card orders
// stay on the payment step until CompleteCardPayment, because the card is
// confirmed against the processor directly from the browser. Paying again
// returns the order already registered; Cancel starts a new one.
func (f *Flow) Pay(ctx context.Context, creator IntentCreator) (*domain.CheckoutResult, error) {
	if f.stage != StagePayment {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStage, f.stage)
	}
	if f.result != nil {
		return f.result, nil
	}

	result, err := creator.CreateIntent(ctx, f.request())
	if err != nil {
		return nil, err
	}

	f.result = result
	if f.method == domain.PaymentMethodBank {
		f.complete()
	}
	return result, nil
}

// CompleteCardPayment is called after the processor confirmed the card.
func (f *Flow) CompleteCardPayment() error {
	if f.stage != StagePayment || f.result == nil || f.method != domain.PaymentMethodCard {
		return ErrAwaitingPayment
	}
	f.complete()
	return nil
}

// Cancel discards the cart and form state from any stage.
func (f *Flow) Cancel() {
	f.Cart.Clear()
	f.details = Details{}
	f.method = ""
	f.result = nil
	f.stage = StageBrowsing
}

func (f *Flow) complete() {
	f.Cart.Clear()
	f.stage = StageConfirmation
}

func (f *Flow) request() domain.CheckoutRequest {
	return domain.CheckoutRequest{
		CustomerName:    f.details.Name,
		CustomerEmail:   f.details.Email,
		CustomerPhone:   f.details.Phone,
		ShippingAddress: f.details.Address,
		ShippingCity:    f.details.City,
		ShippingCountry: f.details.Country,
		ShippingZip:     f.details.Zip,
		Items:           f.Cart.Items(),
		Amount:          f.Cart.Total(),
		PaymentMethod:   f.method,
	}
}
