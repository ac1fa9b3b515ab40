package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{api: sc}
}

func (g *StripeGateway) Configured() bool {
	return g.api != nil
}

// CreatePaymentIntent uses the order id as the idempotency key so a retried
// request for the same order never creates a second intent.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, request IntentRequest) (*IntentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(request.AmountMinor),
		Currency: stripe.String(request.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if request.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(request.ReceiptEmail)
	}
	if request.Description != "" {
		params.Description = stripe.String(request.Description)
	}
	for k, v := range request.Metadata() {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(request.OrderID)
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		log.Printf("Stripe intent create error: OrderID=%s: %v", request.OrderID, err)
		return nil, wrapStripeError(err)
	}

	return &IntentResponse{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       MapIntentStatus(pi.Status),
	}, nil
}

func (g *StripeGateway) GetPaymentStatus(ctx context.Context, intentID string) (*IntentStatusResponse, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return &IntentStatusResponse{
		IntentID:    pi.ID,
		OrderID:     pi.Metadata[domain.MetadataOrderID],
		Status:      MapIntentStatus(pi.Status),
		AmountMinor: pi.Amount,
	}, nil
}

func (g *StripeGateway) CancelPaymentIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(intentID, params); err != nil {
		return wrapStripeError(err)
	}
	return nil
}

// MapIntentStatus folds the processor's intent lifecycle into the record
// statuses. Every "requires_*" state is still pending from our side.
func MapIntentStatus(status stripe.PaymentIntentStatus) domain.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return domain.PaymentStatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		return domain.PaymentStatusCanceled
	default:
		return domain.PaymentStatusPending
	}
}

func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %s (%s)", domain.ErrGatewayFailure, stripeErr.Msg, stripeErr.Code)
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
}
