package handlers

import (
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
)

type ConfirmPaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type PaymentResponse struct {
	OrderID               string                 `json:"orderId"`
	PaymentID             string                 `json:"paymentId"`
	CustomerName          string                 `json:"customerName"`
	PaymentMethod         string                 `json:"paymentMethod"`
	PaymentStatus         string                 `json:"paymentStatus"`
	StripePaymentIntentID string                 `json:"stripePaymentIntentId,omitempty"`
	Amount                float64                `json:"amount"`
	Currency              string                 `json:"currency"`
	Items                 []OrderItemResponse    `json:"items"`
	BankInstructions      map[string]interface{} `json:"bankInstructions,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

type OrderItemResponse struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
	Total     float64 `json:"total"`
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Type     string `json:"type,omitempty"`
	Ignored  bool   `json:"ignored,omitempty"`
}

// mapPayment exposes the order summary without the customer's contact and
// shipping details.
func mapPayment(p *domain.PaymentRecord) PaymentResponse {
	items := make([]OrderItemResponse, len(p.Items))
	for i, item := range p.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		}
	}

	response := PaymentResponse{
		OrderID:               p.OrderID,
		PaymentID:             p.ID,
		CustomerName:          p.Customer.Name,
		PaymentMethod:         string(p.PaymentMethod),
		PaymentStatus:         string(p.PaymentStatus),
		StripePaymentIntentID: p.StripePaymentIntentID,
		Amount:                p.Amount,
		Currency:              p.Currency,
		Items:                 items,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}

	if instructions, ok := p.Metadata["bankInstructions"].(map[string]interface{}); ok {
		response.BankInstructions = instructions
	}

	return response
}
