package domain

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
)

const (
	// MaxOrderMinorUnits is the largest charge the card processor accepts,
	// 999,999.99 in a two-decimal currency. Bank orders share the ceiling.
	MaxOrderMinorUnits int64 = 99_999_999
	MaxItemQuantity          = 10_000
)

type CheckoutItem struct {
	ProductID string  `json:"id" validate:"required"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=10000"`
	Price     float64 `json:"price" validate:"min=0"`
}

// CheckoutRequest is what the browser submits when the customer moves from
// the checkout form to the payment step.
type CheckoutRequest struct {
	CustomerName    string         `json:"customerName" validate:"required"`
	CustomerEmail   string         `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string         `json:"customerPhone,omitempty"`
	ShippingAddress string         `json:"shippingAddress" validate:"required"`
	ShippingCity    string         `json:"shippingCity" validate:"required"`
	ShippingCountry string         `json:"shippingCountry" validate:"required"`
	ShippingZip     string         `json:"shippingZip,omitempty"`
	Items           []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	Amount          float64        `json:"amount"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod" validate:"required,oneof=card bank"`
}

// Validate enforces the checkout invariants independently of the HTTP layer.
func (r CheckoutRequest) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"customerName", r.CustomerName},
		{"customerEmail", r.CustomerEmail},
		{"shippingAddress", r.ShippingAddress},
		{"shippingCity", r.ShippingCity},
		{"shippingCountry", r.ShippingCountry},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return NewValidationError(f.field, fmt.Sprintf("%s is required", f.field))
		}
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(r.CustomerEmail)); err != nil {
		return NewValidationError("customerEmail", "customerEmail is not a valid email address")
	}

	if r.PaymentMethod != PaymentMethodCard && r.PaymentMethod != PaymentMethodBank {
		return NewValidationError("paymentMethod", "paymentMethod must be card or bank")
	}

	if len(r.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}

	maxOrder := FromMinorUnits(MaxOrderMinorUnits)
	var cents int64
	for i, item := range r.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return NewValidationError(fmt.Sprintf("items[%d].id", i), "item id is required")
		}
		if item.Quantity < 1 {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
		if item.Quantity > MaxItemQuantity {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", i),
				fmt.Sprintf("quantity must be at most %d", MaxItemQuantity))
		}
		if math.IsNaN(item.Price) || item.Price < 0 {
			return NewValidationError(fmt.Sprintf("items[%d].price", i), "price must not be negative")
		}
		if item.Price > maxOrder {
			return NewValidationError(fmt.Sprintf("items[%d].price", i),
				fmt.Sprintf("price must be at most %.2f", maxOrder))
		}

		// Both factors are bounded, so the line fits in int64; the running
		// total is checked before it can grow past the ceiling.
		cents += ToMinorUnits(item.Price) * int64(item.Quantity)
		if cents > MaxOrderMinorUnits {
			return NewValidationError("amount",
				fmt.Sprintf("order total must be at most %.2f", maxOrder))
		}
	}

	if cents <= 0 {
		return NewValidationError("amount", "order total must be greater than zero")
	}
	total := FromMinorUnits(cents)

	// The client amount is advisory; a mismatch means the cart and the
	// submitted items disagree.
	if r.Amount != 0 {
		if math.IsNaN(r.Amount) || r.Amount < 0 || r.Amount > maxOrder || ToMinorUnits(r.Amount) != cents {
			return NewValidationError("amount",
				fmt.Sprintf("amount %.2f does not match item total %.2f", r.Amount, total))
		}
	}

	return nil
}

// CheckoutResult is returned to the browser after an order is registered.
type CheckoutResult struct {
	OrderID          string            `json:"orderId"`
	PaymentID        string            `json:"paymentId"`
	PaymentMethod    PaymentMethod     `json:"paymentMethod"`
	PaymentStatus    PaymentStatus     `json:"paymentStatus"`
	Amount           float64           `json:"amount"`
	Currency         string            `json:"currency"`
	ClientSecret     string            `json:"clientSecret,omitempty"`
	BankInstructions *BankInstructions `json:"bankInstructions,omitempty"`
	EmailQueued      bool              `json:"emailQueued"`
}

type ConfirmationResult struct {
	OrderID       string        `json:"orderId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	EmailQueued   bool          `json:"emailQueued"`
}
