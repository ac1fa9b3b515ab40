package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCanceled   PaymentStatus = "canceled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusSucceeded,
		PaymentStatusFailed, PaymentStatusCanceled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodBank PaymentMethod = "bank"
)

const (
	// MetadataOrderID is the correlation key stored on the processor side.
	// Webhook routing depends on it; do not rename.
	MetadataOrderID   = "orderId"
	MetadataPaymentID = "paymentId"

	PaymentTypeBankTransfer = "bank-transfer"
)

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode,omitempty"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// PaymentRecord is an order together with its payment state. ID is the storage
// key, OrderID the external join key used by the processor and the client.
type PaymentRecord struct {
	ID                    string                 `json:"id"`
	OrderID               string                 `json:"orderId"`
	Customer              Customer               `json:"customer"`
	Shipping              ShippingAddress        `json:"shipping"`
	PaymentMethod         PaymentMethod          `json:"paymentMethod"`
	PaymentStatus         PaymentStatus          `json:"paymentStatus"`
	StripePaymentIntentID string                 `json:"stripePaymentIntentId,omitempty"`
	Amount                float64                `json:"amount"`
	Currency              string                 `json:"currency"`
	Items                 []OrderItem            `json:"items"`
	Metadata              map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

// NewPaymentRecord builds a pending record. Line totals and the amount are
// computed here once and never recomputed afterwards.
func NewPaymentRecord(req CheckoutRequest, currency string) *PaymentRecord {
	items := PriceItems(req.Items)
	now := time.Now().UTC()

	return &PaymentRecord{
		ID:      NewPaymentID(now),
		OrderID: NewOrderID(now),
		Customer: Customer{
			Name:  strings.TrimSpace(req.CustomerName),
			Email: strings.TrimSpace(req.CustomerEmail),
			Phone: strings.TrimSpace(req.CustomerPhone),
		},
		Shipping: ShippingAddress{
			Address: strings.TrimSpace(req.ShippingAddress),
			City:    strings.TrimSpace(req.ShippingCity),
			Country: strings.TrimSpace(req.ShippingCountry),
			ZipCode: strings.TrimSpace(req.ShippingZip),
		},
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: PaymentStatusPending,
		Amount:        SumItems(items),
		Currency:      strings.ToLower(currency),
		Items:         items,
		Metadata:      map[string]interface{}{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (p *PaymentRecord) AttachProcessorReference(ref string) {
	p.StripePaymentIntentID = ref
	p.UpdatedAt = time.Now().UTC()
}

func (p *PaymentRecord) SetMetadata(key string, value interface{}) {
	if p.Metadata == nil {
		p.Metadata = map[string]interface{}{}
	}
	p.Metadata[key] = value
	p.UpdatedAt = time.Now().UTC()
}

// AmountMinorUnits returns the amount in the currency's smallest unit.
func (p *PaymentRecord) AmountMinorUnits() int64 {
	return ToMinorUnits(p.Amount)
}

func (p *PaymentRecord) IsBankTransfer() bool {
	return p.PaymentMethod == PaymentMethodBank
}

// StatusTransition reports what an unconditional status write replaced.
type StatusTransition struct {
	OrderID  string
	Previous PaymentStatus
	Current  PaymentStatus
}

// Entered reports whether the write moved the record into status from a
// different status.
func (t StatusTransition) Entered(status PaymentStatus) bool {
	return t.Current == status && t.Previous != status
}

// PageCursor is the position of the last record of a page ordered by
// creation time, with the id as a tie breaker.
type PageCursor struct {
	CreatedAt time.Time
	ID        string
}

func CursorAfter(p *PaymentRecord) PageCursor {
	return PageCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

func NewPaymentID(now time.Time) string {
	return fmt.Sprintf("pay_%d_%s", now.UnixMilli(), randomSuffix(12))
}

func NewOrderID(now time.Time) string {
	return fmt.Sprintf("BAHO-%d-%s", now.UnixMilli(), strings.ToUpper(randomSuffix(6)))
}

func randomSuffix(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}

// PriceItems fills in the line totals of the given items.
func PriceItems(items []CheckoutItem) []OrderItem {
	priced := make([]OrderItem, len(items))
	for i, item := range items {
		priced[i] = OrderItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Name:      strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			Total:     FromMinorUnits(ToMinorUnits(item.Price) * int64(item.Quantity)),
		}
	}
	return priced
}

// SumItems adds line totals in minor units to avoid float drift.
func SumItems(items []OrderItem) float64 {
	var cents int64
	for _, item := range items {
		cents += ToMinorUnits(item.Total)
	}
	return FromMinorUnits(cents)
}

func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}
