package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// ContactSubmission is a write-once record from the contact form.
type ContactSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuotationRequest is a write-once wholesale quote request.
type QuotationRequest struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company"`
	Country        string    `json:"country"`
	CoffeeType     string    `json:"coffeeType"`
	Quantity       string    `json:"quantity"`
	DeliveryTerms  string    `json:"deliveryTerms,omitempty"`
	WashingStation string    `json:"washingStation,omitempty"`
	Message        string    `json:"message,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ContactForm struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" validate:"required"`
}

func (f ContactForm) Validate() error {
	if err := requireFields(map[string]string{
		"name":    f.Name,
		"email":   f.Email,
		"message": f.Message,
	}, "name", "email", "message"); err != nil {
		return err
	}
	return validateEmail("email", f.Email)
}

func NewContactSubmission(f ContactForm) *ContactSubmission {
	now := time.Now().UTC()
	return &ContactSubmission{
		ID:        newLeadID("contact", now),
		Name:      strings.TrimSpace(f.Name),
		Email:     strings.TrimSpace(f.Email),
		Phone:     strings.TrimSpace(f.Phone),
		Company:   strings.TrimSpace(f.Company),
		Subject:   strings.TrimSpace(f.Subject),
		Message:   strings.TrimSpace(f.Message),
		CreatedAt: now,
	}
}

type QuotationForm struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone,omitempty"`
	Company        string `json:"company" validate:"required"`
	Country        string `json:"country" validate:"required"`
	CoffeeType     string `json:"coffeeType" validate:"required"`
	Quantity       string `json:"quantity" validate:"required"`
	DeliveryTerms  string `json:"deliveryTerms,omitempty"`
	WashingStation string `json:"washingStation,omitempty"`
	Message        string `json:"message,omitempty"`
}

func (f QuotationForm) Validate() error {
	if err := requireFields(map[string]string{
		"name":       f.Name,
		"email":      f.Email,
		"company":    f.Company,
		"country":    f.Country,
		"coffeeType": f.CoffeeType,
		"quantity":   f.Quantity,
	}, "name", "email", "company", "country", "coffeeType", "quantity"); err != nil {
		return err
	}
	return validateEmail("email", f.Email)
}

func NewQuotationRequest(f QuotationForm) *QuotationRequest {
	now := time.Now().UTC()
	return &QuotationRequest{
		ID:             newLeadID("quote", now),
		Name:           strings.TrimSpace(f.Name),
		Email:          strings.TrimSpace(f.Email),
		Phone:          strings.TrimSpace(f.Phone),
		Company:        strings.TrimSpace(f.Company),
		Country:        strings.TrimSpace(f.Country),
		CoffeeType:     strings.TrimSpace(f.CoffeeType),
		Quantity:       strings.TrimSpace(f.Quantity),
		DeliveryTerms:  strings.TrimSpace(f.DeliveryTerms),
		WashingStation: strings.TrimSpace(f.WashingStation),
		Message:        strings.TrimSpace(f.Message),
		CreatedAt:      now,
	}
}

// LeadResult tells the visitor whether the submission was stored, separately
// from whether the acknowledgement email was queued.
type LeadResult struct {
	ID          string `json:"id"`
	Saved       bool   `json:"saved"`
	EmailQueued bool   `json:"emailQueued"`
}

func requireFields(values map[string]string, order ...string) error {
	for _, field := range order {
		if strings.TrimSpace(values[field]) == "" {
			return NewValidationError(field, fmt.Sprintf("%s is required", field))
		}
	}
	return nil
}

func validateEmail(field, value string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(value)); err != nil {
		return NewValidationError(field, fmt.Sprintf("%s is not a valid email address", field))
	}
	return nil
}

func newLeadID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), randomSuffix(8))
}
