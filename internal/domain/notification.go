package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationOrderConfirmation NotificationKind = "order.confirmation"
	NotificationAdminNewOrder     NotificationKind = "order.admin_alert"
	NotificationBankInstructions  NotificationKind = "bank.instructions"
	NotificationAdminBankOrder    NotificationKind = "bank.admin_alert"
	NotificationContactAck        NotificationKind = "contact.acknowledgement"
	NotificationQuotationAck      NotificationKind = "quotation.acknowledgement"
	NotificationAdminLead         NotificationKind = "lead.admin_alert"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// EmailMessage is a fully rendered email.
type EmailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
}

// NotificationRequest is queued by the order and lead flows. ReferenceID is
// the order id or lead id the email belongs to.
type NotificationRequest struct {
	ID          uuid.UUID        `json:"id"`
	Kind        NotificationKind `json:"kind"`
	ReferenceID string           `json:"reference_id"`
	Message     EmailMessage     `json:"message"`
}

type Notification struct {
	ID          uuid.UUID          `json:"id"`
	Kind        NotificationKind   `json:"kind"`
	ReferenceID string             `json:"reference_id"`
	Recipient   string             `json:"recipient"`
	Subject     string             `json:"subject"`
	Status      NotificationStatus `json:"status"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
}

func NewNotification(req NotificationRequest) *Notification {
	return &Notification{
		ID:          req.ID,
		Kind:        req.Kind,
		ReferenceID: req.ReferenceID,
		Recipient:   req.Message.To,
		Subject:     req.Message.Subject,
		Status:      NotificationStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

func (n *Notification) MarkAsSent() {
	n.Status = NotificationStatusSent
	n.Error = ""
	now := time.Now().UTC()
	n.SentAt = &now
}

func (n *Notification) MarkAsFailed(err error) {
	n.Status = NotificationStatusFailed
	if err != nil {
		n.Error = err.Error()
	}
}
