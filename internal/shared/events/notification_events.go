package events

import (
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/google/uuid"
)

type EventType string

const (
	NotificationRequestedEvent EventType = "notification.requested"
)

// Event is the envelope written to the notification queue.
type Event struct {
	ID            uuid.UUID                  `json:"id"`
	EventType     EventType                  `json:"event_type"`
	ReferenceID   string                     `json:"reference_id"`
	Payload       domain.NotificationRequest `json:"payload"`
	Timestamp     time.Time                  `json:"timestamp"`
	Service       string                     `json:"service"`
	CorrelationID uuid.UUID                  `json:"correlation_id"`
}

func NewNotificationRequested(service string, req domain.NotificationRequest) Event {
	return Event{
		ID:            uuid.New(),
		EventType:     NotificationRequestedEvent,
		ReferenceID:   req.ReferenceID,
		Payload:       req,
		Timestamp:     time.Now().UTC(),
		Service:       service,
		CorrelationID: req.ID,
	}
}
