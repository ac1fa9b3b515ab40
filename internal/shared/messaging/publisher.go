package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/shared/events"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

const routingPrefix = "storefront"

type Publisher struct {
	client *RabbitMQClient
}

func NewPublisher(client *RabbitMQClient) *Publisher {
	return &Publisher{client: client}
}

func RoutingKey(eventType events.EventType) string {
	return routingPrefix + "." + string(eventType)
}

// PublishEvent writes a persistent JSON message keyed by the event type.
func (p *Publisher) PublishEvent(event events.Event) error {
	channel := p.client.Channel()
	if channel == nil || !p.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event serialization error: %w", err)
	}

	routingKey := RoutingKey(event.EventType)
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.ID.String(),
		CorrelationId: event.CorrelationID.String(),
		Timestamp:     event.Timestamp,
		AppId:         event.Service,
		Type:          string(event.EventType),
		Body:          body,
		Headers:       amqp.Table{"reference_id": event.ReferenceID},
	}

	if err := channel.Publish(p.client.Config().Exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("event publish error: %w", err)
	}

	log.Printf("Event published: RoutingKey=%s ReferenceID=%s", routingKey, event.ReferenceID)
	return nil
}

// PublishWithRetry backs off linearly between attempts.
func (p *Publisher) PublishWithRetry(event events.Event, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = p.PublishEvent(event); err == nil {
			return nil
		}
		log.Printf("Publish error: ReferenceID=%s Attempt=%d/%d: %v", event.ReferenceID, attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}

	return fmt.Errorf("event publish failed after %d attempts: %w", maxAttempts, err)
}
