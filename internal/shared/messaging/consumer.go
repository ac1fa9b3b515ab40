package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/shared/events"
	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

type EventHandler func(ctx context.Context, event events.Event) error

type Consumer struct {
	client      *RabbitMQClient
	queueName   string
	serviceName string
}

func NewConsumer(client *RabbitMQClient, queueName, serviceName string) *Consumer {
	return &Consumer{
		client:      client,
		queueName:   queueName,
		serviceName: serviceName,
	}
}

// ConsumeEvents binds the work queue to the routing keys and handles
// deliveries one at a time until ctx is done or the client is closed. Failed
// deliveries are republished with an incremented retry header and rejected to
// the dead-letter exchange once MaxRedeliveries is reached.
func (c *Consumer) ConsumeEvents(ctx context.Context, routingKeys []string, handler EventHandler) error {
	channel := c.client.Channel()
	if channel == nil || !c.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}
	cfg := c.client.Config()

	queue, err := channel.QueueDeclare(c.queueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": cfg.DeadLetterExchange(),
	})
	if err != nil {
		return fmt.Errorf("queue declare error (%s): %w", c.queueName, err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(queue.Name, key, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind error (%s): %w", key, err)
		}
	}

	if cfg.Prefetch > 0 {
		if err := channel.Qos(cfg.Prefetch, 0, false); err != nil {
			return fmt.Errorf("qos error: %w", err)
		}
	}

	deliveries, err := channel.Consume(queue.Name, c.serviceName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume start error: %w", err)
	}

	log.Printf("Consuming events: Queue=%s Consumer=%s", queue.Name, c.serviceName)

	for {
		select {
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", queue.Name)
			}
			c.handleMessage(ctx, msg, handler)
		case <-ctx.Done():
			log.Printf("Consumer stopped: %s", c.serviceName)
			return nil
		case <-c.client.Done():
			log.Printf("Consumer stopped: %s", c.serviceName)
			return nil
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, handler EventHandler) {
	var event events.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("Event decode error, dead-lettering: MessageID=%s: %v", msg.MessageId, err)
		msg.Nack(false, false)
		return
	}

	err := handler(ctx, event)
	if err == nil {
		msg.Ack(false)
		return
	}

	attempt := retryCount(msg.Headers)
	log.Printf("Event process error: EventType=%s ReferenceID=%s Retry=%d: %v",
		event.EventType, event.ReferenceID, attempt, err)

	if attempt >= c.client.Config().MaxRedeliveries {
		log.Printf("Max retries reached, dead-lettering: ReferenceID=%s", event.ReferenceID)
		msg.Nack(false, false)
		return
	}

	select {
	case <-time.After(time.Duration(attempt+1) * time.Second):
	case <-ctx.Done():
		msg.Nack(false, true)
		return
	}

	if err := c.republish(msg, attempt+1); err != nil {
		log.Printf("Retry publish error: ReferenceID=%s: %v", event.ReferenceID, err)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

func (c *Consumer) republish(msg amqp.Delivery, retry int) error {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retry)

	return c.client.Channel().Publish(msg.Exchange, msg.RoutingKey, false, false, amqp.Publishing{
		ContentType:   msg.ContentType,
		DeliveryMode:  msg.DeliveryMode,
		MessageId:     msg.MessageId,
		CorrelationId: msg.CorrelationId,
		Timestamp:     msg.Timestamp,
		AppId:         msg.AppId,
		Type:          msg.Type,
		Headers:       headers,
		Body:          msg.Body,
	})
}

func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
