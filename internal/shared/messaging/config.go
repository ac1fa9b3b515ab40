package messaging

import (
	"net/url"
	"time"
)

// RabbitMQConfig describes the broker topology used for email delivery:
// a topic exchange for events, one work queue, and a dead-letter exchange
// that receives deliveries which exhausted their retries.
type RabbitMQConfig struct {
	URL             string
	Exchange        string
	Queue           string
	ConnectAttempts int
	RetryDelay      time.Duration
	DialTimeout     time.Duration
	MaxRedeliveries int
	Prefetch        int
}

func NewRabbitMQConfig(url, exchange, queue string) *RabbitMQConfig {
	return &RabbitMQConfig{
		URL:             url,
		Exchange:        exchange,
		Queue:           queue,
		ConnectAttempts: 3,
		RetryDelay:      2 * time.Second,
		DialTimeout:     30 * time.Second,
		MaxRedeliveries: 3,
		Prefetch:        5,
	}
}

func (c *RabbitMQConfig) DeadLetterExchange() string {
	return c.Exchange + ".dlx"
}

func (c *RabbitMQConfig) DeadLetterQueue() string {
	return c.Queue + ".dead"
}

// RedactedURL is safe to log.
func (c *RabbitMQConfig) RedactedURL() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
