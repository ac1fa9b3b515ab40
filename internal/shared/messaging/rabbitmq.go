package messaging

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

var ErrClientClosed = errors.New("rabbitmq client closed")

type RabbitMQClient struct {
	config *RabbitMQConfig

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	done      chan struct{}
	closeOnce sync.Once
}

func NewRabbitMQClient(config *RabbitMQConfig) *RabbitMQClient {
	return &RabbitMQClient{
		config: config,
		done:   make(chan struct{}),
	}
}

// Connect dials with a linear backoff and declares the topology. A lost
// connection is redialed in the background until Close.
func (r *RabbitMQClient) Connect() error {
	attempts := r.config.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = r.dial(); lastErr == nil {
			return nil
		}
		log.Printf("RabbitMQ connection error: URL=%s Attempt=%d/%d: %v",
			r.config.RedactedURL(), attempt, attempts, lastErr)

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(r.config.RetryDelay * time.Duration(attempt)):
		case <-r.done:
			return ErrClientClosed
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ: %w", lastErr)
}

func (r *RabbitMQClient) dial() error {
	conn, err := amqp.DialConfig(r.config.URL, amqp.Config{
		Dial: amqp.DefaultDial(r.config.DialTimeout),
	})
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("channel open error: %w", err)
	}

	if err := declareTopology(channel, r.config); err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	r.mu.Lock()
	r.conn, r.channel = conn, channel
	r.mu.Unlock()

	log.Printf("Connected to RabbitMQ: URL=%s Exchange=%s", r.config.RedactedURL(), r.config.Exchange)

	go r.watch(conn)
	return nil
}

func declareTopology(channel *amqp.Channel, cfg *RabbitMQConfig) error {
	if err := channel.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare error (%s): %w", cfg.Exchange, err)
	}

	if err := channel.ExchangeDeclare(cfg.DeadLetterExchange(), amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare error (%s): %w", cfg.DeadLetterExchange(), err)
	}

	dead, err := channel.QueueDeclare(cfg.DeadLetterQueue(), true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare error (%s): %w", cfg.DeadLetterQueue(), err)
	}

	if err := channel.QueueBind(dead.Name, "", cfg.DeadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("queue bind error (%s): %w", dead.Name, err)
	}

	return nil
}

func (r *RabbitMQClient) watch(conn *amqp.Connection) {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-r.done:
	case amqpErr, ok := <-closed:
		if !ok {
			return
		}
		log.Printf("RabbitMQ connection lost, reconnecting: %v", amqpErr)
		if err := r.Connect(); err != nil && !errors.Is(err, ErrClientClosed) {
			log.Printf("RabbitMQ reconnect error: %v", err)
		}
	}
}

func (r *RabbitMQClient) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

func (r *RabbitMQClient) Config() *RabbitMQConfig {
	return r.config
}

// Done is closed by Close.
func (r *RabbitMQClient) Done() <-chan struct{} {
	return r.done
}

func (r *RabbitMQClient) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn != nil && !r.conn.IsClosed()
}

func (r *RabbitMQClient) Close() error {
	var err error

	r.closeOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		defer r.mu.Unlock()

		if r.channel != nil {
			if cerr := r.channel.Close(); cerr != nil {
				err = fmt.Errorf("channel close error: %w", cerr)
			}
		}
		if r.conn != nil {
			if cerr := r.conn.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("connection close error: %w", cerr)
			}
		}
		r.conn, r.channel = nil, nil

		log.Println("RabbitMQ connection closed")
	})

	return err
}
