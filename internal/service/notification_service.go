package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/mailer"
	"github.com/Frankish0014/baho-coffee-sub000/internal/shared/events"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const serviceName = "storefront"

var (
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
	ErrQueueFull        = errors.New("notification queue is full")
)

// Notifier queues an email. A nil error means the message was accepted for
// delivery, not that it was delivered.
type Notifier interface {
	Notify(ctx context.Context, req domain.NotificationRequest) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	UpdateNotification(ctx context.Context, n *domain.Notification) error
}

// Dispatcher moves a request out of the caller's goroutine.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.NotificationRequest) error
	Close()
}

type DeliverFunc func(ctx context.Context, req domain.NotificationRequest) error

type EventPublisher interface {
	PublishEvent(event events.Event) error
	PublishWithRetry(event events.Event, maxAttempts int) error
}

type NotificationService struct {
	sender     mailer.Sender
	store      NotificationStore
	dispatcher Dispatcher
	remote     bool
}

func NewNotificationService(sender mailer.Sender, store NotificationStore) *NotificationService {
	return &NotificationService{
		sender: sender,
		store:  store,
	}
}

// StartWorkers delivers queued emails from in-process workers.
func (s *NotificationService) StartWorkers(workers, queueSize int, perSecond float64) {
	s.dispatcher = NewAsyncDispatcher(s.Deliver, workers, queueSize, perSecond)
	s.remote = false
}

// UseQueue hands emails to the message queue; the notifier process delivers
// them.
func (s *NotificationService) UseQueue(publisher EventPublisher) {
	s.dispatcher = NewQueueDispatcher(publisher)
	s.remote = true
}

func (s *NotificationService) Close() {
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
}

func (s *NotificationService) Configured() bool {
	return s.remote || s.sender.Configured()
}

func (s *NotificationService) Notify(ctx context.Context, req domain.NotificationRequest) error {
	if strings.TrimSpace(req.Message.To) == "" {
		return fmt.Errorf("notification %s for %s has no recipient", req.Kind, req.ReferenceID)
	}

	if !s.Configured() {
		log.Printf("Email skipped: Kind=%s ReferenceID=%s: %v", req.Kind, req.ReferenceID, domain.ErrEmailNotConfigured)
		return domain.ErrEmailNotConfigured
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	notification := domain.NewNotification(req)
	if err := s.store.CreateNotification(ctx, notification); err != nil {
		log.Printf("Notification record error (ignored): ID=%s: %v", req.ID, err)
	}

	dispatcher := s.dispatcher
	if dispatcher == nil {
		dispatcher = inlineDispatcher{deliver: s.Deliver}
	}

	if err := dispatcher.Dispatch(ctx, req); err != nil {
		notification.MarkAsFailed(err)
		if uerr := s.store.UpdateNotification(ctx, notification); uerr != nil {
			log.Printf("Notification update error (ignored): ID=%s: %v", req.ID, uerr)
		}
		log.Printf("Email not queued: Kind=%s ReferenceID=%s: %v", req.Kind, req.ReferenceID, err)
		return err
	}

	log.Printf("Email queued: Kind=%s ReferenceID=%s To=%s", req.Kind, req.ReferenceID, req.Message.To)
	return nil
}

// Deliver sends the message now and records the outcome.
func (s *NotificationService) Deliver(ctx context.Context, req domain.NotificationRequest) error {
	notification := domain.NewNotification(req)

	err := s.sender.Send(ctx, req.Message)
	if err != nil {
		notification.MarkAsFailed(err)
		log.Printf("Email delivery failed: Kind=%s ReferenceID=%s To=%s: %v",
			req.Kind, req.ReferenceID, req.Message.To, err)
	} else {
		notification.MarkAsSent()
	}

	if uerr := s.store.UpdateNotification(ctx, notification); uerr != nil {
		log.Printf("Notification update error (ignored): ID=%s: %v", req.ID, uerr)
	}

	return err
}

// HandleEvent is the queue consumer entry point.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	if event.EventType != events.NotificationRequestedEvent {
		log.Printf("Ignoring event: EventType=%s", event.EventType)
		return nil
	}
	return s.Deliver(ctx, event.Payload)
}

// AsyncDispatcher feeds a bounded channel drained by worker goroutines. Sends
// are throttled to the provider's rate limit.
type AsyncDispatcher struct {
	deliver DeliverFunc
	jobs    chan domain.NotificationRequest
	limiter *rate.Limiter
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncDispatcher(deliver DeliverFunc, workers, queueSize int, perSecond float64) *AsyncDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	d := &AsyncDispatcher{
		deliver: deliver,
		jobs:    make(chan domain.NotificationRequest, queueSize),
		limiter: rate.NewLimiter(limit, 1),
		timeout: 30 * time.Second,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, req domain.NotificationRequest) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting requests and waits for queued ones to be delivered.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *AsyncDispatcher) worker() {
	defer d.wg.Done()

	for req := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.limiter.Wait(ctx); err != nil {
			log.Printf("Email rate limiter error: ReferenceID=%s: %v", req.ReferenceID, err)
		} else {
			// Deliver logs and records its own failures.
			_ = d.deliver(ctx, req)
		}
		cancel()
	}
}

const (
	queueRetryAttempts = 3
	maxQueueRetries    = 32
)

// QueueDispatcher publishes requests to RabbitMQ. The caller only waits for a
// single publish attempt; retries run in the background, bounded by
// maxQueueRetries.
type QueueDispatcher struct {
	publisher EventPublisher
	inFlight  chan struct{}
	retries   sync.WaitGroup
}

func NewQueueDispatcher(publisher EventPublisher) *QueueDispatcher {
	return &QueueDispatcher{
		publisher: publisher,
		inFlight:  make(chan struct{}, maxQueueRetries),
	}
}

func (q *QueueDispatcher) Dispatch(_ context.Context, req domain.NotificationRequest) error {
	event := events.NewNotificationRequested(serviceName, req)

	err := q.publisher.PublishEvent(event)
	if err == nil {
		return nil
	}

	select {
	case q.inFlight <- struct{}{}:
	default:
		return fmt.Errorf("%w: %v", ErrQueueFull, err)
	}

	log.Printf("Notification publish deferred: ReferenceID=%s: %v", req.ReferenceID, err)

	q.retries.Add(1)
	go func() {
		defer q.retries.Done()
		defer func() { <-q.inFlight }()

		if err := q.publisher.PublishWithRetry(event, queueRetryAttempts); err != nil {
			log.Printf("Notification publish dropped: ReferenceID=%s NotificationID=%s: %v",
				req.ReferenceID, req.ID, err)
		}
	}()
	return nil
}

// Close waits for background retries to finish.
func (q *QueueDispatcher) Close() {
	q.retries.Wait()
}

type inlineDispatcher struct {
	deliver DeliverFunc
}

func (d inlineDispatcher) Dispatch(_ context.Context, req domain.NotificationRequest) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = d.deliver(ctx, req)
	}()
	return nil
}

func (inlineDispatcher) Close() {}

// queueEmail wraps Notify for callers that only need to know whether the
// message was accepted.
func queueEmail(ctx context.Context, notifier Notifier, kind domain.NotificationKind, referenceID string, message domain.EmailMessage) bool {
	err := notifier.Notify(ctx, domain.NotificationRequest{
		ID:          uuid.New(),
		Kind:        kind,
		ReferenceID: referenceID,
		Message:     message,
	})
	return err == nil
}
