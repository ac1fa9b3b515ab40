package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/mailer"
	"github.com/Frankish0014/baho-coffee-sub000/internal/shared/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []domain.EmailMessage
	err  error
}

func (s *recordingSender) Configured() bool { return true }

func (s *recordingSender) Send(_ context.Context, m domain.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type recordingNotificationStore struct {
	mu      sync.Mutex
	created []*domain.Notification
	updated []domain.Notification
}

func (r *recordingNotificationStore) CreateNotification(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, n)
	return nil
}

func (r *recordingNotificationStore) UpdateNotification(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, *n)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	events    []events.Event
	err       error
	failFirst int
	retried   chan struct{}
	release   chan struct{}
}

func (p *recordingPublisher) PublishEvent(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.failFirst > 0 {
		p.failFirst--
		return errors.New("no connection to RabbitMQ")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishWithRetry(event events.Event, attempts int) error {
	if p.retried != nil {
		close(p.retried)
	}
	if p.release != nil {
		<-p.release
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = p.PublishEvent(event); err == nil {
			return nil
		}
	}
	return err
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func emailRequest() domain.NotificationRequest {
	return domain.NotificationRequest{
		Kind:        domain.NotificationOrderConfirmation,
		ReferenceID: "BAHO-1",
		Message:     domain.EmailMessage{To: "ada@example.com", Subject: "Order BAHO-1", TextBody: "thanks"},
	}
}

func TestNotifyWithWorkersDeliversAsynchronously(t *testing.T) {
	sender := &recordingSender{}
	store := &recordingNotificationStore{}
	svc := NewNotificationService(sender, store)
	svc.StartWorkers(2, 10, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Notify(context.Background(), emailRequest()))
	}
	svc.Close()

	assert.Equal(t, 5, sender.count())
	assert.Len(t, store.created, 5)
	require.Len(t, store.updated, 5)
	for _, n := range store.updated {
		assert.Equal(t, domain.NotificationStatusSent, n.Status)
		assert.NotEqual(t, uuid.Nil, n.ID)
	}

	assert.ErrorIs(t, svc.Notify(context.Background(), emailRequest()), ErrDispatcherClosed)
}

func TestNotifyRejectsWithoutRecipientOrProvider(t *testing.T) {
	svc := NewNotificationService(&recordingSender{}, &recordingNotificationStore{})
	req := emailRequest()
	req.Message.To = ""
	assert.Error(t, svc.Notify(context.Background(), req))

	unconfigured := NewNotificationService(mailer.LogSender{}, &recordingNotificationStore{})
	assert.ErrorIs(t, unconfigured.Notify(context.Background(), emailRequest()), domain.ErrEmailNotConfigured)
}

func TestDeliverRecordsFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider down")}
	store := &recordingNotificationStore{}
	svc := NewNotificationService(sender, store)

	err := svc.Deliver(context.Background(), emailRequest())
	assert.Error(t, err)
	require.Len(t, store.updated, 1)
	assert.Equal(t, domain.NotificationStatusFailed, store.updated[0].Status)
	assert.Equal(t, "provider down", store.updated[0].Error)
}

func TestAsyncDispatcherQueueFull(t *testing.T) {
	block := make(chan struct{})
	d := NewAsyncDispatcher(func(context.Context, domain.NotificationRequest) error {
		<-block
		return nil
	}, 1, 1, 0)

	// One request is picked up by the worker, one fills the buffer.
	require.NoError(t, d.Dispatch(context.Background(), emailRequest()))
	assert.Eventually(t, func() bool { return len(d.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, d.Dispatch(context.Background(), emailRequest()))
	assert.ErrorIs(t, d.Dispatch(context.Background(), emailRequest()), ErrQueueFull)

	close(block)
	d.Close()
}

func TestUseQueuePublishesEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewNotificationService(mailer.LogSender{}, &recordingNotificationStore{})
	svc.UseQueue(publisher)

	require.NoError(t, svc.Notify(context.Background(), emailRequest()))
	require.Len(t, publisher.published(), 1)

	event := publisher.published()[0]
	assert.Equal(t, events.NotificationRequestedEvent, event.EventType)
	assert.Equal(t, "BAHO-1", event.ReferenceID)
	assert.Equal(t, "ada@example.com", event.Payload.Message.To)
	assert.Equal(t, event.Payload.ID, event.CorrelationID)
}

func TestHandleEventDelivers(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(sender, &recordingNotificationStore{})

	require.NoError(t, svc.HandleEvent(context.Background(), events.NewNotificationRequested("test", emailRequest())))
	require.NoError(t, svc.HandleEvent(context.Background(), events.Event{EventType: "something.else"}))
	assert.Equal(t, 1, sender.count())
}

func TestQueueDispatchDoesNotWaitForRetries(t *testing.T) {
	publisher := &recordingPublisher{
		failFirst: 1,
		retried:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	dispatcher := NewQueueDispatcher(publisher)

	done := make(chan error, 1)
	go func() { done <- dispatcher.Dispatch(context.Background(), emailRequest()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch waited for the publish retry")
	}

	<-publisher.retried
	assert.Empty(t, publisher.published())

	close(publisher.release)
	dispatcher.Close()
	assert.Len(t, publisher.published(), 1)
}

func TestQueueDispatchBoundsBackgroundRetries(t *testing.T) {
	publisher := &recordingPublisher{
		err:     errors.New("no connection to RabbitMQ"),
		release: make(chan struct{}),
	}
	dispatcher := NewQueueDispatcher(publisher)

	for i := 0; i < maxQueueRetries; i++ {
		require.NoError(t, dispatcher.Dispatch(context.Background(), emailRequest()))
	}
	err := dispatcher.Dispatch(context.Background(), emailRequest())
	assert.ErrorIs(t, err, ErrQueueFull)

	close(publisher.release)
	dispatcher.Close()
	assert.Empty(t, publisher.published())
}
