package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/Frankish0014/baho-coffee-sub000/internal/notification"
	"github.com/Frankish0014/baho-coffee-sub000/internal/repository"
)

// LeadService stores contact and quotation submissions and queues the
// acknowledgement and admin emails. A lead counts as received when either
// the store or the email path accepted it.
type LeadService struct {
	store     repository.LeadStore
	notifier  Notifier
	templates *notification.Templates
}

func NewLeadService(store repository.LeadStore, notifier Notifier, templates *notification.Templates) *LeadService {
	return &LeadService{
		store:     store,
		notifier:  notifier,
		templates: templates,
	}
}

func (s *LeadService) SubmitContact(ctx context.Context, form domain.ContactForm) (*domain.LeadResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	submission := domain.NewContactSubmission(form)
	result := &domain.LeadResult{ID: submission.ID}

	saveErr := s.store.SaveContact(ctx, submission)
	if saveErr != nil {
		log.Printf("Contact submission save error: ID=%s Backend=%s: %v", submission.ID, s.store.Backend(), saveErr)
	} else {
		result.Saved = true
	}

	result.EmailQueued = queueEmail(ctx, s.notifier, domain.NotificationContactAck, submission.ID,
		s.templates.ContactAcknowledgement(submission))
	adminQueued := s.notifyAdmin(ctx, submission.ID, func() domain.EmailMessage {
		return s.templates.AdminContact(submission)
	})

	if !result.Saved && !adminQueued {
		return nil, fmt.Errorf("contact submission was not recorded: %w", saveErr)
	}

	return result, nil
}

func (s *LeadService) SubmitQuotation(ctx context.Context, form domain.QuotationForm) (*domain.LeadResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	request := domain.NewQuotationRequest(form)
	result := &domain.LeadResult{ID: request.ID}

	saveErr := s.store.SaveQuotation(ctx, request)
	if saveErr != nil {
		log.Printf("Quotation request save error: ID=%s Backend=%s: %v", request.ID, s.store.Backend(), saveErr)
	} else {
		result.Saved = true
	}

	result.EmailQueued = queueEmail(ctx, s.notifier, domain.NotificationQuotationAck, request.ID,
		s.templates.QuotationAcknowledgement(request))
	adminQueued := s.notifyAdmin(ctx, request.ID, func() domain.EmailMessage {
		return s.templates.AdminQuotation(request)
	})

	if !result.Saved && !adminQueued {
		return nil, fmt.Errorf("quotation request was not recorded: %w", saveErr)
	}

	return result, nil
}

func (s *LeadService) notifyAdmin(ctx context.Context, referenceID string, render func() domain.EmailMessage) bool {
	if s.templates.AdminEmail() == "" {
		log.Printf("ADMIN_EMAIL not set, skipping lead alert for %s", referenceID)
		return false
	}
	return queueEmail(ctx, s.notifier, domain.NotificationAdminLead, referenceID, render())
}
