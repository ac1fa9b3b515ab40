package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers one rendered email.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, message domain.EmailMessage) error
}

type SendGridSender struct {
	client   *sendgrid.Client
	from     *mail.Email
	fromAddr string
}

func NewSendGridSender(apiKey, fromAddress, fromName string) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     mail.NewEmail(fromName, fromAddress),
		fromAddr: fromAddress,
	}
}

func (s *SendGridSender) Configured() bool {
	return s.fromAddr != ""
}

func (s *SendGridSender) Send(ctx context.Context, message domain.EmailMessage) error {
	to := mail.NewEmail("", message.To)
	email := mail.NewSingleEmail(s.from, message.Subject, to, message.TextBody, message.HTMLBody)

	response, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message to %s: status %d: %s",
			message.To, response.StatusCode, response.Body)
	}

	log.Printf("Email sent: To=%s Subject=%q Status=%d", message.To, message.Subject, response.StatusCode)
	return nil
}

// LogSender stands in when no provider key is configured. It logs the
// message and reports that email is not configured.
type LogSender struct{}

func (LogSender) Configured() bool {
	return false
}

func (LogSender) Send(_ context.Context, message domain.EmailMessage) error {
	log.Printf("Email not sent (provider not configured): To=%s Subject=%q", message.To, message.Subject)
	return domain.ErrEmailNotConfigured
}

// New returns the SendGrid sender when an API key is set.
func New(apiKey, fromAddress, fromName string) Sender {
	if apiKey == "" || fromAddress == "" {
		log.Println("SENDGRID_API_KEY or EMAIL_FROM not set, emails will only be logged")
		return LogSender{}
	}
	return NewSendGridSender(apiKey, fromAddress, fromName)
}
