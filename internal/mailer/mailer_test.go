package mailer

import (
	"context"
	"testing"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewFallsBackToLogSender(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		from       string
		configured bool
	}{
		{"no key", "", "orders@bahocoffee.com", false},
		{"no sender address", "SG.key", "", false},
		{"configured", "SG.key", "orders@bahocoffee.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.configured, New(tt.apiKey, tt.from, "Baho Coffee").Configured())
		})
	}
}

func TestLogSenderReportsNotConfigured(t *testing.T) {
	err := LogSender{}.Send(context.Background(), domain.EmailMessage{To: "ada@example.com", Subject: "hi"})
	assert.ErrorIs(t, err, domain.ErrEmailNotConfigured)
}
