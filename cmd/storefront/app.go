package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/config"
	"github.com/Frankish0014/baho-coffee-sub000/internal/gateway"
	"github.com/Frankish0014/baho-coffee-sub000/internal/mailer"
	"github.com/Frankish0014/baho-coffee-sub000/internal/notification"
	"github.com/Frankish0014/baho-coffee-sub000/internal/repository"
	"github.com/Frankish0014/baho-coffee-sub000/internal/service"
)

const brandName = "Baho Coffee"

// application holds the wired dependencies shared by every subcommand.
type application struct {
	cfg *config.Config
	db  *sql.DB

	payments      *repository.PaymentRepository
	leads         repository.LeadStore
	notifications *repository.NotificationRepository

	gateway   gateway.PaymentGateway
	sender    mailer.Sender
	templates *notification.Templates
	notifier  *service.NotificationService
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	cfg.LogMissing()
	return cfg, nil
}

// newApplication opens the database when configured and builds the
// repositories and integrations. Missing credentials never fail here.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	db, err := repository.OpenDatabase(ctx, repository.DatabaseConfig{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}

	notificationRepo := repository.NewNotificationRepository(db)
	sender := mailer.New(cfg.Email.SendGridAPIKey, cfg.Email.From, cfg.Email.FromName)

	return &application{
		cfg:           cfg,
		db:            db,
		payments:      repository.NewPaymentRepository(db),
		leads:         repository.NewLeadStore(db, cfg.Leads.DataDir),
		notifications: notificationRepo,
		gateway:       gateway.New(cfg.Payments.Gateway, cfg.Payments.StripeSecretKey, cfg.Payments.MockFailureRate),
		sender:        sender,
		templates:     notification.NewTemplates(brandName, cfg.Email.AdminEmail),
		notifier:      service.NewNotificationService(sender, notificationRepo),
	}, nil
}

// initialize creates the tables, or the lead data directory when running
// without a database.
func (a *application) initialize(ctx context.Context) error {
	if err := a.payments.Initialize(ctx); err != nil {
		return fmt.Errorf("payments schema error: %w", err)
	}
	if err := a.leads.Initialize(ctx); err != nil {
		return fmt.Errorf("leads schema error: %w", err)
	}
	if err := a.notifications.Initialize(ctx); err != nil {
		return fmt.Errorf("notifications schema error: %w", err)
	}

	return nil
}

func (a *application) reconciliation() *service.ReconciliationService {
	return service.NewReconciliationService(a.payments, a.gateway, a.notifier, a.templates,
		a.cfg.Payments.ReconcileAfter, a.cfg.Payments.AbandonAfter)
}

func (a *application) close() {
	a.notifier.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("Database close error: %v", err)
		}
	}
}
