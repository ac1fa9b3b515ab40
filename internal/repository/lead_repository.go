package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
)

// LeadStore persists contact and quotation submissions. Records are
// append-only.
type LeadStore interface {
	Initialize(ctx context.Context) error
	SaveContact(ctx context.Context, submission *domain.ContactSubmission) error
	SaveQuotation(ctx context.Context, request *domain.QuotationRequest) error
	Backend() string
}

// NewLeadStore picks Postgres when a database is available, the file store
// when a data directory is configured, and otherwise a store that rejects
// writes.
func NewLeadStore(db *sql.DB, dataDir string) LeadStore {
	if db != nil {
		return NewLeadRepository(db)
	}
	if dataDir != "" {
		log.Printf("Lead storage falling back to files in %s", dataDir)
		return NewFileLeadStore(dataDir)
	}
	log.Println("Lead storage not configured")
	return unconfiguredLeadStore{}
}

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Backend() string {
	return "postgres"
}

func (r *LeadRepository) Initialize(ctx context.Context) error {
	for _, stmt := range []string{createContactSubmissionsTable, createQuotationRequestsTable} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("lead table create error: %w", err)
		}
	}

	for _, stmt := range leadIndexes {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			log.Printf("Lead index create error (ignored): %v", err)
		}
	}

	log.Println("Lead storage initialized")
	return nil
}

func (r *LeadRepository) SaveContact(ctx context.Context, s *domain.ContactSubmission) error {
	query := `
		INSERT INTO contact_submissions (
			id, name, email, phone, company, subject, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		s.ID,
		s.Name,
		s.Email,
		nullString(s.Phone),
		nullString(s.Company),
		nullString(s.Subject),
		s.Message,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("contact submission save error: %w", err)
	}

	return nil
}

func (r *LeadRepository) SaveQuotation(ctx context.Context, q *domain.QuotationRequest) error {
	query := `
		INSERT INTO quotation_requests (
			id, name, email, phone, company, country, coffee_type, quantity,
			delivery_terms, washing_station, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		q.ID,
		q.Name,
		q.Email,
		nullString(q.Phone),
		q.Company,
		q.Country,
		q.CoffeeType,
		q.Quantity,
		nullString(q.DeliveryTerms),
		nullString(q.WashingStation),
		nullString(q.Message),
		q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("quotation request save error: %w", err)
	}

	return nil
}

type unconfiguredLeadStore struct{}

func (unconfiguredLeadStore) Backend() string { return "none" }

func (unconfiguredLeadStore) Initialize(context.Context) error {
	log.Println("Lead storage not configured, skipping initialization")
	return nil
}

func (unconfiguredLeadStore) SaveContact(context.Context, *domain.ContactSubmission) error {
	return domain.ErrStoreNotConfigured
}

func (unconfiguredLeadStore) SaveQuotation(context.Context, *domain.QuotationRequest) error {
	return domain.ErrStoreNotConfigured
}
