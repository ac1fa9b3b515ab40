package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/lib/pq"
)

var ErrDuplicateOrder = errors.New("order id already exists")

// PaymentRepository stores payment records. A nil db means no connection
// string was configured: writes fail with domain.ErrStoreNotConfigured and
// reads report domain.ErrPaymentNotFound.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Configured() bool {
	return r.db != nil
}

// Initialize creates the payments table and its indexes. Index failures are
// logged and ignored; a table failure is returned.
func (r *PaymentRepository) Initialize(ctx context.Context) error {
	if r.db == nil {
		log.Println("Payment storage not configured, skipping initialization")
		return nil
	}

	if _, err := r.db.ExecContext(ctx, createPaymentsTable); err != nil {
		return fmt.Errorf("payments table create error: %w", err)
	}

	for _, stmt := range paymentIndexes {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			log.Printf("Payment index create error (ignored): %v", err)
		}
	}

	log.Println("Payment storage initialized")
	return nil
}

// SavePayment upserts by id. On conflict only the status, the processor
// reference and the metadata change; a known reference is never erased.
func (r *PaymentRepository) SavePayment(ctx context.Context, payment *domain.PaymentRecord) error {
	if r.db == nil {
		return domain.ErrStoreNotConfigured
	}

	itemsJSON, err := json.Marshal(payment.Items)
	if err != nil {
		return fmt.Errorf("items serialization error: %w", err)
	}

	metadataJSON, err := json.Marshal(payment.Metadata)
	if err != nil {
		return fmt.Errorf("metadata serialization error: %w", err)
	}

	query := `
		INSERT INTO payments (
			id, order_id, customer_name, customer_email, customer_phone,
			shipping_address, shipping_city, shipping_country, shipping_zip,
			payment_method, payment_status, stripe_payment_intent_id,
			amount, currency, items, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			payment_status = EXCLUDED.payment_status,
			stripe_payment_intent_id = COALESCE(EXCLUDED.stripe_payment_intent_id, payments.stripe_payment_intent_id),
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx,
		query,
		payment.ID,
		payment.OrderID,
		payment.Customer.Name,
		payment.Customer.Email,
		nullString(payment.Customer.Phone),
		payment.Shipping.Address,
		payment.Shipping.City,
		payment.Shipping.Country,
		nullString(payment.Shipping.ZipCode),
		string(payment.PaymentMethod),
		string(payment.PaymentStatus),
		nullString(payment.StripePaymentIntentID),
		payment.Amount,
		payment.Currency,
		itemsJSON,
		metadataJSON,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, payment.OrderID)
		}
		return fmt.Errorf("payment save error: %w", err)
	}

	return nil
}

// UpdatePaymentStatus writes status unconditionally and merges the processor
// reference (a nil ref keeps the stored one). The returned transition carries
// the status that was replaced, read under a row lock, so concurrent
// deliveries of the same event see each other's write.
func (r *PaymentRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, processorRef *string) (domain.StatusTransition, error) {
	transition := domain.StatusTransition{OrderID: orderID, Current: status}

	if r.db == nil {
		return transition, domain.ErrStoreNotConfigured
	}

	query := `
		WITH previous AS (
			SELECT id, payment_status FROM payments WHERE order_id = $1 FOR UPDATE
		)
		UPDATE payments p
		SET payment_status = $2::varchar,
			stripe_payment_intent_id = COALESCE($3::varchar, p.stripe_payment_intent_id),
			updated_at = CASE
				WHEN p.payment_status IS DISTINCT FROM $2::varchar
				  OR ($3::varchar IS NOT NULL AND p.stripe_payment_intent_id IS DISTINCT FROM $3::varchar)
				THEN $4
				ELSE p.updated_at
			END
		FROM previous
		WHERE p.id = previous.id
		RETURNING previous.payment_status
	`

	var ref sql.NullString
	if processorRef != nil && *processorRef != "" {
		ref = sql.NullString{String: *processorRef, Valid: true}
	}

	var previous string
	err := r.db.QueryRowContext(ctx, query, orderID, string(status), ref, time.Now().UTC()).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transition, fmt.Errorf("%w: order %s", domain.ErrPaymentNotFound, orderID)
		}
		return transition, fmt.Errorf("payment status update error: %w", err)
	}

	transition.Previous = domain.PaymentStatus(previous)
	return transition, nil
}

func (r *PaymentRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("%w: order %s", domain.ErrPaymentNotFound, orderID)
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE order_id = $1
	`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", domain.ErrPaymentNotFound, orderID)
		}
		return nil, fmt.Errorf("payment receive error: %w", err)
	}

	return payment, nil
}

// ListStalePending returns records of the given method still in one of the
// open statuses and created before the cutoff, oldest first. Pages resume
// strictly after the cursor; a zero cursor starts from the oldest record.
func (r *PaymentRepository) ListStalePending(ctx context.Context, method domain.PaymentMethod, before time.Time, after domain.PageCursor, limit int) ([]*domain.PaymentRecord, error) {
	if r.db == nil {
		return nil, nil
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE payment_method = $1
		  AND payment_status = ANY($2)
		  AND created_at < $3
		  AND (created_at, id) > ($4, $5)
		ORDER BY created_at ASC, id ASC
		LIMIT $6
	`

	statuses := pq.Array([]string{
		string(domain.PaymentStatusPending),
		string(domain.PaymentStatusProcessing),
	})

	rows, err := r.db.QueryContext(ctx, query, string(method), statuses, before, after.CreatedAt, after.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("stale payments receive error: %w", err)
	}
	defer rows.Close()

	var payments []*domain.PaymentRecord
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("payment scan error: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

const paymentColumns = `id, order_id, customer_name, customer_email, customer_phone,
			shipping_address, shipping_city, shipping_country, shipping_zip,
			payment_method, payment_status, stripe_payment_intent_id,
			amount, currency, items, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*domain.PaymentRecord, error) {
	payment := &domain.PaymentRecord{}
	var phone, zip, intentID sql.NullString
	var method, status string
	var itemsJSON, metadataJSON []byte

	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Customer.Name,
		&payment.Customer.Email,
		&phone,
		&payment.Shipping.Address,
		&payment.Shipping.City,
		&payment.Shipping.Country,
		&zip,
		&method,
		&status,
		&intentID,
		&payment.Amount,
		&payment.Currency,
		&itemsJSON,
		&metadataJSON,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.Customer.Phone = phone.String
	payment.Shipping.ZipCode = zip.String
	payment.StripePaymentIntentID = intentID.String
	payment.PaymentMethod = domain.PaymentMethod(method)
	payment.PaymentStatus = domain.PaymentStatus(status)

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &payment.Items); err != nil {
			return nil, fmt.Errorf("items deserialization error: %w", err)
		}
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &payment.Metadata); err != nil {
			return nil, fmt.Errorf("metadata deserialization error: %w", err)
		}
	}

	return payment, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
