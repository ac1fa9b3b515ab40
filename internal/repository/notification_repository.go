package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
)

// NotificationRepository keeps an audit trail of queued emails. Without a
// database every call is a no-op.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Initialize(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, createNotificationsTable); err != nil {
		return fmt.Errorf("notifications table create error: %w", err)
	}

	for _, stmt := range notificationIndexes {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			log.Printf("Notification index create error (ignored): %v", err)
		}
	}

	return nil
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if r.db == nil {
		return nil
	}

	query := `
		INSERT INTO notifications (
			id, kind, reference_id, recipient, subject, status, error, created_at, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx,
		query,
		n.ID,
		string(n.Kind),
		n.ReferenceID,
		n.Recipient,
		n.Subject,
		string(n.Status),
		nullString(n.Error),
		n.CreatedAt,
		n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("notification create error: %w", err)
	}
	return nil
}

func (r *NotificationRepository) UpdateNotification(ctx context.Context, n *domain.Notification) error {
	if r.db == nil {
		return nil
	}

	query := `
		UPDATE notifications
		SET status = $2, error = $3, sent_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, n.ID, string(n.Status), nullString(n.Error), n.SentAt)
	if err != nil {
		return fmt.Errorf("notification update error: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetNotificationsByReference(ctx context.Context, referenceID string) ([]*domain.Notification, error) {
	if r.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, kind, reference_id, recipient, subject, status, error, created_at, sent_at
		FROM notifications
		WHERE reference_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, referenceID)
	if err != nil {
		return nil, fmt.Errorf("notifications receive error: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification

	for rows.Next() {
		n := &domain.Notification{}
		var kind, status string
		var errText sql.NullString
		var sentAt sql.NullTime

		if err := rows.Scan(
			&n.ID,
			&kind,
			&n.ReferenceID,
			&n.Recipient,
			&n.Subject,
			&status,
			&errText,
			&n.CreatedAt,
			&sentAt,
		); err != nil {
			return nil, fmt.Errorf("notification scan error: %w", err)
		}

		n.Kind = domain.NotificationKind(kind)
		n.Status = domain.NotificationStatus(status)
		n.Error = errText.String
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}

		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
