package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"complaintdesk/models"
)

// NotificationLogRepository handles the notification_log table
type NotificationLogRepository struct {
	db *sqlx.DB
}

// NewNotificationLogRepository creates a new notification log repository
func NewNotificationLogRepository(db *sqlx.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

// Create inserts a log row (status = pending until the send completes).
func (r *NotificationLogRepository) Create(ctx context.Context, log *models.NotificationLog) error {
	if log.Status == "" {
		log.Status = models.NotificationStatusPending
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO notification_log (
			complaint_id, event_kind, recipient, subject, body, status, error_message, created_at
		) VALUES (
			:complaint_id, :event_kind, :recipient, :subject, :body, :status, :error_message, :created_at
		)`, log)
	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification log id: %w", err)
	}
	log.ID = id
	return nil
}

// UpdateStatus sets status and optional error_message after a send attempt.
func (r *NotificationLogRepository) UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus, errorMessage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notification_log SET status = ?, error_message = ? WHERE id = ?`,
		string(status), models.NullString(errorMessage), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification log status: %w", err)
	}
	return nil
}
