package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"complaintdesk/models"
)

// EventRepository writes the append-only complaint_events log
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record inserts an event
func (r *EventRepository) Record(ctx context.Context, e *models.ComplaintEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO complaint_events (
			complaint_id, event_type, actor_id, old_value, new_value, notes, metadata, created_at
		) VALUES (
			:complaint_id, :event_type, :actor_id, :old_value, :new_value, :notes, :metadata, :created_at
		)`, e)
	if err != nil {
		return fmt.Errorf("failed to record complaint event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}
	e.EventID = id
	return nil
}

// ListForComplaint returns a complaint's events oldest first
func (r *EventRepository) ListForComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintEvent, error) {
	events := []models.ComplaintEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT event_id, complaint_id, event_type, actor_id, old_value, new_value, notes, metadata, created_at
		FROM complaint_events
		WHERE complaint_id = ?
		ORDER BY created_at, event_id`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaint events: %w", err)
	}
	return events, nil
}
