package models

import (
	"database/sql"
	"time"
)

// NotificationKind is the event a notification is about.
type NotificationKind string

const (
	NotifyAssigned      NotificationKind = "assigned"
	NotifyStatusChanged NotificationKind = "status_changed"
	NotifyReviewed      NotificationKind = "reviewed"
	NotifyRejected      NotificationKind = "rejected"
	NotifyResolved      NotificationKind = "resolved"
	NotifyEscalated     NotificationKind = "escalated"
	NotifySLABreached   NotificationKind = "sla_breached"
	NotifyApprovalAsked NotificationKind = "approval_requested"
)

// NotificationStatus represents the status of a notification
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
	NotificationStatusShadow  NotificationStatus = "shadow"
)

// NotificationLog is one row of notification_log.
type NotificationLog struct {
	ID           int64              `db:"id" json:"id"`
	ComplaintID  int64              `db:"complaint_id" json:"complaint_id"`
	EventKind    NotificationKind   `db:"event_kind" json:"event_kind"`
	Recipient    string             `db:"recipient" json:"recipient"`
	Subject      string             `db:"subject" json:"subject"`
	Body         string             `db:"body" json:"body"`
	Status       NotificationStatus `db:"status" json:"status"`
	ErrorMessage sql.NullString     `db:"error_message" json:"error_message"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}
