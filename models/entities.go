package models

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ComplaintStatus represents the possible statuses of a complaint
type ComplaintStatus string

const (
	StatusNew        ComplaintStatus = "new"
	StatusAssigned   ComplaintStatus = "assigned"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusPending    ComplaintStatus = "pending"
	StatusResolved   ComplaintStatus = "resolved"
	StatusClosed     ComplaintStatus = "closed"
	StatusRejected   ComplaintStatus = "rejected"
)

// OpenStatuses are the statuses the SLA monitor sweeps.
var OpenStatuses = []ComplaintStatus{
	StatusNew,
	StatusAssigned,
	StatusInProgress,
	StatusPending,
}

// IsOpen reports whether the status is one of OpenStatuses.
func (s ComplaintStatus) IsOpen() bool {
	for _, open := range OpenStatuses {
		if s == open {
			return true
		}
	}
	return false
}

// IsFinished reports whether the complaint no longer runs a resolution clock.
func (s ComplaintStatus) IsFinished() bool {
	return s == StatusResolved || s == StatusClosed
}

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusNew, StatusAssigned, StatusInProgress, StatusPending,
		StatusResolved, StatusClosed, StatusRejected:
		return true
	}
	return false
}

// Priority represents complaint priority levels
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ParsePriority returns the priority for s, or PriorityMedium with ok=false.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(s)
	if p.Valid() {
		return p, true
	}
	return PriorityMedium, false
}

// Complaint is the aggregate root mutated by routing, SLA, escalation and approval.
type Complaint struct {
	ComplaintID   int64          `db:"complaint_id" json:"complaint_id"`
	TrackingID    string         `db:"tracking_id" json:"tracking_id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	CategoryID    sql.NullInt64  `db:"category_id" json:"category_id"`
	CategoryName  sql.NullString `db:"category_name" json:"category_name"` // joined from categories
	SubCategoryID sql.NullInt64  `db:"sub_category_id" json:"sub_category_id"`
	CampusID      sql.NullInt64  `db:"campus_id" json:"campus_id"`
	DepartmentID  sql.NullInt64  `db:"department_id" json:"department_id"`
	Location      string         `db:"location" json:"location"`

	Status   ComplaintStatus `db:"status" json:"status"`
	Priority Priority        `db:"priority" json:"priority"`
	Urgency  Priority        `db:"urgency" json:"urgency"`

	SubmitterID  sql.NullInt64 `db:"submitter_id" json:"submitter_id"`
	AssignedToID sql.NullInt64 `db:"assigned_to_id" json:"assigned_to_id"`

	SLAResponseHours      sql.NullInt64 `db:"sla_response_hours" json:"sla_response_hours"`
	SLAResolutionHours    sql.NullInt64 `db:"sla_resolution_hours" json:"sla_resolution_hours"`
	FirstResponseAt       sql.NullTime  `db:"first_response_at" json:"first_response_at"`
	SLAResponseBreached   bool          `db:"sla_response_breached" json:"sla_response_breached"`
	SLAResolutionBreached bool          `db:"sla_resolution_breached" json:"sla_resolution_breached"`
	SLABreachNotifiedAt   sql.NullTime  `db:"sla_breach_notified_at" json:"sla_breach_notified_at"`

	Escalated        bool            `db:"escalated" json:"escalated"`
	EscalatedAt      sql.NullTime    `db:"escalated_at" json:"escalated_at"`
	EscalatedToID    sql.NullInt64   `db:"escalated_to_id" json:"escalated_to_id"`
	EscalationReason sql.NullString  `db:"escalation_reason" json:"escalation_reason"`
	EscalationLevel  EscalationLevel `db:"escalation_level" json:"escalation_level"`

	RequiresApproval bool           `db:"requires_approval" json:"requires_approval"`
	ApprovedByID     sql.NullInt64  `db:"approved_by_id" json:"approved_by_id"`
	ApprovedAt       sql.NullTime   `db:"approved_at" json:"approved_at"`
	ApprovalNotes    sql.NullString `db:"approval_notes" json:"approval_notes"`
	RejectionReason  sql.NullString `db:"rejection_reason" json:"rejection_reason"`

	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at" json:"updated_at"`
	AssignedAt   sql.NullTime `db:"assigned_at" json:"assigned_at"`
	InProgressAt sql.NullTime `db:"in_progress_at" json:"in_progress_at"`
	ResolvedAt   sql.NullTime `db:"resolved_at" json:"resolved_at"`
	ClosedAt     sql.NullTime `db:"closed_at" json:"closed_at"`
}

// Category is a top-level complaint classification.
type Category struct {
	CategoryID int64  `db:"category_id" json:"category_id"`
	Name       string `db:"name" json:"name"`
	IsActive   bool   `db:"is_active" json:"is_active"`
}

// SubCategory belongs to exactly one Category.
type SubCategory struct {
	SubCategoryID int64  `db:"sub_category_id" json:"sub_category_id"`
	CategoryID    int64  `db:"category_id" json:"category_id"`
	Name          string `db:"name" json:"name"`
	IsActive      bool   `db:"is_active" json:"is_active"`
}

// EventType is the audit event kind stored in complaint_events.
type EventType string

const (
	EventCreated         EventType = "created"
	EventAssigned        EventType = "assigned"
	EventStatusChanged   EventType = "status_changed"
	EventPriorityChanged EventType = "priority_changed"
	EventCommentAdded    EventType = "comment_added"
	EventFileAttached    EventType = "file_attached"
	EventResolved        EventType = "resolved"
	EventClosed          EventType = "closed"
	EventRejected        EventType = "rejected"
	EventReopened        EventType = "reopened"
	EventEscalated       EventType = "escalated"
	EventSLABreached     EventType = "sla_breached"
	EventFirstResponse   EventType = "first_response"
)

// ComplaintEvent is an append-only audit record.
type ComplaintEvent struct {
	EventID     int64          `db:"event_id" json:"event_id"`
	ComplaintID int64          `db:"complaint_id" json:"complaint_id"`
	EventType   EventType      `db:"event_type" json:"event_type"`
	ActorID     sql.NullInt64  `db:"actor_id" json:"actor_id"` // NULL for system
	OldValue    string         `db:"old_value" json:"old_value"`
	NewValue    string         `db:"new_value" json:"new_value"`
	Notes       string         `db:"notes" json:"notes"`
	Metadata    sql.NullString `db:"metadata" json:"metadata"` // JSON
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// NullInt64 wraps a value as a valid sql.NullInt64.
func NullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

// NullTime wraps a value as a valid sql.NullTime.
func NullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

// NullString wraps s as sql.NullString, invalid when empty.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NewTrackingID returns an externally visible complaint reference such as CMP-3F2A9C1B.
func NewTrackingID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CMP-" + strings.ToUpper(id[:8])
}
