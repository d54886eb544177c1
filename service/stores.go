package service

import (
	"context"
	"time"

	"complaintdesk/models"
)

// Clock returns the current time. Services default to UTC wall time.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// MutateFunc edits a locked complaint and reports whether it changed.
type MutateFunc = func(c *models.Complaint) (changed bool, err error)

// ComplaintStore persists complaints. Mutate runs fn against the row under a
// per-complaint lock and writes it back only when fn reports a change.
type ComplaintStore interface {
	Get(ctx context.Context, id int64) (*models.Complaint, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error)
	Create(ctx context.Context, c *models.Complaint) (int64, error)
	ListOpenIDs(ctx context.Context) ([]int64, error)
	Mutate(ctx context.Context, id int64, fn MutateFunc) (*models.Complaint, error)
	ListPendingApprovals(ctx context.Context, filter models.ApprovalQueueFilter) ([]*models.Complaint, error)
	// ListBreachedBelowLevel returns open complaints with either SLA breach flag
	// set whose escalation level is below level, ordered by id.
	ListBreachedBelowLevel(ctx context.Context, level models.EscalationLevel) ([]models.EscalationCandidate, error)
}

// HierarchyStore reads the organizational hierarchy and staff.
// Missing departments, colleges, campuses and users yield models.ErrNotFound.
type HierarchyStore interface {
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	GetCollege(ctx context.Context, id int64) (*models.College, error)
	GetCampus(ctx context.Context, id int64) (*models.Campus, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// FindDepartmentByName returns the lowest-id department whose name contains
	// pattern case-insensitively, or nil.
	FindDepartmentByName(ctx context.Context, pattern string) (*models.Department, error)
	// FirstActiveAdmin returns the lowest-id active admin or super_admin, or nil.
	FirstActiveAdmin(ctx context.Context) (*models.User, error)
	ListActiveUsersByRoles(ctx context.Context, roles []models.Role) ([]*models.User, error)
}

// CategoryStore reads complaint categories.
type CategoryStore interface {
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetSubCategory(ctx context.Context, id int64) (*models.SubCategory, error)
}

// RoutingRuleStore lists active routing rules.
type RoutingRuleStore interface {
	ListActive(ctx context.Context) ([]models.RoutingRule, error)
}

// SLAConfigStore lists active SLA configurations.
type SLAConfigStore interface {
	ListActiveByPriority(ctx context.Context, priority models.Priority) ([]models.SLAConfiguration, error)
}

// EventStore is the append-only complaint audit log.
type EventStore interface {
	Record(ctx context.Context, e *models.ComplaintEvent) error
	ListForComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintEvent, error)
}

// Notifier delivers complaint notifications. Implementations never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, c *models.Complaint, kind models.NotificationKind, extra map[string]string)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *models.Complaint, models.NotificationKind, map[string]string) {
}
