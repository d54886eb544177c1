package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"complaintdesk/models"
)

// ComplaintRepository handles database operations for complaints
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintColumns = `
	c.complaint_id, c.tracking_id, c.title, c.description,
	c.category_id, cat.name AS category_name, c.sub_category_id,
	c.campus_id, c.department_id, c.location,
	c.status, c.priority, c.urgency, c.submitter_id, c.assigned_to_id,
	c.sla_response_hours, c.sla_resolution_hours, c.first_response_at,
	c.sla_response_breached, c.sla_resolution_breached, c.sla_breach_notified_at,
	c.escalated, c.escalated_at, c.escalated_to_id, c.escalation_reason, c.escalation_level,
	c.requires_approval, c.approved_by_id, c.approved_at, c.approval_notes, c.rejection_reason,
	c.created_at, c.updated_at, c.assigned_at, c.in_progress_at, c.resolved_at, c.closed_at`

const complaintFrom = `
	FROM complaints c
	LEFT JOIN categories cat ON cat.category_id = c.category_id`

// Get retrieves a complaint by ID
func (r *ComplaintRepository) Get(ctx context.Context, id int64) (*models.Complaint, error) {
	var c models.Complaint
	query := `SELECT ` + complaintColumns + complaintFrom + ` WHERE c.complaint_id = ?`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("complaint %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return &c, nil
}

// GetByTrackingID retrieves a complaint by its public tracking id
func (r *ComplaintRepository) GetByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error) {
	var c models.Complaint
	query := `SELECT ` + complaintColumns + complaintFrom + ` WHERE c.tracking_id = ?`
	if err := r.db.GetContext(ctx, &c, query, trackingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("complaint %s: %w", trackingID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return &c, nil
}

// Create inserts a complaint with its routing and SLA fields already applied
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) (int64, error) {
	query := `
		INSERT INTO complaints (
			tracking_id, title, description, category_id, sub_category_id,
			campus_id, department_id, location, status, priority, urgency,
			submitter_id, assigned_to_id, sla_response_hours, sla_resolution_hours,
			requires_approval, created_at, assigned_at
		) VALUES (
			:tracking_id, :title, :description, :category_id, :sub_category_id,
			:campus_id, :department_id, :location, :status, :priority, :urgency,
			:submitter_id, :assigned_to_id, :sla_response_hours, :sla_resolution_hours,
			:requires_approval, :created_at, :assigned_at
		)`
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return 0, fmt.Errorf("failed to create complaint: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get complaint ID: %w", err)
	}
	c.ComplaintID = id
	return id, nil
}

func openStatuses() []string {
	statuses := make([]string, 0, len(models.OpenStatuses))
	for _, s := range models.OpenStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

// ListOpenIDs returns ids of complaints the SLA monitor should check
func (r *ComplaintRepository) ListOpenIDs(ctx context.Context) ([]int64, error) {
	query, args, err := sqlx.In(`SELECT complaint_id FROM complaints WHERE status IN (?) ORDER BY complaint_id`, openStatuses())
	if err != nil {
		return nil, fmt.Errorf("failed to build open complaints query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list open complaints: %w", err)
	}
	return ids, nil
}

// ListBreachedBelowLevel returns open breached complaints below level, the
// auto-escalation candidates.
func (r *ComplaintRepository) ListBreachedBelowLevel(ctx context.Context, level models.EscalationLevel) ([]models.EscalationCandidate, error) {
	query, args, err := sqlx.In(`
		SELECT complaint_id, escalation_level FROM complaints
		WHERE status IN (?)
		  AND (sla_response_breached = TRUE OR sla_resolution_breached = TRUE)
		  AND escalation_level < ?
		ORDER BY complaint_id`, openStatuses(), int(level))
	if err != nil {
		return nil, fmt.Errorf("failed to build breached complaints query: %w", err)
	}

	candidates := []models.EscalationCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list breached complaints: %w", err)
	}
	return candidates, nil
}

// Mutate locks the complaint row, applies fn and writes the row back when fn
// reports a change. The lock is held until commit.
func (r *ComplaintRepository) Mutate(
	ctx context.Context,
	id int64,
	fn func(c *models.Complaint) (bool, error),
) (*models.Complaint, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var c models.Complaint
	query := `SELECT ` + complaintColumns + complaintFrom + ` WHERE c.complaint_id = ? FOR UPDATE OF c`
	if err := tx.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("complaint %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock complaint: %w", err)
	}

	changed, err := fn(&c)
	if err != nil {
		return nil, err
	}
	if changed {
		c.UpdatedAt = models.NullTime(time.Now().UTC())
		if _, err := tx.NamedExecContext(ctx, updateComplaintQuery, &c); err != nil {
			return nil, fmt.Errorf("failed to update complaint: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit complaint update: %w", err)
	}
	return &c, nil
}

const updateComplaintQuery = `
	UPDATE complaints SET
		department_id = :department_id,
		status = :status,
		priority = :priority,
		assigned_to_id = :assigned_to_id,
		sla_response_hours = :sla_response_hours,
		sla_resolution_hours = :sla_resolution_hours,
		first_response_at = :first_response_at,
		sla_response_breached = :sla_response_breached,
		sla_resolution_breached = :sla_resolution_breached,
		sla_breach_notified_at = :sla_breach_notified_at,
		escalated = :escalated,
		escalated_at = :escalated_at,
		escalated_to_id = :escalated_to_id,
		escalation_reason = :escalation_reason,
		escalation_level = :escalation_level,
		requires_approval = :requires_approval,
		approved_by_id = :approved_by_id,
		approved_at = :approved_at,
		approval_notes = :approval_notes,
		rejection_reason = :rejection_reason,
		assigned_at = :assigned_at,
		in_progress_at = :in_progress_at,
		resolved_at = :resolved_at,
		closed_at = :closed_at,
		updated_at = :updated_at
	WHERE complaint_id = :complaint_id`

// ListPendingApprovals returns complaints awaiting sign-off within filter
func (r *ComplaintRepository) ListPendingApprovals(ctx context.Context, filter models.ApprovalQueueFilter) ([]*models.Complaint, error) {
	complaints := []*models.Complaint{}
	if filter.None {
		return complaints, nil
	}

	conditions := []string{"c.requires_approval = TRUE", "c.approved_by_id IS NULL"}
	var args []interface{}
	from := complaintFrom
	if filter.DepartmentID != nil {
		conditions = append(conditions, "c.department_id = ?")
		args = append(args, *filter.DepartmentID)
	}
	if filter.CollegeID != nil {
		from += `
	JOIN departments d ON d.department_id = c.department_id`
		conditions = append(conditions, "d.college_id = ?")
		args = append(args, *filter.CollegeID)
	}
	if filter.CampusID != nil {
		conditions = append(conditions, "c.campus_id = ?")
		args = append(args, *filter.CampusID)
	}

	query := `SELECT ` + complaintColumns + from +
		` WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY c.complaint_id`
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return complaints, nil
}
