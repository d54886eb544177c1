package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"complaintdesk/metrics"
	"complaintdesk/models"
)

const (
	pendingApprovalLabel = "Pending Approval"
	approvedLabel        = "Approved"
)

// ApprovalService gates complaints on sign-off from the hierarchy.
type ApprovalService struct {
	complaints ComplaintStore
	hierarchy  *HierarchyService
	audit      *auditor
	notifier   Notifier
	now        Clock
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	complaints ComplaintStore,
	hierarchy *HierarchyService,
	events EventStore,
	notifier Notifier,
	clock Clock,
	m *metrics.Metrics,
	log zerolog.Logger,
) *ApprovalService {
	if clock == nil {
		clock = utcNow
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	l := log.With().Str("component", "approval").Logger()
	return &ApprovalService{
		complaints: complaints,
		hierarchy:  hierarchy,
		audit:      newAuditor(events, l),
		notifier:   notifier,
		now:        clock,
		metrics:    m,
		log:        l,
	}
}

// CanApprove reports whether u may approve or reject the complaint.
func (s *ApprovalService) CanApprove(ctx context.Context, u *models.User, c *models.Complaint) (bool, error) {
	return s.hierarchy.CanApprove(ctx, u, c)
}

// Approve signs off a complaint. A second approval fails with ErrConflict.
func (s *ApprovalService) Approve(ctx context.Context, complaintID int64, approver *models.User, notes string) (*models.Complaint, error) {
	if approver == nil {
		return nil, fmt.Errorf("%w: approver required", models.ErrPermissionDenied)
	}
	notes = strings.TrimSpace(notes)
	now := s.now()

	c, err := s.complaints.Mutate(ctx, complaintID, func(c *models.Complaint) (bool, error) {
		if err := s.authorize(ctx, approver, c, "approve"); err != nil {
			return false, err
		}
		if c.ApprovedByID.Valid {
			return false, fmt.Errorf("%w: complaint already approved", models.ErrConflict)
		}
		c.ApprovedByID = models.NullInt64(approver.UserID)
		c.ApprovedAt = models.NullTime(now)
		c.ApprovalNotes = models.NullString(notes)
		c.RequiresApproval = false
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, c, models.EventStatusChanged, approver, pendingApprovalLabel, approvedLabel,
		fmt.Sprintf("Approved by %s: %s", approver.DisplayName(), notes))
	s.notifier.Notify(ctx, c, models.NotifyReviewed, map[string]string{
		"additional_message": strings.TrimSpace("Your complaint has been approved. " + notes),
	})
	s.metrics.Approval("approved")
	s.log.Info().Int64("complaint_id", c.ComplaintID).Int64("approver_id", approver.UserID).Msg("complaint approved")
	return c, nil
}

// Reject closes a complaint as rejected. The reason is mandatory.
func (s *ApprovalService) Reject(ctx context.Context, complaintID int64, approver *models.User, reason string) (*models.Complaint, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", models.ErrValidation)
	}
	if approver == nil {
		return nil, fmt.Errorf("%w: approver required", models.ErrPermissionDenied)
	}

	var oldStatus models.ComplaintStatus
	c, err := s.complaints.Mutate(ctx, complaintID, func(c *models.Complaint) (bool, error) {
		if err := s.authorize(ctx, approver, c, "reject"); err != nil {
			return false, err
		}
		if c.Status == models.StatusRejected {
			return false, fmt.Errorf("%w: complaint already rejected", models.ErrConflict)
		}
		oldStatus = c.Status
		c.Status = models.StatusRejected
		c.RejectionReason = models.NullString(reason)
		c.RequiresApproval = false
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, c, models.EventRejected, approver, string(oldStatus), string(models.StatusRejected),
		fmt.Sprintf("Rejected by %s: %s", approver.DisplayName(), reason))
	s.notifier.Notify(ctx, c, models.NotifyRejected, map[string]string{"reason": reason})
	s.metrics.Approval("rejected")
	s.log.Info().Int64("complaint_id", c.ComplaintID).Int64("approver_id", approver.UserID).Msg("complaint rejected")
	return c, nil
}

// RequestApproval flags a complaint for sign-off and returns the chosen
// approver. Only the assignee or an admin may ask. When no approver can be
// determined it returns ErrNoApprover and changes nothing.
func (s *ApprovalService) RequestApproval(ctx context.Context, complaintID int64, requester *models.User) (*models.User, error) {
	if requester == nil {
		return nil, fmt.Errorf("%w: requester required", models.ErrPermissionDenied)
	}

	var (
		approver  *models.User
		oldStatus models.ComplaintStatus
	)
	c, err := s.complaints.Mutate(ctx, complaintID, func(c *models.Complaint) (bool, error) {
		isAssignee := c.AssignedToID.Valid && c.AssignedToID.Int64 == requester.UserID
		if !isAssignee && !requester.Role.IsAdmin() {
			return false, fmt.Errorf("%w: only the assignee or an admin can request approval", models.ErrPermissionDenied)
		}
		if c.ApprovedByID.Valid {
			return false, fmt.Errorf("%w: complaint already approved", models.ErrConflict)
		}
		if c.RequiresApproval {
			return false, fmt.Errorf("%w: approval already requested", models.ErrConflict)
		}

		u, err := s.hierarchy.DetermineApprover(ctx, c)
		if err != nil {
			return false, err
		}
		if u == nil {
			return false, models.ErrNoApprover
		}
		approver = u
		oldStatus = c.Status
		c.RequiresApproval = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, c, models.EventStatusChanged, requester, string(oldStatus), pendingApprovalLabel,
		fmt.Sprintf("Approval requested from %s", approver.DisplayName()))
	s.notifier.Notify(ctx, c, models.NotifyApprovalAsked, map[string]string{
		"recipient_user_id": strconv.FormatInt(approver.UserID, 10),
	})
	s.metrics.Approval("requested")
	s.log.Info().
		Int64("complaint_id", c.ComplaintID).
		Int64("requester_id", requester.UserID).
		Int64("approver_id", approver.UserID).
		Msg("approval requested")
	return approver, nil
}

// PendingApprovals lists complaints awaiting sign-off that u may act on.
func (s *ApprovalService) PendingApprovals(ctx context.Context, u *models.User) ([]*models.Complaint, error) {
	filter, err := s.hierarchy.ApprovalFilter(ctx, u)
	if err != nil {
		return nil, err
	}
	if filter.None {
		return []*models.Complaint{}, nil
	}
	return s.complaints.ListPendingApprovals(ctx, filter)
}

func (s *ApprovalService) authorize(ctx context.Context, u *models.User, c *models.Complaint, action string) error {
	ok, err := s.hierarchy.CanApprove(ctx, u, c)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: you do not have permission to %s this complaint", models.ErrPermissionDenied, action)
	}
	return nil
}
