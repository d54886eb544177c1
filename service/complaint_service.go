package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"complaintdesk/models"
)

// validTransitions is the complaint lifecycle. Moving out of resolved or
// closed back to in_progress is a reopen.
var validTransitions = map[models.ComplaintStatus][]models.ComplaintStatus{
	models.StatusNew:        {models.StatusAssigned, models.StatusInProgress, models.StatusPending, models.StatusRejected},
	models.StatusAssigned:   {models.StatusInProgress, models.StatusPending, models.StatusResolved, models.StatusRejected},
	models.StatusInProgress: {models.StatusPending, models.StatusResolved},
	models.StatusPending:    {models.StatusInProgress, models.StatusResolved},
	models.StatusResolved:   {models.StatusClosed, models.StatusInProgress},
	models.StatusClosed:     {models.StatusInProgress},
}

// CanTransition reports whether a complaint may move from one status to another.
func CanTransition(from, to models.ComplaintStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ComplaintService handles submission and lifecycle changes. Submission runs
// routing then the SLA calculator before the complaint is first stored.
type ComplaintService struct {
	complaints ComplaintStore
	categories CategoryStore
	routing    *RoutingEngine
	sla        *SLACalculator
	audit      *auditor
	notifier   Notifier
	now        Clock
	log        zerolog.Logger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(
	complaints ComplaintStore,
	categories CategoryStore,
	routing *RoutingEngine,
	sla *SLACalculator,
	events EventStore,
	notifier Notifier,
	clock Clock,
	log zerolog.Logger,
) *ComplaintService {
	if clock == nil {
		clock = utcNow
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	l := log.With().Str("component", "complaints").Logger()
	return &ComplaintService{
		complaints: complaints,
		categories: categories,
		routing:    routing,
		sla:        sla,
		audit:      newAuditor(events, l),
		notifier:   notifier,
		now:        clock,
		log:        l,
	}
}

// Submit validates and stores a new complaint. A nil submitter or an
// anonymous request stores no submitter.
func (s *ComplaintService) Submit(
	ctx context.Context,
	req *models.CreateComplaintRequest,
	submitter *models.User,
) (*models.CreateComplaintResponse, error) {
	c, err := s.build(ctx, req, submitter)
	if err != nil {
		return nil, err
	}
	now := c.CreatedAt

	decision, err := s.routing.Route(ctx, c)
	if err != nil {
		s.log.Warn().Err(err).Str("tracking_id", c.TrackingID).Msg("routing failed, leaving complaint unassigned")
		decision = &models.RoutingDecision{Source: models.RoutingSourceNone, Notes: noRoutingMatch}
	}
	originalPriority := c.Priority
	applyDecision(c, decision, now)

	budgets, err := s.sla.Resolve(ctx, c)
	if err != nil {
		s.log.Warn().Err(err).Str("tracking_id", c.TrackingID).Msg("SLA lookup failed, using defaults")
		budgets = models.SLAResolution{SLABudget: models.DefaultBudget(c.Priority)}
	}
	Stamp(c, budgets)

	id, err := s.complaints.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}
	c.ComplaintID = id

	s.audit.record(ctx, c, models.EventCreated, submitter, "", string(c.Status), "Complaint submitted")
	if decision.HasOwner() {
		s.audit.record(ctx, c, models.EventAssigned, nil, "", ownerLabel(decision), decision.Notes)
		s.notifier.Notify(ctx, c, models.NotifyAssigned, map[string]string{"routing_notes": decision.Notes})
	}
	if c.Priority != originalPriority {
		s.audit.record(ctx, c, models.EventPriorityChanged, nil, string(originalPriority), string(c.Priority), decision.Notes)
	}

	s.log.Info().
		Int64("complaint_id", c.ComplaintID).
		Str("tracking_id", c.TrackingID).
		Str("routing_source", string(decision.Source)).
		Str("priority", string(c.Priority)).
		Int64("sla_response_hours", c.SLAResponseHours.Int64).
		Msg("complaint submitted")

	return &models.CreateComplaintResponse{
		ComplaintID: c.ComplaintID,
		TrackingID:  c.TrackingID,
		Status:      c.Status,
		Priority:    c.Priority,
		Routing:     decision,
		SLA:         budgets,
	}, nil
}

func (s *ComplaintService) build(ctx context.Context, req *models.CreateComplaintRequest, submitter *models.User) (*models.Complaint, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request body required", models.ErrValidation)
	}
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrValidation)
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		p, ok := models.ParsePriority(req.Priority)
		if !ok {
			return nil, fmt.Errorf("%w: unknown priority %q", models.ErrValidation, req.Priority)
		}
		priority = p
	}
	urgency := priority
	if req.Urgency != "" {
		u, ok := models.ParsePriority(req.Urgency)
		if !ok {
			return nil, fmt.Errorf("%w: unknown urgency %q", models.ErrValidation, req.Urgency)
		}
		urgency = u
	}

	c := &models.Complaint{
		TrackingID:  models.NewTrackingID(),
		Title:       title,
		Description: description,
		Location:    strings.TrimSpace(req.Location),
		Status:      models.StatusNew,
		Priority:    priority,
		Urgency:     urgency,
		CreatedAt:   s.now(),
	}
	if req.CampusID != nil {
		c.CampusID = models.NullInt64(*req.CampusID)
	}
	if req.DepartmentID != nil {
		c.DepartmentID = models.NullInt64(*req.DepartmentID)
	}
	if submitter != nil && !req.Anonymous {
		c.SubmitterID = models.NullInt64(submitter.UserID)
	}

	if req.SubCategoryID != nil && req.CategoryID == nil {
		return nil, fmt.Errorf("%w: sub-category requires a category", models.ErrValidation)
	}
	if req.CategoryID != nil {
		cat, err := s.categories.GetCategory(ctx, *req.CategoryID)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown category %d", models.ErrValidation, *req.CategoryID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load category: %w", err)
		}
		c.CategoryID = models.NullInt64(cat.CategoryID)
		c.CategoryName = models.NullString(cat.Name)
	}
	if req.SubCategoryID != nil {
		sub, err := s.categories.GetSubCategory(ctx, *req.SubCategoryID)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown sub-category %d", models.ErrValidation, *req.SubCategoryID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load sub-category: %w", err)
		}
		if sub.CategoryID != c.CategoryID.Int64 {
			return nil, fmt.Errorf("%w: sub-category %d does not belong to category %d",
				models.ErrValidation, sub.SubCategoryID, c.CategoryID.Int64)
		}
		c.SubCategoryID = models.NullInt64(sub.SubCategoryID)
	}
	return c, nil
}

func applyDecision(c *models.Complaint, d *models.RoutingDecision, now time.Time) {
	if d.DepartmentID != nil {
		c.DepartmentID = models.NullInt64(*d.DepartmentID)
	}
	if d.UserID != nil {
		c.AssignedToID = models.NullInt64(*d.UserID)
		c.Status = models.StatusAssigned
		c.AssignedAt = models.NullTime(now)
	}
	if d.Priority != nil {
		c.Priority = *d.Priority
	}
}

func ownerLabel(d *models.RoutingDecision) string {
	switch {
	case d.UserID != nil:
		return fmt.Sprintf("user:%d", *d.UserID)
	case d.DepartmentName != "":
		return d.DepartmentName
	case d.DepartmentID != nil:
		return fmt.Sprintf("department:%d", *d.DepartmentID)
	}
	return ""
}

// Get loads a complaint by id.
func (s *ComplaintService) Get(ctx context.Context, id int64) (*models.Complaint, error) {
	return s.complaints.Get(ctx, id)
}

// GetByTrackingID loads a complaint by its public tracking id.
func (s *ComplaintService) GetByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error) {
	return s.complaints.GetByTrackingID(ctx, trackingID)
}

// Timeline returns the complaint's audit events, oldest first.
func (s *ComplaintService) Timeline(ctx context.Context, id int64) ([]models.ComplaintEvent, error) {
	if _, err := s.complaints.Get(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.audit.events.ListForComplaint(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	if events == nil {
		events = []models.ComplaintEvent{}
	}
	return events, nil
}

// RecordFirstResponse stamps first_response_at once; later calls are no-ops.
// Students cannot respond.
func (s *ComplaintService) RecordFirstResponse(ctx context.Context, id int64, responder *models.User) (*models.Complaint, error) {
	if responder == nil || responder.Role == models.RoleStudent {
		return nil, fmt.Errorf("%w: only staff can respond to complaints", models.ErrPermissionDenied)
	}
	recorded := false
	c, err := s.complaints.Mutate(ctx, id, func(c *models.Complaint) (bool, error) {
		if c.FirstResponseAt.Valid {
			return false, nil
		}
		c.FirstResponseAt = models.NullTime(s.now())
		recorded = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if recorded {
		s.audit.record(ctx, c, models.EventFirstResponse, responder, "", "", "First response recorded")
	}
	return c, nil
}

// ChangeStatus moves a complaint along the lifecycle. Only the assignee or
// staff allowed to assign may change status.
func (s *ComplaintService) ChangeStatus(
	ctx context.Context,
	id int64,
	actor *models.User,
	newStatus string,
	note string,
) (*models.Complaint, error) {
	target := models.ComplaintStatus(strings.TrimSpace(newStatus))
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, newStatus)
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: actor required", models.ErrPermissionDenied)
	}
	note = strings.TrimSpace(note)

	var oldStatus models.ComplaintStatus
	c, err := s.complaints.Mutate(ctx, id, func(c *models.Complaint) (bool, error) {
		isAssignee := c.AssignedToID.Valid && c.AssignedToID.Int64 == actor.UserID
		if !isAssignee && !models.CapabilitiesFor(actor.Role).CanAssign {
			return false, fmt.Errorf("%w: only the assignee or a manager can change status", models.ErrPermissionDenied)
		}
		if target == models.StatusRejected && note == "" {
			return false, fmt.Errorf("%w: a reason is required to reject a complaint", models.ErrValidation)
		}
		if !CanTransition(c.Status, target) {
			return false, fmt.Errorf("%w: invalid status transition: cannot change from %s to %s",
				models.ErrValidation, c.Status, target)
		}

		oldStatus = c.Status
		now := s.now()
		c.Status = target
		switch target {
		case models.StatusAssigned:
			c.AssignedAt = models.NullTime(now)
		case models.StatusInProgress:
			c.InProgressAt = models.NullTime(now)
		case models.StatusResolved:
			c.ResolvedAt = models.NullTime(now)
		case models.StatusClosed:
			c.ClosedAt = models.NullTime(now)
		case models.StatusRejected:
			c.RejectionReason = models.NullString(note)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	eventType := models.EventStatusChanged
	kind := models.NotifyStatusChanged
	switch {
	case target == models.StatusResolved:
		eventType, kind = models.EventResolved, models.NotifyResolved
	case target == models.StatusClosed:
		eventType = models.EventClosed
	case target == models.StatusRejected:
		eventType, kind = models.EventRejected, models.NotifyRejected
	case oldStatus.IsFinished():
		eventType = models.EventReopened
	}
	s.audit.record(ctx, c, eventType, actor, string(oldStatus), string(target), note)
	s.notifier.Notify(ctx, c, kind, map[string]string{
		"old_status": string(oldStatus),
		"new_status": string(target),
		"note":       note,
	})

	s.log.Info().
		Int64("complaint_id", c.ComplaintID).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(target)).
		Int64("actor_id", actor.UserID).
		Msg("complaint status changed")
	return c, nil
}
