package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"complaintdesk/metrics"
	"complaintdesk/models"
)

// EscalationService raises complaints up the hierarchy:
// department head, dean, campus director, admin.
type EscalationService struct {
	complaints ComplaintStore
	hierarchy  *HierarchyService
	monitor    *SLAMonitor
	audit      *auditor
	notifier   Notifier
	now        Clock
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewEscalationService creates a new escalation service
func NewEscalationService(
	complaints ComplaintStore,
	hierarchy *HierarchyService,
	monitor *SLAMonitor,
	events EventStore,
	notifier Notifier,
	clock Clock,
	m *metrics.Metrics,
	log zerolog.Logger,
) *EscalationService {
	if clock == nil {
		clock = utcNow
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	l := log.With().Str("component", "escalation").Logger()
	return &EscalationService{
		complaints: complaints,
		hierarchy:  hierarchy,
		monitor:    monitor,
		audit:      newAuditor(events, l),
		notifier:   notifier,
		now:        clock,
		metrics:    m,
		log:        l,
	}
}

// Escalate raises a complaint to target, or to the next level when target is
// LevelNone. A nil actor means the system. When nobody occupies the target
// slot it returns nil, nil and leaves the complaint untouched.
//
// An explicit target equal to the current level re-escalates: the current
// occupant of that slot becomes the owner again and is notified, and the
// level stays put.
//
// Errors: ErrPermissionDenied when actor may not escalate, ErrValidation for a
// target outside 1..4, ErrConflict when the target is below the current level
// (or at the top level with no explicit target).
func (s *EscalationService) Escalate(
	ctx context.Context,
	complaintID int64,
	actor *models.User,
	reason string,
	target models.EscalationLevel,
) (*models.User, error) {
	if actor != nil && !models.CapabilitiesFor(actor.Role).CanEscalate {
		return nil, fmt.Errorf("%w: role %s cannot escalate complaints", models.ErrPermissionDenied, actor.Role)
	}
	return s.escalate(ctx, complaintID, actor, reason, target, models.TriggerManual)
}

func (s *EscalationService) escalate(
	ctx context.Context,
	complaintID int64,
	actor *models.User,
	reason string,
	target models.EscalationLevel,
	trigger models.EscalationTrigger,
) (*models.User, error) {
	if target != models.LevelNone && !target.Valid() {
		return nil, fmt.Errorf("%w: escalation level must be between %d and %d",
			models.ErrValidation, models.LevelDeptHead, models.MaxEscalationLevel)
	}

	var (
		escalatedTo *models.User
		fromLevel   models.EscalationLevel
		toLevel     models.EscalationLevel
	)
	now := s.now()

	c, err := s.complaints.Mutate(ctx, complaintID, func(c *models.Complaint) (bool, error) {
		fromLevel = c.EscalationLevel
		toLevel = target
		if toLevel == models.LevelNone {
			if c.EscalationLevel >= models.MaxEscalationLevel {
				return false, fmt.Errorf("%w: complaint is already at the highest escalation level", models.ErrConflict)
			}
			toLevel = c.EscalationLevel + 1
		} else if toLevel < c.EscalationLevel || (toLevel == c.EscalationLevel && trigger != models.TriggerManual) {
			return false, fmt.Errorf("%w: complaint is already at escalation level %d", models.ErrConflict, c.EscalationLevel)
		}

		u, err := s.hierarchy.ResolveTarget(ctx, c, toLevel)
		if err != nil {
			return false, err
		}
		if u == nil {
			return false, nil
		}

		escalatedTo = u
		c.Escalated = true
		c.EscalatedAt = models.NullTime(now)
		c.EscalatedToID = models.NullInt64(u.UserID)
		c.EscalationLevel = toLevel
		c.EscalationReason = models.NullString(reason)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if escalatedTo == nil {
		s.log.Info().
			Int64("complaint_id", complaintID).
			Int("level", int(toLevel)).
			Msg("no escalation target for level")
		return nil, nil
	}

	s.audit.record(ctx, c, models.EventEscalated, actor,
		strconv.Itoa(int(fromLevel)), strconv.Itoa(int(toLevel)),
		fmt.Sprintf("Escalated to level %d: %s", toLevel, reason))
	s.notifier.Notify(ctx, c, models.NotifyEscalated, map[string]string{
		"reason": reason,
		"level":  toLevel.String(),
	})
	s.metrics.Escalation(int(toLevel), string(trigger))

	s.log.Info().
		Int64("complaint_id", c.ComplaintID).
		Str("tracking_id", c.TrackingID).
		Int("from_level", int(fromLevel)).
		Int("to_level", int(toLevel)).
		Int64("escalated_to", escalatedTo.UserID).
		Str("trigger", string(trigger)).
		Msg("complaint escalated")
	return escalatedTo, nil
}

// AutoEscalateBreached sweeps for new breaches, then escalates every open
// breached complaint below dean level by one step. It returns how many were
// escalated.
func (s *EscalationService) AutoEscalateBreached(ctx context.Context) (int, error) {
	if _, err := s.monitor.Sweep(ctx); err != nil {
		return 0, err
	}
	return s.AutoEscalate(ctx)
}

// AutoEscalate raises each open breached complaint below dean level one step.
// It looks at stored breach flags rather than one sweep's result, so a
// complaint that stays breached keeps climbing on later sweeps until it
// reaches dean. A complaint raised concurrently is skipped.
func (s *EscalationService) AutoEscalate(ctx context.Context) (int, error) {
	candidates, err := s.complaints.ListBreachedBelowLevel(ctx, models.AutoEscalationCeiling)
	if err != nil {
		return 0, fmt.Errorf("failed to list breached complaints: %w", err)
	}

	escalated := 0
	for _, cand := range candidates {
		target, err := s.escalate(ctx, cand.ComplaintID, nil, models.AutoEscalationReason,
			cand.EscalationLevel+1, models.TriggerSLABreach)
		if err != nil {
			if errors.Is(err, models.ErrConflict) {
				s.log.Debug().Int64("complaint_id", cand.ComplaintID).Msg("already escalated concurrently")
			} else {
				s.log.Warn().Err(err).Int64("complaint_id", cand.ComplaintID).Msg("Skipping complaint")
			}
			continue
		}
		if target != nil {
			escalated++
		}
	}
	return escalated, nil
}
