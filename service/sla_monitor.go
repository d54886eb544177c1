package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"complaintdesk/metrics"
	"complaintdesk/models"
)

// SLAMonitor flags response and resolution breaches on open complaints.
type SLAMonitor struct {
	complaints ComplaintStore
	calculator *SLACalculator
	audit      *auditor
	now        Clock
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewSLAMonitor creates a new SLA monitor. A nil clock uses UTC wall time.
func NewSLAMonitor(
	complaints ComplaintStore,
	calculator *SLACalculator,
	events EventStore,
	clock Clock,
	m *metrics.Metrics,
	log zerolog.Logger,
) *SLAMonitor {
	if clock == nil {
		clock = utcNow
	}
	l := log.With().Str("component", "sla_monitor").Logger()
	return &SLAMonitor{
		complaints: complaints,
		calculator: calculator,
		audit:      newAuditor(events, l),
		now:        clock,
		metrics:    m,
		log:        l,
	}
}

// Sweep checks every open complaint and returns those newly flagged as
// breached by this call. Complaints already flagged are not returned again.
func (s *SLAMonitor) Sweep(ctx context.Context) ([]*models.Complaint, error) {
	_, breached, err := s.sweep(ctx)
	return breached, err
}

func (s *SLAMonitor) sweep(ctx context.Context) (int, []*models.Complaint, error) {
	started := time.Now()
	now := s.now()

	ids, err := s.complaints.ListOpenIDs(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list open complaints: %w", err)
	}

	var breached []*models.Complaint
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return len(ids), breached, err
		}
		c, flagged, err := s.check(ctx, id, now)
		if err != nil {
			s.log.Warn().Err(err).Int64("complaint_id", id).Msg("Skipping complaint")
			continue
		}
		if flagged {
			breached = append(breached, c)
		}
	}

	s.metrics.Sweep(started, len(ids))
	s.log.Info().Int("checked", len(ids)).Int("breached", len(breached)).Msg("SLA sweep finished")
	return len(ids), breached, nil
}

// check evaluates one complaint under its row lock. Events are written after
// the flags are committed and only for flags this call flipped.
func (s *SLAMonitor) check(ctx context.Context, id int64, now time.Time) (*models.Complaint, bool, error) {
	var responseFlipped, resolutionFlipped bool

	c, err := s.complaints.Mutate(ctx, id, func(c *models.Complaint) (bool, error) {
		if !c.Status.IsOpen() {
			return false, nil
		}
		changed := false
		if !c.SLAResponseHours.Valid || !c.SLAResolutionHours.Valid {
			res, err := s.calculator.Resolve(ctx, c)
			if err != nil {
				return false, err
			}
			changed = Stamp(c, res)
		}

		result := models.EvaluateBreach(models.BreachInputFor(c), now)
		if result.ResponseBreached && !c.SLAResponseBreached {
			c.SLAResponseBreached = true
			responseFlipped = true
		}
		if result.ResolutionBreached && !c.SLAResolutionBreached {
			c.SLAResolutionBreached = true
			resolutionFlipped = true
		}
		if responseFlipped || resolutionFlipped {
			c.SLABreachNotifiedAt = models.NullTime(now)
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		return nil, false, err
	}

	if responseFlipped {
		s.audit.record(ctx, c, models.EventSLABreached, nil, "", "response",
			fmt.Sprintf("Response SLA breached (%dh)", c.SLAResponseHours.Int64))
		s.metrics.SLABreach("response")
	}
	if resolutionFlipped {
		s.audit.record(ctx, c, models.EventSLABreached, nil, "", "resolution",
			fmt.Sprintf("Resolution SLA breached (%dh)", c.SLAResolutionHours.Int64))
		s.metrics.SLABreach("resolution")
	}
	flagged := responseFlipped || resolutionFlipped
	if flagged {
		s.log.Warn().
			Int64("complaint_id", c.ComplaintID).
			Str("tracking_id", c.TrackingID).
			Bool("response", responseFlipped).
			Bool("resolution", resolutionFlipped).
			Msg("SLA breached")
	}
	return c, flagged, nil
}

// Status reports due times and remaining hours for one complaint.
func (s *SLAMonitor) Status(ctx context.Context, complaintID int64) (models.SLAStatus, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return models.SLAStatus{}, err
	}
	return models.SLAStatusFor(c, s.now()), nil
}
