package service

import (
	"context"

	"github.com/rs/zerolog"

	"complaintdesk/models"
)

// auditor writes complaint events. Failures are logged and never returned:
// audit logging must not abort the mutation it describes.
type auditor struct {
	events EventStore
	log    zerolog.Logger
}

func newAuditor(events EventStore, log zerolog.Logger) *auditor {
	return &auditor{events: events, log: log}
}

func (a *auditor) record(
	ctx context.Context,
	c *models.Complaint,
	eventType models.EventType,
	actor *models.User,
	oldValue, newValue, notes string,
) {
	if a == nil || a.events == nil {
		return
	}
	e := &models.ComplaintEvent{
		ComplaintID: c.ComplaintID,
		EventType:   eventType,
		OldValue:    oldValue,
		NewValue:    newValue,
		Notes:       notes,
	}
	if actor != nil {
		e.ActorID = models.NullInt64(actor.UserID)
	}
	if err := a.events.Record(ctx, e); err != nil {
		a.log.Error().Err(err).
			Int64("complaint_id", c.ComplaintID).
			Str("event_type", string(eventType)).
			Msg("failed to record complaint event")
	}
}
