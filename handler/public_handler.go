package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"complaintdesk/models"
	"complaintdesk/service"
)

// PublicHandler serves read-only complaint tracking by tracking id. No auth;
// whitelisted fields only, so submitter identity and staff notes never leave.
type PublicHandler struct {
	complaints *service.ComplaintService
	log        zerolog.Logger
}

// NewPublicHandler creates a public handler
func NewPublicHandler(complaints *service.ComplaintService, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{complaints: complaints, log: log}
}

type publicTimelineEntry struct {
	At        string `json:"at"`
	EventType string `json:"event_type"`
	OldValue  string `json:"old_value,omitempty"`
	NewValue  string `json:"new_value,omitempty"`
}

type publicComplaint struct {
	TrackingID string                 `json:"tracking_id"`
	Title      string                 `json:"title"`
	Category   string                 `json:"category,omitempty"`
	Status     models.ComplaintStatus `json:"status"`
	Priority   models.Priority        `json:"priority"`
	CreatedAt  string                 `json:"created_at"`
	ResolvedAt string                 `json:"resolved_at,omitempty"`
	Timeline   []publicTimelineEntry  `json:"timeline"`
}

// publicEvents are the event types a submitter may see.
var publicEvents = map[models.EventType]bool{
	models.EventCreated:       true,
	models.EventStatusChanged: true,
	models.EventAssigned:      true,
	models.EventEscalated:     true,
	models.EventResolved:      true,
	models.EventRejected:      true,
	models.EventClosed:        true,
	models.EventReopened:      true,
}

// TrackComplaint handles GET /api/v1/public/complaints/{tracking_id}
func (h *PublicHandler) TrackComplaint(w http.ResponseWriter, r *http.Request) {
	trackingID := mux.Vars(r)["tracking_id"]
	if trackingID == "" {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "tracking_id required")
		return
	}

	c, err := h.complaints.GetByTrackingID(r.Context(), trackingID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	events, err := h.complaints.Timeline(r.Context(), c.ComplaintID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	out := publicComplaint{
		TrackingID: c.TrackingID,
		Title:      c.Title,
		Category:   c.CategoryName.String,
		Status:     c.Status,
		Priority:   c.Priority,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		Timeline:   make([]publicTimelineEntry, 0, len(events)),
	}
	if c.ResolvedAt.Valid {
		out.ResolvedAt = c.ResolvedAt.Time.Format(time.RFC3339)
	}
	for _, e := range events {
		if !publicEvents[e.EventType] {
			continue
		}
		entry := publicTimelineEntry{
			At:        e.CreatedAt.Format(time.RFC3339),
			EventType: string(e.EventType),
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
		}
		// Assignment values name staff accounts.
		if e.EventType == models.EventAssigned || e.EventType == models.EventEscalated {
			entry.OldValue, entry.NewValue = "", ""
		}
		out.Timeline = append(out.Timeline, entry)
	}
	respondWithJSON(w, http.StatusOK, out)
}
