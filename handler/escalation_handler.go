package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"complaintdesk/middleware"
	"complaintdesk/models"
	"complaintdesk/service"
)

// EscalationHandler handles manual escalation requests
type EscalationHandler struct {
	escalation *service.EscalationService
	complaints *service.ComplaintService
	log        zerolog.Logger
}

// NewEscalationHandler creates a new escalation handler
func NewEscalationHandler(
	escalation *service.EscalationService,
	complaints *service.ComplaintService,
	log zerolog.Logger,
) *EscalationHandler {
	return &EscalationHandler{
		escalation: escalation,
		complaints: complaints,
		log:        log,
	}
}

// Escalate handles POST /api/v1/complaints/{id}/escalate
// Level 0 (or omitted) raises the complaint one level. An empty body counts as
// an empty request.
func (h *EscalationHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	var req models.EscalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}

	target, err := h.escalation.Escalate(r.Context(), id, actor, req.Reason, models.EscalationLevel(req.Level))
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	c, err := h.complaints.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	resp := models.EscalateResponse{
		Escalated: target != nil,
		Level:     c.EscalationLevel,
		Target:    target,
		Message:   "Complaint escalated to " + c.EscalationLevel.String(),
	}
	if target == nil {
		resp.Message = "No one holds the target position; complaint left unchanged"
	}
	respondWithJSON(w, http.StatusOK, resp)
}
