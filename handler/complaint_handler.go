package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"complaintdesk/middleware"
	"complaintdesk/models"
	"complaintdesk/service"
)

// ComplaintHandler handles HTTP requests for complaints
type ComplaintHandler struct {
	complaints *service.ComplaintService
	routing    *service.RoutingEngine
	sla        *service.SLACalculator
	monitor    *service.SLAMonitor
	log        zerolog.Logger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(
	complaints *service.ComplaintService,
	routing *service.RoutingEngine,
	sla *service.SLACalculator,
	monitor *service.SLAMonitor,
	log zerolog.Logger,
) *ComplaintHandler {
	return &ComplaintHandler{
		complaints: complaints,
		routing:    routing,
		sla:        sla,
		monitor:    monitor,
		log:        log,
	}
}

// CreateComplaint handles POST /api/v1/complaints
func (h *ComplaintHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	var req models.CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}

	resp, err := h.complaints.Submit(r.Context(), &req, middleware.UserFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, resp)
}

// GetComplaint handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	c, err := h.complaints.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// GetTimeline handles GET /api/v1/complaints/{id}/timeline
func (h *ComplaintHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	events, err := h.complaints.Timeline(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint_id": id,
		"events":       events,
	})
}

// GetSLAStatus handles GET /api/v1/complaints/{id}/sla
func (h *ComplaintHandler) GetSLAStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	status, err := h.monitor.Status(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// ApplySLA handles POST /api/v1/complaints/{id}/sla/apply
func (h *ComplaintHandler) ApplySLA(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	if !canManage(middleware.UserFromContext(r.Context())) {
		respondWithError(w, http.StatusForbidden, "Forbidden", "Only managers can re-apply SLA budgets")
		return
	}
	c, err := h.sla.Apply(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint_id":         c.ComplaintID,
		"sla_response_hours":   c.SLAResponseHours.Int64,
		"sla_resolution_hours": c.SLAResolutionHours.Int64,
	})
}

// SuggestRouting handles GET /api/v1/complaints/{id}/routing/suggestion
func (h *ComplaintHandler) SuggestRouting(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	c, err := h.complaints.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	suggestion, err := h.routing.Suggest(r.Context(), c)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, suggestion)
}

// RecordFirstResponse handles POST /api/v1/complaints/{id}/first-response
func (h *ComplaintHandler) RecordFirstResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	c, err := h.complaints.RecordFirstResponse(r.Context(), id, middleware.UserFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"complaint_id":      c.ComplaintID,
		"first_response_at": c.FirstResponseAt.Time,
	})
}

// ChangeStatus handles POST /api/v1/complaints/{id}/status
func (h *ComplaintHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	var req models.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	c, err := h.complaints.ChangeStatus(r.Context(), id, middleware.UserFromContext(r.Context()), req.Status, req.Note)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func canManage(u *models.User) bool {
	return u != nil && models.CapabilitiesFor(u.Role).CanAssign
}

// complaintID parses the {id} path variable, writing a 400 on failure.
func complaintID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Invalid complaint ID")
		return 0, false
	}
	return id, true
}

// respondWithServiceError maps core error classes to HTTP statuses.
func respondWithServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, models.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNoApprover):
		respondWithError(w, http.StatusBadRequest, "Validation error", err.Error())
	case errors.Is(err, models.ErrConflict):
		respondWithError(w, http.StatusConflict, "Conflict", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "Internal error", "Something went wrong")
	}
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	respondWithJSON(w, statusCode, models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	})
}
