package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"complaintdesk/middleware"
	"complaintdesk/models"
	"complaintdesk/service"
)

// ApprovalHandler handles the approval workflow endpoints
type ApprovalHandler struct {
	approval *service.ApprovalService
	log      zerolog.Logger
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approval *service.ApprovalService, log zerolog.Logger) *ApprovalHandler {
	return &ApprovalHandler{approval: approval, log: log}
}

// Pending handles GET /api/v1/approvals/pending
func (h *ApprovalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.approval.PendingApprovals(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(complaints),
		"complaints": complaints,
	})
}

// Request handles POST /api/v1/approvals/{id}/request
func (h *ApprovalHandler) Request(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	requester := middleware.UserFromContext(r.Context())
	if requester == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}
	approver, err := h.approval.RequestApproval(r.Context(), id, requester)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.RequestApprovalResponse{ComplaintID: id, Approver: approver})
}

// Approve handles POST /api/v1/approvals/{id}/approve
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	var req models.ApproveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
			return
		}
	}
	c, err := h.approval.Approve(r.Context(), id, middleware.UserFromContext(r.Context()), req.Notes)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// Reject handles POST /api/v1/approvals/{id}/reject
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(w, r)
	if !ok {
		return
	}
	var req models.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "Failed to parse request body")
		return
	}
	c, err := h.approval.Reject(r.Context(), id, middleware.UserFromContext(r.Context()), req.Reason)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}
