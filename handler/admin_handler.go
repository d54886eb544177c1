package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"complaintdesk/service"
)

// AdminHandler serves operator endpoints guarded by the admin token
type AdminHandler struct {
	check     *service.SLACheck
	hierarchy *service.HierarchyService
	log       zerolog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(check *service.SLACheck, hierarchy *service.HierarchyService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{check: check, hierarchy: hierarchy, log: log}
}

// Sweep handles POST /api/v1/sla/sweep?notify=&escalate=
// Runs one SLA sweep synchronously and reports what it did.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	opts := service.CheckOptions{}
	var err error
	if opts.Notify, err = queryBool(r, "notify"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "notify must be a boolean")
		return
	}
	if opts.Escalate, err = queryBool(r, "escalate"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", "escalate must be a boolean")
		return
	}

	result, err := h.check.Run(r.Context(), opts)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// TriageUsers handles GET /api/v1/admin/triage-users
// Lists the staff who see unrouted complaints.
func (h *AdminHandler) TriageUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.hierarchy.TriageUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}

func queryBool(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
