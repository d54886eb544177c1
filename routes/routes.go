package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"complaintdesk/handler"
	"complaintdesk/middleware"
	"complaintdesk/service"
)

// Services bundles what the HTTP surface calls into.
type Services struct {
	Complaints *service.ComplaintService
	Routing    *service.RoutingEngine
	SLA        *service.SLACalculator
	Monitor    *service.SLAMonitor
	Escalation *service.EscalationService
	Approval   *service.ApprovalService
	Hierarchy  *service.HierarchyService
	Check      *service.SLACheck
}

// Auth holds the staff JWT secret and the operator token.
type Auth struct {
	JWTSecret  string
	AdminToken string
}

// SetupRoutes configures all API routes
func SetupRoutes(svc Services, auth Auth, gatherer prometheus.Gatherer, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))

	complaintHandler := handler.NewComplaintHandler(svc.Complaints, svc.Routing, svc.SLA, svc.Monitor, log)
	escalationHandler := handler.NewEscalationHandler(svc.Escalation, svc.Complaints, log)
	approvalHandler := handler.NewApprovalHandler(svc.Approval, log)
	adminHandler := handler.NewAdminHandler(svc.Check, svc.Hierarchy, log)
	publicHandler := handler.NewPublicHandler(svc.Complaints, log)

	authMiddleware := middleware.NewAuthMiddleware(svc.Hierarchy, auth.JWTSecret)
	requireAdmin := middleware.RequireAdminToken(auth.AdminToken)

	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	// Staff and student routes (require a JWT)
	complaints := apiV1.PathPrefix("/complaints").Subrouter()
	complaints.Use(authMiddleware.RequireAuth)
	complaints.HandleFunc("", complaintHandler.CreateComplaint).Methods("POST")
	complaints.HandleFunc("/{id}", complaintHandler.GetComplaint).Methods("GET")
	complaints.HandleFunc("/{id}/timeline", complaintHandler.GetTimeline).Methods("GET")
	complaints.HandleFunc("/{id}/sla", complaintHandler.GetSLAStatus).Methods("GET")
	complaints.HandleFunc("/{id}/sla/apply", complaintHandler.ApplySLA).Methods("POST")
	complaints.HandleFunc("/{id}/routing/suggestion", complaintHandler.SuggestRouting).Methods("GET")
	complaints.HandleFunc("/{id}/first-response", complaintHandler.RecordFirstResponse).Methods("POST")
	complaints.HandleFunc("/{id}/status", complaintHandler.ChangeStatus).Methods("POST")
	complaints.HandleFunc("/{id}/escalate", escalationHandler.Escalate).Methods("POST")

	approvals := apiV1.PathPrefix("/approvals").Subrouter()
	approvals.Use(authMiddleware.RequireAuth)
	approvals.HandleFunc("/pending", approvalHandler.Pending).Methods("GET")
	approvals.HandleFunc("/{id}/request", approvalHandler.Request).Methods("POST")
	approvals.HandleFunc("/{id}/approve", approvalHandler.Approve).Methods("POST")
	approvals.HandleFunc("/{id}/reject", approvalHandler.Reject).Methods("POST")

	// Operator routes (static admin token)
	apiV1.Handle("/sla/sweep", requireAdmin(http.HandlerFunc(adminHandler.Sweep))).Methods("POST")
	admin := apiV1.PathPrefix("/admin").Subrouter()
	admin.Use(requireAdmin)
	admin.HandleFunc("/triage-users", adminHandler.TriageUsers).Methods("GET")

	// Public tracking page; only whitelisted fields
	apiV1.HandleFunc("/public/complaints/{tracking_id}", publicHandler.TrackComplaint).Methods("GET")

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
