package models

// CreateComplaintRequest is the submission payload.
type CreateComplaintRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	CategoryID    *int64 `json:"category_id,omitempty"`
	SubCategoryID *int64 `json:"sub_category_id,omitempty"`
	CampusID      *int64 `json:"campus_id,omitempty"`
	DepartmentID  *int64 `json:"department_id,omitempty"`
	Location      string `json:"location"`
	Priority      string `json:"priority,omitempty"`
	Urgency       string `json:"urgency,omitempty"`
	Anonymous     bool   `json:"anonymous,omitempty"`
}

// CreateComplaintResponse is returned after a successful submission.
type CreateComplaintResponse struct {
	ComplaintID int64            `json:"complaint_id"`
	TrackingID  string           `json:"tracking_id"`
	Status      ComplaintStatus  `json:"status"`
	Priority    Priority         `json:"priority"`
	Routing     *RoutingDecision `json:"routing"`
	SLA         SLAResolution    `json:"sla"`
}

// ChangeStatusRequest moves a complaint through its lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// EscalateRequest asks for a manual escalation. Level 0 means "next level".
type EscalateRequest struct {
	Reason string `json:"reason"`
	Level  int    `json:"level,omitempty"`
}

// EscalateResponse reports the outcome of a manual escalation.
type EscalateResponse struct {
	Escalated bool            `json:"escalated"`
	Level     EscalationLevel `json:"level"`
	Target    *User           `json:"target,omitempty"`
	Message   string          `json:"message"`
}

// ApproveRequest carries optional approval notes.
type ApproveRequest struct {
	Notes string `json:"notes,omitempty"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// RequestApprovalResponse names the approver chosen for a complaint.
type RequestApprovalResponse struct {
	ComplaintID int64 `json:"complaint_id"`
	Approver    *User `json:"approver"`
}

// SweepResult is returned by manual and scheduled SLA checks.
type SweepResult struct {
	Checked   int     `json:"checked"`
	Breached  []int64 `json:"breached"`
	Escalated int     `json:"escalated"`
	Notified  int     `json:"notified"`
}

// ApprovalQueueFilter narrows the pending-approval queue. Nil fields are unrestricted;
// None returns an empty queue.
type ApprovalQueueFilter struct {
	None         bool
	DepartmentID *int64
	CollegeID    *int64
	CampusID     *int64
}
